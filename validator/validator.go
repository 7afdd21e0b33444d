// Package validator drives a compiled RELAX NG pattern against a
// token.Stream: the Validator is a pull machine (§4.5) that consumes
// one token at a time, folding it through the derive package's
// functions, and reports the first mismatch as a ValidationError.
//
// It follows xmltree.Element's approach to namespace tracking (a
// Scope pushed and popped per element) but keeps only a single
// pattern.ID for the whole document position, per derive's After-based
// representation — there is no separate stack of pattern states to
// maintain alongside the element stack.
package validator // import "github.com/adammathes/relaxng-go/validator"

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adammathes/relaxng-go/derive"
	"github.com/adammathes/relaxng-go/pattern"
	"github.com/adammathes/relaxng-go/token"
)

// Logger is implemented by callers that want trace-level derivative
// engine diagnostics; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Option configures a Validator at construction.
type Option func(*Validator)

// WithLogger attaches a Logger that receives one line for each D_open
// and each D_text applied, naming the derivative and the resulting pid.
func WithLogger(l Logger) Option {
	return func(v *Validator) { v.log = l }
}

// WithNamespace pre-declares a prefix-to-URI binding in scope for the
// entire document, as if it were an xmlns declaration on a virtual
// ancestor of the document element. This lets a caller validate
// documents that rely on prefixes bound outside the fragment actually
// being fed to the Validator (a common case for the "xml" file's
// callers: namespace prefixes fixed by convention rather than
// declared in every instance document). Repeated calls, or a
// declaration later overridden by an xmlns attribute in the document
// itself, resolve the same way an inner declaration shadows an outer
// one in scope.resolve.
func WithNamespace(prefix, uri string) Option {
	return func(v *Validator) {
		v.scope.bindings = append(v.scope.bindings, nsBinding{prefix: prefix, uri: uri})
	}
}

type frame struct {
	prefix, local string
	nsPushed      int
}

type pendingAttr struct {
	prefix, local, value string
	span                 token.Span
}

// A Validator drives one document's tokens against one compiled
// pattern.Pool. It adds every derivative it computes to that pool and
// must not be shared across documents — compile
// a schema once, then construct a fresh Validator (over the same pool
// or a freshly recompiled one) per document, per §5's resource model.
type Validator struct {
	pool   *pattern.Pool
	cur    pattern.ID
	stream token.Stream
	log    Logger

	scope        scope
	stack        []frame
	pendingAttrs []pendingAttr
	entities     *entityTable
	textBuf      strings.Builder

	lastStart bool
	done      bool
	err       *ValidationError
}

// New returns a Validator that will validate tokens pulled from
// stream against the pattern rooted at root in pool.
func New(pool *pattern.Pool, root pattern.ID, stream token.Stream, opts ...Option) *Validator {
	v := &Validator{
		pool:     pool,
		cur:      root,
		stream:   stream,
		entities: newEntityTable(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateNext pulls and processes one token, reporting whether there
// are more to process and any error encountered. Once it returns
// (false, err), further calls return (false, err) again without
// touching the stream: the first error is sticky, matching §7's
// "first error terminates the stream consumption" propagation rule.
//
// When it returns (false, nil), the stream is exhausted; the caller
// must then check Nullable to enforce end-of-stream nullability — the
// driver itself does not, per §4.5.
func (v *Validator) ValidateNext() (bool, error) {
	if v.done {
		if v.err != nil {
			return false, v.err
		}
		return false, nil
	}

	tok, err := v.stream.Next()
	if err != nil {
		v.done = true
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		v.err = &ValidationError{Code: CodeXMLParseError, Message: err.Error(), cause: err}
		return false, v.err
	}

	if err := v.process(tok); err != nil {
		v.done = true
		v.err = err
		return false, err
	}
	return true, nil
}

// Nullable reports whether the pattern at the validator's current
// position matches the empty sequence — the check a caller makes
// after ValidateNext returns (false, nil) to confirm the document, as
// a whole, was valid.
func (v *Validator) Nullable() bool { return v.pool.Nullable(v.cur) }

func (v *Validator) trace(format string, args ...interface{}) {
	if v.log != nil {
		v.log.Printf(format, args...)
	}
}

func (v *Validator) process(tok token.Token) *ValidationError {
	switch tok.Kind {
	case token.KindDeclaration, token.KindProcessingInstruction, token.KindComment,
		token.KindDtdStart, token.KindEmptyDtd, token.KindDtdEnd:
		return nil
	case token.KindEntityDeclaration:
		if tok.EntityExternal {
			return &ValidationError{
				Code:    CodeExternalEntity,
				Message: fmt.Sprintf("external entity %q is not supported", tok.EntityName),
				Span:    tok.Span,
			}
		}
		v.entities.declare(tok.EntityName, tok.EntityValue)
		return nil
	case token.KindElementStart:
		if err := v.flushText(tok.Span); err != nil {
			return err
		}
		v.stack = append(v.stack, frame{prefix: tok.Prefix, local: tok.Local})
		v.pendingAttrs = nil
		v.lastStart = false
		return nil
	case token.KindAttribute:
		return v.bufferAttribute(tok)
	case token.KindElementEnd:
		switch tok.End {
		case token.Open:
			return v.openElement(tok.Span)
		case token.Empty:
			// A self-closing tag performs the start-tag-close path
			// (D_open, D_att*, D_close) and the end-tag path (empty
			// text, D_end) at once.
			if err := v.openElement(tok.Span); err != nil {
				return err
			}
			return v.closeElement(tok)
		case token.Close:
			return v.closeElement(tok)
		}
		return nil
	case token.KindText, token.KindCdata:
		v.textBuf.WriteString(tok.Text)
		v.lastStart = false
		return nil
	}
	return nil
}

// bufferAttribute records a namespace declaration directly on the
// current frame's scope bookkeeping, or queues an ordinary attribute
// to be folded through D_att once the start tag closes (so every
// xmlns declaration on this tag is visible before any attribute value
// that might need it is resolved).
func (v *Validator) bufferAttribute(tok token.Token) *ValidationError {
	if len(v.stack) == 0 {
		return &ValidationError{Code: CodeXMLParseError, Message: "attribute outside any element", Span: tok.Span}
	}
	isDefaultNS := tok.Prefix == "" && tok.Local == "xmlns"
	isPrefixedNS := tok.Prefix == "xmlns"
	if isDefaultNS || isPrefixedNS {
		prefix := ""
		if isPrefixedNS {
			prefix = tok.Local
		}
		f := &v.stack[len(v.stack)-1]
		f.nsPushed += v.scope.push([]nsBinding{{prefix: prefix, uri: tok.Value}})
		return nil
	}
	v.pendingAttrs = append(v.pendingAttrs, pendingAttr{prefix: tok.Prefix, local: tok.Local, value: tok.Value, span: tok.Span})
	return nil
}

// openElement resolves the current frame's element name against the
// now-complete namespace scope, applies D_open, folds every buffered
// attribute through D_att (order doesn't affect the result — see
// §5 — so buffering order is whatever the tokenizer produced), then
// applies D_close.
func (v *Validator) openElement(span token.Span) *ValidationError {
	if len(v.stack) == 0 {
		return &ValidationError{Code: CodeXMLParseError, Message: "start-tag-close with no open element", Span: span}
	}
	f := v.stack[len(v.stack)-1]
	ns, ok := v.scope.resolve(f.prefix)
	if !ok {
		return &ValidationError{Code: CodeUndefinedPrefix, Message: fmt.Sprintf("undefined namespace prefix %q", f.prefix), Span: span}
	}

	before := v.cur
	v.cur = derive.D_open(v.pool, v.cur, ns, f.local)
	if v.cur == pattern.NotAllowed {
		return notAllowedError(v.pool, before, span, "element %s not allowed here", qnameString(f.prefix, f.local))
	}
	v.trace("D_open(%s, %s) -> %d", f.prefix+":"+f.local, ns, v.cur)

	for _, a := range v.pendingAttrs {
		ans, ok := v.scope.resolve(a.prefix)
		if !ok {
			return &ValidationError{Code: CodeUndefinedPrefix, Message: fmt.Sprintf("undefined namespace prefix %q", a.prefix), Span: a.span}
		}
		before = v.cur
		v.cur = derive.D_att(v.pool, v.cur, ans, a.local, a.value, &v.scope)
		if v.cur == pattern.NotAllowed {
			return notAllowedError(v.pool, before, a.span, "attribute %s not allowed here", qnameString(a.prefix, a.local))
		}
	}
	v.pendingAttrs = nil

	before = v.cur
	v.cur = derive.D_close(v.pool, v.cur)
	if v.cur == pattern.NotAllowed {
		return notAllowedError(v.pool, before, span, "required attribute missing")
	}
	v.lastStart = true
	return nil
}

func (v *Validator) closeElement(tok token.Token) *ValidationError {
	if len(v.stack) == 0 {
		return &ValidationError{Code: CodeXMLParseError, Message: "end tag with no open element", Span: tok.Span}
	}
	if err := v.flushText(tok.Span); err != nil {
		return err
	}

	if tok.End == token.Close {
		top := v.stack[len(v.stack)-1]
		if top.prefix != tok.ClosePrefix || top.local != tok.CloseLocal {
			return &ValidationError{
				Code:    CodeXMLParseError,
				Message: fmt.Sprintf("end tag %s does not match start tag %s", qnameString(tok.ClosePrefix, tok.CloseLocal), qnameString(top.prefix, top.local)),
				Span:    tok.Span,
			}
		}
	}

	before := v.cur
	v.cur = derive.D_end(v.pool, v.cur)
	if v.cur == pattern.NotAllowed {
		return notAllowedError(v.pool, before, tok.Span, "element closed with unsatisfied content")
	}

	top := v.stack[len(v.stack)-1]
	v.scope.pop(top.nsPushed)
	v.stack = v.stack[:len(v.stack)-1]
	v.lastStart = false
	return nil
}

// flushText applies D_text for whatever has accumulated in the text
// buffer since the last flush. An element with no children at all
// (lastStart still true) is treated as having seen one empty-string
// text node, satisfying patterns like `token` against "<e></e>".
func (v *Validator) flushText(span token.Span) *ValidationError {
	if v.textBuf.Len() == 0 && !v.lastStart {
		return nil
	}
	s := v.textBuf.String()
	v.textBuf.Reset()
	before := v.cur
	v.cur = derive.D_text(v.pool, v.cur, s, &v.scope)
	v.trace("D_text(%q) -> %d (was %d)", s, v.cur, before)
	v.lastStart = false
	if v.cur == pattern.NotAllowed {
		return notAllowedError(v.pool, before, span, "text %q not allowed here", s)
	}
	return nil
}

func qnameString(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
