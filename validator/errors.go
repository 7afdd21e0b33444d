package validator

import (
	"fmt"
	"strings"

	"github.com/adammathes/relaxng-go/derive"
	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/pattern"
	"github.com/adammathes/relaxng-go/token"
)

// Code identifies a ValidationError's kind in the taxonomy's own
// vocabulary (not the XSD cvc-* codes), so a caller can switch on it
// without string-matching Error().
type Code string

const (
	// CodeXMLParseError wraps an error the token.Stream itself raised
	// (malformed XML syntax); the validator passes it through rather
	// than reinterpreting it.
	CodeXMLParseError Code = "rng-xml-parse-error"
	// CodeNotAllowed reports a token with no matching alternative at
	// the current pattern; Expected lists every element name,
	// attribute name, or "a text value" the pattern would have
	// accepted, and Error renders the first four of them.
	CodeNotAllowed Code = "rng-not-allowed"
	// CodeUndefinedPrefix reports an element, attribute, or QName
	// value using a namespace prefix with no in-scope declaration.
	CodeUndefinedPrefix Code = "rng-undefined-prefix"
	// CodeUndefinedEntity names a reference to an entity that was
	// never declared and isn't one of the five XML built-ins. The
	// Validator does not raise it: such a reference is reported by the
	// token.Stream (xmltoken passes on the decoder's error), and so
	// arrives as CodeXMLParseError.
	CodeUndefinedEntity Code = "rng-undefined-entity"
	// CodeExternalEntity reports an <!ENTITY ...> declaration with a
	// SYSTEM or PUBLIC identifier; external entities are rejected
	// outright rather than deferred to the point of reference.
	CodeExternalEntity Code = "rng-external-entity"
)

// A ValidationError is the single error ValidateNext can return. Span
// anchors it to the token that raised it; Expected is populated only
// for CodeNotAllowed. ExpectedMore is added to the rendered "N more"
// count; this package never sets it, since Expected is already
// complete.
type ValidationError struct {
	Code         Code
	Message      string
	Span         token.Span
	Expected     []string
	ExpectedMore int
	cause        error
}

func (e *ValidationError) Error() string {
	if e.Code == CodeNotAllowed && len(e.Expected) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, renderExpected(e.Expected, e.ExpectedMore))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// renderExpected formats up to four expected names with a "… or one
// of N more" tail, per §6's diagnostic contract.
func renderExpected(names []string, more int) string {
	shown := names
	if len(shown) > 4 {
		more += len(shown) - 4
		shown = shown[:4]
	}
	s := "expected " + strings.Join(shown, ", ")
	if more > 0 {
		s += fmt.Sprintf(", or one of %d more", more)
	}
	return s
}

// notAllowedError builds a CodeNotAllowed ValidationError from the
// pattern the offending token failed against, rendering its heads as
// the "expected" list.
func notAllowedError(p *pattern.Pool, cur pattern.ID, span token.Span, format string, args ...interface{}) *ValidationError {
	heads := derive.Heads(p, cur)
	names := make([]string, 0, len(heads))
	for _, h := range heads {
		n := p.Get(h)
		switch n.Kind {
		case pattern.KindElement, pattern.KindAttribute:
			names = append(names, describeNameClass(p.NameClass(n.Aux)))
		case pattern.KindDatatype, pattern.KindDatatypeValue, pattern.KindDatatypeExcept:
			names = append(names, "a text value")
		}
	}
	return &ValidationError{
		Code:     CodeNotAllowed,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
		Expected: names,
	}
}

func describeNameClass(nc nameclass.Class) string {
	switch nc := nc.(type) {
	case nameclass.Named:
		if nc.NS == "" {
			return nc.Local
		}
		return fmt.Sprintf("{%s}%s", nc.NS, nc.Local)
	case nameclass.NsName:
		return fmt.Sprintf("{%s}*", nc.NS)
	case nameclass.AnyName:
		return "*"
	case nameclass.Alt:
		return describeNameClass(nc.A) + " or " + describeNameClass(nc.B)
	default:
		return "?"
	}
}
