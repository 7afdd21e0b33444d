// Package xmltoken adapts encoding/xml.Decoder to the token.Stream
// interface, the same way droyo's xmltree.Parse wraps a scanner around
// *xml.Decoder (xmltree.go's scanner type) to build its Element tree:
// here the scanner's output is a flat Token sequence instead of a
// tree.
//
// encoding/xml.Decoder.RawToken, unlike Token, does not translate
// namespace prefixes to URIs and does not verify that start and end
// tags match — both exactly what a RELAX NG validator needs, since it
// maintains its own namespace scope (see the validator package) and
// wants to report its own "wrong end tag" error rather than the
// decoder's.
package xmltoken // import "github.com/adammathes/relaxng-go/xmltoken"

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/adammathes/relaxng-go/token"
)

// New returns a token.Stream reading from r.
//
// encoding/xml normalizes "<a/>" and "<a></a>" to the same
// StartElement/EndElement pair; there is no way to recover which form
// appeared in the source via the standard library. Since both forms
// are validation-equivalent (an element with no intervening text is
// treated as if it held a single empty-string text node either way),
// this Stream always emits token.Open followed by a later
// token.Close rather than token.Empty — see the validator package's
// ElementEnd handling, which gives both paths identical behavior.
func New(r io.Reader) token.Stream {
	d := xml.NewDecoder(r)
	d.Entity = make(map[string]string, len(predefinedEntities))
	for k, v := range predefinedEntities {
		d.Entity[k] = v
	}
	return &stream{dec: d}
}

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

type stream struct {
	dec     *xml.Decoder
	pending []token.Token
	err     error
}

func (s *stream) Next() (token.Token, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return token.Token{}, s.err
		}
		if err := s.fill(); err != nil {
			s.err = err
			if len(s.pending) == 0 {
				return token.Token{}, err
			}
			break
		}
	}
	tok := s.pending[0]
	s.pending = s.pending[1:]
	return tok, nil
}

// fill reads one raw XML token and queues zero or more token.Tokens
// from it (a start tag queues an ElementStart followed by one
// Attribute per attribute).
func (s *stream) fill() error {
	start := s.dec.InputOffset()
	raw, err := s.dec.RawToken()
	if err != nil {
		return err
	}
	end := s.dec.InputOffset()
	span := token.Span{Start: start, End: end}

	switch t := raw.(type) {
	case xml.StartElement:
		s.pending = append(s.pending, token.Token{
			Kind:   token.KindElementStart,
			Prefix: t.Name.Space,
			Local:  t.Name.Local,
			Span:   span,
		})
		for _, a := range t.Attr {
			// encoding/xml reports a bare "xmlns" default-namespace
			// attribute with an empty Name.Space; preserve that so
			// the validator can recognize it the same way it
			// recognizes "xmlns:prefix".
			s.pending = append(s.pending, token.Token{
				Kind:   token.KindAttribute,
				Prefix: a.Name.Space,
				Local:  a.Name.Local,
				Value:  a.Value,
				Span:   span,
			})
		}
		s.pending = append(s.pending, token.Token{
			Kind: token.KindElementEnd,
			End:  token.Open,
			Span: span,
		})
	case xml.EndElement:
		s.pending = append(s.pending, token.Token{
			Kind:        token.KindElementEnd,
			End:         token.Close,
			ClosePrefix: t.Name.Space,
			CloseLocal:  t.Name.Local,
			Span:        span,
		})
	case xml.CharData:
		s.pending = append(s.pending, token.Token{
			Kind: token.KindText,
			Text: string(t),
			Span: span,
		})
	case xml.Comment:
		s.pending = append(s.pending, token.Token{Kind: token.KindComment, Span: span})
	case xml.ProcInst:
		kind := token.KindProcessingInstruction
		if t.Target == "xml" {
			kind = token.KindDeclaration
		}
		s.pending = append(s.pending, token.Token{Kind: kind, Span: span})
	case xml.Directive:
		decls := directiveTokens(string(t), span)
		s.pending = append(s.pending, decls...)
		// Internal entities must be registered with the decoder
		// before any later CharData references them; DOCTYPE always
		// precedes the document element, so this runs in time.
		for _, d := range decls {
			if d.Kind == token.KindEntityDeclaration && !d.EntityExternal {
				s.dec.Entity[d.EntityName] = d.EntityValue
			}
		}
	default:
		return fmt.Errorf("xmltoken: unexpected raw token type %T", raw)
	}
	return nil
}

var entityDeclRE = regexp.MustCompile(
	`<!ENTITY\s+(\S+)\s+(?:"([^"]*)"|'([^']*)'|(SYSTEM|PUBLIC)\s+(?:"[^"]*"|'[^']*')(?:\s+(?:"[^"]*"|'[^']*'))?)\s*>`)

// directiveTokens turns the raw contents of a <!DOCTYPE ...> directive
// into the DtdStart/EmptyDtd, EntityDeclaration, DtdEnd token triple
// §6 describes. It is a best-effort scan of the internal subset, not a
// full DTD parser: only <!ENTITY ...> declarations are recognized,
// since those are the only DTD construct the validator's entity table
// cares about.
func directiveTokens(raw string, span token.Span) []token.Token {
	if !strings.HasPrefix(raw, "DOCTYPE") {
		return nil
	}
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return []token.Token{{Kind: token.KindEmptyDtd, Span: span}}
	}
	close := strings.LastIndexByte(raw, ']')
	if close < 0 || close < open {
		return []token.Token{{Kind: token.KindEmptyDtd, Span: span}}
	}
	internal := raw[open+1 : close]

	out := []token.Token{{Kind: token.KindDtdStart, Span: span}}
	for _, m := range entityDeclRE.FindAllStringSubmatch(internal, -1) {
		name := m[1]
		if m[4] != "" {
			out = append(out, token.Token{
				Kind:           token.KindEntityDeclaration,
				EntityName:     name,
				EntityExternal: true,
				Span:           span,
			})
			continue
		}
		value := m[2]
		if m[3] != "" {
			value = m[3]
		}
		out = append(out, token.Token{
			Kind:        token.KindEntityDeclaration,
			EntityName:  name,
			EntityValue: value,
			Span:        span,
		})
	}
	out = append(out, token.Token{Kind: token.KindDtdEnd, Span: span})
	return out
}
