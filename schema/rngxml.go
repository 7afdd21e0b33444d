package schema

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/xsd"
)

// relaxNGURI is the namespace every element of the RELAX NG XML syntax
// must belong to (schemas that omit a default xmlns on <grammar> or
// <element name="..."> etc. are not supported, matching the common
// case emitted by every schema in the example corpus).
const relaxNGURI = "http://relaxng.org/ns/structure/1.0"

const xsdDatatypeLibraryURI = "http://www.w3.org/2001/XMLSchema-datatypes"

// ParseError reports a malformed RELAX NG XML syntax document: an
// unrecognized element, a name class in pattern position, a datatype
// library this package doesn't implement, or a structurally invalid
// facet parameter.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "schema: " + e.Message }

// tnode is a minimal parsed-XML tree, read once via xml.Decoder.Token
// into memory; the RELAX NG XML syntax subset this package supports
// needs nothing more sophisticated than droyo's xmltree.Element, and
// carrying that dependency forward would mean resurrecting a package
// this module otherwise has no use for.
type tnode struct {
	ns, local string
	attrs     []xml.Attr
	children  []*tnode
	text      string
}

func (n *tnode) attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *tnode) elemChildren() []*tnode {
	out := make([]*tnode, 0, len(n.children))
	for _, c := range n.children {
		if c.ns == relaxNGURI {
			out = append(out, c)
		}
	}
	return out
}

// ParseXML reads one RELAX NG schema document in XML syntax and
// returns its abstract Grammar. Only a practical subset of the full
// RELAX NG XML syntax is implemented: <include>, <div>, <externalRef>,
// <parentRef>, and <grammar> nested inside another <grammar> are not
// supported (the restriction checker's own scope, §7, never needed
// them to exercise the pattern algebra). The xsd: datatype library is
// the only one recognized for <data>/<value>.
func ParseXML(r io.Reader) (*Grammar, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}

	p := &rngParser{defines: make(map[string]Pattern)}
	var start Pattern
	switch root.local {
	case "grammar":
		start, err = p.parseGrammar(root)
	default:
		start, err = p.parsePattern(root)
	}
	if err != nil {
		return nil, err
	}
	return &Grammar{Start: start, Defines: p.defines}, nil
}

func parseTree(r io.Reader) (*tnode, error) {
	dec := xml.NewDecoder(r)
	var stack []*tnode
	var root *tnode
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &tnode{ns: t.Name.Space, local: t.Name.Local, attrs: t.Attr}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.children = append(top.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = n
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if root == nil {
		return nil, &ParseError{Message: "empty document"}
	}
	return root, nil
}

type rngParser struct {
	defines map[string]Pattern
}

// parseGrammar handles the top-level <grammar> wrapper: a sequence of
// <start> and <define> elements, each of whose content is itself one
// pattern (implicitly grouped if there is more than one child, per the
// RELAX NG XML syntax's "patterns" production).
func (p *rngParser) parseGrammar(n *tnode) (Pattern, error) {
	var start Pattern
	for _, c := range n.elemChildren() {
		switch c.local {
		case "start":
			pat, err := p.parsePatternGroup(c.elemChildren())
			if err != nil {
				return nil, err
			}
			start = combineChoice(start, pat)
		case "define":
			name, ok := c.attr("name")
			if !ok {
				return nil, &ParseError{Message: "<define> missing name attribute"}
			}
			pat, err := p.parsePatternGroup(c.elemChildren())
			if err != nil {
				return nil, err
			}
			if existing, ok := p.defines[name]; ok {
				pat = Choice{A: existing, B: pat}
			}
			p.defines[name] = pat
		default:
			return nil, &ParseError{Message: fmt.Sprintf("unexpected <%s> inside <grammar>", c.local)}
		}
	}
	if start == nil {
		return nil, &ParseError{Message: "<grammar> has no <start>"}
	}
	return start, nil
}

func combineChoice(a, b Pattern) Pattern {
	if a == nil {
		return b
	}
	return Choice{A: a, B: b}
}

// parsePatternGroup folds a sequence of sibling elements (the content
// of <start>, <define>, <element>, <group>, ...) into one Pattern,
// implicitly grouping more than one child in document order, per the
// XML syntax's rule that a sequence of patterns denotes their Group.
func (p *rngParser) parsePatternGroup(kids []*tnode) (Pattern, error) {
	if len(kids) == 0 {
		return nil, &ParseError{Message: "pattern has no content"}
	}
	pat, err := p.parsePattern(kids[0])
	if err != nil {
		return nil, err
	}
	for _, k := range kids[1:] {
		next, err := p.parsePattern(k)
		if err != nil {
			return nil, err
		}
		pat = Group{A: pat, B: next}
	}
	return pat, nil
}

func (p *rngParser) parsePattern(n *tnode) (Pattern, error) {
	switch n.local {
	case "empty":
		return Empty{}, nil
	case "notAllowed":
		return NotAllowed{}, nil
	case "text":
		return Text{}, nil
	case "element":
		return p.parseElementOrAttribute(n, true)
	case "attribute":
		return p.parseElementOrAttribute(n, false)
	case "group":
		return p.parsePatternGroup(n.elemChildren())
	case "interleave":
		return p.parseNaryInfix(n, func(a, b Pattern) Pattern { return Interleave{A: a, B: b} })
	case "choice":
		return p.parseNaryInfix(n, func(a, b Pattern) Pattern { return Choice{A: a, B: b} })
	case "optional":
		content, err := p.parsePatternGroup(n.elemChildren())
		if err != nil {
			return nil, err
		}
		return Choice{A: Empty{}, B: content}, nil
	case "zeroOrMore":
		content, err := p.parsePatternGroup(n.elemChildren())
		if err != nil {
			return nil, err
		}
		return Choice{A: Empty{}, B: OneOrMore{A: content}}, nil
	case "oneOrMore":
		content, err := p.parsePatternGroup(n.elemChildren())
		if err != nil {
			return nil, err
		}
		return OneOrMore{A: content}, nil
	case "mixed":
		content, err := p.parsePatternGroup(n.elemChildren())
		if err != nil {
			return nil, err
		}
		return Interleave{A: Text{}, B: content}, nil
	case "list":
		content, err := p.parsePatternGroup(n.elemChildren())
		if err != nil {
			return nil, err
		}
		return List{Content: content}, nil
	case "ref":
		name, ok := n.attr("name")
		if !ok {
			return nil, &ParseError{Message: "<ref> missing name attribute"}
		}
		return Ref{Name: name}, nil
	case "data":
		return p.parseData(n)
	case "value":
		return p.parseValue(n)
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unsupported pattern element <%s>", n.local)}
	}
}

// parseNaryInfix folds a <choice>/<interleave> with more than two
// children left-associatively; the XML syntax permits any number of
// children for these, not just two.
func (p *rngParser) parseNaryInfix(n *tnode, combine func(a, b Pattern) Pattern) (Pattern, error) {
	kids := n.elemChildren()
	if len(kids) < 2 {
		return nil, &ParseError{Message: fmt.Sprintf("<%s> needs at least two children", n.local)}
	}
	pat, err := p.parsePattern(kids[0])
	if err != nil {
		return nil, err
	}
	for _, k := range kids[1:] {
		next, err := p.parsePattern(k)
		if err != nil {
			return nil, err
		}
		pat = combine(pat, next)
	}
	return pat, nil
}

// parseElementOrAttribute handles both <element> and <attribute>: the
// name class comes either from a name attribute, or from a leading
// <name>/<anyName>/<nsName>/<choice> child, after which the remaining
// children form the content pattern.
func (p *rngParser) parseElementOrAttribute(n *tnode, isElement bool) (Pattern, error) {
	kids := n.elemChildren()
	var nc nameclass.Class
	var err error
	contentStart := 0

	if nameAttr, ok := n.attr("name"); ok {
		nc = nameclass.Named{Local: nameAttr}
	} else {
		if len(kids) == 0 {
			return nil, &ParseError{Message: fmt.Sprintf("<%s> has no name class", n.local)}
		}
		nc, err = p.parseNameClass(kids[0])
		if err != nil {
			return nil, err
		}
		contentStart = 1
	}

	content, err := p.parsePatternGroup(kids[contentStart:])
	if err != nil {
		return nil, err
	}
	if isElement {
		return Element{NC: nc, Content: content}, nil
	}
	return Attribute{NC: nc, Content: content}, nil
}

func (p *rngParser) parseNameClass(n *tnode) (nameclass.Class, error) {
	switch n.local {
	case "name":
		return nameclass.Named{Local: strings.TrimSpace(n.text)}, nil
	case "anyName":
		kids := n.elemChildren()
		if len(kids) == 0 {
			return nameclass.AnyName{}, nil
		}
		except, err := p.parseExceptNameClass(kids[0])
		if err != nil {
			return nil, err
		}
		return nameclass.AnyName{Except: except}, nil
	case "nsName":
		ns, _ := n.attr("ns")
		kids := n.elemChildren()
		if len(kids) == 0 {
			return nameclass.NsName{NS: ns}, nil
		}
		except, err := p.parseExceptNameClass(kids[0])
		if err != nil {
			return nil, err
		}
		return nameclass.NsName{NS: ns, Except: except}, nil
	case "choice":
		kids := n.elemChildren()
		if len(kids) < 2 {
			return nil, &ParseError{Message: "<choice> name class needs at least two children"}
		}
		nc, err := p.parseNameClass(kids[0])
		if err != nil {
			return nil, err
		}
		for _, k := range kids[1:] {
			next, err := p.parseNameClass(k)
			if err != nil {
				return nil, err
			}
			nc = nameclass.Alt{A: nc, B: next}
		}
		return nc, nil
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unexpected <%s> in name class position", n.local)}
	}
}

func (p *rngParser) parseExceptNameClass(n *tnode) (nameclass.Class, error) {
	if n.local != "except" {
		return nil, &ParseError{Message: fmt.Sprintf("expected <except>, got <%s>", n.local)}
	}
	kids := n.elemChildren()
	if len(kids) < 1 {
		return nil, &ParseError{Message: "<except> has no content"}
	}
	nc, err := p.parseNameClass(kids[0])
	if err != nil {
		return nil, err
	}
	for _, k := range kids[1:] {
		next, err := p.parseNameClass(k)
		if err != nil {
			return nil, err
		}
		nc = nameclass.Alt{A: nc, B: next}
	}
	return nc, nil
}

func (p *rngParser) parseData(n *tnode) (Pattern, error) {
	if lib, ok := n.attr("datatypeLibrary"); ok && lib != "" && lib != xsdDatatypeLibraryURI {
		return nil, &ParseError{Message: fmt.Sprintf("unsupported datatypeLibrary %q", lib)}
	}
	typeName, ok := n.attr("type")
	if !ok {
		return nil, &ParseError{Message: "<data> missing type attribute"}
	}
	tag, ok := xsd.ParseTag(typeName)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("unknown xsd datatype %q", typeName)}
	}

	var opts []xsd.Option
	var except Pattern
	for _, c := range n.elemChildren() {
		switch c.local {
		case "param":
			opt, err := facetOption(c)
			if err != nil {
				return nil, err
			}
			opts = append(opts, opt)
		case "except":
			kids := c.elemChildren()
			if len(kids) == 0 {
				return nil, &ParseError{Message: "<data>/<except> has no content"}
			}
			ex, err := p.parsePatternGroup(kids)
			if err != nil {
				return nil, err
			}
			except = ex
		default:
			return nil, &ParseError{Message: fmt.Sprintf("unexpected <%s> inside <data>", c.local)}
		}
	}

	typ, err := xsd.Compile(tag, opts...)
	if err != nil {
		return nil, err
	}
	if except != nil {
		return DataExcept{Base: typ, Except: except}, nil
	}
	return Data{Type: typ}, nil
}

func (p *rngParser) parseValue(n *tnode) (Pattern, error) {
	typeName, ok := n.attr("type")
	if !ok {
		typeName = "token"
	}
	tag, ok := xsd.ParseTag(typeName)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("unknown xsd datatype %q", typeName)}
	}
	typ, err := xsd.Compile(tag)
	if err != nil {
		return nil, err
	}
	return Value{Type: typ, Lexical: n.text, NS: valueScope{n}}, nil
}

// valueScope implements xsd.Namespaces over the <value> element's own
// attribute list, so a QName literal like "p:foo" in the schema text
// resolves against the xmlns declarations written on that <value>
// element itself. Declarations on its ancestor elements are not
// consulted; an unprefixed name with no xmlns attribute on the
// <value> resolves to no namespace.
type valueScope struct{ n *tnode }

func (s valueScope) ResolvePrefix(prefix string) (string, bool) {
	want := "xmlns"
	if prefix != "" {
		want = "xmlns:" + prefix
	}
	for _, a := range s.n.attrs {
		full := a.Name.Local
		if a.Name.Space == "xmlns" {
			full = "xmlns:" + a.Name.Local
		}
		if full == want {
			return a.Value, true
		}
	}
	if prefix == "" {
		return "", true
	}
	return "", false
}

// facetOption maps a <param name="..."> element to the corresponding
// xsd.Option. Enumeration (param name "enumeration") has no direct
// xsd.Option equivalent in this library's facet set and is rejected
// rather than silently ignored.
func facetOption(n *tnode) (xsd.Option, error) {
	name, _ := n.attr("name")
	lexical := n.text
	switch name {
	case "minInclusive":
		return xsd.MinInclusive(lexical), nil
	case "maxInclusive":
		return xsd.MaxInclusive(lexical), nil
	case "minExclusive":
		return xsd.MinExclusive(lexical), nil
	case "maxExclusive":
		return xsd.MaxExclusive(lexical), nil
	case "length":
		n, err := parseFacetInt(lexical)
		if err != nil {
			return nil, err
		}
		return xsd.Length(n), nil
	case "minLength":
		n, err := parseFacetInt(lexical)
		if err != nil {
			return nil, err
		}
		return xsd.MinLength(n), nil
	case "maxLength":
		n, err := parseFacetInt(lexical)
		if err != nil {
			return nil, err
		}
		return xsd.MaxLength(n), nil
	case "pattern":
		return xsd.Pattern(lexical), nil
	case "totalDigits":
		n, err := parseFacetInt(lexical)
		if err != nil {
			return nil, err
		}
		return xsd.TotalDigits(n), nil
	case "fractionDigits":
		n, err := parseFacetInt(lexical)
		if err != nil {
			return nil, err
		}
		return xsd.FractionDigits(n), nil
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unsupported facet %q", name)}
	}
}

func parseFacetInt(lexical string) (int, error) {
	var n int
	_, err := fmt.Sscanf(strings.TrimSpace(lexical), "%d", &n)
	if err != nil {
		return 0, &ParseError{Message: fmt.Sprintf("invalid facet integer %q", lexical)}
	}
	return n, nil
}
