// Package schema defines the abstract pattern tree a schema compiler
// hands to the validator, and Compile, which resolves that tree into a
// pattern.Pool entry point.
//
// The tree mirrors the RELAX NG pattern variants directly (Element,
// Attribute, Group, Choice, Interleave, OneOrMore, Text, Empty,
// NotAllowed, Data, Value, List) plus one indirection node, Ref, so
// that grammars with forward or cyclic named definitions
// (<define name="x">...<ref name="y"/>...</define>) can be built
// without Go-level pointer cycles: a Ref is resolved against a
// Grammar's Defines map by name, the same way droyo's xsdgen resolves
// a linkedType against its builder's type table in a second pass.
package schema // import "github.com/adammathes/relaxng-go/schema"

import (
	"fmt"

	"github.com/adammathes/relaxng-go/internal/dependency"
	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/pattern"
	"github.com/adammathes/relaxng-go/xsd"
)

// A Pattern is one node of the abstract pattern tree.
type Pattern interface {
	isPattern()
}

type (
	// Empty matches the empty sequence of events.
	Empty struct{}
	// NotAllowed matches nothing.
	NotAllowed struct{}
	// Text matches any run of character data, including none.
	Text struct{}

	// Element matches a single element whose name is in NC and whose
	// children match Content.
	Element struct {
		NC      nameclass.Class
		Content Pattern
	}
	// Attribute matches a single attribute whose name is in NC and
	// whose value matches Content.
	Attribute struct {
		NC      nameclass.Class
		Content Pattern
	}
	// Group matches A followed by B.
	Group struct{ A, B Pattern }
	// Choice matches anything A or B matches.
	Choice struct{ A, B Pattern }
	// Interleave matches any interleaving of A's and B's children.
	Interleave struct{ A, B Pattern }
	// OneOrMore matches one or more repetitions of A.
	OneOrMore struct{ A Pattern }
	// List matches a single text value whose whitespace-separated
	// tokens match Content.
	List struct{ Content Pattern }

	// Data matches any lexical value Type accepts.
	Data struct{ Type *xsd.Type }
	// Value matches exactly the parsed value of Lexical under Type,
	// resolving QName values against NS (NS is only consulted when
	// Type is QName).
	Value struct {
		Type    *xsd.Type
		Lexical string
		NS      xsd.Namespaces
	}
	// DataExcept matches any value Base accepts except those Except
	// matches.
	DataExcept struct {
		Base   *xsd.Type
		Except Pattern
	}

	// Ref is an indirection to a named definition, resolved against
	// the enclosing Grammar's Defines during Compile. Refs may form
	// cycles, provided every cycle passes through at least one
	// Element (RELAX NG's restriction checker, package restrict,
	// rejects grammars that don't).
	Ref struct{ Name string }
)

func (Empty) isPattern()      {}
func (NotAllowed) isPattern() {}
func (Text) isPattern()       {}
func (Element) isPattern()    {}
func (Attribute) isPattern()  {}
func (Group) isPattern()      {}
func (Choice) isPattern()     {}
func (Interleave) isPattern() {}
func (OneOrMore) isPattern()  {}
func (List) isPattern()       {}
func (Data) isPattern()       {}
func (Value) isPattern()      {}
func (DataExcept) isPattern() {}
func (Ref) isPattern()        {}

// A Grammar is a schema's top-level shape: a Start pattern plus the
// named definitions it (transitively) refers to via Ref.
type Grammar struct {
	Start   Pattern
	Defines map[string]Pattern
}

// CompileError reports a schema tree that Compile could not resolve:
// a Ref with no matching Define.
type CompileError struct {
	Name string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("schema: undefined reference %q", e.Name)
}

// Compile resolves g into pool, returning the pattern.ID for g.Start.
// Defines are compiled in dependency order (leaves first) using
// internal/dependency.Graph, so that by the time a Group, Choice, or
// other combinator wraps a Ref to another define, that define's
// pattern.ID is already known rather than a still-unresolved
// Placeholder — the Placeholder path only remains live across an
// Element boundary, for genuinely cyclic grammars.
func Compile(pool *pattern.Pool, g *Grammar) (pattern.ID, error) {
	c := &compiler{pool: pool, grammar: g, resolved: make(map[string]pattern.ID)}

	graph := &dependency.Graph{}
	for name, body := range g.Defines {
		refs := collectRefs(body, nil)
		if len(refs) == 0 {
			graph.Add(name, name)
		}
		for _, r := range refs {
			graph.Add(name, r)
		}
	}

	var compileErr error
	graph.Flatten(func(name string) {
		if compileErr != nil {
			return
		}
		if _, done := c.resolved[name]; done {
			return
		}
		body, ok := g.Defines[name]
		if !ok {
			return // referenced only as a dependency-graph leaf placeholder
		}
		id, err := c.compile(body)
		if err != nil {
			compileErr = err
			return
		}
		c.resolved[name] = id
		pool.ResolvePlaceholder(name, id)
	})
	if compileErr != nil {
		return 0, compileErr
	}

	return c.compile(g.Start)
}

// collectRefs returns the names directly referenced by p, not
// descending into Element content (an Element boundary breaks the
// dependency-ordering requirement: a define reachable only through an
// element doesn't need to be compiled before its referrer).
func collectRefs(p Pattern, out []string) []string {
	switch p := p.(type) {
	case Ref:
		return append(out, p.Name)
	case Group:
		out = collectRefs(p.A, out)
		return collectRefs(p.B, out)
	case Choice:
		out = collectRefs(p.A, out)
		return collectRefs(p.B, out)
	case Interleave:
		out = collectRefs(p.A, out)
		return collectRefs(p.B, out)
	case OneOrMore:
		return collectRefs(p.A, out)
	case Attribute:
		return collectRefs(p.Content, out)
	case List:
		return collectRefs(p.Content, out)
	case DataExcept:
		return collectRefs(p.Except, out)
	default:
		return out
	}
}

type compiler struct {
	pool     *pattern.Pool
	grammar  *Grammar
	resolved map[string]pattern.ID
}

func (c *compiler) compile(p Pattern) (pattern.ID, error) {
	switch p := p.(type) {
	case Empty:
		return pattern.Empty, nil
	case NotAllowed:
		return pattern.NotAllowed, nil
	case Text:
		return pattern.Text, nil
	case Element:
		content, err := c.compile(p.Content)
		if err != nil {
			return 0, err
		}
		return c.pool.Element(p.NC, content), nil
	case Attribute:
		content, err := c.compile(p.Content)
		if err != nil {
			return 0, err
		}
		return c.pool.Attribute(p.NC, content), nil
	case Group:
		a, err := c.compile(p.A)
		if err != nil {
			return 0, err
		}
		b, err := c.compile(p.B)
		if err != nil {
			return 0, err
		}
		return c.pool.Group(a, b), nil
	case Choice:
		a, err := c.compile(p.A)
		if err != nil {
			return 0, err
		}
		b, err := c.compile(p.B)
		if err != nil {
			return 0, err
		}
		return c.pool.Choice(a, b), nil
	case Interleave:
		a, err := c.compile(p.A)
		if err != nil {
			return 0, err
		}
		b, err := c.compile(p.B)
		if err != nil {
			return 0, err
		}
		return c.pool.Interleave(a, b), nil
	case OneOrMore:
		a, err := c.compile(p.A)
		if err != nil {
			return 0, err
		}
		return c.pool.OneOrMore(a), nil
	case List:
		content, err := c.compile(p.Content)
		if err != nil {
			return 0, err
		}
		return c.pool.List(content), nil
	case Data:
		return c.pool.Datatype(p.Type), nil
	case Value:
		v, err := xsd.CompileValue(p.Type, p.Lexical, p.NS)
		if err != nil {
			return 0, err
		}
		return c.pool.DatatypeValue(p.Type, v), nil
	case DataExcept:
		except, err := c.compile(p.Except)
		if err != nil {
			return 0, err
		}
		return c.pool.DatatypeExcept(c.pool.Datatype(p.Base), except), nil
	case Ref:
		if id, ok := c.resolved[p.Name]; ok {
			return id, nil
		}
		if _, ok := c.grammar.Defines[p.Name]; !ok {
			return 0, &CompileError{Name: p.Name}
		}
		return c.pool.Placeholder(p.Name), nil
	default:
		return 0, fmt.Errorf("schema: unknown pattern type %T", p)
	}
}
