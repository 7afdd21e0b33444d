// Package pattern implements the RELAX NG pattern algebra: a
// hash-consed pool of pattern nodes with smart constructors that keep
// the pool's structural simplification invariants (a Choice's left
// operand is never itself a Choice, so choices form a right-nested
// chain of distinct alternatives, NotAllowed propagates
// through every combinator that can absorb it, and so on).
//
// Name classes and compiled datatypes are kept out of the Node struct
// itself and interned in side tables, so a Node stays three words
// regardless of how large the name class or datatype it references
// is.
package pattern // import "github.com/adammathes/relaxng-go/pattern"

import (
	"fmt"

	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/xsd"
)

// An ID names a pattern within a Pool. The zero Pool defines three
// reserved IDs: Empty, NotAllowed, and Text.
type ID int32

const (
	Empty ID = iota
	NotAllowed
	Text
	firstUserID
)

// Kind identifies which RELAX NG pattern variant a Node represents.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNotAllowed
	KindText
	KindChoice
	KindGroup
	KindInterleave
	KindOneOrMore
	KindAttribute
	KindElement
	KindList
	KindDatatype
	KindDatatypeValue
	KindDatatypeExcept
	KindAfter
	KindPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNotAllowed:
		return "NotAllowed"
	case KindText:
		return "Text"
	case KindChoice:
		return "Choice"
	case KindGroup:
		return "Group"
	case KindInterleave:
		return "Interleave"
	case KindOneOrMore:
		return "OneOrMore"
	case KindAttribute:
		return "Attribute"
	case KindElement:
		return "Element"
	case KindList:
		return "List"
	case KindDatatype:
		return "Datatype"
	case KindDatatypeValue:
		return "DatatypeValue"
	case KindDatatypeExcept:
		return "DatatypeExcept"
	case KindAfter:
		return "After"
	case KindPlaceholder:
		return "Placeholder"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Node is a single pattern pool entry. A and B are child IDs whose
// meaning depends on Kind:
//
//	Choice, Group, Interleave, After: A and B are both operands.
//	OneOrMore:                        A is the repeated operand, B unused.
//	Attribute, Element:               A is the content, B unused; Aux
//	                                   indexes the name class side table.
//	List:                             A is the content, B unused.
//	Datatype:                         Aux indexes the xsd.Type side table.
//	DatatypeValue:                    Aux indexes the xsd.Type side
//	                                   table, Aux2 indexes the
//	                                   xsd.Value side table.
//	DatatypeExcept:                   A is the base Datatype, B is
//	                                   the except pattern.
//	Placeholder:                      Aux indexes the placeholder key
//	                                   side table; resolved through the
//	                                   Pool's alias table.
type Node struct {
	Kind     Kind
	A, B     ID
	Nullable bool
	Aux      int32
	Aux2     int32
}

// maxPoolSize bounds how many distinct patterns a Pool will hold
// before Compile calls fail loudly instead of silently consuming
// unbounded memory; pathological schemas (deeply nested interleaves
// of large name classes) are the usual cause.
const maxPoolSize = 1 << 28

// A Pool holds every pattern reachable from a compiled grammar,
// hash-consed so that structurally identical patterns share one ID.
// This is what makes derivative memoization viable: D(p, c) can be
// memoized by (p, c) instead of by the pattern's full tree shape.
type Pool struct {
	nodes []Node
	index map[Node]ID

	nameClasses []nameclass.Class
	ncIndex     map[string]int32

	types     []*xsd.Type
	typeIndex map[string]int32
	values    []*xsd.Value

	placeholderKeys []string
	pkIndex         map[string]int32
	aliases         map[ID]ID
}

// NewPool returns an empty Pool with Empty, NotAllowed, and Text
// already interned at their reserved IDs.
func NewPool() *Pool {
	p := &Pool{
		nodes:     make([]Node, firstUserID, 1024),
		index:     make(map[Node]ID, 1024),
		ncIndex:   make(map[string]int32),
		typeIndex: make(map[string]int32),
		pkIndex:   make(map[string]int32),
		aliases:   make(map[ID]ID),
	}
	p.nodes[Empty] = Node{Kind: KindEmpty, Nullable: true}
	p.nodes[NotAllowed] = Node{Kind: KindNotAllowed, Nullable: false}
	p.nodes[Text] = Node{Kind: KindText, Nullable: true}
	return p
}

func (p *Pool) intern(n Node) ID {
	if id, ok := p.index[n]; ok {
		return id
	}
	if len(p.nodes) >= maxPoolSize {
		panic(fmt.Sprintf("pattern: pool exceeded %d nodes, aborting", maxPoolSize))
	}
	id := ID(len(p.nodes))
	p.nodes = append(p.nodes, n)
	p.index[n] = id
	return id
}

// Get returns the Node stored at id, following placeholder aliases
// until it reaches a concrete node.
func (p *Pool) Get(id ID) Node {
	for {
		n := p.nodes[id]
		if n.Kind == KindPlaceholder {
			if target, ok := p.aliases[id]; ok {
				id = target
				continue
			}
		}
		return n
	}
}

// Nullable reports whether id's pattern matches the empty sequence.
func (p *Pool) Nullable(id ID) bool { return p.Get(id).Nullable }

// Size returns the number of distinct pattern nodes interned in the
// pool, including the three reserved IDs. Callers use this to bound
// derivative-engine blowup (§8's termination property) or to drive a
// debug dump of the pool's contents.
func (p *Pool) Size() int { return len(p.nodes) }

func (p *Pool) internNameClass(nc nameclass.Class) int32 {
	key := nc.Key()
	if idx, ok := p.ncIndex[key]; ok {
		return idx
	}
	idx := int32(len(p.nameClasses))
	p.nameClasses = append(p.nameClasses, nc)
	p.ncIndex[key] = idx
	return idx
}

// NameClass returns the name class interned at a's Aux index; valid
// for Attribute and Element nodes.
func (p *Pool) NameClass(aux int32) nameclass.Class { return p.nameClasses[aux] }

func (p *Pool) internType(t *xsd.Type) int32 {
	key := t.Key()
	if idx, ok := p.typeIndex[key]; ok {
		return idx
	}
	idx := int32(len(p.types))
	p.types = append(p.types, t)
	p.typeIndex[key] = idx
	return idx
}

// Type returns the xsd.Type interned at aux; valid for Datatype and
// DatatypeValue nodes.
func (p *Pool) Type(aux int32) *xsd.Type { return p.types[aux] }

func (p *Pool) internValue(v *xsd.Value) int32 {
	idx := int32(len(p.values))
	p.values = append(p.values, v)
	return idx
}

// Value returns the xsd.Value interned at aux; valid for
// DatatypeValue nodes.
func (p *Pool) Value(aux int32) *xsd.Value { return p.values[aux] }
