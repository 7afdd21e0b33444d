package pattern

import (
	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/xsd"
)

// Choice returns the pattern matching anything a or b matches. The
// result flattens nested choices and removes duplicate and
// NotAllowed alternatives, so Choice(Choice(x,y), Choice(y,z)) and
// Choice(x, Choice(y,z)) intern to the same pool entry.
func (p *Pool) Choice(a, b ID) ID {
	if a == NotAllowed {
		return b
	}
	if b == NotAllowed {
		return a
	}
	if a == b {
		return a
	}

	var leaves []ID
	seen := make(map[ID]bool)
	var collect func(ID)
	collect = func(id ID) {
		if n := p.Get(id); n.Kind == KindChoice {
			collect(n.A)
			collect(n.B)
			return
		}
		if !seen[id] {
			seen[id] = true
			leaves = append(leaves, id)
		}
	}
	collect(a)
	collect(b)

	if len(leaves) == 1 {
		return leaves[0]
	}
	result := leaves[len(leaves)-1]
	for i := len(leaves) - 2; i >= 0; i-- {
		result = p.internChoice(leaves[i], result)
	}
	return result
}

func (p *Pool) internChoice(a, b ID) ID {
	return p.intern(Node{Kind: KindChoice, A: a, B: b, Nullable: p.Nullable(a) || p.Nullable(b)})
}

// Group returns the pattern matching a followed by b.
func (p *Pool) Group(a, b ID) ID {
	if a == NotAllowed || b == NotAllowed {
		return NotAllowed
	}
	if a == Empty {
		return b
	}
	if b == Empty {
		return a
	}
	return p.intern(Node{Kind: KindGroup, A: a, B: b, Nullable: p.Nullable(a) && p.Nullable(b)})
}

// Interleave returns the pattern matching any interleaving of a's and
// b's children.
func (p *Pool) Interleave(a, b ID) ID {
	if a == NotAllowed || b == NotAllowed {
		return NotAllowed
	}
	if a == Empty {
		return b
	}
	if b == Empty {
		return a
	}
	return p.intern(Node{Kind: KindInterleave, A: a, B: b, Nullable: p.Nullable(a) && p.Nullable(b)})
}

// OneOrMore returns the pattern matching one or more repetitions of a.
func (p *Pool) OneOrMore(a ID) ID {
	if a == NotAllowed {
		return NotAllowed
	}
	if a == Empty {
		return Empty
	}
	if n := p.Get(a); n.Kind == KindOneOrMore {
		return a
	}
	return p.intern(Node{Kind: KindOneOrMore, A: a, Nullable: p.Nullable(a)})
}

// Attribute returns the pattern matching a single attribute whose
// name is in nc and whose value matches content. Attribute patterns
// are never nullable on their own; optionality is expressed by
// wrapping one in Choice with Empty.
func (p *Pool) Attribute(nc nameclass.Class, content ID) ID {
	if content == NotAllowed {
		return NotAllowed
	}
	return p.intern(Node{Kind: KindAttribute, A: content, Aux: p.internNameClass(nc)})
}

// Element returns the pattern matching a single element whose name is
// in nc and whose children match content.
func (p *Pool) Element(nc nameclass.Class, content ID) ID {
	return p.intern(Node{Kind: KindElement, A: content, Aux: p.internNameClass(nc)})
}

// List returns the pattern matching a single text value that, when
// split on whitespace into a token sequence, matches content.
func (p *Pool) List(content ID) ID {
	if content == NotAllowed {
		return NotAllowed
	}
	return p.intern(Node{Kind: KindList, A: content, Nullable: p.Nullable(content)})
}

// Datatype returns the pattern matching any lexical value accepted by
// t (a RELAX NG <data> pattern with no value or param child beyond
// t's own facets).
func (p *Pool) Datatype(t *xsd.Type) ID {
	return p.intern(Node{Kind: KindDatatype, Aux: p.internType(t)})
}

// DatatypeValue returns the pattern matching exactly the value v (a
// RELAX NG <value> pattern).
func (p *Pool) DatatypeValue(t *xsd.Type, v *xsd.Value) ID {
	return p.intern(Node{Kind: KindDatatypeValue, Aux: p.internType(t), Aux2: p.internValue(v)})
}

// DatatypeExcept returns the pattern matching any value base accepts
// except those matched by except (a RELAX NG <data> pattern with an
// <except> child).
func (p *Pool) DatatypeExcept(base, except ID) ID {
	if base == NotAllowed {
		return NotAllowed
	}
	return p.intern(Node{Kind: KindDatatypeExcept, A: base, B: except, Nullable: p.Nullable(base) && !p.Nullable(except)})
}

// After returns the internal bookkeeping pattern used while deriving
// through Group and Interleave: "match a, and once a is fully
// consumed, continue by matching b". It is never constructed directly
// from schema source; the derivative engine builds it during D_open
// and strips it again once element content closes.
func (p *Pool) After(a, b ID) ID {
	if a == NotAllowed || b == NotAllowed {
		return NotAllowed
	}
	return p.intern(Node{Kind: KindAfter, A: a, B: b, Nullable: false})
}

// Placeholder returns a not-yet-resolved reference to a named
// definition, keyed by key (typically the grammar-level definition
// name). Before the pool is used for derivation every Placeholder must
// be resolved with ResolvePlaceholder; Get transparently follows a
// resolved placeholder to its target, so callers never need to check
// for Placeholder nodes themselves.
//
// This indirection is what lets possibly-cyclic <ref>/<define> grammars
// compile without mutable pointer cells: a grammar like
//
//	start = element a { ref2 }
//	ref2 = element b { start }?
//
// interns a Placeholder for each forward reference, then aliases it
// once the referenced definition's body has been compiled.
func (p *Pool) Placeholder(key string) ID {
	if idx, ok := p.pkIndex[key]; ok {
		return p.intern(Node{Kind: KindPlaceholder, Aux: idx})
	}
	idx := int32(len(p.placeholderKeys))
	p.placeholderKeys = append(p.placeholderKeys, key)
	p.pkIndex[key] = idx
	return p.intern(Node{Kind: KindPlaceholder, Aux: idx})
}

// ResolvePlaceholder records that every Placeholder interned under key
// now aliases target. It does not rewrite any existing Node; Get
// follows the alias at lookup time.
func (p *Pool) ResolvePlaceholder(key string, target ID) {
	idx, ok := p.pkIndex[key]
	if !ok {
		return
	}
	id := p.intern(Node{Kind: KindPlaceholder, Aux: idx})
	p.aliases[id] = target
}

// PlaceholderKey returns the key a Placeholder node's Aux field
// indexes into.
func (p *Pool) PlaceholderKey(aux int32) string { return p.placeholderKeys[aux] }
