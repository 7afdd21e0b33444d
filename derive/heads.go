package derive

import "github.com/adammathes/relaxng-go/pattern"

// Heads returns the "reactive" sub-patterns at pid: the Attribute,
// Element, Datatype, DatatypeValue, and DatatypeExcept leaves reachable
// without consuming a token, flattening across Choice, Interleave,
// Group, OneOrMore, List, and After (following Group's first child, and
// also its second child when the first is nullable). It backs the
// "expected" diagnostic rendered when a token fails to match anything.
func Heads(p *pattern.Pool, pid pattern.ID) []pattern.ID {
	var out []pattern.ID
	collectHeads(p, pid, &out)
	return out
}

func collectHeads(p *pattern.Pool, pid pattern.ID, out *[]pattern.ID) {
	n := p.Get(pid)
	switch n.Kind {
	case pattern.KindChoice, pattern.KindInterleave:
		collectHeads(p, n.A, out)
		collectHeads(p, n.B, out)
	case pattern.KindGroup:
		collectHeads(p, n.A, out)
		if p.Nullable(n.A) {
			collectHeads(p, n.B, out)
		}
	case pattern.KindOneOrMore, pattern.KindList, pattern.KindAfter:
		collectHeads(p, n.A, out)
	case pattern.KindAttribute, pattern.KindElement, pattern.KindDatatype,
		pattern.KindDatatypeValue, pattern.KindDatatypeExcept:
		*out = append(*out, pid)
	}
}
