// Package derive implements Brzozowski-style derivatives over the
// RELAX NG pattern algebra in package pattern: given the pattern that
// describes what is still valid at some point in a document, and the
// next token encountered (a start tag, an attribute, some text, or an
// end tag), compute the pattern describing what is valid afterward.
//
// The derivative of a nested document position is represented as a
// single pattern.ID: opening an element wraps the current pattern in
// pattern.KindAfter ("match this element's content, then resume the
// surrounding pattern"), and closing an element unwraps exactly one
// After layer. Because every combinator (Choice, Group, Interleave,
// OneOrMore) threads a derivative through both of its operands, a
// single ID correctly tracks arbitrarily deep element nesting without
// the caller maintaining its own pattern stack; see D_end for the one
// operation, closing a tag, that must find and collapse exactly the
// innermost After.
//
// Each exported D_* function memoizes its recursion by pattern.ID for
// the duration of that one call. The pool hash-conses patterns into a
// DAG, so a Choice or Group can have two paths converging back on the
// same shared sub-pattern (the classical a_n/b_n alternation blow-up:
// a_n = a_(n-1) | b_(n-1)+, b_n = b_(n-1) | a_(n-1)+ shares a_(n-1) and
// b_(n-1) across both of each level's branches). Without memoizing,
// deriving such a schema re-derives the same shared subpattern once
// per path that reaches it, which is exponential in the nesting depth;
// memoizing makes each call linear in the number of distinct
// pattern.IDs it actually visits.
package derive // import "github.com/adammathes/relaxng-go/derive"

import (
	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/pattern"
	"github.com/adammathes/relaxng-go/xsd"
)

// D_open computes the derivative of pid with respect to the start of
// an element named (ns, local): it descends to whichever Element
// alternatives have a matching name class and wraps each one's content
// in an After, so that subsequent derivatives apply to the element's
// children until a matching D_end unwraps it again.
func D_open(p *pattern.Pool, pid pattern.ID, ns, local string) pattern.ID {
	return openDeriv(p, pid, ns, local, make(map[pattern.ID]pattern.ID))
}

func openDeriv(p *pattern.Pool, pid pattern.ID, ns, local string, memo map[pattern.ID]pattern.ID) pattern.ID {
	if v, ok := memo[pid]; ok {
		return v
	}
	n := p.Get(pid)
	var result pattern.ID
	switch n.Kind {
	case pattern.KindAfter:
		result = p.After(openDeriv(p, n.A, ns, local, memo), n.B)
	case pattern.KindChoice:
		result = p.Choice(openDeriv(p, n.A, ns, local, memo), openDeriv(p, n.B, ns, local, memo))
	case pattern.KindGroup:
		x := p.Group(openDeriv(p, n.A, ns, local, memo), n.B)
		if p.Nullable(n.A) {
			x = p.Choice(x, p.Group(n.A, openDeriv(p, n.B, ns, local, memo)))
		}
		result = x
	case pattern.KindInterleave:
		result = p.Choice(
			p.Interleave(openDeriv(p, n.A, ns, local, memo), n.B),
			p.Interleave(n.A, openDeriv(p, n.B, ns, local, memo)),
		)
	case pattern.KindOneOrMore:
		rest := p.Choice(p.OneOrMore(n.A), pattern.Empty)
		result = p.Group(openDeriv(p, n.A, ns, local, memo), rest)
	case pattern.KindElement:
		if nameclass.Contains(p.NameClass(n.Aux), ns, local) {
			result = p.After(n.A, pattern.Empty)
		} else {
			result = pattern.NotAllowed
		}
	default:
		result = pattern.NotAllowed
	}
	memo[pid] = result
	return result
}

// D_close computes the derivative of pid with respect to the closing
// '>' of the start tag most recently opened by D_open: every attribute
// alternative still outstanding becomes an error, since no further
// attributes can appear.
func D_close(p *pattern.Pool, pid pattern.ID) pattern.ID {
	return closeDeriv(p, pid, make(map[pattern.ID]pattern.ID))
}

func closeDeriv(p *pattern.Pool, pid pattern.ID, memo map[pattern.ID]pattern.ID) pattern.ID {
	if v, ok := memo[pid]; ok {
		return v
	}
	n := p.Get(pid)
	var result pattern.ID
	switch n.Kind {
	case pattern.KindAttribute:
		result = pattern.NotAllowed
	case pattern.KindChoice:
		result = p.Choice(closeDeriv(p, n.A, memo), closeDeriv(p, n.B, memo))
	case pattern.KindGroup:
		result = p.Group(closeDeriv(p, n.A, memo), closeDeriv(p, n.B, memo))
	case pattern.KindInterleave:
		result = p.Interleave(closeDeriv(p, n.A, memo), closeDeriv(p, n.B, memo))
	case pattern.KindOneOrMore:
		result = p.OneOrMore(closeDeriv(p, n.A, memo))
	case pattern.KindAfter:
		result = p.After(closeDeriv(p, n.A, memo), n.B)
	default:
		result = pid
	}
	memo[pid] = result
	return result
}

// D_att computes the derivative of pid with respect to an attribute
// named (ns, local) with string value. It is a whole-value match: the
// attribute's value, however it was split across entity references in
// the source document, is derived in one call via D_text against the
// attribute's content pattern, and the Attribute alternative resolves
// to Empty if that leaves a nullable pattern.
func D_att(p *pattern.Pool, pid pattern.ID, ns, local, value string, nsctx xsd.Namespaces) pattern.ID {
	return attDeriv(p, pid, ns, local, value, nsctx, make(map[pattern.ID]pattern.ID))
}

func attDeriv(p *pattern.Pool, pid pattern.ID, ns, local, value string, nsctx xsd.Namespaces, memo map[pattern.ID]pattern.ID) pattern.ID {
	if v, ok := memo[pid]; ok {
		return v
	}
	n := p.Get(pid)
	var result pattern.ID
	switch n.Kind {
	case pattern.KindAfter:
		result = p.After(attDeriv(p, n.A, ns, local, value, nsctx, memo), n.B)
	case pattern.KindChoice:
		result = p.Choice(attDeriv(p, n.A, ns, local, value, nsctx, memo), attDeriv(p, n.B, ns, local, value, nsctx, memo))
	case pattern.KindGroup:
		result = p.Choice(
			p.Group(attDeriv(p, n.A, ns, local, value, nsctx, memo), n.B),
			p.Group(n.A, attDeriv(p, n.B, ns, local, value, nsctx, memo)),
		)
	case pattern.KindInterleave:
		result = p.Choice(
			p.Interleave(attDeriv(p, n.A, ns, local, value, nsctx, memo), n.B),
			p.Interleave(n.A, attDeriv(p, n.B, ns, local, value, nsctx, memo)),
		)
	case pattern.KindOneOrMore:
		rest := p.Choice(p.OneOrMore(n.A), pattern.Empty)
		result = p.Group(attDeriv(p, n.A, ns, local, value, nsctx, memo), rest)
	case pattern.KindAttribute:
		if !nameclass.Contains(p.NameClass(n.Aux), ns, local) {
			result = pattern.NotAllowed
		} else if p.Nullable(D_text(p, n.A, value, nsctx)) {
			result = pattern.Empty
		} else {
			result = pattern.NotAllowed
		}
	default:
		result = pattern.NotAllowed
	}
	memo[pid] = result
	return result
}

// D_text computes the derivative of pid with respect to a run of
// character data, s. Like D_att, it treats s as the complete text
// content at this point (a validator buffers adjacent text and
// CDATA sections, across entity expansions, before calling D_text),
// which is what lets <data> and <value> patterns, which must see a
// whole lexical value, compare against it directly.
func D_text(p *pattern.Pool, pid pattern.ID, s string, nsctx xsd.Namespaces) pattern.ID {
	return textDeriv(p, pid, s, nsctx, make(map[pattern.ID]pattern.ID))
}

func textDeriv(p *pattern.Pool, pid pattern.ID, s string, nsctx xsd.Namespaces, memo map[pattern.ID]pattern.ID) pattern.ID {
	if v, ok := memo[pid]; ok {
		return v
	}
	n := p.Get(pid)
	var result pattern.ID
	switch n.Kind {
	case pattern.KindAfter:
		result = p.After(textDeriv(p, n.A, s, nsctx, memo), n.B)
	case pattern.KindChoice:
		result = p.Choice(textDeriv(p, n.A, s, nsctx, memo), textDeriv(p, n.B, s, nsctx, memo))
	case pattern.KindGroup:
		x := p.Group(textDeriv(p, n.A, s, nsctx, memo), n.B)
		if p.Nullable(n.A) {
			x = p.Choice(x, textDeriv(p, n.B, s, nsctx, memo))
		}
		result = x
	case pattern.KindInterleave:
		result = p.Choice(
			p.Interleave(textDeriv(p, n.A, s, nsctx, memo), n.B),
			p.Interleave(n.A, textDeriv(p, n.B, s, nsctx, memo)),
		)
	case pattern.KindOneOrMore:
		rest := p.Choice(p.OneOrMore(n.A), pattern.Empty)
		result = p.Group(textDeriv(p, n.A, s, nsctx, memo), rest)
	case pattern.KindText:
		result = pattern.Text
	case pattern.KindDatatype:
		if p.Type(n.Aux).AcceptsWithNS(s, nsctx) {
			result = pattern.Empty
		} else {
			result = pattern.NotAllowed
		}
	case pattern.KindDatatypeValue:
		v := p.Value(n.Aux2)
		if v.ValueAccepts(s, nsctx) {
			result = pattern.Empty
		} else {
			result = pattern.NotAllowed
		}
	case pattern.KindDatatypeExcept:
		if p.Nullable(D_text(p, n.B, s, nsctx)) {
			result = pattern.NotAllowed
		} else {
			result = textDeriv(p, n.A, s, nsctx, memo)
		}
	case pattern.KindList:
		result = listDeriv(p, n.A, s, nsctx)
	case pattern.KindElement:
		// §4.2.1: text seen between sibling elements never feeds an
		// Element pattern's own content - it either is whitespace,
		// which the element alternative simply ignores (the pattern
		// is unaffected), or is non-whitespace content where only an
		// element was expected.
		if isAllWhitespace(s) {
			result = pid
		} else {
			result = pattern.NotAllowed
		}
	case pattern.KindEmpty:
		if isAllWhitespace(s) {
			result = pattern.Empty
		} else {
			result = pattern.NotAllowed
		}
	default:
		result = pattern.NotAllowed
	}
	memo[pid] = result
	return result
}

// listDeriv implements the <list> content model: s is split on
// whitespace into atomic tokens, each derived in turn against content,
// and the list matches iff the result is nullable.
func listDeriv(p *pattern.Pool, content pattern.ID, s string, nsctx xsd.Namespaces) pattern.ID {
	cur := content
	start := -1
	emit := func(end int) {
		if start < 0 {
			return
		}
		cur = D_text(p, cur, s[start:end], nsctx)
		start = -1
	}
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			emit(i)
		} else if start < 0 {
			start = i
		}
	}
	emit(len(s))
	if p.Nullable(cur) {
		return pattern.Empty
	}
	return pattern.NotAllowed
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

func isAllWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}

// D_end computes the derivative of pid with respect to an end tag: it
// finds the innermost After introduced by the matching D_open and
// collapses it, succeeding (replacing it with its continuation) iff
// the element's derived content is nullable.
func D_end(p *pattern.Pool, pid pattern.ID) pattern.ID {
	result, found := collapseInnermostAfter(p, pid, make(map[pattern.ID]endResult))
	if !found {
		return pattern.NotAllowed
	}
	return result
}

type endResult struct {
	id    pattern.ID
	found bool
}

func collapseInnermostAfter(p *pattern.Pool, pid pattern.ID, memo map[pattern.ID]endResult) (pattern.ID, bool) {
	if v, ok := memo[pid]; ok {
		return v.id, v.found
	}
	n := p.Get(pid)
	var id pattern.ID
	var found bool
	switch n.Kind {
	case pattern.KindAfter:
		if inner, ok := collapseInnermostAfter(p, n.A, memo); ok {
			id, found = p.After(inner, n.B), true
		} else if p.Nullable(n.A) {
			id, found = n.B, true
		} else {
			id, found = pattern.NotAllowed, true
		}
	case pattern.KindChoice:
		a, fa := collapseInnermostAfter(p, n.A, memo)
		b, fb := collapseInnermostAfter(p, n.B, memo)
		if !fa && !fb {
			id, found = pid, false
		} else {
			if !fa {
				a = n.A
			}
			if !fb {
				b = n.B
			}
			id, found = p.Choice(a, b), true
		}
	case pattern.KindGroup:
		a, fa := collapseInnermostAfter(p, n.A, memo)
		b, fb := collapseInnermostAfter(p, n.B, memo)
		if !fa && !fb {
			id, found = pid, false
		} else {
			if !fa {
				a = n.A
			}
			if !fb {
				b = n.B
			}
			id, found = p.Group(a, b), true
		}
	case pattern.KindInterleave:
		a, fa := collapseInnermostAfter(p, n.A, memo)
		b, fb := collapseInnermostAfter(p, n.B, memo)
		if !fa && !fb {
			id, found = pid, false
		} else {
			if !fa {
				a = n.A
			}
			if !fb {
				b = n.B
			}
			id, found = p.Interleave(a, b), true
		}
	case pattern.KindOneOrMore:
		a, fa := collapseInnermostAfter(p, n.A, memo)
		if !fa {
			id, found = pid, false
		} else {
			id, found = p.OneOrMore(a), true
		}
	default:
		id, found = pid, false
	}
	memo[pid] = endResult{id: id, found: found}
	return id, found
}
