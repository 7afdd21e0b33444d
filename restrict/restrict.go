// Package restrict implements RELAX NG's §7 restriction checker: a set
// of structural rules a compiled pattern must satisfy beyond what the
// pattern algebra itself enforces (a grammar can be syntactically
// well-formed and still describe something RELAX NG declares invalid,
// such as an attribute with an infinite name class outside oneOrMore).
//
// The checker runs once, against the pattern.Pool root produced by
// schema.Compile, before any document is validated — it never sees an
// After node, since those only appear once the derivative engine
// starts consuming tokens.
package restrict // import "github.com/adammathes/relaxng-go/restrict"

import (
	"fmt"

	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/pattern"
)

// A RestrictionError reports a single §7 violation. Rule is the
// section number from the RELAX NG spec the violation falls under
// (e.g. "7.3", "7.1.2"), so a caller can render an explanation keyed
// to the rule rather than just the prose message.
type RestrictionError struct {
	Rule    string
	Message string
}

func (e *RestrictionError) Error() string {
	return fmt.Sprintf("restrict %s: %s", e.Rule, e.Message)
}

// Check runs every §7 rule against root and returns every violation
// found, in no particular order. A nil/empty result means root is
// restriction-valid. Dead subtrees (those whose pattern.ID is
// pattern.NotAllowed, or that reduce to it) are skipped: a branch that
// can never match anything can't violate a structural rule that only
// matters when the branch is live.
func Check(p *pattern.Pool, root pattern.ID) []*RestrictionError {
	c := &checker{
		pool:   p,
		ctMemo: make(map[pattern.ID]contentType),
	}
	c.checkNameClasses(root, make(map[pattern.ID]bool))
	c.checkGroupability(root, make(map[pattern.ID]bool))
	c.checkAttributes(root, false, make(map[pattern.ID]bool))
	c.checkAttributeOverlap(root, make(map[pattern.ID]bool))
	c.checkList(root, false, make(map[pattern.ID]bool))
	c.checkDataExcept(root, false, make(map[pattern.ID]bool))
	c.checkInterleave(root, make(map[pattern.ID]bool))
	c.checkStart(root)
	return c.errs
}

type checker struct {
	pool *pattern.Pool
	errs []*RestrictionError

	ctMemo map[pattern.ID]contentType
}

func (c *checker) report(rule, format string, args ...interface{}) {
	c.errs = append(c.errs, &RestrictionError{Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// dead reports whether pid can never match anything, in which case
// every rule below ignores it.
func (c *checker) dead(pid pattern.ID) bool { return pid == pattern.NotAllowed }

// --- §7.1.1: xmlns, and nested anyName/nsName excepts ---------------

func (c *checker) checkNameClasses(pid pattern.ID, seen map[pattern.ID]bool) {
	if c.dead(pid) || seen[pid] {
		return
	}
	seen[pid] = true
	n := c.pool.Get(pid)
	switch n.Kind {
	case pattern.KindAttribute, pattern.KindElement:
		c.checkNameClass(c.pool.NameClass(n.Aux), false)
		c.checkNameClasses(n.A, seen)
	case pattern.KindChoice, pattern.KindGroup, pattern.KindInterleave, pattern.KindDatatypeExcept:
		c.checkNameClasses(n.A, seen)
		c.checkNameClasses(n.B, seen)
	case pattern.KindOneOrMore, pattern.KindList:
		c.checkNameClasses(n.A, seen)
	}
}

const xmlnsNS = "http://www.w3.org/2000/xmlns/"

func (c *checker) checkNameClass(nc nameclass.Class, insideExcept bool) {
	switch nc := nc.(type) {
	case nameclass.Named:
		if nc.Local == "xmlns" || nc.NS == xmlnsNS {
			c.report("7.1.1", "name class matches the xmlns attribute or namespace")
		}
	case nameclass.NsName:
		if nc.NS == xmlnsNS {
			c.report("7.1.1", "nsName may not target the xmlns namespace")
		}
		if nc.Except != nil {
			c.checkExceptNesting("nsName", nc.Except)
			c.checkNameClass(nc.Except, true)
		}
	case nameclass.AnyName:
		if nc.Except != nil {
			c.checkExceptNesting("anyName", nc.Except)
			c.checkNameClass(nc.Except, true)
		}
	case nameclass.Alt:
		c.checkNameClass(nc.A, insideExcept)
		c.checkNameClass(nc.B, insideExcept)
	}
}

// checkExceptNesting enforces: anyName/except may not nest anyName;
// nsName/except may not nest nsName or anyName.
func (c *checker) checkExceptNesting(outer string, except nameclass.Class) {
	for _, alt := range nameclass.Flatten(except) {
		switch alt.(type) {
		case nameclass.AnyName:
			c.report("7.1.1", "%s/except may not contain anyName", outer)
		case nameclass.NsName:
			if outer == "nsName" {
				c.report("7.1.1", "nsName/except may not contain nsName")
			}
		}
	}
}

// --- §7.2: group/interleave members must have groupable content
// types ---------------------------------------------------------------

func (c *checker) checkGroupability(pid pattern.ID, seen map[pattern.ID]bool) {
	if c.dead(pid) || seen[pid] {
		return
	}
	seen[pid] = true
	n := c.pool.Get(pid)
	switch n.Kind {
	case pattern.KindGroup, pattern.KindInterleave:
		ta := c.contentType(n.A)
		tb := c.contentType(n.B)
		if !groupable(ta, tb) {
			c.report("7.2", "group/interleave members have incompatible content types")
		}
		c.checkGroupability(n.A, seen)
		c.checkGroupability(n.B, seen)
	case pattern.KindChoice, pattern.KindDatatypeExcept:
		c.checkGroupability(n.A, seen)
		c.checkGroupability(n.B, seen)
	case pattern.KindOneOrMore, pattern.KindList:
		c.checkGroupability(n.A, seen)
	case pattern.KindAttribute, pattern.KindElement:
		c.checkGroupability(n.A, seen)
	}
}

type contentType uint8

const (
	ctEmpty contentType = iota
	ctSimple
	ctComplex
)

func groupable(a, b contentType) bool {
	if a == ctEmpty || b == ctEmpty {
		return true
	}
	return a == ctComplex && b == ctComplex
}

func combine(a, b contentType) contentType {
	if a == ctEmpty {
		return b
	}
	if b == ctEmpty {
		return a
	}
	return ctComplex
}

// contentType classifies pid per §7.2: empty, simple, or complex.
// Memoized since the pool is a DAG and the same sub-pattern can be
// reached through many parents.
func (c *checker) contentType(pid pattern.ID) contentType {
	if ct, ok := c.ctMemo[pid]; ok {
		return ct
	}
	// Mark before recursing so a cyclic reference (always guarded by
	// an Element, whose own type is complex regardless of content)
	// resolves to something rather than looping.
	c.ctMemo[pid] = ctComplex
	var ct contentType
	n := c.pool.Get(pid)
	switch n.Kind {
	case pattern.KindEmpty, pattern.KindNotAllowed, pattern.KindAttribute:
		ct = ctEmpty
	case pattern.KindText, pattern.KindElement:
		ct = ctComplex
	case pattern.KindList, pattern.KindDatatype, pattern.KindDatatypeValue, pattern.KindDatatypeExcept:
		ct = ctSimple
	case pattern.KindGroup, pattern.KindInterleave:
		ct = combine(c.contentType(n.A), c.contentType(n.B))
	case pattern.KindOneOrMore:
		ct = c.contentType(n.A)
	case pattern.KindChoice:
		ct = combine(c.contentType(n.A), c.contentType(n.B))
	default:
		ct = ctComplex
	}
	c.ctMemo[pid] = ct
	return ct
}

// --- §7.1.2: no attribute in a multi-member group/interleave nested
// inside oneOrMore; §7.3: infinite attribute name classes only inside
// oneOrMore ------------------------------------------------------------

func (c *checker) checkAttributes(pid pattern.ID, underOneOrMore bool, seen map[pattern.ID]bool) {
	key := pid
	if seen[key] && !underOneOrMore {
		return
	}
	n := c.pool.Get(pid)
	if c.dead(pid) {
		return
	}
	switch n.Kind {
	case pattern.KindOneOrMore:
		c.checkAttributeGroupMembers(n.A)
		c.checkAttributes(n.A, true, seen)
	case pattern.KindGroup, pattern.KindInterleave:
		seen[key] = true
		c.checkAttributes(n.A, underOneOrMore, seen)
		c.checkAttributes(n.B, underOneOrMore, seen)
	case pattern.KindChoice, pattern.KindDatatypeExcept:
		seen[key] = true
		c.checkAttributes(n.A, underOneOrMore, seen)
		c.checkAttributes(n.B, underOneOrMore, seen)
	case pattern.KindAttribute:
		nc := c.pool.NameClass(n.Aux)
		if !underOneOrMore && isInfinite(nc) {
			c.report("7.3", "attribute with an infinite name class must be inside oneOrMore")
		}
		seen[key] = true
		c.checkAttributes(n.A, underOneOrMore, seen)
	case pattern.KindElement:
		seen[key] = true
		c.checkAttributes(n.A, false, make(map[pattern.ID]bool))
	case pattern.KindList:
		seen[key] = true
		c.checkAttributes(n.A, underOneOrMore, seen)
	}
}

// checkAttributeGroupMembers implements §7.1.2 and the "must not
// overlap" half of §7.3: walks the group/interleave members directly
// under a oneOrMore and flags an attribute nested in a group of more
// than one real member, and any two sibling attribute name classes
// that overlap.
func (c *checker) checkAttributeGroupMembers(pid pattern.ID) {
	members := flattenGroupMembers(c.pool, pid)
	if len(members) <= 1 {
		return
	}
	var attrNCs []nameclass.Class
	for _, m := range members {
		n := c.pool.Get(m)
		if n.Kind == pattern.KindAttribute {
			c.report("7.1.2", "attribute inside a multi-member group/interleave under oneOrMore")
			attrNCs = append(attrNCs, c.pool.NameClass(n.Aux))
		}
	}
	for i := 0; i < len(attrNCs); i++ {
		for j := i + 1; j < len(attrNCs); j++ {
			if nameclass.Overlap(attrNCs[i], attrNCs[j]) {
				c.report("7.3", "overlapping attribute name classes in the same group")
			}
		}
	}
}

func flattenGroupMembers(p *pattern.Pool, pid pattern.ID) []pattern.ID {
	n := p.Get(pid)
	switch n.Kind {
	case pattern.KindGroup, pattern.KindInterleave:
		return append(flattenGroupMembers(p, n.A), flattenGroupMembers(p, n.B)...)
	case pattern.KindEmpty:
		return nil
	default:
		return []pattern.ID{pid}
	}
}

func isInfinite(nc nameclass.Class) bool {
	switch nc := nc.(type) {
	case nameclass.Named:
		return false
	case nameclass.NsName, nameclass.AnyName:
		return true
	case nameclass.Alt:
		return isInfinite(nc.A) || isInfinite(nc.B)
	default:
		return false
	}
}

// --- §7.3 attribute name classes within any (non-oneOrMore-guarded)
// group must not overlap ---------------------------------------------

// checkAttributeOverlap walks every Group/Interleave in
// the whole tree (not just those directly under oneOrMore) to apply
// the plain overlap rule; checkAttributeGroupMembers above covers the
// oneOrMore-specific pair of rules.
func (c *checker) checkAttributeOverlap(pid pattern.ID, seen map[pattern.ID]bool) {
	if c.dead(pid) || seen[pid] {
		return
	}
	seen[pid] = true
	n := c.pool.Get(pid)
	switch n.Kind {
	case pattern.KindGroup, pattern.KindInterleave:
		attrs := collectDirectAttributes(c.pool, pid)
		for i := 0; i < len(attrs); i++ {
			for j := i + 1; j < len(attrs); j++ {
				if nameclass.Overlap(attrs[i], attrs[j]) {
					c.report("7.3", "overlapping attribute name classes in the same group")
				}
			}
		}
		c.checkAttributeOverlap(n.A, seen)
		c.checkAttributeOverlap(n.B, seen)
	case pattern.KindChoice, pattern.KindDatatypeExcept:
		c.checkAttributeOverlap(n.A, seen)
		c.checkAttributeOverlap(n.B, seen)
	case pattern.KindOneOrMore, pattern.KindList:
		c.checkAttributeOverlap(n.A, seen)
	case pattern.KindAttribute, pattern.KindElement:
		c.checkAttributeOverlap(n.A, seen)
	}
}

func collectDirectAttributes(p *pattern.Pool, pid pattern.ID) []nameclass.Class {
	var out []nameclass.Class
	var walk func(pattern.ID)
	walk = func(id pattern.ID) {
		n := p.Get(id)
		switch n.Kind {
		case pattern.KindGroup, pattern.KindInterleave:
			walk(n.A)
			walk(n.B)
		case pattern.KindAttribute:
			out = append(out, p.NameClass(n.Aux))
		}
	}
	walk(pid)
	return out
}

// --- §7.1.3 inside list: no list, interleave, attribute, element,
// text -----------------------------------------------------------------

func (c *checker) checkList(pid pattern.ID, insideList bool, seen map[pattern.ID]bool) {
	if c.dead(pid) || seen[pid] {
		return
	}
	seen[pid] = true
	n := c.pool.Get(pid)
	if insideList {
		switch n.Kind {
		case pattern.KindList:
			c.report("7.1.3", "list may not contain list")
		case pattern.KindInterleave:
			c.report("7.1.3", "list may not contain interleave")
		case pattern.KindAttribute:
			c.report("7.1.3", "list may not contain attribute")
		case pattern.KindElement:
			c.report("7.1.3", "list may not contain element")
		case pattern.KindText:
			c.report("7.1.3", "list may not contain text")
		}
	}
	switch n.Kind {
	case pattern.KindList:
		c.checkList(n.A, true, seen)
	case pattern.KindChoice, pattern.KindGroup, pattern.KindInterleave, pattern.KindDatatypeExcept:
		c.checkList(n.A, insideList, seen)
		c.checkList(n.B, insideList, seen)
	case pattern.KindOneOrMore:
		c.checkList(n.A, insideList, seen)
	case pattern.KindAttribute, pattern.KindElement:
		c.checkList(n.A, false, seen)
	}
}

// --- §7.1.4 inside data/except: no element, attribute, list, text,
// empty, group, interleave, oneOrMore ----------------------------------

func (c *checker) checkDataExcept(pid pattern.ID, insideExcept bool, seen map[pattern.ID]bool) {
	if c.dead(pid) || seen[pid] {
		return
	}
	seen[pid] = true
	n := c.pool.Get(pid)
	if insideExcept {
		switch n.Kind {
		case pattern.KindElement:
			c.report("7.1.4", "data/except may not contain element")
		case pattern.KindAttribute:
			c.report("7.1.4", "data/except may not contain attribute")
		case pattern.KindList:
			c.report("7.1.4", "data/except may not contain list")
		case pattern.KindText:
			c.report("7.1.4", "data/except may not contain text")
		case pattern.KindEmpty:
			c.report("7.1.4", "data/except may not contain empty")
		case pattern.KindGroup:
			c.report("7.1.4", "data/except may not contain group")
		case pattern.KindInterleave:
			c.report("7.1.4", "data/except may not contain interleave")
		case pattern.KindOneOrMore:
			c.report("7.1.4", "data/except may not contain oneOrMore")
		}
	}
	switch n.Kind {
	case pattern.KindDatatypeExcept:
		c.checkDataExcept(n.B, true, seen)
	case pattern.KindChoice, pattern.KindGroup, pattern.KindInterleave:
		c.checkDataExcept(n.A, insideExcept, seen)
		c.checkDataExcept(n.B, insideExcept, seen)
	case pattern.KindOneOrMore, pattern.KindList:
		c.checkDataExcept(n.A, insideExcept, seen)
	case pattern.KindAttribute, pattern.KindElement:
		c.checkDataExcept(n.A, false, seen)
	}
}

// --- §7.4 interleave: element name classes across branches must not
// overlap; text appears in at most one branch -------------------------

func (c *checker) checkInterleave(pid pattern.ID, seen map[pattern.ID]bool) {
	if c.dead(pid) || seen[pid] {
		return
	}
	seen[pid] = true
	n := c.pool.Get(pid)
	switch n.Kind {
	case pattern.KindInterleave:
		aElems, aText := collectInterleaveHeads(c.pool, n.A)
		bElems, bText := collectInterleaveHeads(c.pool, n.B)
		if aText && bText {
			c.report("7.4", "text may appear in at most one interleave branch")
		}
		for _, x := range aElems {
			for _, y := range bElems {
				if nameclass.Overlap(x, y) {
					c.report("7.4", "overlapping element name classes across interleave branches")
				}
			}
		}
		c.checkInterleave(n.A, seen)
		c.checkInterleave(n.B, seen)
	case pattern.KindChoice, pattern.KindGroup, pattern.KindDatatypeExcept:
		c.checkInterleave(n.A, seen)
		c.checkInterleave(n.B, seen)
	case pattern.KindOneOrMore, pattern.KindList:
		c.checkInterleave(n.A, seen)
	case pattern.KindAttribute, pattern.KindElement:
		c.checkInterleave(n.A, seen)
	}
}

// collectInterleaveHeads gathers the element name classes and whether
// text appears, reachable from pid without crossing an Element
// boundary — the same "head" notion derive.Heads uses, specialized to
// what §7.4 needs.
func collectInterleaveHeads(p *pattern.Pool, pid pattern.ID) (elems []nameclass.Class, text bool) {
	var walk func(pattern.ID)
	walk = func(id pattern.ID) {
		n := p.Get(id)
		switch n.Kind {
		case pattern.KindChoice, pattern.KindGroup, pattern.KindInterleave:
			walk(n.A)
			walk(n.B)
		case pattern.KindOneOrMore, pattern.KindList:
			walk(n.A)
		case pattern.KindElement:
			elems = append(elems, p.NameClass(n.Aux))
		case pattern.KindText:
			text = true
		}
	}
	walk(pid)
	return elems, text
}

// --- §7.1.5 start reduces to elements, choices, refs (already
// resolved by the time restrict runs), and notAllowed only ------------

func (c *checker) checkStart(root pattern.ID) {
	var walk func(pattern.ID) bool
	walk = func(pid pattern.ID) bool {
		if c.dead(pid) {
			return true
		}
		n := c.pool.Get(pid)
		switch n.Kind {
		case pattern.KindElement, pattern.KindNotAllowed:
			return true
		case pattern.KindChoice:
			return walk(n.A) && walk(n.B)
		default:
			return false
		}
	}
	if !walk(root) {
		c.report("7.1.5", "start pattern must reduce to elements, choices, and notAllowed only")
	}
}
