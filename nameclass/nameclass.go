// Package nameclass implements the RELAX NG name class algebra: the
// predicates that decide whether a qualified name is permitted at an
// Attribute or Element position in a pattern.
package nameclass // import "github.com/adammathes/relaxng-go/nameclass"

import "fmt"

// A Class is one of Named, NsName, AnyName, or Alt. Classes are
// immutable once constructed.
type Class interface {
	isNameClass()
	// Key returns a canonical string that is equal for two Classes
	// iff they are structurally equal. Used by the pattern pool to
	// hash-cons Attribute/Element nodes by their name class.
	Key() string
}

// Named matches exactly one qualified name.
type Named struct {
	NS, Local string
}

func (Named) isNameClass()    {}
func (n Named) Key() string   { return "N:" + n.NS + "\x00" + n.Local }
func (n Named) String() string { return fmt.Sprintf("{%s}%s", n.NS, n.Local) }

// NsName matches any local name in a fixed namespace, except those
// matched by Except (which may be nil).
type NsName struct {
	NS     string
	Except Class
}

func (NsName) isNameClass() {}
func (n NsName) Key() string {
	if n.Except == nil {
		return "S:" + n.NS
	}
	return "S:" + n.NS + "\x00" + n.Except.Key()
}

// AnyName matches any qualified name, except those matched by Except
// (which may be nil).
type AnyName struct {
	Except Class
}

func (AnyName) isNameClass() {}
func (n AnyName) Key() string {
	if n.Except == nil {
		return "A:"
	}
	return "A:" + n.Except.Key()
}

// Alt matches any name matched by A or B.
type Alt struct {
	A, B Class
}

func (Alt) isNameClass() {}
func (n Alt) Key() string { return "L:" + n.A.Key() + "\x00" + n.B.Key() }

// Contains reports whether nc matches the qualified name (ns, local).
func Contains(nc Class, ns, local string) bool {
	switch nc := nc.(type) {
	case Named:
		return nc.NS == ns && nc.Local == local
	case NsName:
		if nc.NS != ns {
			return false
		}
		return nc.Except == nil || !Contains(nc.Except, ns, local)
	case AnyName:
		return nc.Except == nil || !Contains(nc.Except, ns, local)
	case Alt:
		return Contains(nc.A, ns, local) || Contains(nc.B, ns, local)
	default:
		panic(fmt.Sprintf("nameclass: unexpected Class %T", nc))
	}
}

// Flatten returns the set of non-Alt alternatives reachable from nc,
// in left-to-right order. A non-Alt class flattens to itself.
func Flatten(nc Class) []Class {
	alt, ok := nc.(Alt)
	if !ok {
		return []Class{nc}
	}
	return append(Flatten(alt.A), Flatten(alt.B)...)
}

// Overlap reports whether two name classes can both match some
// qualified name. It is used by the restriction checker to detect
// duplicated attribute slots and overlapping interleave branches; it
// is conservative (may report true for classes that, combined with
// unrelated document structure, never actually collide) but never
// reports false for classes that do overlap.
func Overlap(a, b Class) bool {
	for _, x := range Flatten(a) {
		for _, y := range Flatten(b) {
			if overlap1(x, y) {
				return true
			}
		}
	}
	return false
}

func overlap1(a, b Class) bool {
	switch a := a.(type) {
	case Named:
		switch b := b.(type) {
		case Named:
			return a.NS == b.NS && a.Local == b.Local
		case NsName:
			return a.NS == b.NS && (b.Except == nil || !Contains(b.Except, a.NS, a.Local))
		case AnyName:
			return b.Except == nil || !Contains(b.Except, a.NS, a.Local)
		}
	case NsName:
		switch b := b.(type) {
		case Named:
			return b.NS == a.NS && (a.Except == nil || !Contains(a.Except, b.NS, b.Local))
		case NsName:
			return a.NS == b.NS
		case AnyName:
			return true
		}
	case AnyName:
		switch b := b.(type) {
		case Named:
			return a.Except == nil || !Contains(a.Except, b.NS, b.Local)
		case NsName, AnyName:
			_ = b
			return true
		}
	}
	panic(fmt.Sprintf("nameclass: unexpected Class pair %T, %T", a, b))
}
