package pattern

import (
	"testing"

	"github.com/adammathes/relaxng-go/nameclass"
)

func TestPoolIdempotence(t *testing.T) {
	p := NewPool()
	fooA := p.Attribute(nameclass.Named{Local: "foo"}, Text)
	fooB := p.Attribute(nameclass.Named{Local: "foo"}, Text)
	if fooA != fooB {
		t.Error("structurally identical Attribute patterns should intern to the same ID")
	}

	g1 := p.Group(fooA, Text)
	g2 := p.Group(fooB, Text)
	if g1 != g2 {
		t.Error("structurally identical Group patterns should intern to the same ID")
	}
}

func TestChoiceFlattensAndDedups(t *testing.T) {
	p := NewPool()
	a := p.Attribute(nameclass.Named{Local: "a"}, Text)
	b := p.Attribute(nameclass.Named{Local: "b"}, Text)
	c := p.Attribute(nameclass.Named{Local: "c"}, Text)

	left := p.Choice(p.Choice(a, b), c)
	right := p.Choice(a, p.Choice(b, c))
	if left != right {
		t.Error("Choice should associate regardless of nesting shape")
	}

	dup := p.Choice(a, a)
	if dup != a {
		t.Error("Choice(a, a) should collapse to a")
	}
}

func TestNotAllowedAbsorption(t *testing.T) {
	p := NewPool()
	a := p.Attribute(nameclass.Named{Local: "a"}, Text)

	if got := p.Choice(a, NotAllowed); got != a {
		t.Error("Choice(a, NotAllowed) should simplify to a")
	}
	if got := p.Group(a, NotAllowed); got != NotAllowed {
		t.Error("Group(a, NotAllowed) should simplify to NotAllowed")
	}
	if got := p.Interleave(NotAllowed, a); got != NotAllowed {
		t.Error("Interleave(NotAllowed, a) should simplify to NotAllowed")
	}
	if got := p.OneOrMore(NotAllowed); got != NotAllowed {
		t.Error("OneOrMore(NotAllowed) should simplify to NotAllowed")
	}
}

func TestEmptyIdentity(t *testing.T) {
	p := NewPool()
	a := p.Attribute(nameclass.Named{Local: "a"}, Text)

	if got := p.Group(Empty, a); got != a {
		t.Error("Group(Empty, a) should simplify to a")
	}
	if got := p.Group(a, Empty); got != a {
		t.Error("Group(a, Empty) should simplify to a")
	}
	if got := p.OneOrMore(Empty); got != Empty {
		t.Error("OneOrMore(Empty) should simplify to Empty")
	}
}

func TestOneOrMoreIdempotent(t *testing.T) {
	p := NewPool()
	a := p.Attribute(nameclass.Named{Local: "a"}, Text)
	once := p.OneOrMore(a)
	twice := p.OneOrMore(once)
	if once != twice {
		t.Error("OneOrMore(OneOrMore(a)) should collapse to OneOrMore(a)")
	}
}

func TestNullabilityAgreesWithGet(t *testing.T) {
	p := NewPool()
	if !p.Nullable(Empty) {
		t.Error("Empty must be nullable")
	}
	if p.Nullable(NotAllowed) {
		t.Error("NotAllowed must not be nullable")
	}
	if !p.Nullable(Text) {
		t.Error("Text must be nullable")
	}

	a := p.Attribute(nameclass.Named{Local: "a"}, Text)
	if p.Nullable(a) {
		t.Error("Attribute must never be nullable")
	}

	g := p.Group(a, Empty)
	if p.Nullable(g) != p.Nullable(a) {
		t.Error("Nullable(Group(a, Empty)) should agree with Nullable(a) after Empty elimination")
	}
}

func TestPlaceholderResolution(t *testing.T) {
	p := NewPool()
	ref := p.Placeholder("start")
	a := p.Attribute(nameclass.Named{Local: "a"}, Text)
	p.ResolvePlaceholder("start", a)

	if got := p.Get(ref); got.Kind != KindAttribute {
		t.Errorf("Get(placeholder) after resolution = %v, want KindAttribute", got.Kind)
	}
}
