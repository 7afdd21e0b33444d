package restrict

import (
	"testing"

	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/pattern"
)

func findRule(errs []*RestrictionError, rule string) bool {
	for _, e := range errs {
		if e.Rule == rule {
			return true
		}
	}
	return false
}

func TestValidSchemaHasNoViolations(t *testing.T) {
	p := pattern.NewPool()
	// element a { attribute id { text }, element b { empty } }
	id := p.Attribute(nameclass.Named{Local: "id"}, pattern.Text)
	b := p.Element(nameclass.Named{Local: "b"}, pattern.Empty)
	a := p.Element(nameclass.Named{Local: "a"}, p.Group(id, b))

	errs := Check(p, a)
	if len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}

func TestXmlnsAttributeRejected(t *testing.T) {
	p := pattern.NewPool()
	attr := p.Attribute(nameclass.Named{Local: "xmlns"}, pattern.Text)
	root := p.Element(nameclass.Named{Local: "a"}, attr)

	errs := Check(p, root)
	if !findRule(errs, "7.1.1") {
		t.Fatalf("expected a 7.1.1 violation, got %v", errs)
	}
}

func TestNestedAnyNameExceptRejected(t *testing.T) {
	p := pattern.NewPool()
	inner := nameclass.AnyName{}
	outer := nameclass.AnyName{Except: inner}
	attr := p.Attribute(outer, pattern.Text)
	root := p.Element(nameclass.Named{Local: "a"}, attr)

	errs := Check(p, root)
	if !findRule(errs, "7.1.1") {
		t.Fatalf("expected a 7.1.1 violation for anyName/except nesting anyName, got %v", errs)
	}
}

func TestInfiniteAttributeOutsideOneOrMoreRejected(t *testing.T) {
	p := pattern.NewPool()
	attr := p.Attribute(nameclass.AnyName{}, pattern.Text)
	root := p.Element(nameclass.Named{Local: "a"}, attr)

	errs := Check(p, root)
	if !findRule(errs, "7.3") {
		t.Fatalf("expected a 7.3 violation for an unguarded infinite-name-class attribute, got %v", errs)
	}
}

func TestInfiniteAttributeInsideOneOrMoreAccepted(t *testing.T) {
	p := pattern.NewPool()
	attr := p.Attribute(nameclass.AnyName{}, pattern.Text)
	root := p.Element(nameclass.Named{Local: "a"}, p.OneOrMore(attr))

	errs := Check(p, root)
	if findRule(errs, "7.3") {
		t.Fatalf("did not expect a 7.3 violation, got %v", errs)
	}
}

func TestOverlappingAttributesInGroupRejected(t *testing.T) {
	p := pattern.NewPool()
	a1 := p.Attribute(nameclass.NsName{NS: "urn:x"}, pattern.Text)
	a2 := p.Attribute(nameclass.Named{NS: "urn:x", Local: "id"}, pattern.Text)
	root := p.Element(nameclass.Named{Local: "a"}, p.Group(a1, a2))

	errs := Check(p, root)
	if !findRule(errs, "7.3") {
		t.Fatalf("expected a 7.3 violation for overlapping attribute name classes, got %v", errs)
	}
}

func TestListContainingElementRejected(t *testing.T) {
	p := pattern.NewPool()
	inner := p.Element(nameclass.Named{Local: "b"}, pattern.Empty)
	root := p.List(inner)

	errs := Check(p, root)
	if !findRule(errs, "7.1.3") {
		t.Fatalf("expected a 7.1.3 violation for an element inside list, got %v", errs)
	}
}

func TestListContainingListRejected(t *testing.T) {
	p := pattern.NewPool()
	inner := p.List(pattern.Text)
	root := p.List(inner)

	errs := Check(p, root)
	if !findRule(errs, "7.1.3") {
		t.Fatalf("expected a 7.1.3 violation for a list nested in list, got %v", errs)
	}
}

func TestDataExceptContainingElementRejected(t *testing.T) {
	p := pattern.NewPool()
	elem := p.Element(nameclass.Named{Local: "b"}, pattern.Empty)
	root := p.DatatypeExcept(pattern.Text, elem)

	errs := Check(p, root)
	if !findRule(errs, "7.1.4") {
		t.Fatalf("expected a 7.1.4 violation for element inside data/except, got %v", errs)
	}
}

func TestInterleaveOverlappingElementsRejected(t *testing.T) {
	p := pattern.NewPool()
	x1 := p.Element(nameclass.AnyName{}, pattern.Empty)
	x2 := p.Element(nameclass.Named{Local: "b"}, pattern.Empty)
	root := p.Interleave(x1, x2)

	errs := Check(p, root)
	if !findRule(errs, "7.4") {
		t.Fatalf("expected a 7.4 violation for overlapping interleave branches, got %v", errs)
	}
}

func TestInterleaveTwoTextBranchesRejected(t *testing.T) {
	p := pattern.NewPool()
	root := p.Interleave(pattern.Text, pattern.Text)

	errs := Check(p, root)
	if !findRule(errs, "7.4") {
		t.Fatalf("expected a 7.4 violation for text in both interleave branches, got %v", errs)
	}
}

func TestStartMustReduceToElementsChoicesNotAllowed(t *testing.T) {
	p := pattern.NewPool()
	errs := Check(p, pattern.Text)
	if !findRule(errs, "7.1.5") {
		t.Fatalf("expected a 7.1.5 violation for a non-element start pattern, got %v", errs)
	}
}

func TestStartAsChoiceOfElementsAccepted(t *testing.T) {
	p := pattern.NewPool()
	a := p.Element(nameclass.Named{Local: "a"}, pattern.Empty)
	b := p.Element(nameclass.Named{Local: "b"}, pattern.Empty)
	root := p.Choice(a, b)

	errs := Check(p, root)
	if findRule(errs, "7.1.5") {
		t.Fatalf("a choice of elements is a valid start pattern, got %v", errs)
	}
}

func TestDeadBranchIgnored(t *testing.T) {
	p := pattern.NewPool()
	// attribute xmlns { notAllowed } collapses straight to NotAllowed
	// in the smart constructor, so no Attribute node carrying the
	// xmlns name class ever exists in the pool to flag.
	deadAttr := p.Attribute(nameclass.Named{Local: "xmlns"}, pattern.NotAllowed)
	root := p.Element(nameclass.Named{Local: "a"}, deadAttr)

	errs := Check(p, root)
	if findRule(errs, "7.1.1") {
		t.Fatalf("expected the dead xmlns attribute to leave no trace to flag, got %v", errs)
	}
}
