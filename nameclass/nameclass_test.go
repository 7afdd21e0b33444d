package nameclass

import "testing"

func TestContains(t *testing.T) {
	foo := Named{NS: "urn:x", Local: "foo"}
	any := AnyName{}
	anyExceptFoo := AnyName{Except: foo}
	nsX := NsName{NS: "urn:x"}
	nsXExceptFoo := NsName{NS: "urn:x", Except: foo}
	alt := Alt{A: Named{NS: "urn:y", Local: "bar"}, B: foo}

	cases := []struct {
		nc         Class
		ns, local  string
		want       bool
	}{
		{foo, "urn:x", "foo", true},
		{foo, "urn:x", "bar", false},
		{any, "urn:z", "whatever", true},
		{anyExceptFoo, "urn:x", "foo", false},
		{anyExceptFoo, "urn:x", "bar", true},
		{nsX, "urn:x", "anything", true},
		{nsX, "urn:y", "anything", false},
		{nsXExceptFoo, "urn:x", "foo", false},
		{nsXExceptFoo, "urn:x", "bar", true},
		{alt, "urn:y", "bar", true},
		{alt, "urn:x", "foo", true},
		{alt, "urn:z", "baz", false},
	}
	for _, c := range cases {
		if got := Contains(c.nc, c.ns, c.local); got != c.want {
			t.Errorf("Contains(%v, %q, %q) = %v, want %v", c.nc, c.ns, c.local, got, c.want)
		}
	}
}

func TestOverlap(t *testing.T) {
	foo := Named{NS: "urn:x", Local: "foo"}
	bar := Named{NS: "urn:x", Local: "bar"}
	other := Named{NS: "urn:y", Local: "foo"}
	anyExceptFoo := AnyName{Except: foo}

	if !Overlap(foo, foo) {
		t.Error("identical Named classes must overlap")
	}
	if Overlap(foo, bar) {
		t.Error("distinct Named classes in the same namespace must not overlap")
	}
	if Overlap(foo, other) {
		t.Error("distinct Named classes in different namespaces must not overlap")
	}
	if !Overlap(AnyName{}, foo) {
		t.Error("AnyName must overlap everything")
	}
	if Overlap(anyExceptFoo, foo) {
		t.Error("AnyName{Except: foo} must not overlap foo")
	}
	if !Overlap(anyExceptFoo, bar) {
		t.Error("AnyName{Except: foo} must overlap bar")
	}
	if !Overlap(NsName{NS: "urn:x"}, NsName{NS: "urn:x"}) {
		t.Error("same-namespace NsName classes must overlap")
	}
	if Overlap(NsName{NS: "urn:x"}, NsName{NS: "urn:y"}) {
		t.Error("different-namespace NsName classes must not overlap")
	}
}

func TestFlatten(t *testing.T) {
	a := Named{NS: "", Local: "a"}
	b := Named{NS: "", Local: "b"}
	c := Named{NS: "", Local: "c"}
	nc := Alt{A: Alt{A: a, B: b}, B: c}
	got := Flatten(nc)
	if len(got) != 3 {
		t.Fatalf("Flatten returned %d classes, want 3", len(got))
	}
	if got[0] != Class(a) || got[1] != Class(b) || got[2] != Class(c) {
		t.Errorf("Flatten returned %v in unexpected order", got)
	}
}
