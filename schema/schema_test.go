package schema

import (
	"testing"

	"github.com/adammathes/relaxng-go/derive"
	"github.com/adammathes/relaxng-go/nameclass"
	"github.com/adammathes/relaxng-go/pattern"
)

func TestCompileSimpleGrammar(t *testing.T) {
	pool := pattern.NewPool()
	g := &Grammar{
		Start: Element{NC: nameclass.Named{Local: "a"}, Content: Text{}},
	}
	root, err := Compile(pool, g)
	if err != nil {
		t.Fatal(err)
	}
	cur := derive.D_close(pool, derive.D_open(pool, root, "", "a"))
	cur = derive.D_text(pool, cur, "hello", nil)
	cur = derive.D_end(pool, cur)
	if !pool.Nullable(cur) {
		t.Fatal("element a { text } should accept <a>hello</a>")
	}
}

// Start = element a { ref "item"* }
// item  = element item { empty }
func TestCompileAcyclicRef(t *testing.T) {
	pool := pattern.NewPool()
	g := &Grammar{
		Start: Element{
			NC:      nameclass.Named{Local: "a"},
			Content: OneOrMore{A: Ref{Name: "item"}},
		},
		Defines: map[string]Pattern{
			"item": Element{NC: nameclass.Named{Local: "item"}, Content: Empty{}},
		},
	}
	root, err := Compile(pool, g)
	if err != nil {
		t.Fatal(err)
	}
	cur := derive.D_close(pool, derive.D_open(pool, root, "", "a"))
	cur = derive.D_close(pool, derive.D_open(pool, cur, "", "item"))
	cur = derive.D_end(pool, cur)
	cur = derive.D_close(pool, derive.D_open(pool, cur, "", "item"))
	cur = derive.D_end(pool, cur)
	cur = derive.D_end(pool, cur)
	if !pool.Nullable(cur) {
		t.Fatal("element a { item* } should accept <a><item/><item/></a>")
	}
}

// A cyclic grammar through an element: tree = element tree { ref "tree"* }
// (zero or more, expressed as Choice{Empty, OneOrMore{Ref}}).
func TestCompileCyclicThroughElement(t *testing.T) {
	pool := pattern.NewPool()
	g := &Grammar{
		Start: Ref{Name: "tree"},
		Defines: map[string]Pattern{
			"tree": Element{
				NC:      nameclass.Named{Local: "tree"},
				Content: Choice{A: Empty{}, B: OneOrMore{A: Ref{Name: "tree"}}},
			},
		},
	}
	root, err := Compile(pool, g)
	if err != nil {
		t.Fatal(err)
	}

	// <tree><tree/></tree>
	cur := derive.D_close(pool, derive.D_open(pool, root, "", "tree"))
	cur = derive.D_close(pool, derive.D_open(pool, cur, "", "tree"))
	cur = derive.D_end(pool, cur) // inner </tree>, a leaf
	cur = derive.D_end(pool, cur) // outer </tree>
	if !pool.Nullable(cur) {
		t.Fatal("<tree><tree/></tree> should satisfy a recursive tree = element tree { tree* }")
	}
}

func TestUndefinedRef(t *testing.T) {
	pool := pattern.NewPool()
	g := &Grammar{Start: Ref{Name: "missing"}}
	if _, err := Compile(pool, g); err == nil {
		t.Fatal("expected an error for an undefined reference")
	}
}
