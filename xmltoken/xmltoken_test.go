package xmltoken

import (
	"strings"
	"testing"

	"github.com/adammathes/relaxng-go/token"
)

func collect(t *testing.T, doc string) []token.Token {
	t.Helper()
	s := New(strings.NewReader(doc))
	var out []token.Token
	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		out = append(out, tok)
	}
	return out
}

func TestElementStartAttributeEnd(t *testing.T) {
	toks := collect(t, `<a b="1"><c/></a>`)

	want := []token.Kind{
		token.KindElementStart, token.KindAttribute, token.KindElementEnd,
		token.KindElementStart, token.KindElementEnd,
		token.KindElementEnd,
		token.KindElementEnd,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
	if toks[0].Local != "a" {
		t.Errorf("first element local = %q, want a", toks[0].Local)
	}
	if toks[1].Local != "b" || toks[1].Value != "1" {
		t.Errorf("attribute = %+v, want local=b value=1", toks[1])
	}
}

func TestPrefixedNamesPreserved(t *testing.T) {
	toks := collect(t, `<p:a xmlns:p="urn:x" p:id="1"></p:a>`)
	if toks[0].Prefix != "p" || toks[0].Local != "a" {
		t.Fatalf("ElementStart = %+v, want prefix=p local=a", toks[0])
	}
	// xmlns:p attribute itself, then p:id
	if toks[1].Prefix != "xmlns" || toks[1].Local != "p" {
		t.Fatalf("xmlns attribute = %+v", toks[1])
	}
	if toks[2].Prefix != "p" || toks[2].Local != "id" {
		t.Fatalf("prefixed attribute = %+v", toks[2])
	}
}

func TestInternalEntityExpanded(t *testing.T) {
	doc := `<!DOCTYPE a [<!ENTITY foo "bar">]><a>x&foo;y</a>`
	toks := collect(t, doc)

	var gotEntity bool
	var text string
	for _, tok := range toks {
		if tok.Kind == token.KindEntityDeclaration {
			gotEntity = true
			if tok.EntityName != "foo" || tok.EntityValue != "bar" {
				t.Errorf("entity decl = %+v", tok)
			}
		}
		if tok.Kind == token.KindText {
			text += tok.Text
		}
	}
	if !gotEntity {
		t.Fatal("expected an EntityDeclaration token")
	}
	if text != "xbary" {
		t.Fatalf("text = %q, want xbary (entity expanded)", text)
	}
}

func TestExternalEntityNotRegistered(t *testing.T) {
	doc := `<!DOCTYPE a [<!ENTITY foo SYSTEM "foo.xml">]><a>&foo;</a>`
	s := New(strings.NewReader(doc))
	var sawExternal bool
	var sawErr bool
	for {
		tok, err := s.Next()
		if err != nil {
			sawErr = true
			break
		}
		if tok.Kind == token.KindEntityDeclaration && tok.EntityExternal {
			sawExternal = true
		}
	}
	if !sawExternal {
		t.Fatal("expected an external EntityDeclaration token")
	}
	if !sawErr {
		t.Fatal("expected the decoder to error on an unresolvable external entity reference")
	}
}

func TestEmptyDtd(t *testing.T) {
	toks := collect(t, `<!DOCTYPE a SYSTEM "a.dtd"><a/>`)
	if len(toks) == 0 || toks[0].Kind != token.KindEmptyDtd {
		t.Fatalf("expected first token EmptyDtd, got %+v", toks)
	}
}

func TestSelfClosingAndExplicitCloseAreEquivalent(t *testing.T) {
	a := collect(t, `<a/>`)
	b := collect(t, `<a></a>`)
	if len(a) != len(b) {
		t.Fatalf("self-closing produced %d tokens, explicit close produced %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			t.Errorf("token %d kind mismatch: %v vs %v", i, a[i].Kind, b[i].Kind)
		}
	}
}
