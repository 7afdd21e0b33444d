package schema

import (
	"strings"
	"testing"

	"github.com/adammathes/relaxng-go/pattern"
)

func TestParseXMLSimpleElement(t *testing.T) {
	doc := `<element name="a" xmlns="http://relaxng.org/ns/structure/1.0">
		<attribute name="b"><text/></attribute>
	</element>`

	g, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	pool := pattern.NewPool()
	root, err := Compile(pool, g)
	if err != nil {
		t.Fatal(err)
	}
	if root == pattern.NotAllowed {
		t.Fatal("expected a live pattern")
	}
}

func TestParseXMLGrammarWithRefsAndDatatype(t *testing.T) {
	doc := `<grammar xmlns="http://relaxng.org/ns/structure/1.0"
		datatypeLibrary="http://www.w3.org/2001/XMLSchema-datatypes">
		<start><ref name="root"/></start>
		<define name="root">
			<element name="root">
				<oneOrMore>
					<element name="item">
						<data type="integer">
							<param name="minInclusive">0</param>
						</data>
					</element>
				</oneOrMore>
			</element>
		</define>
	</grammar>`

	g, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	pool := pattern.NewPool()
	root, err := Compile(pool, g)
	if err != nil {
		t.Fatal(err)
	}
	if root == pattern.NotAllowed {
		t.Fatal("expected a live pattern")
	}
}

func TestParseXMLChoiceNameClass(t *testing.T) {
	doc := `<element xmlns="http://relaxng.org/ns/structure/1.0">
		<choice>
			<name>a</name>
			<name>b</name>
		</choice>
		<empty/>
	</element>`

	g, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	pool := pattern.NewPool()
	if _, err := Compile(pool, g); err != nil {
		t.Fatal(err)
	}
}

func TestParseXMLUnknownDatatypeLibraryRejected(t *testing.T) {
	doc := `<element name="a" xmlns="http://relaxng.org/ns/structure/1.0">
		<data type="string" datatypeLibrary="urn:unsupported"/>
	</element>`

	if _, err := ParseXML(strings.NewReader(doc)); err == nil {
		t.Fatal("expected an error for an unsupported datatype library")
	}
}
