package xsd

import "testing"

func TestCompileBoundedInt(t *testing.T) {
	ty, err := Compile(Byte)
	if err != nil {
		t.Fatal(err)
	}
	if !ty.Accept("127") || !ty.Accept("-128") {
		t.Error("byte should accept its inherent bounds")
	}
	if ty.Accept("128") || ty.Accept("-129") {
		t.Error("byte should reject values outside its inherent bounds")
	}
}

func TestCompileMinMaxConflict(t *testing.T) {
	_, err := Compile(Int, MinInclusive("10"), MaxInclusive("5"))
	if err == nil {
		t.Fatal("expected a conflict error for minInclusive > maxInclusive")
	}
}

func TestCompileFacetWrongFamily(t *testing.T) {
	_, err := Compile(String, MinInclusive("10"))
	if err == nil {
		t.Fatal("expected an error applying a numeric facet to string")
	}
}

func TestLengthFacetMerge(t *testing.T) {
	ty, err := Compile(Token, MinLength(2), MaxLength(5))
	if err != nil {
		t.Fatal(err)
	}
	if ty.Facets.Length.Kind != LengthMinMax {
		t.Fatalf("expected LengthMinMax, got %v", ty.Facets.Length.Kind)
	}
	if !ty.Accept("abc") {
		t.Error("abc should satisfy 2..5 length")
	}
	if ty.Accept("a") || ty.Accept("abcdef") {
		t.Error("length bounds not enforced")
	}
}

func TestLengthFacetMergeConflict(t *testing.T) {
	_, err := Compile(Token, Length(4), MinLength(5))
	if err == nil {
		t.Fatal("expected a conflict between length(4) and minLength(5)")
	}
}

func TestPatternFacet(t *testing.T) {
	ty, err := Compile(String, Pattern("[0-9]+"))
	if err != nil {
		t.Fatal(err)
	}
	if !ty.Accept("123") {
		t.Error("123 should match [0-9]+")
	}
	if ty.Accept("12a") {
		t.Error("pattern should be anchored and reject trailing garbage")
	}
}

func TestDecimalFacets(t *testing.T) {
	ty, err := Compile(Decimal, FractionDigits(2), TotalDigits(5))
	if err != nil {
		t.Fatal(err)
	}
	if !ty.Accept("123.45") {
		t.Error("123.45 has 5 total digits, 2 fraction digits: should be accepted")
	}
	if ty.Accept("123.456") {
		t.Error("too many fraction digits should be rejected")
	}
	if ty.Accept("12345.6") {
		t.Error("too many total digits should be rejected")
	}
}

func TestFloatSpecials(t *testing.T) {
	ty, err := Compile(Float)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"NaN", "INF", "-INF", "1.5", "-0.0"} {
		if !ty.Accept(v) {
			t.Errorf("Accept(%q) = false, want true", v)
		}
	}
	if ty.Accept("1.5.6") {
		t.Error("malformed float accepted")
	}
}

func TestDateTimeFamily(t *testing.T) {
	cases := []struct {
		tag   Tag
		value string
		want  bool
	}{
		{Date, "2024-02-29", true},
		{Date, "2023-02-29", false}, // not a leap year
		{DateTime, "2024-01-01T00:00:00Z", true},
		{DateTime, "2024-01-01T24:00:01Z", false},
		{GYearMonth, "2024-13", false},
		{GMonthDay, "--02-30", false},
		{Duration, "P1Y2M3DT4H5M6S", true},
		{Duration, "P", false},
		{Time, "23:59:60", false},
		{Time, "23:59:59.5", true},
	}
	for _, c := range cases {
		ty, err := Compile(c.tag)
		if err != nil {
			t.Fatal(err)
		}
		if got := ty.Accept(c.value); got != c.want {
			t.Errorf("Compile(%v).Accept(%q) = %v, want %v", c.tag, c.value, got, c.want)
		}
	}
}

func TestBinaryFamily(t *testing.T) {
	ty, err := Compile(HexBinary)
	if err != nil {
		t.Fatal(err)
	}
	if !ty.Accept("0FB7") {
		t.Error("0FB7 should be valid hexBinary")
	}
	if ty.Accept("0FB") {
		t.Error("odd-length hexBinary should be rejected")
	}

	b64, err := Compile(Base64Binary, Length(3))
	if err != nil {
		t.Fatal(err)
	}
	if !b64.Accept("YWJj") { // "abc", 3 octets
		t.Error("YWJj should decode to 3 octets")
	}
	if b64.Accept("YWJjZA==") { // "abcd", 4 octets
		t.Error("4-octet value should fail Length(3)")
	}
}

func TestQNameValue(t *testing.T) {
	ty, err := Compile(QName)
	if err != nil {
		t.Fatal(err)
	}
	ns := stubNamespaces{"xs": "http://www.w3.org/2001/XMLSchema"}
	if !ty.AcceptsWithNS("xs:string", ns) {
		t.Error("xs:string should resolve under a bound prefix")
	}
	if ty.AcceptsWithNS("bogus:string", ns) {
		t.Error("an unbound prefix should be rejected")
	}

	val, err := CompileValue(ty, "xs:string", ns)
	if err != nil {
		t.Fatal(err)
	}
	if !val.ValueAccepts("xsd:string", stubNamespaces{"xsd": "http://www.w3.org/2001/XMLSchema"}) {
		t.Error("QName value equality should compare resolved namespace+local, not lexical prefix")
	}
}

func TestValueAcceptsNumericCanonicalization(t *testing.T) {
	ty, err := Compile(Decimal)
	if err != nil {
		t.Fatal(err)
	}
	val, err := CompileValue(ty, "1.0", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !val.ValueAccepts("1.00", nil) {
		t.Error("1.0 and 1.00 are the same xsd:decimal value")
	}
	if val.ValueAccepts("1.01", nil) {
		t.Error("1.01 should not equal 1.0")
	}
}

type stubNamespaces map[string]string

func (s stubNamespaces) ResolvePrefix(prefix string) (string, bool) {
	ns, ok := s[prefix]
	return ns, ok
}
