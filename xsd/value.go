package xsd

import (
	"math"
	"math/big"
)

// Accept reports whether lexical is a member of t's lexical space: it
// backs the RELAX NG <data> pattern, which accepts any value of the
// right datatype regardless of its parsed value. QName values can only
// be validated with Namespaces in scope; Accept rejects them
// unconditionally (use AcceptsWithNS instead).
func (t *Type) Accept(lexical string) bool {
	switch t.Tag.family() {
	case familyBoundedInt, familyBignum, familyFloating, familyBoolean:
		if t.Facets.Pattern != nil && !t.Facets.Pattern.MatchString(lexical) {
			return false
		}
	}
	switch t.Tag.family() {
	case familyString:
		return acceptStringFamily(t, lexical)
	case familyBoundedInt:
		return acceptBoundedInt(t, lexical)
	case familyBignum:
		return acceptBignum(t, lexical)
	case familyFloating:
		return acceptFloating(t, lexical)
	case familyDateTime:
		return acceptDateTimeFamily(t, lexical)
	case familyBinary:
		return acceptBinary(t, lexical)
	case familyBoolean:
		return acceptBoolean(lexical)
	case familyQName:
		return false
	}
	return false
}

// AcceptsWithNS is Accept extended to the QName family, which needs a
// namespace context to resolve the lexical value's prefix.
func (t *Type) AcceptsWithNS(lexical string, ns Namespaces) bool {
	if t.Tag.family() == familyQName {
		if t.Facets.Pattern != nil && !t.Facets.Pattern.MatchString(lexical) {
			return false
		}
		_, ok := ParseQName(lexical, ns)
		return ok
	}
	return t.Accept(lexical)
}

// A Value is a parsed datatype value, compiled once from a schema's
// <value> lexical content and compared against each candidate text
// node by ValueAccepts. RELAX NG <value> matching uses the datatype's
// value-space equality, not lexical string equality: "1.0" and "1.00"
// are the same xsd:decimal value, "2" and "02" are the same
// xsd:integer value.
type Value struct {
	typ     *Type
	lexical string
	num     *big.Rat
	float   float64
	isNaN   bool
	qn      QNameValue
}

// CompileValue validates lexical against typ and, for families with a
// canonical parsed form distinct from their lexical form, parses it so
// that ValueAccepts can compare by value rather than by text. ns is
// only consulted for the QName family and may be nil otherwise.
func CompileValue(typ *Type, lexical string, ns Namespaces) (*Value, error) {
	switch typ.Tag.family() {
	case familyQName:
		if !typ.AcceptsWithNS(lexical, ns) {
			return nil, &CompileError{Tag: typ.Tag, Message: "not a valid QName value: " + lexical}
		}
		qn, _ := ParseQName(lexical, ns)
		return &Value{typ: typ, lexical: lexical, qn: qn}, nil
	case familyFloating:
		if !typ.Accept(lexical) {
			return nil, &CompileError{Tag: typ.Tag, Message: "not a valid " + typ.Tag.String() + " value: " + lexical}
		}
		v := &Value{typ: typ, lexical: lexical}
		switch trimmedFloat(lexical) {
		case "NaN":
			v.isNaN = true
		case "INF", "+INF":
			v.float = posInf
		case "-INF":
			v.float = negInf
		default:
			v.float, _ = parseFiniteOrInf(lexical)
		}
		return v, nil
	case familyBoundedInt, familyBignum:
		if !typ.Accept(lexical) {
			return nil, &CompileError{Tag: typ.Tag, Message: "not a valid " + typ.Tag.String() + " value: " + lexical}
		}
		rat, _ := parseBignum(normalizeTagForParse(typ.Tag), lexical)
		return &Value{typ: typ, lexical: lexical, num: rat}, nil
	default:
		if !typ.Accept(lexical) {
			return nil, &CompileError{Tag: typ.Tag, Message: "not a valid " + typ.Tag.String() + " value: " + lexical}
		}
		return &Value{typ: typ, lexical: canonicalizeLexical(typ, lexical)}, nil
	}
}

// normalizeTagForParse maps a bounded-int tag to Integer so
// parseBignum's integer-lexical check applies uniformly; the bound
// facets that distinguish e.g. byte from int have already been
// checked by typ.Accept.
func normalizeTagForParse(tag Tag) Tag {
	if tag.family() == familyBoundedInt {
		return Integer
	}
	return tag
}

func canonicalizeLexical(typ *Type, lexical string) string {
	switch typ.Tag {
	case NormalizedString, Token, Name, NCName, NMTOKEN, NMTOKENS, ID, IDREF,
		IDREFS, ENTITY, ENTITIES, Language, AnyURI:
		return collapseWhitespace(lexical)
	}
	return lexical
}

func trimmedFloat(s string) string {
	start, end := 0, len(s)
	for start < end && isXMLSpace(s[start]) {
		start++
	}
	for end > start && isXMLSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isXMLSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

var posInf = math.Inf(1)
var negInf = math.Inf(-1)

func parseFiniteOrInf(lexical string) (float64, error) {
	switch trimmedFloat(lexical) {
	case "INF", "+INF":
		return posInf, nil
	case "-INF":
		return negInf, nil
	}
	f, err := parseFiniteFloat(lexical)
	if err == nil {
		return f, nil
	}
	return 0, err
}

// ValueAccepts reports whether lexical, a candidate text node, equals
// the value v was compiled from, in v's datatype's value space.
func (v *Value) ValueAccepts(lexical string, ns Namespaces) bool {
	switch v.typ.Tag.family() {
	case familyQName:
		qn, ok := ParseQName(lexical, ns)
		return ok && qn.Equal(v.qn)
	case familyFloating:
		if !v.typ.Accept(lexical) {
			return false
		}
		if v.isNaN {
			return trimmedFloat(lexical) == "NaN"
		}
		f, err := parseFiniteOrInf(lexical)
		if err != nil {
			return false
		}
		return f == v.float
	case familyBoundedInt, familyBignum:
		if !v.typ.Accept(lexical) {
			return false
		}
		rat, err := parseBignum(normalizeTagForParse(v.typ.Tag), lexical)
		if err != nil {
			return false
		}
		return rat.Cmp(v.num) == 0
	default:
		if !v.typ.Accept(lexical) {
			return false
		}
		return canonicalizeLexical(v.typ, lexical) == v.lexical
	}
}
