// Package xsd implements the XML Schema Part 2 datatype library: a
// compiled representation of simple types with their facets, and a
// lexical validator for each of the built-in types.
//
// This package does not parse XSD schema documents (see the teacher
// package this was adapted from for that); it only compiles a Tag plus
// a set of facets into a Type that can accept or reject lexical values,
// the shape the derivative engine needs for Datatype, DatatypeValue, and
// DatatypeExcept patterns.
package xsd // import "github.com/adammathes/relaxng-go/xsd"

import "fmt"

// Tag identifies one of the 43 built-in XSD Part 2 datatypes understood
// by this package.
type Tag int

const (
	String Tag = iota
	NormalizedString
	Token
	Name
	NCName
	NMTOKEN
	NMTOKENS
	ID
	IDREF
	IDREFS
	ENTITY
	ENTITIES
	AnyURI
	Language

	Byte
	Short
	Int
	Long
	UnsignedByte
	UnsignedShort
	UnsignedInt
	UnsignedLong

	Integer
	PositiveInteger
	NonNegativeInteger
	NegativeInteger
	NonPositiveInteger
	Decimal

	Float
	Double

	Date
	DateTime
	Time
	Duration
	GYear
	GYearMonth
	GMonth
	GMonthDay
	GDay

	Base64Binary
	HexBinary

	QName

	Boolean
)

var tagNames = [...]string{
	String: "string", NormalizedString: "normalizedString", Token: "token",
	Name: "Name", NCName: "NCName", NMTOKEN: "NMTOKEN", NMTOKENS: "NMTOKENS",
	ID: "ID", IDREF: "IDREF", IDREFS: "IDREFS", ENTITY: "ENTITY", ENTITIES: "ENTITIES",
	AnyURI: "anyURI", Language: "language",
	Byte: "byte", Short: "short", Int: "int", Long: "long",
	UnsignedByte: "unsignedByte", UnsignedShort: "unsignedShort",
	UnsignedInt: "unsignedInt", UnsignedLong: "unsignedLong",
	Integer: "integer", PositiveInteger: "positiveInteger",
	NonNegativeInteger: "nonNegativeInteger", NegativeInteger: "negativeInteger",
	NonPositiveInteger: "nonPositiveInteger", Decimal: "decimal",
	Float: "float", Double: "double",
	Date: "date", DateTime: "dateTime", Time: "time", Duration: "duration",
	GYear: "gYear", GYearMonth: "gYearMonth", GMonth: "gMonth",
	GMonthDay: "gMonthDay", GDay: "gDay",
	Base64Binary: "base64Binary", HexBinary: "hexBinary",
	QName: "QName", Boolean: "boolean",
}

func (t Tag) String() string {
	if int(t) < 0 || int(t) >= len(tagNames) || tagNames[t] == "" {
		return fmt.Sprintf("xsd.Tag(%d)", int(t))
	}
	return tagNames[t]
}

// ParseTag looks up a Tag by its XSD local name. It is the inverse of
// Tag.String.
func ParseTag(name string) (Tag, bool) {
	for i, n := range tagNames {
		if n == name {
			return Tag(i), true
		}
	}
	return 0, false
}

type family int

const (
	familyString family = iota
	familyBoundedInt
	familyBignum
	familyFloating
	familyDateTime
	familyBinary
	familyQName
	familyBoolean
)

func (t Tag) family() family {
	switch t {
	case String, NormalizedString, Token, Name, NCName, NMTOKEN, NMTOKENS,
		ID, IDREF, IDREFS, ENTITY, ENTITIES, AnyURI, Language:
		return familyString
	case Byte, Short, Int, Long, UnsignedByte, UnsignedShort, UnsignedInt, UnsignedLong:
		return familyBoundedInt
	case Integer, PositiveInteger, NonNegativeInteger, NegativeInteger, NonPositiveInteger, Decimal:
		return familyBignum
	case Float, Double:
		return familyFloating
	case Date, DateTime, Time, Duration, GYear, GYearMonth, GMonth, GMonthDay, GDay:
		return familyDateTime
	case Base64Binary, HexBinary:
		return familyBinary
	case QName:
		return familyQName
	case Boolean:
		return familyBoolean
	default:
		panic(fmt.Sprintf("xsd: unexpected Tag %v", int(t)))
	}
}

// isList reports whether values of the tag are, like NMTOKENS and
// IDREFS, whitespace-separated lists of atomic values.
func (t Tag) isList() bool {
	switch t {
	case NMTOKENS, IDREFS, ENTITIES:
		return true
	}
	return false
}
