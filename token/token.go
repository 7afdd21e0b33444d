// Package token defines the lazy token sequence a validator consumes:
// a thin, source-position-carrying view over an XML document that
// deliberately omits anything the validator doesn't need (no DOM, no
// attribute value normalization beyond what XML itself mandates).
package token // import "github.com/adammathes/relaxng-go/token"

// A Span is a half-open byte range [Start, End) into the source text
// a Stream was built from, used to anchor diagnostics.
type Span struct {
	Start, End int64
}

// EndKind distinguishes the three ways an element's content can end.
type EndKind uint8

const (
	// Open reports the closing '>' of a start tag: the element has
	// content following, Close or Empty has not occurred yet.
	Open EndKind = iota
	// Close reports a '</prefix:local>' end tag.
	Close
	// Empty reports a self-closing '<prefix:local/>' tag: both the
	// open and close events happen at once.
	Empty
)

func (k EndKind) String() string {
	switch k {
	case Open:
		return "Open"
	case Close:
		return "Close"
	case Empty:
		return "Empty"
	default:
		return "EndKind(?)"
	}
}

// Kind identifies which variant a Token holds.
type Kind uint8

const (
	KindDeclaration Kind = iota
	KindProcessingInstruction
	KindComment
	KindDtdStart
	KindEmptyDtd
	KindEntityDeclaration
	KindDtdEnd
	KindElementStart
	KindAttribute
	KindElementEnd
	KindText
	KindCdata
)

// A Token is one pull event from a Stream. Only the fields relevant to
// Kind are populated; the zero value of the others is meaningless.
//
// ElementStart, Attribute, and ElementEnd carry Prefix/Local exactly
// as written in the source, unresolved against any namespace scope —
// resolution is the validator's job, since it is the one tracking the
// scope stack.
type Token struct {
	Kind Kind
	Span Span

	// ElementStart, Attribute
	Prefix, Local string
	// Attribute
	Value string
	// ElementEnd
	End EndKind
	// ElementEnd(Close)
	ClosePrefix, CloseLocal string
	// EntityDeclaration
	EntityName  string
	EntityValue string
	// EntityDeclaration for an external entity (a SYSTEM or PUBLIC
	// identifier): EntityExternal set, EntityValue empty. The validator
	// rejects these at the declaration itself.
	EntityExternal bool
	// Text, Cdata
	Text string
}

// A Stream is a pull source of Tokens. Next returns io.EOF (wrapped,
// per the io.Reader convention of a zero-value Token alongside the
// error) once the document is exhausted, or a non-EOF error if the
// underlying source is malformed in a way the Stream itself detects
// (unbalanced tags, invalid UTF-8, and so on) rather than something
// the validator's own grammar-shaped checks would catch.
type Stream interface {
	Next() (Token, error)
}
