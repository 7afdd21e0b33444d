package xsd

import (
	"fmt"
	"math/big"
	"regexp"
)

// LengthKind classifies the shape of a compiled LengthFacet.
type LengthKind int

const (
	LengthUnbounded LengthKind = iota
	LengthMin
	LengthMax
	LengthMinMax
	LengthExact
)

// A LengthFacet bounds the length of a value's lexical or value space
// (the exact unit - code points, tokens, or octets - depends on the
// Tag it is compiled against; see Type.Length).
type LengthFacet struct {
	Kind     LengthKind
	Min, Max int
}

func (l LengthFacet) bounds() (hasMin bool, min int, hasMax bool, max int) {
	switch l.Kind {
	case LengthMin:
		return true, l.Min, false, 0
	case LengthMax:
		return false, 0, true, l.Max
	case LengthMinMax:
		return true, l.Min, true, l.Max
	case LengthExact:
		return true, l.Min, true, l.Min
	default:
		return false, 0, false, 0
	}
}

// Merge combines l with another LengthFacet, as when a type restricts
// length twice (e.g. an explicit Length together with a MinLength).
// Merge is fully symmetric: the order of the two facets never affects
// the result. It reports a conflict if the combination can never be
// satisfied by any value (e.g. Length(4) merged with MinLength(5)).
//
// The source this package was adapted from only partially implemented
// this merge (several combinations panicked); SPEC_FULL calls for the
// full symmetric merge implemented here.
func (l LengthFacet) Merge(o LengthFacet) (LengthFacet, error) {
	hasMin1, min1, hasMax1, max1 := l.bounds()
	hasMin2, min2, hasMax2, max2 := o.bounds()

	hasMin := hasMin1 || hasMin2
	hasMax := hasMax1 || hasMax2
	var min, max int

	switch {
	case hasMin1 && hasMin2:
		min = maxInt(min1, min2)
	case hasMin1:
		min = min1
	case hasMin2:
		min = min2
	}
	switch {
	case hasMax1 && hasMax2:
		max = minInt(max1, max2)
	case hasMax1:
		max = max1
	case hasMax2:
		max = max2
	}
	if hasMin && hasMax && min > max {
		return LengthFacet{}, &CompileError{Facet: "length", Message: "minLength/length exceeds maxLength/length"}
	}
	switch {
	case !hasMin && !hasMax:
		return LengthFacet{Kind: LengthUnbounded}, nil
	case hasMin && !hasMax:
		return LengthFacet{Kind: LengthMin, Min: min}, nil
	case !hasMin && hasMax:
		return LengthFacet{Kind: LengthMax, Max: max}, nil
	case min == max:
		return LengthFacet{Kind: LengthExact, Min: min, Max: min}, nil
	default:
		return LengthFacet{Kind: LengthMinMax, Min: min, Max: max}, nil
	}
}

func (l LengthFacet) accepts(n int) bool {
	hasMin, min, hasMax, max := l.bounds()
	if hasMin && n < min {
		return false
	}
	if hasMax && n > max {
		return false
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Bound is an inclusive or exclusive numeric bound over the exact
// rational value space used by the integer and decimal families.
type Bound struct {
	Set       bool
	Value     *big.Rat
	Inclusive bool
}

func (b Bound) satisfiesMin(v *big.Rat) bool {
	if !b.Set {
		return true
	}
	cmp := v.Cmp(b.Value)
	if b.Inclusive {
		return cmp >= 0
	}
	return cmp > 0
}

func (b Bound) satisfiesMax(v *big.Rat) bool {
	if !b.Set {
		return true
	}
	cmp := v.Cmp(b.Value)
	if b.Inclusive {
		return cmp <= 0
	}
	return cmp < 0
}

// FloatBound is an inclusive or exclusive bound over the float/double
// value space, kept separate from Bound because float and double
// retain IEEE-754 semantics (and are excluded from facets when NaN or
// infinite) rather than the exact rational semantics of decimal.
type FloatBound struct {
	Set       bool
	Value     float64
	Inclusive bool
}

func (b FloatBound) satisfiesMin(v float64) bool {
	if !b.Set {
		return true
	}
	if b.Inclusive {
		return v >= b.Value
	}
	return v > b.Value
}

func (b FloatBound) satisfiesMax(v float64) bool {
	if !b.Set {
		return true
	}
	if b.Inclusive {
		return v <= b.Value
	}
	return v < b.Value
}

// Facets holds every facet this package compiles, regardless of
// family; Compile only lets a caller set the facets that apply to the
// Tag being compiled.
type Facets struct {
	Min, Max             Bound
	FloatMin, FloatMax   FloatBound
	Length               LengthFacet
	Pattern              *regexp.Regexp
	FractionDigits       *int
	TotalDigits          *int
}

// A Type is a compiled XSD simple type: a Tag plus the facets that
// restrict its value space.
type Type struct {
	Tag    Tag
	Facets Facets
}

// Key returns a string that identifies t's value space: two Types
// with the same Tag and facets produce equal Keys. Used to dedup
// datatype-bearing pattern nodes the way nameclass.Class.Key dedups
// name classes, so two <data> elements with identical facets share
// one compiled Type instead of each getting their own.
func (t *Type) Key() string {
	bound := func(b Bound) string {
		if !b.Set {
			return "-"
		}
		return fmt.Sprintf("%s,%v", b.Value.String(), b.Inclusive)
	}
	floatBound := func(b FloatBound) string {
		if !b.Set {
			return "-"
		}
		return fmt.Sprintf("%v,%v", b.Value, b.Inclusive)
	}
	fracDigits, totalDigits := "-", "-"
	if t.Facets.FractionDigits != nil {
		fracDigits = fmt.Sprint(*t.Facets.FractionDigits)
	}
	if t.Facets.TotalDigits != nil {
		totalDigits = fmt.Sprint(*t.Facets.TotalDigits)
	}
	pattern := "-"
	if t.Facets.Pattern != nil {
		pattern = t.Facets.Pattern.String()
	}
	return fmt.Sprintf("%d\x00%s\x00%s\x00%s\x00%s\x00%d,%d,%d\x00%s\x00%s\x00%s",
		t.Tag,
		bound(t.Facets.Min), bound(t.Facets.Max),
		floatBound(t.Facets.FloatMin), floatBound(t.Facets.FloatMax),
		t.Facets.Length.Kind, t.Facets.Length.Min, t.Facets.Length.Max,
		pattern, fracDigits, totalDigits,
	)
}

// Option configures a Type during Compile.
type Option func(*Type) error

func numericOption(facet string, inclusive bool, isMax bool, lexical string) Option {
	return func(t *Type) error {
		switch t.Tag.family() {
		case familyBoundedInt, familyBignum:
			v, err := parseBignum(t.Tag, lexical)
			if err != nil {
				return &CompileError{Tag: t.Tag, Facet: facet, Message: err.Error()}
			}
			b := Bound{Set: true, Value: v, Inclusive: inclusive}
			if isMax {
				t.Facets.Max = b
			} else {
				t.Facets.Min = b
			}
		case familyFloating:
			v, err := parseFiniteFloat(lexical)
			if err != nil {
				return &CompileError{Tag: t.Tag, Facet: facet, Message: err.Error()}
			}
			b := FloatBound{Set: true, Value: v, Inclusive: inclusive}
			if isMax {
				t.Facets.FloatMax = b
			} else {
				t.Facets.FloatMin = b
			}
		default:
			return &CompileError{Tag: t.Tag, Facet: facet, Message: "not a numeric type"}
		}
		return nil
	}
}

// MinInclusive sets the inclusive lower bound facet.
func MinInclusive(lexical string) Option { return numericOption("minInclusive", true, false, lexical) }

// MaxInclusive sets the inclusive upper bound facet.
func MaxInclusive(lexical string) Option { return numericOption("maxInclusive", true, true, lexical) }

// MinExclusive sets the exclusive lower bound facet.
func MinExclusive(lexical string) Option { return numericOption("minExclusive", false, false, lexical) }

// MaxExclusive sets the exclusive upper bound facet.
func MaxExclusive(lexical string) Option { return numericOption("maxExclusive", false, true, lexical) }

func mergeLength(facet string, next LengthFacet) Option {
	return func(t *Type) error {
		switch t.Tag.family() {
		case familyString, familyBinary:
		default:
			return &CompileError{Tag: t.Tag, Facet: facet, Message: "not a length-bearing type"}
		}
		merged, err := t.Facets.Length.Merge(next)
		if err != nil {
			ce := err.(*CompileError)
			ce.Tag = t.Tag
			ce.Facet = facet
			return ce
		}
		t.Facets.Length = merged
		return nil
	}
}

// Length constrains a value to have exactly n length units.
func Length(n int) Option { return mergeLength("length", LengthFacet{Kind: LengthExact, Min: n, Max: n}) }

// MinLength sets a lower bound on a value's length.
func MinLength(n int) Option { return mergeLength("minLength", LengthFacet{Kind: LengthMin, Min: n}) }

// MaxLength sets an upper bound on a value's length.
func MaxLength(n int) Option { return mergeLength("maxLength", LengthFacet{Kind: LengthMax, Max: n}) }

// Pattern restricts a value's lexical form to one matching re, which
// is implicitly anchored at both ends (XSD patterns always match the
// entire lexical value, never a substring).
func Pattern(re string) Option {
	return func(t *Type) error {
		anchored := "^(?:" + re + ")$"
		compiled, err := regexp.Compile(anchored)
		if err != nil {
			return &CompileError{Tag: t.Tag, Facet: "pattern", Message: err.Error()}
		}
		t.Facets.Pattern = compiled
		return nil
	}
}

// FractionDigits bounds the digits to the right of the decimal point
// of a decimal value.
func FractionDigits(n int) Option {
	return func(t *Type) error {
		if t.Tag != Decimal {
			return &CompileError{Tag: t.Tag, Facet: "fractionDigits", Message: "only valid for decimal"}
		}
		if n < 0 {
			return &CompileError{Tag: t.Tag, Facet: "fractionDigits", Message: "must be non-negative"}
		}
		t.Facets.FractionDigits = &n
		return nil
	}
}

// TotalDigits bounds the total significant digits of a decimal value.
func TotalDigits(n int) Option {
	return func(t *Type) error {
		if t.Tag != Decimal {
			return &CompileError{Tag: t.Tag, Facet: "totalDigits", Message: "only valid for decimal"}
		}
		if n < 1 {
			return &CompileError{Tag: t.Tag, Facet: "totalDigits", Message: "must be positive"}
		}
		t.Facets.TotalDigits = &n
		return nil
	}
}

// Compile builds a Type from tag and opts, starting from tag's
// inherent built-in constraints (e.g. unsignedByte's implicit 0..255
// range) and layering opts on top. It returns a *CompileError if any
// option is inapplicable to tag's family, or if the resulting facets
// are mutually inconsistent (e.g. minInclusive > maxInclusive).
func Compile(tag Tag, opts ...Option) (t *Type, err error) {
	defer catchCompileError(&err)
	result := &Type{Tag: tag, Facets: builtinFacets(tag)}
	for _, opt := range opts {
		if err := opt(result); err != nil {
			return nil, err
		}
	}
	if err := checkConsistent(result); err != nil {
		return nil, err
	}
	return result, nil
}

func checkConsistent(t *Type) error {
	switch t.Tag.family() {
	case familyBoundedInt, familyBignum:
		if t.Facets.Min.Set && t.Facets.Max.Set {
			cmp := t.Facets.Min.Value.Cmp(t.Facets.Max.Value)
			if cmp > 0 || (cmp == 0 && !(t.Facets.Min.Inclusive && t.Facets.Max.Inclusive)) {
				return &CompileError{Tag: t.Tag, Facet: "min/max", Message: "minimum bound exceeds maximum bound"}
			}
		}
	case familyFloating:
		if t.Facets.FloatMin.Set && t.Facets.FloatMax.Set {
			if t.Facets.FloatMin.Value > t.Facets.FloatMax.Value {
				return &CompileError{Tag: t.Tag, Facet: "min/max", Message: "minimum bound exceeds maximum bound"}
			}
		}
	}
	return nil
}
