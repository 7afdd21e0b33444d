package xsd

import (
	"math/big"
	"strconv"
	"strings"
)

// builtinFacets returns the facets inherent to tag before any
// user-supplied Option is applied: the implicit range of the bounded
// integer types (byte, unsignedShort, and so on) and the implicit
// non-negative/positive/non-positive ranges of the derived integer
// family. Every other tag starts from the zero Facets value.
func builtinFacets(tag Tag) Facets {
	switch tag {
	case Byte:
		return intRangeFacets(-128, 127)
	case Short:
		return intRangeFacets(-32768, 32767)
	case Int:
		return intRangeFacets(-2147483648, 2147483647)
	case Long:
		return intRangeFacets(-9223372036854775808, 9223372036854775807)
	case UnsignedByte:
		return intRangeFacets(0, 255)
	case UnsignedShort:
		return intRangeFacets(0, 65535)
	case UnsignedInt:
		return intRangeFacets(0, 4294967295)
	case UnsignedLong:
		return uintRangeFacets(0, "18446744073709551615")
	case PositiveInteger:
		return minOnlyFacets(1)
	case NonNegativeInteger:
		return minOnlyFacets(0)
	case NegativeInteger:
		return maxOnlyFacets(-1)
	case NonPositiveInteger:
		return maxOnlyFacets(0)
	default:
		return Facets{}
	}
}

func intRangeFacets(min, max int64) Facets {
	return Facets{
		Min: Bound{Set: true, Value: new(big.Rat).SetInt64(min), Inclusive: true},
		Max: Bound{Set: true, Value: new(big.Rat).SetInt64(max), Inclusive: true},
	}
}

func uintRangeFacets(min int64, maxDecimal string) Facets {
	maxInt, ok := new(big.Int).SetString(maxDecimal, 10)
	if !ok {
		panic("xsd: bad builtin bound literal " + maxDecimal)
	}
	return Facets{
		Min: Bound{Set: true, Value: new(big.Rat).SetInt64(min), Inclusive: true},
		Max: Bound{Set: true, Value: new(big.Rat).SetInt(maxInt), Inclusive: true},
	}
}

func minOnlyFacets(min int64) Facets {
	return Facets{Min: Bound{Set: true, Value: new(big.Rat).SetInt64(min), Inclusive: true}}
}

func maxOnlyFacets(max int64) Facets {
	return Facets{Max: Bound{Set: true, Value: new(big.Rat).SetInt64(max), Inclusive: true}}
}

// parseBignum parses lexical as a value in tag's exact rational value
// space: an integer for the bounded-int and integer-derived families,
// or an arbitrary-precision decimal for Decimal.
func parseBignum(tag Tag, lexical string) (*big.Rat, error) {
	s := strings.TrimSpace(lexical)
	if s == "" {
		return nil, strconvError(lexical)
	}
	if tag == Decimal {
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, strconvError(lexical)
		}
		return r, nil
	}
	// integer family: optional leading sign, digits only
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" {
		return nil, strconvError(lexical)
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return nil, strconvError(lexical)
		}
	}
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, strconvError(lexical)
	}
	return new(big.Rat).SetInt(i), nil
}

// parseFiniteFloat parses lexical as an XSD float/double facet value.
// Facet bounds may not themselves be NaN or infinite.
func parseFiniteFloat(lexical string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
	if err != nil {
		return 0, err
	}
	if v != v || v > maxFiniteFloat || v < -maxFiniteFloat {
		return 0, strconvError(lexical)
	}
	return v, nil
}

const maxFiniteFloat = 1.7976931348623157e+308

type strconvError string

func (e strconvError) Error() string { return "invalid numeric literal " + string(e) }
