package xsd

import (
	"math/big"
	"strconv"
	"strings"
)

func acceptBoundedInt(t *Type, lexical string) bool {
	s := strings.TrimSpace(lexical)
	if s == "" {
		return false
	}
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" {
		return false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return false
		}
	}
	// parsed as a big.Int: unsignedLong's range does not fit in int64,
	// and the range facets reject anything outside the tag's bounds
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return false
	}
	rat := new(big.Rat).SetInt(v)
	return t.Facets.Min.satisfiesMin(rat) && t.Facets.Max.satisfiesMax(rat)
}

func acceptBignum(t *Type, lexical string) bool {
	s := strings.TrimSpace(lexical)
	if s == "" {
		return false
	}
	if t.Tag != Decimal && !isIntegerLexical(s) {
		return false
	}
	if t.Tag == Decimal && !isDecimalLexical(s) {
		return false
	}
	rat, ok := new(big.Rat).SetString(s)
	if !ok {
		return false
	}
	if !t.Facets.Min.satisfiesMin(rat) || !t.Facets.Max.satisfiesMax(rat) {
		return false
	}
	if t.Tag == Decimal {
		if t.Facets.FractionDigits != nil && fractionDigits(s) > *t.Facets.FractionDigits {
			return false
		}
		if t.Facets.TotalDigits != nil && totalDigits(s) > *t.Facets.TotalDigits {
			return false
		}
	}
	return true
}

func isIntegerLexical(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isDecimalLexical(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s, ""
	if dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if intPart == "" && fracPart == "" {
		return false
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fractionDigits counts the digits after the decimal point in a
// decimal lexical form already known to be well-formed.
func fractionDigits(s string) int {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return len(strings.TrimRight(s[dot+1:], "0"))
}

// totalDigits counts significant digits: leading zeros in the integer
// part and trailing zeros after the decimal point don't count, but a
// lone "0" counts as one digit.
func totalDigits(s string) int {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	s = strings.Replace(s, ".", "", 1)
	s = strings.TrimLeft(s, "0")
	s = strings.TrimRight(s, "0")
	if s == "" {
		return 1
	}
	return len(s)
}

func acceptFloating(t *Type, lexical string) bool {
	s := strings.TrimSpace(lexical)
	switch s {
	case "NaN":
		return true // minInclusive/maxInclusive and friends don't apply to NaN
	case "INF", "+INF":
		return !t.Facets.FloatMax.Set
	case "-INF":
		return !t.Facets.FloatMin.Set
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return t.Facets.FloatMin.satisfiesMin(v) && t.Facets.FloatMax.satisfiesMax(v)
}

func acceptBoolean(lexical string) bool {
	switch strings.TrimSpace(lexical) {
	case "true", "false", "1", "0":
		return true
	}
	return false
}
