package xsd

import (
	"encoding/base64"
	"strings"
)

func acceptBinary(t *Type, lexical string) bool {
	switch t.Tag {
	case Base64Binary:
		return acceptBase64Binary(t, lexical)
	case HexBinary:
		return acceptHexBinary(t, lexical)
	}
	return false
}

// acceptBase64Binary accepts XSD's relaxed base64 grammar, which
// permits whitespace anywhere in the encoded text, and checks the
// length facet against the decoded octet count rather than the
// lexical character count.
func acceptBase64Binary(t *Type, lexical string) bool {
	compact := stripXMLWhitespace(lexical)
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return false
	}
	if !t.Facets.Length.accepts(len(decoded)) {
		return false
	}
	if t.Facets.Pattern != nil && !t.Facets.Pattern.MatchString(lexical) {
		return false
	}
	return true
}

// acceptHexBinary accepts a whitespace-free, even-length string of
// hex digits; the length facet counts octets (two hex digits each).
func acceptHexBinary(t *Type, lexical string) bool {
	if len(lexical)%2 != 0 {
		return false
	}
	for _, r := range lexical {
		if !isHexDigit(r) {
			return false
		}
	}
	if !t.Facets.Length.accepts(len(lexical) / 2) {
		return false
	}
	if t.Facets.Pattern != nil && !t.Facets.Pattern.MatchString(lexical) {
		return false
	}
	return true
}

func isHexDigit(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

func stripXMLWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
