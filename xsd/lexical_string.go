package xsd

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

func isNameStartChar(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStartChar(r) || r == '-' || r == '.' || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Mc, r)
}

// isName reports whether s is a well-formed XML Name: it is the
// lexical space of the XSD Name type.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStartChar(r) {
				return false
			}
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// isNCName reports whether s is a well-formed XML "non-colonized"
// name: a Name with no colon, the lexical space of NCName and the
// basis for ID/IDREF/ENTITY.
func isNCName(s string) bool {
	return isName(s) && !strings.ContainsRune(s, ':')
}

// isNMToken reports whether s is a well-formed XML Nmtoken: any
// non-empty run of name characters, colons included, with no
// requirement on the first character.
func isNMToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// collapseWhitespace implements the whiteSpace=collapse facet applied
// to token, NMTOKEN, Name, and their derivatives: leading and trailing
// whitespace is trimmed, and internal runs of whitespace are reduced
// to a single space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	inSpace := true
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !inSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		b.WriteRune(r)
		inSpace = false
	}
	return strings.TrimSuffix(b.String(), " ")
}

// isLanguage reports whether s matches the xsd:language lexical
// pattern ([a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*), the same pattern as
// the XML 1.0 xml:lang attribute.
func isLanguage(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) == 0 {
		return false
	}
	for i, p := range parts {
		if len(p) == 0 || len(p) > 8 {
			return false
		}
		for _, r := range p {
			if i == 0 {
				if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
					return false
				}
			} else if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
	}
	return true
}

// isAnyURI reports whether s is an acceptable xsd:anyURI value: a
// syntactically valid URI reference whose host, if it carries one and
// looks like a domain name, is a valid (possibly internationalized)
// hostname. golang.org/x/net/idna does the ToASCII conversion that the
// XSD definition defers to RFC 3987/IDNA.
func isAnyURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" || isIPHost(host) {
		return true
	}
	_, err = idna.Lookup.ToASCII(host)
	return err == nil
}

func isIPHost(host string) bool {
	return strings.IndexFunc(host, func(r rune) bool { return r == ':' }) >= 0 ||
		strings.Trim(host, "0123456789.") == ""
}

func acceptStringFamily(t *Type, lexical string) bool {
	value := lexical
	switch t.Tag {
	case String:
		// preserve whitespace
	case NormalizedString:
		value = strings.Map(func(r rune) rune {
			if r == '\t' || r == '\n' || r == '\r' {
				return ' '
			}
			return r
		}, value)
	default:
		value = collapseWhitespace(value)
	}

	switch t.Tag {
	case Name:
		if !isName(value) {
			return false
		}
	case NCName, ID, IDREF, ENTITY:
		if !isNCName(value) {
			return false
		}
	case NMTOKEN:
		if !isNMToken(value) {
			return false
		}
	case Language:
		if !isLanguage(value) {
			return false
		}
	case AnyURI:
		if !isAnyURI(value) {
			return false
		}
	case NMTOKENS, IDREFS, ENTITIES:
		return acceptListFamily(t, value)
	}

	if !t.Facets.Length.accepts(len([]rune(value))) {
		return false
	}
	if t.Facets.Pattern != nil && !t.Facets.Pattern.MatchString(lexical) {
		return false
	}
	return true
}

// acceptListFamily validates NMTOKENS, IDREFS, and ENTITIES: a
// whitespace-collapsed value is split on single spaces into a list of
// atomic items, each validated against the item type, and the length
// facet (when present) applies to the number of items rather than
// characters.
func acceptListFamily(t *Type, collapsed string) bool {
	var items []string
	if collapsed != "" {
		items = strings.Split(collapsed, " ")
	}
	if !t.Facets.Length.accepts(len(items)) {
		return false
	}
	for _, item := range items {
		switch t.Tag {
		case NMTOKENS:
			if !isNMToken(item) {
				return false
			}
		case IDREFS, ENTITIES:
			if !isNCName(item) {
				return false
			}
		}
	}
	if t.Facets.Pattern != nil && !t.Facets.Pattern.MatchString(collapsed) {
		return false
	}
	return true
}
