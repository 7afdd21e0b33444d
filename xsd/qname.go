package xsd

// A QNameValue is a parsed XSD QName: a namespace URI (possibly empty,
// for the no-namespace case) paired with a local name. It is the value
// produced by resolving a prefixed QName lexical form ("prefix:local")
// against an in-scope namespace binding, the way an xmltree.Scope
// resolves element and attribute names.
type QNameValue struct {
	NS    string
	Local string
}

// Equal reports whether q and o name the same namespace-qualified
// name.
func (q QNameValue) Equal(o QNameValue) bool {
	return q.NS == o.NS && q.Local == o.Local
}

// Namespaces resolves a namespace prefix (the empty string for the
// default namespace) to the URI it is currently bound to, in scope at
// the point a QName-typed value is being read. A validator supplies
// its element stack's in-scope Scope as a Namespaces; a schema parser
// resolving a QName <value> literal at compile time supplies whatever
// bindings it has for that literal instead (package schema's parser
// uses the <value> element's own xmlns attributes).
type Namespaces interface {
	ResolvePrefix(prefix string) (ns string, ok bool)
}

// ParseQName splits lexical on the first colon, interpreting the
// result as a prefix-qualified name, and resolves the prefix against
// ns. A lexical value with no colon is resolved against the default
// (unprefixed) binding.
func ParseQName(lexical string, ns Namespaces) (QNameValue, bool) {
	prefix := ""
	local := lexical
	for i := 0; i < len(lexical); i++ {
		if lexical[i] == ':' {
			prefix = lexical[:i]
			local = lexical[i+1:]
			break
		}
	}
	if local == "" || !isNCName(local) || (prefix != "" && !isNCName(prefix)) {
		return QNameValue{}, false
	}
	uri, ok := ns.ResolvePrefix(prefix)
	if !ok {
		return QNameValue{}, false
	}
	return QNameValue{NS: uri, Local: local}, true
}
