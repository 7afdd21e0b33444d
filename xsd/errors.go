package xsd

import "fmt"

// A CompileError is returned when a Tag and a set of facets cannot be
// compiled into a Type: an unsupported datatype, an invalid facet
// value, conflicting facets, or an invalid regular expression.
//
// Adapted from the teacher's xsd.parseError breadcrumb-panic idiom
// (xsd/walk.go): Compile recovers a *CompileError panicked through stop
// or stopf. The facet Options in this package do not panic; each
// returns its *CompileError, and Compile returns the first one.
type CompileError struct {
	Tag     Tag
	Facet   string
	Message string
}

func (e *CompileError) Error() string {
	if e.Facet == "" {
		return fmt.Sprintf("xsd: %s: %s", e.Tag, e.Message)
	}
	return fmt.Sprintf("xsd: %s: facet %s: %s", e.Tag, e.Facet, e.Message)
}

func stop(tag Tag, facet, msg string) {
	panic(&CompileError{Tag: tag, Facet: facet, Message: msg})
}

func stopf(tag Tag, facet, format string, args ...interface{}) {
	stop(tag, facet, fmt.Sprintf(format, args...))
}

func catchCompileError(err *error) {
	if r := recover(); r != nil {
		if ce, ok := r.(*CompileError); ok {
			*err = ce
			return
		}
		panic(r)
	}
}
