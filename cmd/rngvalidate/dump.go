package main

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/adammathes/relaxng-go/internal/gen"
	"github.com/adammathes/relaxng-go/pattern"
)

// dumpPool renders every node in pool as one annotated pseudo-Go var
// declaration, in the style of xsdgen's generated type files: each
// line is syntactically valid Go (so go/printer can format it) but
// the file as a whole isn't meant to compile - it exists to be read,
// the way `xsdgen -o` output is read to sanity-check a generated type
// before wiring it into a real package.
func dumpPool(pool *pattern.Pool, root pattern.ID) ([]byte, error) {
	var lines []string
	for id := 0; id < pool.Size(); id++ {
		n := pool.Get(pattern.ID(id))
		lines = append(lines, fmt.Sprintf(
			"// node %d: A=%d B=%d Aux=%d Aux2=%d nullable=%v\nvar p%d %s",
			id, n.A, n.B, n.Aux, n.Aux2, n.Nullable, id, n.Kind,
		))
	}
	lines = append(lines, fmt.Sprintf("// root\nvar Root = p%d", root))

	decls, err := gen.Declarations(strings.Join(lines, "\n\n"))
	if err != nil {
		return nil, err
	}

	file := &ast.File{Name: ast.NewIdent("rngdump"), Decls: decls}
	gen.PackageDoc(file, "Code generated by rngvalidate -dump. DO NOT EDIT.")
	return gen.FormattedSource(file)
}
