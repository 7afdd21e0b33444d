// Command rngvalidate validates one or more XML documents against a
// RELAX NG schema (XML syntax), reporting the first validation error
// found in each.
//
// Usage:
//
//	rngvalidate [-dump] [-v] schema.rng [instance.xml ...]
//
// With -dump, the compiled pattern pool is printed as annotated
// pseudo-Go source instead of validating anything, for inspecting how
// a schema compiled rather than what a particular document does
// against it.
package main // import "github.com/adammathes/relaxng-go/cmd/rngvalidate"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/adammathes/relaxng-go/internal/commandline"
	"github.com/adammathes/relaxng-go/pattern"
	"github.com/adammathes/relaxng-go/restrict"
	"github.com/adammathes/relaxng-go/schema"
	"github.com/adammathes/relaxng-go/validator"
	"github.com/adammathes/relaxng-go/xmltoken"
)

var (
	dump    = flag.Bool("dump", false, "print the compiled pattern pool as pseudo-Go source instead of validating")
	verbose = flag.Bool("v", false, "log each D_open and D_text derivative applied")
	nsDecls commandline.Strings
)

func init() {
	flag.Var(&nsDecls, "ns", "declare a namespace prefix binding (prefix=uri) in scope for the whole document; may be repeated")
}

// namespaceOptions turns each -ns prefix=uri flag into a
// validator.WithNamespace option, in the order given on the command
// line.
func namespaceOptions(decls commandline.Strings) ([]validator.Option, error) {
	var opts []validator.Option
	for _, decl := range decls {
		parts := strings.SplitN(decl, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid -ns %q, want prefix=uri", decl)
		}
		opts = append(opts, validator.WithNamespace(parts[0], parts[1]))
	}
	return opts, nil
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalf("Usage: %s [-dump] [-v] schema.rng [instance.xml]", os.Args[0])
	}

	schemaFile := flag.Arg(0)
	f, err := os.Open(schemaFile)
	if err != nil {
		log.Fatal(err)
	}
	g, err := schema.ParseXML(f)
	f.Close()
	if err != nil {
		log.Fatalf("%s: %v", schemaFile, err)
	}

	pool := pattern.NewPool()
	root, err := schema.Compile(pool, g)
	if err != nil {
		log.Fatalf("%s: %v", schemaFile, err)
	}

	if errs := restrict.Check(pool, root); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s: restriction %s: %s\n", schemaFile, e.Rule, e.Message)
		}
		os.Exit(1)
	}

	if *dump {
		src, err := dumpPool(pool, root)
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(src)
		return
	}

	if flag.NArg() < 2 {
		fmt.Printf("%s: schema compiled with no restriction violations; no instance document given\n", schemaFile)
		return
	}

	opts, err := namespaceOptions(nsDecls)
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		opts = append(opts, validator.WithLogger(log.New(os.Stderr, "", 0)))
	}

	failed := false
	for _, instanceFile := range flag.Args()[1:] {
		if err := validateFile(pool, root, instanceFile, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", instanceFile, err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid against %s\n", instanceFile, schemaFile)
	}
	if failed {
		os.Exit(1)
	}
}

func validateFile(pool *pattern.Pool, root pattern.ID, name string, opts []validator.Option) error {
	doc, err := os.Open(name)
	if err != nil {
		return err
	}
	defer doc.Close()

	v := validator.New(pool, root, xmltoken.New(doc), opts...)
	for {
		more, err := v.ValidateNext()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	if !v.Nullable() {
		return fmt.Errorf("document ended with unsatisfied content")
	}
	return nil
}
