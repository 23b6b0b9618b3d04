// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"presburger/internal/cli"
	"presburger/internal/diag"
	"presburger/internal/parser"
	"presburger/internal/poly"
)

func main() {
	fs := flag.NewFlagSet("presburger-closure", flag.ExitOnError)
	opts := cli.Register(fs)
	verbose := fs.Int("verbose", 0, "logging verbosity")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if opts.Version {
		fmt.Println(cli.Version)
		return
	}
	commonlog.Configure(*verbose, nil)

	ctx := poly.NewContext()
	format, err := opts.Apply(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	name, source, err := cli.ReadInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m, err := parser.ParseMap(ctx, source)
	if err != nil {
		r := diag.NewReporter(name, source)
		fmt.Fprint(os.Stderr, r.Format(diag.FromParseError(err)))
		os.Exit(1)
	}

	closed, exact, err := m.TransitiveClosure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "presburger-closure: %s\n", err)
		os.Exit(1)
	}
	if !exact {
		fmt.Println("# not exact")
	}
	fmt.Println(poly.FormatMap(closed, format))
}
