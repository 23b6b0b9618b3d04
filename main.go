// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"presburger/internal/diag"
	"presburger/internal/parser"
	"presburger/internal/poly"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: presburger <file.isl>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	ctx := poly.NewContext()
	m, err := parser.ParseMap(ctx, string(source))
	if err != nil {
		r := diag.NewReporter(path, string(source))
		fmt.Fprint(os.Stderr, r.Format(diag.FromParseError(err)))
		os.Exit(1)
	}

	fmt.Println(m)

	color.Green("Successfully processed %s", path)
}
