package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/pkg/compiler"
	"github.com/urdwyrd/urd/pkg/diag"
)

func compilerVersion() string {
	return compiler.Version
}

// printDiagnostics writes every diagnostic in source order to stderr
// in the FILE:LINE:COL: [URDxxx] message form required by §6.1.
func printDiagnostics(res *compiler.Result) {
	for _, d := range res.Bag.Sorted(res.SourceMap) {
		fmt.Fprintln(os.Stderr, d.Format(res.SourceMap))
	}
}

// runCompile is the root command's default action: `urd <file>`
// compiles a world and writes its JSON document to stdout, printing
// diagnostics to stderr in source order (§6.1).
func runCompile(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	res, err := compiler.Compile(filePath, compiler.Options{})
	if err != nil {
		return fmt.Errorf("compile %s: %w", filePath, err)
	}

	printDiagnostics(res)

	if res.HasErrors() {
		errCount, warnCount := diagnosticCounts(res.Bag)
		fmt.Fprintf(os.Stderr, "%d error(s), %d warning(s)\n", errCount, warnCount)
		os.Exit(1)
	}
	os.Stdout.Write(res.JSON)
	return nil
}

// diagnosticCounts splits a Bag into error/warning counts for
// summary-style reporting.
func diagnosticCounts(bag *diag.Bag) (errors, warnings int) {
	for _, d := range bag.All() {
		switch d.Severity {
		case diag.Error:
			errors++
		case diag.Warning:
			warnings++
		}
	}
	return
}
