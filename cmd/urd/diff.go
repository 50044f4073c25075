package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/pkg/compiler"
	"github.com/urdwyrd/urd/pkg/diffsnapshot"
)

var diffFormat string

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Compare two compiled worlds and report the semantic diff",
	Long: `diff compiles both worlds and produces a categorized semantic diff
between their snapshots (§6.4): entity, location, exit, section, choice,
property_dependency, rule, reachability.

Exit codes:
  0 — no changes
  1 — changes found`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	aPath, bPath := args[0], args[1]

	aRes, err := compiler.Compile(aPath, compiler.Options{})
	if err != nil {
		return fmt.Errorf("compile %s: %w", aPath, err)
	}
	bRes, err := compiler.Compile(bPath, compiler.Options{})
	if err != nil {
		return fmt.Errorf("compile %s: %w", bPath, err)
	}
	printDiagnostics(aRes)
	printDiagnostics(bRes)

	aSnap := diffsnapshot.FromResult(aRes)
	bSnap := diffsnapshot.FromResult(bRes)
	report := diffsnapshot.Diff(aSnap, bSnap)

	switch diffFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("marshal diff report: %w", err)
		}
	case "summary":
		printDiffSummary(report)
	default:
		return fmt.Errorf("unknown --format %q: expected json or summary", diffFormat)
	}

	if !report.Empty() {
		os.Exit(1)
	}
	return nil
}

func printDiffSummary(report *diffsnapshot.Report) {
	if report.Empty() {
		fmt.Println("no changes")
		return
	}
	for _, c := range report.Changes {
		if c.Detail != "" {
			fmt.Printf("%-20s %-24s %s (%s)\n", c.Category, c.Kind, c.Key, c.Detail)
		} else {
			fmt.Printf("%-20s %-24s %s\n", c.Category, c.Kind, c.Key)
		}
	}
	fmt.Printf("\n%d change(s)\n", len(report.Changes))
}
