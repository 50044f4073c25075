package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/pkg/compiler"
	"github.com/urdwyrd/urd/pkg/diffsnapshot"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Compile a world and emit its .urd.snapshot.json",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	res, err := compiler.Compile(filePath, compiler.Options{})
	if err != nil {
		return fmt.Errorf("compile %s: %w", filePath, err)
	}
	printDiagnostics(res)

	snap := diffsnapshot.FromResult(res)
	data, err := diffsnapshot.ToJSON(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if snapshotOut == "" {
		os.Stdout.Write(data)
	} else if err := os.WriteFile(snapshotOut, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", snapshotOut, err)
	}

	if res.HasErrors() {
		os.Exit(1)
	}
	return nil
}
