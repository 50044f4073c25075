package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/pkg/compiler"
	"github.com/urdwyrd/urd/pkg/diagram"
)

var diagramFormat string

var diagramCmd = &cobra.Command{
	Use:   "diagram <file>",
	Short: "Render a compiled world's location/exit graph",
	Long: `diagram compiles a world and renders its location/exit graph as
a Mermaid flowchart or an ASCII box diagram, to help authors see the
map their Schema Markdown describes.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagram,
}

func runDiagram(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	res, err := compiler.Compile(filePath, compiler.Options{})
	if err != nil {
		return fmt.Errorf("compile %s: %w", filePath, err)
	}
	printDiagnostics(res)

	if res.HasErrors() {
		os.Exit(1)
	}

	out, err := diagram.Generate(res.Document, diagram.Format(diagramFormat))
	if err != nil {
		return fmt.Errorf("render diagram: %w", err)
	}
	fmt.Print(out)
	return nil
}
