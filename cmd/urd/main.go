package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags; compiler.Version tracks
// the same value for the compiled document's meta.compilerVersion.
var version = "dev"

func main() {
	loadDotEnv()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDotEnv reads a .env file from the working directory and sets
// any variables not already present in the environment. Lines are
// KEY=VALUE (or KEY="VALUE"); comments (#) and blanks are skipped.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "urd [file]",
	Short: "Urd — an interactive-narrative Schema Markdown compiler",
	Long:  "urd compiles .urd.md Schema Markdown worlds into a normalized .urd.json document and flat FactSet IR.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the compiler version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("urd %s (compiler %s)\n", version, compilerVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(diagramCmd)

	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "output path for the snapshot (default: stdout)")
	diffCmd.Flags().StringVar(&diffFormat, "format", "summary", "output format: json or summary")
	diagramCmd.Flags().StringVar(&diagramFormat, "format", "mermaid", "output format: mermaid or ascii")
}
