//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/urdwyrd/urd/pkg/emit"
)

func main() {
	data, err := emit.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/urd.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/urd.json")
}
