// Package main provides the entry point for iplcsim.
// iplcsim is a trace-driven MIPS cache and pipeline simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/iplcsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("iplcsim - MIPS Cache and Pipeline Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: iplcsim [options] <trace-file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  --index          Cache index bits")
	fmt.Println("  --block          Cache block size in words")
	fmt.Println("  --assoc          Cache associativity")
	fmt.Println("  --predict-taken  Predict branches taken")
	fmt.Println("  --config         Path to a JSON or YAML run configuration")
	fmt.Println("  --interactive    Prompt for the trace and cache parameters")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/iplcsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/iplcsim' instead.")
	}
}
