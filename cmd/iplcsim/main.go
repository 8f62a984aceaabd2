// Command iplcsim runs a MIPS instruction trace through a set-associative
// cache and a 5-stage pipeline model and reports cache and pipeline
// performance.
//
// Usage:
//
//	iplcsim [flags] [trace-file]
//
// Example:
//
//	# 2-way, 4-word blocks, predict taken
//	iplcsim --index 7 --block 4 --assoc 2 --predict-taken instruction-trace.txt
//
//	# Prompt for the trace and the cache parameters
//	iplcsim --interactive
package main

func main() {
	Execute()
}
