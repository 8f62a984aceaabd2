// Package main provides a profiling wrapper for iplcsim to identify
// performance bottlenecks in the cache and pipeline model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/loader"
	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
)

var (
	cpuProfile   = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile   = flag.String("memprofile", "", "write memory profile to file")
	duration     = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction  = flag.Int("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	indexBits    = flag.Int("index", 10, "cache index bits")
	blockWords   = flag.Int("block", 1, "cache block size in words")
	assoc        = flag.Int("assoc", 1, "cache associativity")
	predictTaken = flag.Bool("predict-taken", false, "predict branches taken")
)

// limitSource stops after max instructions.
type limitSource struct {
	src  loader.Source
	max  int
	seen int
}

func (l *limitSource) Next() (insts.Instruction, error) {
	if l.max > 0 && l.seen >= l.max {
		return insts.Instruction{}, io.EOF
	}
	l.seen++
	return l.src.Next()
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <trace-file>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	tracePath := flag.Arg(0)

	src, err := loader.Open(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = src.Close() }()

	cfg := core.DefaultConfig()
	cfg.Cache = cache.Config{
		IndexBits:     *indexBits,
		BlockWords:    *blockWords,
		Associativity: *assoc,
	}
	cfg.PredictTaken = *predictTaken

	c, err := core.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating core: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", tracePath)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()

	runErr := c.Run(ctx, &limitSource{src: src, max: *instruction})
	if errors.Is(runErr, context.DeadlineExceeded) {
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
	} else if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error at line %d: %v\n", src.Line(), runErr)
	}

	stats := c.Finalize()
	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	instrCount := stats.Pipeline.Instructions

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Simulated cycles: %d\n", stats.Pipeline.Cycles)
	fmt.Printf("Instructions retired: %d\n", instrCount)
	fmt.Printf("Cache miss rate: %.4f\n", stats.Cache.MissRate())
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}
