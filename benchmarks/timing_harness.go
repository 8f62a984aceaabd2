// Package benchmarks provides trace microbenchmarks for comparing cache
// and predictor configurations.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/loader"
	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/timing/latency"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// HazardStalls is cycles lost to load/store hazards
	HazardStalls uint64 `json:"hazard_stalls"`

	// MemStalls is cycles lost to data misses
	MemStalls uint64 `json:"mem_stalls"`

	// FetchStalls is advances spent on instruction fetch misses
	FetchStalls uint64 `json:"fetch_stalls"`

	// Unified cache stats
	CacheAccesses uint64  `json:"cache_accesses"`
	CacheHits     uint64  `json:"cache_hits"`
	CacheMisses   uint64  `json:"cache_misses"`
	MissRate      float64 `json:"miss_rate"`

	// Branch predictor stats
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// Error is set when the benchmark could not run
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark trace.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the decoded instruction trace, in execution order
	Program []insts.Instruction
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Cache is the unified cache geometry
	Cache cache.Config

	// PredictTaken selects the predict-taken static predictor
	PredictTaken bool

	// Timing sets the cycle penalties (nil uses the defaults)
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Cache:   cache.DefaultConfig(),
		Timing:  latency.DefaultTimingConfig(),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh core.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	cfg := core.Config{
		Cache:        h.config.Cache,
		PredictTaken: h.config.PredictTaken,
	}
	if h.config.Timing != nil {
		cfg.Timing = h.config.Timing.Clone()
	}

	c, err := core.New(cfg)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "running %s (%d instructions)\n",
			bench.Name, len(bench.Program))
	}

	start := time.Now()
	err = c.Run(context.Background(), loader.NewSliceSource(bench.Program))
	stats := c.Finalize()
	result.WallTime = time.Since(start)

	if err != nil {
		result.Error = err.Error()
	}

	result.SimulatedCycles = stats.Pipeline.Cycles
	result.InstructionsRetired = stats.Pipeline.Instructions
	result.CPI = stats.Pipeline.CPI()
	result.HazardStalls = stats.Pipeline.HazardStalls
	result.MemStalls = stats.Pipeline.MemStallCycles
	result.FetchStalls = stats.Pipeline.FetchStallCycles

	result.CacheAccesses = stats.Cache.Accesses
	result.CacheHits = stats.Cache.Hits
	result.CacheMisses = stats.Cache.Misses
	result.MissRate = stats.Cache.MissRate()

	result.BranchPredictions = stats.Pipeline.Branches
	result.BranchCorrect = stats.Pipeline.CorrectPredictions
	result.BranchMispredictions = stats.Pipeline.Mispredictions
	result.BranchAccuracyPercent = stats.Pipeline.PredictionAccuracy()

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== iplcsim Trace Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Hazard Stalls:        %d\n", r.HazardStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Mem Stalls:           %d\n", r.MemStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Fetch Stalls:         %d\n", r.FetchStalls)

		_, _ = fmt.Fprintln(h.config.Output, "  --- Cache ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Accesses:  %d\n", r.CacheAccesses)
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:      %d\n", r.CacheHits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:    %d\n", r.CacheMisses)
		_, _ = fmt.Fprintf(h.config.Output, "  Miss Rate: %.1f%%\n", r.MissRate*100)

		if r.BranchPredictions > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Branches:        %d\n", r.BranchPredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Correct:         %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(h.config.Output, "  Mispredictions:  %d\n", r.BranchMispredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,hazard_stalls,mem_stalls,fetch_stalls,cache_hits,cache_misses,branches,mispredictions")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.HazardStalls,
			r.MemStalls,
			r.FetchStalls,
			r.CacheHits,
			r.CacheMisses,
			r.BranchPredictions,
			r.BranchMispredictions,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	Cache          cache.Config `json:"cache"`
	PredictTaken   bool         `json:"predict_taken"`
	CacheMissDelay uint64       `json:"cache_miss_delay"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Version is reported in the JSON metadata.
const Version = "1.0.0"

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	missDelay := uint64(latency.DefaultCacheMissDelay)
	if h.config.Timing != nil {
		missDelay = h.config.Timing.CacheMissDelay
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config: BenchmarkConfig{
				Cache:          h.config.Cache,
				PredictTaken:   h.config.PredictTaken,
				CacheMissDelay: missDelay,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
