// Package report formats the results of a simulation run.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
)

var heading = color.New(color.FgGreen, color.Bold)

// Report holds everything printed at the end of a run.
type Report struct {
	Trace        string       `json:"trace,omitempty"`
	CacheConfig  cache.Config `json:"cache_config"`
	PredictTaken bool         `json:"predict_taken"`
	Stats        core.Stats   `json:"stats"`
}

// New builds a report from a core configuration and its final statistics.
func New(cfg core.Config, stats core.Stats) Report {
	return Report{
		CacheConfig:  cfg.Cache,
		PredictTaken: cfg.PredictTaken,
		Stats:        stats,
	}
}

// WriteConfig prints the cache configuration banner.
func WriteConfig(w io.Writer, cfg cache.Config) error {
	_, err := fmt.Fprintf(w,
		"%s\n"+
			"   Index: %d bits or %d lines \n"+
			"   BlockSize: %d \n"+
			"   Associativity: %d \n"+
			"   BlockOffSetBits: %d \n"+
			"   CacheSize: %d bits (%d bytes) \n",
		heading.Sprint("Cache Configuration "),
		cfg.IndexBits, cfg.NumSets(),
		cfg.BlockWords,
		cfg.Associativity,
		cfg.OffsetBits(),
		cfg.CapacityBits(), cfg.CapacityBytes(),
	)

	return err
}

// WriteText prints the cache and pipeline performance summary.
func (r Report) WriteText(w io.Writer) error {
	c := r.Stats.Cache
	p := r.Stats.Pipeline

	_, err := fmt.Fprintf(w,
		"%s\n"+
			"\t Number of Cache Accesses is %d \n"+
			"\t Number of Cache Misses is %d \n"+
			"\t Number of Cache Hits is %d \n"+
			"\t Cache Miss Rate is %f \n\n"+
			"%s\n"+
			"\t Total Cycles is %d \n"+
			"\t Total Instructions is %d \n"+
			"\t Total Branch Instructions is %d \n"+
			"\t Total Correct Branch Predictions is %d \n"+
			"\t CPI is %f \n\n",
		heading.Sprint(" Cache Performance "),
		c.Accesses, c.Misses, c.Hits, c.MissRate(),
		heading.Sprint("Pipeline Performance "),
		p.Cycles, p.Instructions, p.Branches, p.CorrectPredictions, p.CPI(),
	)

	return err
}

type jsonReport struct {
	Report
	MissRate           float64 `json:"miss_rate"`
	CPI                float64 `json:"cpi"`
	PredictionAccuracy float64 `json:"prediction_accuracy"`
}

// WriteJSON prints the report as indented JSON, including derived rates.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(jsonReport{
		Report:             r,
		MissRate:           r.Stats.Cache.MissRate(),
		CPI:                r.Stats.Pipeline.CPI(),
		PredictionAccuracy: r.Stats.Pipeline.PredictionAccuracy(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}
