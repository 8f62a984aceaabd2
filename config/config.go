// Package config assembles the run configuration of the simulator from
// defaults, a JSON or YAML file, a .env file, the environment and flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/timing/latency"
)

// EnvPrefix prefixes every environment variable the simulator reads.
const EnvPrefix = "IPLCSIM_"

// Trace output formats.
const (
	TraceOutputNone   = ""
	TraceOutputCSV    = "csv"
	TraceOutputSQLite = "sqlite"
)

// Config represents the simulator run configuration.
type Config struct {
	// Trace is the path of the instruction trace.
	Trace string `json:"trace" yaml:"trace"`

	Cache        cache.Config         `json:"cache" yaml:"cache"`
	PredictTaken bool                 `json:"predict_taken" yaml:"predictTaken"`
	Timing       latency.TimingConfig `json:"timing" yaml:"timing"`

	// Dump prints the pipeline after every instruction.
	Dump bool `json:"dump" yaml:"dump"`
	// Verbose logs every cache access.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// TraceOutput selects where events are recorded: "", "csv" or "sqlite".
	TraceOutput string `json:"trace_output" yaml:"traceOutput"`
	// TraceOutputPath is the output file without extension. Empty picks a
	// unique name.
	TraceOutputPath string `json:"trace_output_path" yaml:"traceOutputPath"`
}

// DefaultConfig returns the default configuration: a direct-mapped cache of
// 1024 one-word lines, predict not taken and a 10-cycle miss.
func DefaultConfig() *Config {
	return &Config{
		Cache:  cache.DefaultConfig(),
		Timing: *latency.DefaultTimingConfig(),
	}
}

// LoadConfig loads a configuration file over the defaults. Files ending in
// .yaml or .yml are YAML; anything else is JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnvFile applies IPLCSIM_* settings from a .env file and then from
// the process environment, which takes precedence. A missing file is not an
// error.
func (c *Config) ApplyEnvFile(path string) error {
	values := map[string]string{}

	if path != "" {
		fileValues, err := godotenv.Read(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("failed to read env file: %w", err)
		default:
			values = fileValues
		}
	}

	return c.ApplyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	})
}

// ApplyEnv applies IPLCSIM_* settings found through lookup.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	ints := map[string]*int{
		"INDEX_BITS":    &c.Cache.IndexBits,
		"BLOCK_WORDS":   &c.Cache.BlockWords,
		"ASSOCIATIVITY": &c.Cache.Associativity,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"PREDICT_TAKEN": &c.PredictTaken,
		"DUMP":          &c.Dump,
		"VERBOSE":       &c.Verbose,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "CACHE_MISS_DELAY"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sCACHE_MISS_DELAY: %w", EnvPrefix, err)
		}
		c.Timing.CacheMissDelay = n
	}

	strs := map[string]*string{
		"TRACE":             &c.Trace,
		"TRACE_OUTPUT":      &c.TraceOutput,
		"TRACE_OUTPUT_PATH": &c.TraceOutputPath,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	return nil
}

// Validate checks that the configuration describes a runnable simulation.
func (c *Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}

	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("invalid timing config: %w", err)
	}

	switch c.TraceOutput {
	case TraceOutputNone, TraceOutputCSV, TraceOutputSQLite:
	default:
		return fmt.Errorf("unsupported trace output %q", c.TraceOutput)
	}

	return nil
}

// CoreConfig returns the parameters of the core to build.
func (c *Config) CoreConfig() core.Config {
	return core.Config{
		Cache:        c.Cache,
		PredictTaken: c.PredictTaken,
		Timing:       c.Timing.Clone(),
	}
}
