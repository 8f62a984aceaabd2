// Package latency holds the cycle costs charged by the timing model.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCacheMissDelay is the cost of a cache miss in cycles.
	DefaultCacheMissDelay = 10

	// DefaultHazardStallCycles is the stall charged for a data hazard seen
	// on a memory-stage cache hit.
	DefaultHazardStallCycles = 1
)

// TimingConfig holds the cycle penalties of the pipeline model.
type TimingConfig struct {
	// CacheMissDelay is the total cost of a cache miss. The pipeline charges
	// CacheMissDelay-1 extra cycles on top of its normal one-cycle advance.
	// Default: 10 cycles.
	CacheMissDelay uint64 `json:"cache_miss_delay" yaml:"cacheMissDelay"`

	// HazardStallCycles is the stall added when the memory-stage register
	// is used by the instruction in the ALU stage. Default: 1 cycle.
	HazardStallCycles uint64 `json:"hazard_stall_cycles" yaml:"hazardStallCycles"`
}

// DefaultTimingConfig returns a TimingConfig with the default penalties.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		CacheMissDelay:    DefaultCacheMissDelay,
		HazardStallCycles: DefaultHazardStallCycles,
	}
}

// MissPenalty returns the extra cycles charged for a miss beyond the base
// advance.
func (c *TimingConfig) MissPenalty() uint64 {
	return c.CacheMissDelay - 1
}

// LoadConfig loads a TimingConfig from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON or YAML file, chosen by the
// file extension.
func (c *TimingConfig) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)

	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all penalties are usable.
func (c *TimingConfig) Validate() error {
	if c.CacheMissDelay == 0 {
		return fmt.Errorf("cache_miss_delay must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	return &TimingConfig{
		CacheMissDelay:    c.CacheMissDelay,
		HazardStallCycles: c.HazardStallCycles,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
