// Package core provides the trace-driven CPU core model.
// It couples one cache with the 5-stage pipeline and feeds decoded
// instructions through them.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/loader"
	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/latency"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

// ErrFinalized is returned when instructions arrive after Finalize.
var ErrFinalized = errors.New("core: already finalized")

// HookPosFetch marks an instruction fetch. The item is a FetchEvent.
var HookPosFetch = &sim.HookPos{Name: "CoreFetch"}

// HookPosIssued marks the end of one instruction's insertion. The item is
// the pipeline.Stages snapshot.
var HookPosIssued = &sim.HookPos{Name: "CoreIssued"}

// FetchEvent describes an instruction fetch cache check.
type FetchEvent struct {
	Address uint32
	Hit     bool
}

// Config holds the parameters of a core.
type Config struct {
	Cache        cache.Config
	PredictTaken bool
	Timing       *latency.TimingConfig
}

// DefaultConfig returns the default direct-mapped, predict-not-taken core.
func DefaultConfig() Config {
	return Config{
		Cache:  cache.DefaultConfig(),
		Timing: latency.DefaultTimingConfig(),
	}
}

// Stats holds performance statistics for the core.
type Stats struct {
	Cache    cache.Statistics    `json:"cache"`
	Pipeline pipeline.Statistics `json:"pipeline"`
}

// Core represents a trace-driven CPU core model. Instruction fetches and
// data accesses share one cache.
type Core struct {
	*sim.HookableBase

	// Cache is the unified cache.
	Cache *cache.Cache

	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	timing    *latency.TimingConfig
	finalized bool
}

// New creates a Core. It fails when the cache configuration is invalid or
// the timing configuration is unusable.
func New(cfg Config) (*Core, error) {
	timing := cfg.Timing
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	}
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	return &Core{
		HookableBase: sim.NewHookableBase(),
		Cache:        c,
		Pipeline: pipeline.NewPipeline(c,
			pipeline.WithPredictTaken(cfg.PredictTaken),
			pipeline.WithTimingConfig(timing),
		),
		timing: timing,
	}, nil
}

// Fetch checks the cache for the instruction at addr. On a miss the
// pipeline advances CacheMissDelay-1 times before the instruction can be
// inserted, so fetch stalls overlap with whatever the pipeline is doing.
func (c *Core) Fetch(addr uint32) bool {
	hit := c.Cache.Access(addr)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosFetch,
		Item:   FetchEvent{Address: addr, Hit: hit},
	})

	if !hit {
		c.Pipeline.StallFetch(c.timing.MissPenalty())
	}

	return hit
}

// Execute fetches one instruction and inserts it into the pipeline.
func (c *Core) Execute(inst insts.Instruction) error {
	if c.finalized {
		return ErrFinalized
	}

	c.Fetch(inst.Address)
	c.Pipeline.SetFetchAddress(inst.Address)

	switch ops := inst.Ops.(type) {
	case insts.RType:
		c.Pipeline.InsertRType(ops.Mnemonic, ops.Dest, ops.Reg1, ops.Reg2OrConst)
	case insts.LoadWord:
		c.Pipeline.InsertLoadWord(ops.Dest, ops.Base, ops.DataAddress)
	case insts.StoreWord:
		c.Pipeline.InsertStoreWord(ops.Src, ops.Base, ops.DataAddress)
	case insts.Branch:
		c.Pipeline.InsertBranch(ops.Reg1, ops.Reg2)
	case insts.Jump:
		c.Pipeline.InsertJump(ops.Mnemonic)
	case insts.Syscall:
		c.Pipeline.InsertSyscall()
	default:
		c.Pipeline.InsertNop()
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosIssued,
		Item:   c.Pipeline.Stages(),
	})

	return nil
}

// Run executes every instruction from src. It stops at the first read or
// decode error, or when ctx is cancelled. Reaching the end of src is not
// an error. Run does not finalize the core.
func (c *Core) Run(ctx context.Context, src loader.Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		inst, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := c.Execute(inst); err != nil {
			return err
		}
	}
}

// Finalize drains the pipeline and freezes the core. Later calls return
// the same statistics.
func (c *Core) Finalize() Stats {
	if !c.finalized {
		c.Pipeline.Drain()
		c.finalized = true
	}

	return c.Stats()
}

// Finalized returns true once Finalize has been called.
func (c *Core) Finalized() bool {
	return c.finalized
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return Stats{
		Cache:    c.Cache.Stats(),
		Pipeline: c.Pipeline.Stats(),
	}
}
