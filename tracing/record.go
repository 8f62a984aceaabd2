// Package tracing observes a running core through akita hooks. It can log
// cache and pipeline events, dump the pipeline after every instruction and
// record events to CSV or SQLite.
package tracing

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

// Record kinds.
const (
	KindInst   = "INST"
	KindData   = "DATA"
	KindBranch = "BRANCH"
)

// Record is one traced event.
type Record struct {
	ID      string
	Cycle   uint64
	Kind    string
	Address uint32
	Index   uint32
	Tag     uint32
	Hit     bool
	Hazard  bool
	Detail  string
}

// TraceWriter stores records.
type TraceWriter interface {
	Init() error
	Write(r Record) error
	Flush() error
}

// Recorder turns core, pipeline and cache hook events into records.
type Recorder struct {
	writer   TraceWriter
	pipeline *pipeline.Pipeline

	lastAccess cache.AccessEvent
	err        error
}

// NewRecorder creates a Recorder that writes to w.
func NewRecorder(w TraceWriter) *Recorder {
	return &Recorder{writer: w}
}

// Attach registers the recorder on every hookable part of c.
func (r *Recorder) Attach(c *core.Core) {
	r.pipeline = c.Pipeline

	c.AcceptHook(r)
	c.Cache.AcceptHook(r)
	c.Pipeline.AcceptHook(r)
}

// Err returns the first write error seen, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Func handles a hook event.
func (r *Recorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		// The cache reports before the fetch or data event that caused it.
		r.lastAccess = ctx.Item.(cache.AccessEvent)
	case core.HookPosFetch:
		e := ctx.Item.(core.FetchEvent)
		r.write(r.accessRecord(KindInst, e.Address, e.Hit, false))
	case pipeline.HookPosDataAccess:
		e := ctx.Item.(pipeline.DataAccessEvent)
		rec := r.accessRecord(KindData, e.Address, e.Hit, e.Hazard)
		if e.Store {
			rec.Detail = "store"
		} else {
			rec.Detail = "load"
		}
		r.write(rec)
	case pipeline.HookPosBranchResolved:
		e := ctx.Item.(pipeline.BranchEvent)
		r.write(Record{
			ID:      xid.New().String(),
			Cycle:   r.cycle(),
			Kind:    KindBranch,
			Address: e.Address,
			Hit:     e.Correct,
			Detail: fmt.Sprintf("next=0x%x taken=%t predicted=%t evaluated=%t",
				e.NextAddress, e.Taken, e.Predicted, e.Evaluated),
		})
	}
}

func (r *Recorder) accessRecord(kind string, addr uint32, hit, hazard bool) Record {
	rec := Record{
		ID:      xid.New().String(),
		Cycle:   r.cycle(),
		Kind:    kind,
		Address: addr,
		Hit:     hit,
		Hazard:  hazard,
	}

	if r.lastAccess.Address == addr {
		rec.Index = r.lastAccess.Index
		rec.Tag = r.lastAccess.Tag
	}

	return rec
}

func (r *Recorder) cycle() uint64 {
	if r.pipeline == nil {
		return 0
	}
	return r.pipeline.Stats().Cycles
}

func (r *Recorder) write(rec Record) {
	if r.err != nil {
		return
	}

	if err := r.writer.Write(rec); err != nil {
		r.err = fmt.Errorf("failed to write trace record: %w", err)
	}
}
