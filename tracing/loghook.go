package tracing

import (
	"io"
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

// LogHook prints a line for every cache access, fetch, data access and
// correctly predicted taken branch.
type LogHook struct {
	logger *log.Logger
}

// NewLogHook creates a LogHook writing to w without timestamps.
func NewLogHook(w io.Writer) *LogHook {
	return &LogHook{logger: log.New(w, "", 0)}
}

// Attach registers the hook on every hookable part of c.
func (h *LogHook) Attach(c *core.Core) {
	c.AcceptHook(h)
	c.Cache.AcceptHook(h)
	c.Pipeline.AcceptHook(h)
}

// Func handles a hook event.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		e := ctx.Item.(cache.AccessEvent)
		h.logger.Printf("Address %x: Tag= %x, Index= %x", e.Address, e.Tag, e.Index)
	case core.HookPosFetch:
		e := ctx.Item.(core.FetchEvent)
		h.logger.Printf("INST %s:\t Address 0x%x", hitOrMiss(e.Hit), e.Address)
	case pipeline.HookPosDataAccess:
		e := ctx.Item.(pipeline.DataAccessEvent)
		h.logger.Printf("DATA %s:\t Address 0x%x", hitOrMiss(e.Hit), e.Address)
	case pipeline.HookPosBranchResolved:
		e := ctx.Item.(pipeline.BranchEvent)
		if e.Evaluated && e.Correct && e.Taken {
			h.logger.Printf("DEBUG: Branch Taken: FETCH addr = 0x%x, DECODE instr addr = 0x%x",
				e.NextAddress, e.Address)
		}
	}
}

func hitOrMiss(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
