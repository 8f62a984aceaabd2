package tracing

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

// PipelineDumper prints every stage after each instruction is inserted.
type PipelineDumper struct {
	w        io.Writer
	pipeline *pipeline.Pipeline

	stageColor *color.Color
	bubble     *color.Color
}

// NewPipelineDumper creates a dumper writing to w.
func NewPipelineDumper(w io.Writer) *PipelineDumper {
	return &PipelineDumper{
		w:          w,
		stageColor: color.New(color.FgCyan, color.Bold),
		bubble:     color.New(color.Faint),
	}
}

// Attach registers the dumper on c.
func (d *PipelineDumper) Attach(c *core.Core) {
	d.pipeline = c.Pipeline
	c.AcceptHook(d)
}

// Func handles a hook event.
func (d *PipelineDumper) Func(ctx sim.HookCtx) {
	if ctx.Pos != core.HookPosIssued {
		return
	}

	var cycles uint64
	if d.pipeline != nil {
		cycles = d.pipeline.Stats().Cycles
	}

	fmt.Fprintln(d.w, d.Format(cycles, ctx.Item.(pipeline.Stages)))
}

// Format renders one dump line.
func (d *PipelineDumper) Format(cycles uint64, stages pipeline.Stages) string {
	parts := make([]string, 0, pipeline.NumStages)

	for i, slot := range stages {
		text := fmt.Sprintf("%s:\t %v: 0x%x", d.stageColor.Sprint(pipeline.Stage(i)), slot.Kind(), slot.Address)
		if slot.IsNOP() {
			text = d.bubble.Sprint(text)
		}
		parts = append(parts, text)
	}

	return fmt.Sprintf("(cyc: %d) %s", cycles, strings.Join(parts, " \t"))
}
