package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sarchlab/iplcsim/config"
	"github.com/sarchlab/iplcsim/loader"
	"github.com/sarchlab/iplcsim/report"
	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/tracing"
)

// traceSink is a TraceWriter that can also be closed.
type traceSink interface {
	tracing.TraceWriter
	Path() string
	Close() error
}

func newTraceSink(cfg *config.Config) traceSink {
	switch cfg.TraceOutput {
	case config.TraceOutputCSV:
		return tracing.NewCSVTraceWriter(cfg.TraceOutputPath)
	case config.TraceOutputSQLite:
		return tracing.NewSQLiteTraceWriter(cfg.TraceOutputPath)
	default:
		return nil
	}
}

// simulate runs the trace named by cfg and writes the report to out.
func simulate(ctx context.Context, cfg *config.Config, out io.Writer, jsonOut bool) error {
	src, err := loader.Open(cfg.Trace)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	coreCfg := cfg.CoreConfig()

	c, err := core.New(coreCfg)
	if err != nil {
		return err
	}

	if !jsonOut {
		if err := report.WriteConfig(out, cfg.Cache); err != nil {
			return err
		}
	}

	if cfg.Verbose {
		tracing.NewLogHook(out).Attach(c)
	}
	if cfg.Dump {
		tracing.NewPipelineDumper(out).Attach(c)
	}

	var recorder *tracing.Recorder
	sink := newTraceSink(cfg)
	if sink != nil {
		if err := sink.Init(); err != nil {
			return err
		}
		defer func() { _ = sink.Close() }()

		recorder = tracing.NewRecorder(sink)
		recorder.Attach(c)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := c.Run(ctx, src); err != nil {
		return fmt.Errorf("%s: %w", cfg.Trace, err)
	}

	stats := c.Finalize()

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return err
		}
		if err := sink.Close(); err != nil {
			return err
		}
		if !jsonOut {
			_, _ = fmt.Fprintf(out, "Trace written to %s\n", sink.Path())
		}
	}

	r := report.New(coreCfg, stats)
	r.Trace = cfg.Trace

	if jsonOut {
		return r.WriteJSON(out)
	}

	return r.WriteText(out)
}
