package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/iplcsim/config"
)

// prompt asks for the trace file, the cache geometry and the prediction
// direction, overwriting those fields of cfg.
func prompt(in io.Reader, out io.Writer, cfg *config.Config) error {
	r := bufio.NewReader(in)

	_, _ = fmt.Fprint(out, "Please enter the tracefile: ")
	if _, err := fmt.Fscan(r, &cfg.Trace); err != nil {
		return fmt.Errorf("failed to read trace file name: %w", err)
	}

	_, _ = fmt.Fprint(out, "Enter Cache Size (index), Blocksize and Level of Assoc \n")
	_, err := fmt.Fscan(r,
		&cfg.Cache.IndexBits, &cfg.Cache.BlockWords, &cfg.Cache.Associativity)
	if err != nil {
		return fmt.Errorf("failed to read cache parameters: %w", err)
	}

	_, _ = fmt.Fprint(out, "Enter Branch Prediction: 0 (NOT taken), 1 (TAKEN): ")
	var taken int
	if _, err := fmt.Fscan(r, &taken); err != nil {
		return fmt.Errorf("failed to read branch prediction: %w", err)
	}
	cfg.PredictTaken = taken != 0

	return nil
}
