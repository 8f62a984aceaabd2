// Package loader provides instruction trace loading for the timing simulator.
package loader

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/iplcsim/insts"
)

// Source yields decoded instructions in program order. Next returns io.EOF
// once the trace is exhausted.
type Source interface {
	Next() (insts.Instruction, error)
}

// TraceReader decodes a text trace one line at a time.
type TraceReader struct {
	scanner *bufio.Scanner
	decoder *insts.Decoder
	closers []io.Closer
	line    int
}

// NewTraceReader creates a TraceReader over r.
func NewTraceReader(r io.Reader) *TraceReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &TraceReader{
		scanner: scanner,
		decoder: insts.NewDecoder(),
	}
}

// Open opens a trace file. Files ending in .gz are decompressed.
func Open(path string) (*TraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		t := NewTraceReader(f)
		t.closers = []io.Closer{f}
		return t, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open compressed trace: %w", err)
	}

	t := NewTraceReader(zr)
	t.closers = []io.Closer{zr, f}

	return t, nil
}

// Next decodes the next non-blank line. Decode failures are returned as
// *insts.MalformedInputError carrying the line number.
func (t *TraceReader) Next() (insts.Instruction, error) {
	for t.scanner.Scan() {
		t.line++

		text := t.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		inst, err := t.decoder.Decode(text)
		if err != nil {
			var malformed *insts.MalformedInputError
			if errors.As(err, &malformed) {
				malformed.Line = t.line
			}
			return insts.Instruction{}, err
		}

		return inst, nil
	}

	if err := t.scanner.Err(); err != nil {
		return insts.Instruction{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return insts.Instruction{}, io.EOF
}

// Line returns the number of the last line read.
func (t *TraceReader) Line() int {
	return t.line
}

// Close releases the underlying file, if any.
func (t *TraceReader) Close() error {
	var errs []error
	for _, c := range t.closers {
		errs = append(errs, c.Close())
	}
	t.closers = nil

	return errors.Join(errs...)
}

// SliceSource replays instructions held in memory.
type SliceSource struct {
	insts []insts.Instruction
	next  int
}

// NewSliceSource creates a Source over a fixed instruction list.
func NewSliceSource(list []insts.Instruction) *SliceSource {
	return &SliceSource{insts: list}
}

// Next returns the next instruction.
func (s *SliceSource) Next() (insts.Instruction, error) {
	if s.next >= len(s.insts) {
		return insts.Instruction{}, io.EOF
	}

	inst := s.insts[s.next]
	s.next++

	return inst, nil
}

// ReadAll drains src into a slice.
func ReadAll(src Source) ([]insts.Instruction, error) {
	var list []insts.Instruction

	for {
		inst, err := src.Next()
		if errors.Is(err, io.EOF) {
			return list, nil
		}
		if err != nil {
			return list, err
		}

		list = append(list, inst)
	}
}

// Load reads an entire trace file.
func Load(path string) ([]insts.Instruction, error) {
	t, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.Close() }()

	return ReadAll(t)
}
