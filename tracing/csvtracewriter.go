package tracing

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter stores records into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []Record
	bufferSize int
}

// NewCSVTraceWriter creates a CSVTraceWriter. The file is path + ".csv";
// an empty path picks a unique name.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the file the writer stores records in.
func (t *CSVTraceWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the CSV file. It fails if the file already exists. Buffered
// records are flushed when the program exits through atexit.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "iplcsim_trace_" + xid.New().String()
	}

	filename := t.Path()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	t.file = file

	fmt.Fprintf(file, "ID, Cycle, Kind, Address, Index, Tag, Hit, Hazard, Detail\n")

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

// Write buffers a record.
func (t *CSVTraceWriter) Write(r Record) error {
	t.records = append(t.records, r)
	if len(t.records) >= t.bufferSize {
		return t.Flush()
	}

	return nil
}

// Flush writes the buffered records to the file.
func (t *CSVTraceWriter) Flush() error {
	if t.file == nil {
		return nil
	}

	for _, r := range t.records {
		_, err := fmt.Fprintf(t.file, "%s, %d, %s, 0x%x, 0x%x, 0x%x, %t, %t, %s\n",
			r.ID,
			r.Cycle,
			r.Kind,
			r.Address,
			r.Index,
			r.Tag,
			r.Hit,
			r.Hazard,
			r.Detail,
		)
		if err != nil {
			return fmt.Errorf("failed to write trace file: %w", err)
		}
	}

	t.records = nil

	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (t *CSVTraceWriter) Close() error {
	if t.file == nil {
		return nil
	}

	if err := t.Flush(); err != nil {
		return err
	}

	err := t.file.Close()
	t.file = nil

	return err
}
