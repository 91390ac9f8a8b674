package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"tsgen/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the header and every row of t.
func WriteCSV(w io.Writer, t *table.Table, opts Options) error {
	sw, err := NewStreamWriter(w, t.Header(), opts.BOM)
	if err != nil {
		return err
	}
	if err := t.EachRecord(opts.Precision, sw.WriteRecord); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return sw.Flush()
}

// StreamWriter writes CSV records one at a time.
type StreamWriter struct {
	writer *csv.Writer
	rows   int
}

// NewStreamWriter writes the optional BOM and the header, then returns a
// writer for the records.
func NewStreamWriter(w io.Writer, header []string, bom bool) (*StreamWriter, error) {
	// Write BOM if requested (helps Excel recognize UTF-8)
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return &StreamWriter{writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	s.rows++
	return s.writer.Write(record)
}

// Rows returns the number of records written.
func (s *StreamWriter) Rows() int { return s.rows }

// Flush flushes buffered records and reports any write error.
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}
