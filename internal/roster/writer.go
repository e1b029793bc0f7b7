package roster

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/kingrea/canvas-grader/internal/exception"
)

// Writer appends records to a grade file. Every Write is flushed before it
// returns, so the file holds complete CSV rows even if the process dies.
type Writer struct {
	path   string
	file   *os.File
	csv    *csv.Writer
	schema Schema
}

// OpenWriter opens path for appending, creating it when missing.
func OpenWriter(path string, schema Schema) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &exception.FileAccessError{Path: path, Err: err}
	}
	return &Writer{path: path, file: file, csv: csv.NewWriter(file), schema: schema}, nil
}

// Write appends rec and flushes it to the file.
func (w *Writer) Write(rec GradeRecord) error {
	if err := w.csv.Write(w.schema.row(rec)); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	return nil
}

// Close releases the file handle.
func (w *Writer) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	if err := w.file.Close(); err != nil {
		return err
	}
	return flushErr
}
