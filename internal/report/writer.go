// Package report persists analysis result tables.
//
// Two sinks exist: a file sink writing one CSV or Parquet file per table
// under an output directory, and a catalog sink materializing each table in
// PostgreSQL. A MultiWriter fans a result out to both. There are no
// retries; a failed write surfaces as the owning task's error.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/errs"
	dataio "github.com/datapeak/merchant-insights/internal/io"
)

// Writer persists one named result table.
type Writer interface {
	Write(ctx context.Context, table string, df *dataframe.DataFrame) error
}

// FileWriter writes each table as a file under a directory.
type FileWriter struct {
	dir    string
	format string
}

// NewFileWriter creates a file sink writing <dir>/<table>.<format>.
// Format is "csv" or "parquet".
func NewFileWriter(dir, format string) *FileWriter {
	return &FileWriter{dir: dir, format: format}
}

// Write writes the table, creating the output directory if needed.
func (w *FileWriter) Write(_ context.Context, table string, df *dataframe.DataFrame) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errs.NewWriteError("FileWriter", w.dir, err)
	}

	path := filepath.Join(w.dir, table+"."+w.format)
	f, err := os.Create(path)
	if err != nil {
		return errs.NewWriteError("FileWriter", path, err)
	}
	defer f.Close()

	switch w.format {
	case "parquet":
		err = dataio.NewParquetWriter(f, dataio.DefaultParquetOptions()).Write(df)
	case "csv":
		err = dataio.NewCSVWriter(f, dataio.DefaultCSVOptions()).Write(df)
	default:
		err = fmt.Errorf("unsupported format %q", w.format)
	}
	if err != nil {
		return errs.NewWriteError("FileWriter", path, err)
	}

	if err := f.Close(); err != nil {
		return errs.NewWriteError("FileWriter", path, err)
	}
	return nil
}

// MultiWriter fans each table out to several writers; the first failure wins.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a writer that forwards to all given writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes the table through every writer in order.
func (w *MultiWriter) Write(ctx context.Context, table string, df *dataframe.DataFrame) error {
	for _, writer := range w.writers {
		if err := writer.Write(ctx, table, df); err != nil {
			return err
		}
	}
	return nil
}
