// Package io provides reading and writing of DataFrame data.
//
// Two formats are supported: delimited text (CSV) with automatic type
// inference, and Parquet through the Arrow parquet bindings. Empty CSV
// fields and Parquet validity bitmaps both surface as null slots in the
// resulting DataFrame, and nulls round-trip back out on write.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapeak/merchant-insights/internal/dataframe"
)

// DataReader reads data from a source into a DataFrame.
type DataReader interface {
	Read() (*dataframe.DataFrame, error)
}

// DataWriter writes a DataFrame to a destination.
type DataWriter interface {
	Write(df *dataframe.DataFrame) error
}

// CSVOptions contains configuration options for CSV operations.
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma).
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled).
	Comment rune
	// Header indicates whether the first row contains headers.
	Header bool
}

// DefaultCSVOptions returns default CSV options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Comment: 0, Header: true}
}

// CSVReader reads CSV data and converts it to a DataFrame.
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options.
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{reader: reader, options: options, mem: mem}
}

// CSVWriter writes DataFrames to CSV format.
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options.
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{writer: writer, options: options}
}

// ParquetOptions contains configuration options for Parquet operations.
type ParquetOptions struct {
	// Compression codec name: snappy, gzip, zstd, lz4, uncompressed.
	Compression string
}

// DefaultParquetOptions returns default Parquet options.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: "snappy"}
}

// ParquetReader reads Parquet data and converts it to a DataFrame.
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options.
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	return &ParquetReader{reader: reader, options: options, mem: mem}
}

// ParquetWriter writes DataFrames to Parquet format.
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options.
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{writer: writer, options: options}
}
