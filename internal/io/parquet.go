package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/series"
)

// Read reads Parquet data and returns a DataFrame.
//
// The physical schema is normalized on the way in: 32-bit integers widen
// to int64, 32-bit floats to float64, and timestamp columns become int64
// Unix seconds. Validity bitmaps carry through as null slots.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}
	readerAt := bytes.NewReader(data)

	pqReader, err := file.NewParquetReader(readerAt)
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataFrame(table)
}

// arrowTableToDataFrame converts an Arrow table to a DataFrame.
func (r *ParquetReader) arrowTableToDataFrame(table arrow.Table) (*dataframe.DataFrame, error) {
	schema := table.Schema()
	seriesList := make([]dataframe.ISeries, 0, table.NumCols())

	for i := range int(table.NumCols()) {
		field := schema.Field(i)
		column, err := r.arrowColumnToSeries(field.Name, table.Column(i), field.Type)
		if err != nil {
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		seriesList = append(seriesList, column)
	}

	return dataframe.New(seriesList...), nil
}

// arrowColumnToSeries converts a chunked Arrow column to a single Series.
func (r *ParquetReader) arrowColumnToSeries(
	name string, column *arrow.Column, dataType arrow.DataType,
) (dataframe.ISeries, error) {
	chunks := column.Data().Chunks()
	total := 0
	for _, chunk := range chunks {
		total += chunk.Len()
	}

	switch dataType.ID() {
	case arrow.INT64:
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) int64 {
			return arr.(*array.Int64).Value(i)
		}), nil
	case arrow.INT32:
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) int64 {
			return int64(arr.(*array.Int32).Value(i))
		}), nil
	case arrow.FLOAT64:
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) float64 {
			return arr.(*array.Float64).Value(i)
		}), nil
	case arrow.FLOAT32:
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) float64 {
			return float64(arr.(*array.Float32).Value(i))
		}), nil
	case arrow.STRING:
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) string {
			return arr.(*array.String).Value(i)
		}), nil
	case arrow.BOOL:
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) bool {
			return arr.(*array.Boolean).Value(i)
		}), nil
	case arrow.TIMESTAMP:
		tsType, ok := dataType.(*arrow.TimestampType)
		if !ok {
			return nil, fmt.Errorf("unexpected timestamp type: %s", dataType)
		}
		divisor := timestampDivisor(tsType.Unit)
		return collectChunks(name, chunks, total, r.mem, func(arr arrow.Array, i int) int64 {
			return int64(arr.(*array.Timestamp).Value(i)) / divisor
		}), nil
	default:
		return nil, fmt.Errorf("unsupported Arrow type: %s", dataType)
	}
}

// timestampDivisor converts a timestamp unit to the divisor that yields seconds.
func timestampDivisor(unit arrow.TimeUnit) int64 {
	switch unit {
	case arrow.Millisecond:
		return 1_000
	case arrow.Microsecond:
		return 1_000_000
	case arrow.Nanosecond:
		return 1_000_000_000
	default:
		return 1
	}
}

// collectChunks walks every chunk of a column and materializes one series,
// preserving null slots.
func collectChunks[T any](
	name string, chunks []arrow.Array, total int, mem memory.Allocator,
	value func(arrow.Array, int) T,
) dataframe.ISeries {
	values := make([]T, total)
	valid := make([]bool, total)
	hasNull := false

	offset := 0
	for _, chunk := range chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				hasNull = true
			} else {
				values[offset] = value(chunk, i)
				valid[offset] = true
			}
			offset++
		}
	}

	if !hasNull {
		return series.New(name, values, mem)
	}
	return series.NewWithNulls(name, values, valid, mem)
}

// Write writes the DataFrame to Parquet format.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	table, err := dataFrameToArrowTable(df)
	if err != nil {
		return fmt.Errorf("converting DataFrame to Arrow table: %w", err)
	}
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(table, int64(df.Len())); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

// compressionCodec maps a codec name to its Parquet codec; unknown names
// fall back to snappy.
func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// dataFrameToArrowTable converts a DataFrame to an Arrow table.
func dataFrameToArrowTable(df *dataframe.DataFrame) (arrow.Table, error) {
	names := df.Columns()
	fields := make([]arrow.Field, 0, len(names))
	arrays := make([]arrow.Array, 0, len(names))

	for _, name := range names {
		column, ok := df.Column(name)
		if !ok {
			continue
		}
		arr := column.Array()
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     arr.DataType(),
			Nullable: true,
		})
		arrays = append(arrays, arr)
	}
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()

	schema := arrow.NewSchema(fields, nil)
	columns := make([]arrow.Column, 0, len(arrays))
	for i, arr := range arrays {
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		defer chunked.Release()
		columns = append(columns, *arrow.NewColumn(schema.Field(i), chunked))
	}

	return array.NewTable(schema, columns, int64(df.Len())), nil
}
