//nolint:testpackage // requires internal access to unexported types and functions
package io

import (
	"bytes"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/series"
)

func TestParquetRoundTripWithNulls(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := dataframe.New(
		series.New("merchant_id", []string{"m1", "m2", "m3"}, mem),
		series.NewWithNulls("category", []string{"food", "", "tech"}, []bool{true, false, true}, mem),
		series.New("amount", []float64{10.5, 20, 30.75}, mem),
		series.New("installments", []int64{0, 3, 1}, mem),
	)

	var buf bytes.Buffer
	require.NoError(t, NewParquetWriter(&buf, DefaultParquetOptions()).Write(df))

	restored, err := NewParquetReader(&buf, DefaultParquetOptions(), mem).Read()
	require.NoError(t, err)

	require.Equal(t, 3, restored.Len())
	assert.Equal(t, df.Columns(), restored.Columns())

	categories, ok := restored.Column("category")
	require.True(t, ok)
	assert.False(t, categories.IsNull(0))
	assert.True(t, categories.IsNull(1))
	assert.Equal(t, "tech", categories.(*series.Series[string]).Value(2))

	amounts, ok := restored.Column("amount")
	require.True(t, ok)
	assert.Equal(t, []float64{10.5, 20, 30.75}, amounts.(*series.Series[float64]).Values())
}

func TestParquetReadNormalizesTypes(t *testing.T) {
	mem := memory.NewGoAllocator()

	// Build a file with the narrow physical types a producer may emit.
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "city_id", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "amount", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: "purchase_date", Type: &arrow.TimestampType{Unit: arrow.Millisecond}, Nullable: true},
	}, nil)

	when := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()
	builder.Field(0).(*array.Int32Builder).AppendValues([]int32{42, 7}, []bool{true, true})
	builder.Field(1).(*array.Float32Builder).AppendValues([]float32{1.5, 2.5}, []bool{true, true})
	builder.Field(2).(*array.TimestampBuilder).AppendValues(
		[]arrow.Timestamp{arrow.Timestamp(when.UnixMilli()), 0},
		[]bool{true, false},
	)
	record := builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	writer, err := pqarrow.NewFileWriter(
		schema, &buf, parquet.NewWriterProperties(), pqarrow.NewArrowWriterProperties())
	require.NoError(t, err)
	require.NoError(t, writer.Write(record))
	require.NoError(t, writer.Close())

	df, err := NewParquetReader(&buf, DefaultParquetOptions(), mem).Read()
	require.NoError(t, err)

	cities, ok := df.Column("city_id")
	require.True(t, ok)
	assert.Equal(t, []int64{42, 7}, cities.(*series.Series[int64]).Values())

	amounts, ok := df.Column("amount")
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, amounts.(*series.Series[float64]).Values())

	dates, ok := df.Column("purchase_date")
	require.True(t, ok)
	assert.Equal(t, when.Unix(), dates.(*series.Series[int64]).Value(0))
	assert.True(t, dates.IsNull(1))
}
