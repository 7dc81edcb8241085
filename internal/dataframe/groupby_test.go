//nolint:testpackage // requires internal access to unexported types and functions
package dataframe

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapeak/merchant-insights/internal/series"
)

func TestGroupBySumCountMean(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("category", []string{"food", "tech", "food", "tech", "food"}, mem),
		series.New("amount", []float64{10, 100, 20, 200, 30}, mem),
	)

	gb, err := df.GroupBy("category")
	require.NoError(t, err)

	result, err := gb.Agg(
		Sum("amount", "total"),
		Count("n"),
		Mean("amount", "avg"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "total", "n", "avg"}, result.Columns())
	require.Equal(t, 2, result.Len())

	// Groups appear in first-appearance order.
	assert.Equal(t, []string{"food", "tech"}, colValues[string](t, result, "category"))
	assert.Equal(t, []float64{60, 300}, colValues[float64](t, result, "total"))
	assert.Equal(t, []int64{3, 2}, colValues[int64](t, result, "n"))
	assert.Equal(t, []float64{20, 150}, colValues[float64](t, result, "avg"))
}

func TestGroupByNullFormsOwnGroup(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.NewWithNulls("state_id", []int64{1, 0, 1}, []bool{true, false, true}, mem),
		series.New("amount", []float64{10, 99, 20}, mem),
	)

	gb, err := df.GroupBy("state_id")
	require.NoError(t, err)

	result, err := gb.Agg(Count("n"))
	require.NoError(t, err)

	require.Equal(t, 2, result.Len())
	assert.Equal(t, []int64{2, 1}, colValues[int64](t, result, "n"))

	stateCol, ok := result.Column("state_id")
	require.True(t, ok)
	assert.False(t, stateCol.IsNull(0))
	assert.True(t, stateCol.IsNull(1)) // the null group keeps its null key
}

func TestGroupBySumSkipsNulls(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("k", []string{"a", "a", "a"}, mem),
		series.NewWithNulls("v", []float64{1, 0, 3}, []bool{true, false, true}, mem),
	)

	gb, err := df.GroupBy("k")
	require.NoError(t, err)

	result, err := gb.Agg(Sum("v", "total"), Mean("v", "avg"), Count("n"))
	require.NoError(t, err)

	assert.Equal(t, []float64{4}, colValues[float64](t, result, "total"))
	assert.Equal(t, []float64{2}, colValues[float64](t, result, "avg"))
	// Count counts rows, nulls included.
	assert.Equal(t, []int64{3}, colValues[int64](t, result, "n"))
}

func TestGroupByMultipleColumns(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("city", []int64{1, 1, 2, 1}, mem),
		series.New("merchant", []string{"a", "b", "a", "a"}, mem),
		series.New("amount", []float64{5, 6, 7, 8}, mem),
	)

	gb, err := df.GroupBy("city", "merchant")
	require.NoError(t, err)

	result, err := gb.Agg(Sum("amount", "total"))
	require.NoError(t, err)

	require.Equal(t, 3, result.Len())
	assert.Equal(t, []int64{1, 1, 2}, colValues[int64](t, result, "city"))
	assert.Equal(t, []string{"a", "b", "a"}, colValues[string](t, result, "merchant"))
	assert.Equal(t, []float64{13, 6, 7}, colValues[float64](t, result, "total"))
}

func TestGroupByNonNumericAggregation(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("k", []string{"a"}, mem),
		series.New("v", []string{"not a number"}, mem),
	)

	gb, err := df.GroupBy("k")
	require.NoError(t, err)

	_, err = gb.Agg(Sum("v", "total"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestGroupByMissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(series.New("k", []string{"a"}, mem))

	_, err := df.GroupBy("missing")
	require.Error(t, err)
}
