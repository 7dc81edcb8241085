//nolint:testpackage // requires internal access to unexported types and functions
package dataframe

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapeak/merchant-insights/internal/series"
)

func TestSortByDescendingWithTieBreak(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("merchant", []string{"c", "a", "b", "d"}, mem),
		series.New("total", []float64{10, 20, 20, 5}, mem),
	)

	result, err := df.SortBy(Desc("total"), Asc("merchant"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, colValues[string](t, result, "merchant"))
	assert.Equal(t, []float64{20, 20, 10, 5}, colValues[float64](t, result, "total"))
}

func TestSortByNullsLast(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.NewWithNulls("v", []int64{2, 0, 1}, []bool{true, false, true}, mem),
		series.New("tag", []string{"two", "null", "one"}, mem),
	)

	asc, err := df.SortBy(Asc("v"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "null"}, colValues[string](t, asc, "tag"))

	desc, err := df.SortBy(Desc("v"))
	require.NoError(t, err)
	// Nulls sort last in both directions.
	assert.Equal(t, []string{"two", "one", "null"}, colValues[string](t, desc, "tag"))
}

func TestSortByStable(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("k", []int64{1, 1, 1}, mem),
		series.New("pos", []int64{0, 1, 2}, mem),
	)

	result, err := df.SortBy(Asc("k"))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, colValues[int64](t, result, "pos"))
}

func TestSortByMissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(series.New("a", []int64{1}, mem))
	_, err := df.SortBy(Asc("missing"))
	require.Error(t, err)
}
