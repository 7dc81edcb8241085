//nolint:testpackage // requires internal access to unexported types and functions
package dataframe

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapeak/merchant-insights/internal/series"
)

func TestWindowRankPerPartition(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("city", []int64{1, 1, 2, 1, 2}, mem),
		series.New("merchant", []string{"a", "b", "c", "d", "e"}, mem),
		series.New("total", []float64{50, 70, 10, 70, 30}, mem),
	)

	window := NewWindow().
		PartitionBy("city").
		OrderBy("total", false).
		OrderBy("merchant", true)

	ranked, err := window.Rank(df, "rank")
	require.NoError(t, err)

	// City 1: b(70) before d(70) by merchant tie-break, then a(50).
	assert.Equal(t, []int64{1, 1, 1, 2, 2}, colValues[int64](t, ranked, "city"))
	assert.Equal(t, []string{"b", "d", "a", "e", "c"}, colValues[string](t, ranked, "merchant"))
	assert.Equal(t, []int64{1, 2, 3, 1, 2}, colValues[int64](t, ranked, "rank"))
}

func TestWindowTopNBounded(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("city", []int64{1, 1, 1, 1, 2}, mem),
		series.New("merchant", []string{"a", "b", "c", "d", "e"}, mem),
		// Every total equal: the tie-break alone decides the ranking.
		series.New("total", []float64{9, 9, 9, 9, 9}, mem),
	)

	window := NewWindow().
		PartitionBy("city").
		OrderBy("total", false).
		OrderBy("merchant", true)

	top, err := window.TopN(df, 2, "rank")
	require.NoError(t, err)

	// No partition exceeds n, even with fully tied metrics.
	require.Equal(t, 3, top.Len())
	assert.Equal(t, []string{"a", "b", "e"}, colValues[string](t, top, "merchant"))
	assert.Equal(t, []int64{1, 2, 1}, colValues[int64](t, top, "rank"))
}

func TestWindowGlobalRank(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("category", []string{"x", "y", "z"}, mem),
		series.New("total", []float64{5, 15, 10}, mem),
	)

	window := NewWindow().
		OrderBy("total", false).
		OrderBy("category", true)

	top, err := window.TopN(df, 2, "rank")
	require.NoError(t, err)

	require.Equal(t, 2, top.Len())
	assert.Equal(t, []string{"y", "z"}, colValues[string](t, top, "category"))
}

func TestWindowMetricNonIncreasingByRank(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("city", []int64{1, 1, 1, 2, 2}, mem),
		series.New("merchant", []string{"a", "b", "c", "d", "e"}, mem),
		series.New("total", []float64{3, 1, 2, 8, 4}, mem),
	)

	window := NewWindow().
		PartitionBy("city").
		OrderBy("total", false).
		OrderBy("merchant", true)

	ranked, err := window.Rank(df, "rank")
	require.NoError(t, err)

	cities := colValues[int64](t, ranked, "city")
	totals := colValues[float64](t, ranked, "total")
	ranks := colValues[int64](t, ranked, "rank")
	for i := 1; i < len(ranks); i++ {
		if cities[i] == cities[i-1] {
			assert.Equal(t, ranks[i-1]+1, ranks[i])
			assert.LessOrEqual(t, totals[i], totals[i-1])
		} else {
			assert.Equal(t, int64(1), ranks[i])
		}
	}
}
