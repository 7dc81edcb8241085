package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapeak/merchant-insights/internal/errs"
	"github.com/datapeak/merchant-insights/internal/series"
)

// AggType identifies an aggregation function.
type AggType int

const (
	// AggSum sums the non-null values of a column per group.
	AggSum AggType = iota
	// AggCount counts the rows of a group, nulls included.
	AggCount
	// AggMean averages the non-null values of a column per group.
	AggMean
)

// Aggregation describes one output column of a grouped aggregation.
type Aggregation struct {
	Type   AggType
	Column string
	As     string
}

// Sum creates a sum aggregation over column, emitted under the alias.
func Sum(column, as string) Aggregation {
	return Aggregation{Type: AggSum, Column: column, As: as}
}

// Count creates a row-count aggregation emitted under the alias.
func Count(as string) Aggregation {
	return Aggregation{Type: AggCount, As: as}
}

// Mean creates an arithmetic-mean aggregation over column.
func Mean(column, as string) Aggregation {
	return Aggregation{Type: AggMean, Column: column, As: as}
}

// GroupBy represents a grouped DataFrame. Groups are kept in order of first
// appearance so that aggregation output is deterministic regardless of how
// the underlying hash map iterates.
type GroupBy struct {
	df        *DataFrame
	groupCols []string
	keys      []string         // group keys in first-appearance order
	groups    map[string][]int // group key -> row indices
}

// GroupBy groups the DataFrame by the given columns. A null in a group column
// forms its own group, matching SQL GROUP BY semantics.
func (df *DataFrame) GroupBy(columns ...string) (*GroupBy, error) {
	arrays, err := df.columnArrays(columns)
	if err != nil {
		return nil, errs.NewTransformError("GroupBy", err.Error())
	}
	defer releaseArrays(arrays)

	groups := make(map[string][]int)
	var keys []string
	for row := 0; row < df.Len(); row++ {
		key := compositeKey(arrays, row)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], row)
	}

	return &GroupBy{df: df, groupCols: columns, keys: keys, groups: groups}, nil
}

// Agg computes the aggregations and returns one row per group: the group
// columns first, then one column per aggregation.
func (gb *GroupBy) Agg(aggs ...Aggregation) (*DataFrame, error) {
	mem := memory.NewGoAllocator()

	// First row of each group carries the group column values.
	firstRows := make([]int, len(gb.keys))
	for i, key := range gb.keys {
		firstRows[i] = gb.groups[key][0]
	}

	var result []ISeries
	for _, col := range gb.groupCols {
		s, _ := gb.df.Column(col)
		result = append(result, takeSeries(s, firstRows, mem))
	}

	for _, agg := range aggs {
		out, err := gb.aggregate(agg, mem)
		if err != nil {
			for _, s := range result {
				s.Release()
			}
			return nil, err
		}
		result = append(result, out)
	}

	return New(result...), nil
}

func (gb *GroupBy) aggregate(agg Aggregation, mem memory.Allocator) (ISeries, error) {
	if agg.Type == AggCount {
		counts := make([]int64, len(gb.keys))
		for i, key := range gb.keys {
			counts[i] = int64(len(gb.groups[key]))
		}
		return series.New(agg.As, counts, mem), nil
	}

	s, ok := gb.df.Column(agg.Column)
	if !ok {
		return nil, errs.NewColumnNotFound("Agg", agg.Column)
	}
	arr := s.Array()
	defer arr.Release()

	switch arr.(type) {
	case *array.Int64, *array.Float64:
	default:
		return nil, errs.NewTransformErrorForColumn("Agg", agg.Column, "column is not numeric")
	}

	values := make([]float64, len(gb.keys))
	for i, key := range gb.keys {
		sum, n := sumGroup(arr, gb.groups[key])
		switch agg.Type {
		case AggSum:
			values[i] = sum
		case AggMean:
			if n > 0 {
				values[i] = sum / float64(n)
			}
		}
	}

	return series.New(agg.As, values, mem), nil
}

// sumGroup sums the non-null values of a group and returns the non-null count.
func sumGroup(arr arrow.Array, indices []int) (float64, int) {
	var sum float64
	n := 0
	for _, idx := range indices {
		if arr.IsNull(idx) {
			continue
		}
		switch typed := arr.(type) {
		case *array.Int64:
			sum += float64(typed.Value(idx))
			n++
		case *array.Float64:
			sum += typed.Value(idx)
			n++
		}
	}
	return sum, n
}
