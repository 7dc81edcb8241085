package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapeak/merchant-insights/internal/series"
)

// Window describes a partitioned ranking: rows are ordered within each
// partition by the order keys and numbered starting at 1. The order keys
// must define a strict total order (metric plus tie-break column), so equal
// metrics still rank deterministically.
type Window struct {
	partitionBy []string
	orderBy     []SortKey
}

// NewWindow creates an empty window specification.
func NewWindow() *Window {
	return &Window{}
}

// PartitionBy sets the partition columns for the window.
func (w *Window) PartitionBy(columns ...string) *Window {
	w.partitionBy = columns
	return w
}

// OrderBy appends an ordering key to the window.
func (w *Window) OrderBy(column string, ascending bool) *Window {
	w.orderBy = append(w.orderBy, SortKey{Column: column, Ascending: ascending})
	return w
}

// Rank returns the frame sorted by (partition, order keys) with an int64
// rank column appended: the 1-based row position within its partition.
func (w *Window) Rank(df *DataFrame, rankColumn string) (*DataFrame, error) {
	keys := make([]SortKey, 0, len(w.partitionBy)+len(w.orderBy))
	for _, col := range w.partitionBy {
		keys = append(keys, Asc(col))
	}
	keys = append(keys, w.orderBy...)

	sorted, err := df.SortBy(keys...)
	if err != nil {
		return nil, err
	}

	arrays, err := sorted.columnArrays(w.partitionBy)
	if err != nil {
		sorted.Release()
		return nil, err
	}
	defer releaseArrays(arrays)

	ranks := make([]int64, sorted.Len())
	prevKey := ""
	var rank int64
	for row := 0; row < sorted.Len(); row++ {
		key := compositeKey(arrays, row)
		if row == 0 || key != prevKey {
			rank = 1
			prevKey = key
		} else {
			rank++
		}
		ranks[row] = rank
	}

	return sorted.WithColumn(series.New(rankColumn, ranks, memory.NewGoAllocator())), nil
}

// TopN ranks the frame and keeps only rows with rank <= n per partition.
func (w *Window) TopN(df *DataFrame, n int64, rankColumn string) (*DataFrame, error) {
	ranked, err := w.Rank(df, rankColumn)
	if err != nil {
		return nil, err
	}

	col, _ := ranked.Column(rankColumn)
	ranks := col.(*series.Series[int64]).Values()
	var keep []int
	for i, rank := range ranks {
		if rank <= n {
			keep = append(keep, i)
		}
	}

	return ranked.takeRows(keep), nil
}
