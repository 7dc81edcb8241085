package dataframe

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/exp/constraints"

	"github.com/datapeak/merchant-insights/internal/errs"
)

// SortKey names a column and direction for sorting and ranking.
type SortKey struct {
	Column    string
	Ascending bool
}

// Asc creates an ascending sort key.
func Asc(column string) SortKey {
	return SortKey{Column: column, Ascending: true}
}

// Desc creates a descending sort key.
func Desc(column string) SortKey {
	return SortKey{Column: column, Ascending: false}
}

// SortBy returns a new DataFrame with rows ordered by the given keys. The
// sort is stable and nulls order after every non-null value regardless of
// direction, so output order is a strict function of the data.
func (df *DataFrame) SortBy(keys ...SortKey) (*DataFrame, error) {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.Column
	}
	arrays, err := df.columnArrays(names)
	if err != nil {
		return nil, errs.NewTransformError("Sort", err.Error())
	}
	defer releaseArrays(arrays)

	indices := make([]int, df.Len())
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		for k, key := range keys {
			ra, rb := indices[a], indices[b]
			aNull, bNull := arrays[k].IsNull(ra), arrays[k].IsNull(rb)
			if aNull || bNull {
				if aNull && bNull {
					continue
				}
				return bNull // non-null sorts before null in either direction
			}
			cmp := compareCells(arrays[k], ra, rb)
			if cmp == 0 {
				continue
			}
			if key.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})

	return df.takeRows(indices), nil
}

// compareCells orders two non-null cells of the same array.
func compareCells(arr arrow.Array, a, b int) int {
	switch typed := arr.(type) {
	case *array.String:
		return compareOrdered(typed.Value(a), typed.Value(b))
	case *array.Int64:
		return compareOrdered(typed.Value(a), typed.Value(b))
	case *array.Float64:
		return compareOrdered(typed.Value(a), typed.Value(b))
	case *array.Boolean:
		return compareOrdered(boolToInt(typed.Value(a)), boolToInt(typed.Value(b)))
	default:
		return 0
	}
}

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
