package dataframe

import (
	"github.com/datapeak/merchant-insights/internal/errs"
)

// DropNulls returns a new DataFrame without the rows that hold a null in any
// of the given columns. City-partitioned analyses use this to exclude
// transactions whose merchant could not be located.
func (df *DataFrame) DropNulls(columns ...string) (*DataFrame, error) {
	arrays, err := df.columnArrays(columns)
	if err != nil {
		return nil, errs.NewTransformError("DropNulls", err.Error())
	}
	defer releaseArrays(arrays)

	var keep []int
	for row := 0; row < df.Len(); row++ {
		null := false
		for _, arr := range arrays {
			if arr.IsNull(row) {
				null = true
				break
			}
		}
		if !null {
			keep = append(keep, row)
		}
	}

	return df.takeRows(keep), nil
}

// Head returns the first n rows of the DataFrame.
func (df *DataFrame) Head(n int) *DataFrame {
	if n > df.Len() {
		n = df.Len()
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return df.takeRows(indices)
}
