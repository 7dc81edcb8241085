package dataframe

import (
	"github.com/datapeak/merchant-insights/internal/errs"
)

// JoinType selects the join semantics.
type JoinType int

const (
	// InnerJoin keeps only rows with a match on both sides.
	InnerJoin JoinType = iota
	// LeftJoin keeps every left row; unmatched right columns become null.
	LeftJoin
)

// JoinOptions configures a join between two DataFrames.
type JoinOptions struct {
	Type     JoinType
	LeftKey  string
	RightKey string
}

// Join performs a hash join between two DataFrames. The right key column is
// dropped from the result, so the key appears exactly once. Left rows without
// a match survive a LeftJoin with null right-side columns, which is what the
// cleaning stage relies on for transactions referencing unknown merchants.
func (df *DataFrame) Join(right *DataFrame, options *JoinOptions) (*DataFrame, error) {
	if !df.HasColumn(options.LeftKey) {
		return nil, errs.NewColumnNotFound("Join", options.LeftKey)
	}
	if !right.HasColumn(options.RightKey) {
		return nil, errs.NewColumnNotFound("Join", options.RightKey)
	}

	rightArrays, err := right.columnArrays([]string{options.RightKey})
	if err != nil {
		return nil, err
	}
	index := newHashIndex(right.Len())
	for i := 0; i < right.Len(); i++ {
		// A null key never matches anything; keep it out of the index so
		// null-keyed right rows cannot pair with null-keyed left rows.
		if rightArrays[0].IsNull(i) {
			continue
		}
		index.add(cellKey(rightArrays[0], i), i)
	}
	releaseArrays(rightArrays)

	leftArrays, err := df.columnArrays([]string{options.LeftKey})
	if err != nil {
		return nil, err
	}
	defer releaseArrays(leftArrays)

	var leftIndices, rightIndices []int
	for i := 0; i < df.Len(); i++ {
		var matches []int
		if !leftArrays[0].IsNull(i) {
			matches, _ = index.lookup(cellKey(leftArrays[0], i))
		}
		switch {
		case len(matches) > 0:
			for _, rightIdx := range matches {
				leftIndices = append(leftIndices, i)
				rightIndices = append(rightIndices, rightIdx)
			}
		case options.Type == LeftJoin:
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, -1)
		}
	}

	leftPart := df.takeRows(leftIndices)
	rightPart := right.Drop(options.RightKey).takeRows(rightIndices)

	var combined []ISeries
	for _, name := range leftPart.Columns() {
		s, _ := leftPart.Column(name)
		combined = append(combined, s)
	}
	for _, name := range rightPart.Columns() {
		s, _ := rightPart.Column(name)
		combined = append(combined, s)
	}

	return New(combined...), nil
}
