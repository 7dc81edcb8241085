// Package dataframe implements the columnar table the analytics engine runs
// on: left joins, grouped aggregation, multi-key sorting and partitioned
// ranking over Arrow-backed series.
package dataframe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapeak/merchant-insights/internal/parallel"
	"github.com/datapeak/merchant-insights/internal/series"
)

// DataFrame represents a table of data with typed columns.
type DataFrame struct {
	columns map[string]ISeries
	order   []string // maintains column order
}

// New creates a DataFrame from a slice of ISeries. A repeated column name
// keeps its first position but the later series wins, so joining a frame
// against a source it was already joined with overlays rather than
// duplicates the shared columns.
func New(cols ...ISeries) *DataFrame {
	columns := make(map[string]ISeries, len(cols))
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		if _, seen := columns[name]; !seen {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{columns: columns, order: order}
}

// Columns returns the names of all columns in order.
func (df *DataFrame) Columns() []string {
	return append([]string(nil), df.order...)
}

// Len returns the number of rows.
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	if s, ok := df.columns[df.order[0]]; ok {
		return s.Len()
	}
	return 0
}

// Width returns the number of columns.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name.
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, ok := df.columns[name]
	return s, ok
}

// HasColumn checks if a column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.columns[name]
	return ok
}

// Select returns a new DataFrame with only the specified columns, in the
// given order.
func (df *DataFrame) Select(names ...string) *DataFrame {
	newColumns := make(map[string]ISeries, len(names))
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if s, ok := df.columns[name]; ok {
			newColumns[name] = s
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{columns: newColumns, order: newOrder}
}

// Drop returns a new DataFrame without the specified columns.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	newColumns := make(map[string]ISeries, len(df.order))
	newOrder := make([]string, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			newColumns[name] = df.columns[name]
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{columns: newColumns, order: newOrder}
}

// WithColumn returns a new DataFrame with the given series appended, replacing
// any existing column of the same name.
func (df *DataFrame) WithColumn(s ISeries) *DataFrame {
	newColumns := make(map[string]ISeries, len(df.order)+1)
	newOrder := make([]string, 0, len(df.order)+1)
	for _, name := range df.order {
		if name == s.Name() {
			continue
		}
		newColumns[name] = df.columns[name]
		newOrder = append(newOrder, name)
	}
	newColumns[s.Name()] = s
	newOrder = append(newOrder, s.Name())

	return &DataFrame{columns: newColumns, order: newOrder}
}

// String returns a short schema description of the DataFrame.
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}
	for _, name := range df.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, df.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory.
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}

// takeRows builds a new DataFrame from the given row indices. An index of -1
// produces a null slot in every column, which is how the left join encodes
// unmatched rows. Column materialization fans out across a worker pool.
func (df *DataFrame) takeRows(indices []int) *DataFrame {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()

	taken := parallel.ProcessIndexed(pool, df.order, func(_ int, name string) ISeries {
		return takeSeries(df.columns[name], indices, memory.NewGoAllocator())
	})

	return New(taken...)
}

// takeSeries gathers the rows of a series at the given indices; -1 yields null.
func takeSeries(s ISeries, indices []int, mem memory.Allocator) ISeries {
	name := s.Name()
	arr := s.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.String:
		return takeTyped(name, typed.Len(), indices, mem, func(i int) (string, bool) {
			return typed.Value(i), !typed.IsNull(i)
		})
	case *array.Int64:
		return takeTyped(name, typed.Len(), indices, mem, func(i int) (int64, bool) {
			return typed.Value(i), !typed.IsNull(i)
		})
	case *array.Float64:
		return takeTyped(name, typed.Len(), indices, mem, func(i int) (float64, bool) {
			return typed.Value(i), !typed.IsNull(i)
		})
	case *array.Boolean:
		return takeTyped(name, typed.Len(), indices, mem, func(i int) (bool, bool) {
			return typed.Value(i), !typed.IsNull(i)
		})
	default:
		// Unreachable for engine-supported types.
		return series.New(name, make([]string, len(indices)), mem)
	}
}

func takeTyped[T any](
	name string, srcLen int, indices []int, mem memory.Allocator,
	value func(int) (T, bool),
) ISeries {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	hasNull := false

	for i, idx := range indices {
		if idx < 0 || idx >= srcLen {
			hasNull = true
			continue
		}
		v, ok := value(idx)
		if !ok {
			hasNull = true
			continue
		}
		values[i] = v
		valid[i] = true
	}

	if !hasNull {
		return series.New(name, values, mem)
	}
	return series.NewWithNulls(name, values, valid, mem)
}

// cellKey returns a canonical string form of the cell used in composite
// join and group keys. The unit-separator prefix keeps a null distinct from
// any real value.
func cellKey(arr arrow.Array, row int) string {
	if arr == nil || arr.IsNull(row) {
		return "\x1fnull"
	}

	switch typed := arr.(type) {
	case *array.String:
		return typed.Value(row)
	case *array.Int64:
		return strconv.FormatInt(typed.Value(row), 10)
	case *array.Float64:
		return strconv.FormatFloat(typed.Value(row), 'g', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(typed.Value(row))
	default:
		return "\x1funknown"
	}
}

// compositeKey builds a row key across several column arrays.
func compositeKey(arrays []arrow.Array, row int) string {
	if len(arrays) == 1 {
		return cellKey(arrays[0], row)
	}

	parts := make([]string, len(arrays))
	for i, arr := range arrays {
		parts[i] = cellKey(arr, row)
	}
	return strings.Join(parts, "\x1f")
}

// columnArrays retains the Arrow arrays for the given columns. The caller
// must release every returned array.
func (df *DataFrame) columnArrays(names []string) ([]arrow.Array, error) {
	arrays := make([]arrow.Array, len(names))
	for i, name := range names {
		s, ok := df.columns[name]
		if !ok {
			for _, arr := range arrays[:i] {
				arr.Release()
			}
			return nil, fmt.Errorf("column %q does not exist", name)
		}
		arrays[i] = s.Array()
	}
	return arrays, nil
}

func releaseArrays(arrays []arrow.Array) {
	for _, arr := range arrays {
		if arr != nil {
			arr.Release()
		}
	}
}
