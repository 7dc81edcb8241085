//nolint:testpackage // requires internal access to unexported types and functions
package series

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := New("amount", []float64{10.5, 20.0, 30.25}, mem)
	defer s.Release()

	assert.Equal(t, "amount", s.Name())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.NullCount())
	assert.Equal(t, []float64{10.5, 20.0, 30.25}, s.Values())
	assert.Nil(t, s.Validity())
}

func TestNewWithNulls(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := NewWithNulls("city_id", []int64{12, 0, 7}, []bool{true, false, true}, mem)
	defer s.Release()

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.NullCount())
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1))
	assert.False(t, s.IsNull(2))

	// Null slots read as the zero value.
	assert.Equal(t, int64(0), s.Value(1))
	assert.Equal(t, int64(7), s.Value(2))

	validity := s.Validity()
	require.NotNil(t, validity)
	assert.Equal(t, []bool{true, false, true}, validity)
}

func TestNewWithNullsString(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := NewWithNulls("name", []string{"a", "", "c"}, []bool{true, false, true}, mem)
	defer s.Release()

	assert.Equal(t, 1, s.NullCount())
	assert.Equal(t, "", s.Value(1))
	assert.Equal(t, "c", s.Value(2))
}

func TestValuesRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "bool",
			run: func(t *testing.T) {
				s := New("flags", []bool{true, false, true}, mem)
				defer s.Release()
				assert.Equal(t, []bool{true, false, true}, s.Values())
			},
		},
		{
			name: "string",
			run: func(t *testing.T) {
				s := New("labels", []string{"x", "y"}, mem)
				defer s.Release()
				assert.Equal(t, []string{"x", "y"}, s.Values())
			},
		},
		{
			name: "int64",
			run: func(t *testing.T) {
				s := New("counts", []int64{-1, 0, 1}, mem)
				defer s.Release()
				assert.Equal(t, []int64{-1, 0, 1}, s.Values())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestEmptySeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := New("empty", []string{}, mem)
	defer s.Release()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.NullCount())
	assert.Empty(t, s.Values())
}
