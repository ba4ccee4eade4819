package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestSetPreservesOrderAndReplacesInPlace(t *testing.T) {
	tbl := New(hours(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 2))
	tbl.MustSet("b", Float, []float64{1, 2})
	tbl.MustSet("a", Int, []float64{3, 4})
	tbl.MustSet("b", Bool, []float64{0, 1})

	assert.Equal(t, []string{"b", "a"}, tbl.Names())
	col, ok := tbl.Column("b")
	require.True(t, ok)
	assert.Equal(t, Bool, col.Kind)

	err := tbl.Set("c", Float, []float64{1})
	assert.Error(t, err)
}

func TestDropReindexes(t *testing.T) {
	tbl := New(hours(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1))
	tbl.MustSet("a", Float, []float64{1})
	tbl.MustSet("b", Float, []float64{2})
	tbl.MustSet("c", Float, []float64{3})

	tbl.Drop("b")

	assert.Equal(t, []string{"a", "c"}, tbl.Names())
	assert.Equal(t, []float64{3}, tbl.Values("c"))
	assert.Nil(t, tbl.Values("b"))
}

func TestDropMissing(t *testing.T) {
	tbl := New(hours(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 3))
	tbl.MustSet("a", Float, []float64{1, Missing(), 3})
	tbl.MustSet("b", Float, []float64{4, 5, 6})

	out := tbl.DropMissing()

	require.Equal(t, 2, out.Len())
	assert.Equal(t, []float64{1, 3}, out.Values("a"))
	assert.Equal(t, []float64{4, 6}, out.Values("b"))
	assert.Equal(t, tbl.Times[2], out.Times[1])
}

func TestBetweenIsHalfOpenAndWithinIsClosed(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := New(hours(start, 5))
	tbl.MustSet("a", Float, []float64{0, 1, 2, 3, 4})

	from := start.Add(time.Hour)
	to := start.Add(3 * time.Hour)

	assert.Equal(t, []float64{1, 2}, tbl.Between(from, to).Values("a"))
	assert.Equal(t, []float64{1, 2, 3}, tbl.Within(from, to).Values("a"))
}

func TestMatrix(t *testing.T) {
	tbl := New(hours(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 2))
	tbl.MustSet("a", Float, []float64{1, 2})
	tbl.MustSet("b", Float, []float64{3, 4})

	m, err := tbl.Matrix([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}, {4, 2}}, m)

	_, err = tbl.Matrix([]string{"missing"})
	assert.Error(t, err)
}

func TestKindNumeric(t *testing.T) {
	assert.True(t, Float.Numeric())
	assert.True(t, Int.Numeric())
	assert.False(t, Bool.Numeric())
}
