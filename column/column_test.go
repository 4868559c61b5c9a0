package column_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/typecode"
)

func TestNumericColumnScans(t *testing.T) {
	c := column.NewNumericColumn[int64](typecode.Int64, 8)
	c.Set(0, 25)
	c.Set(1, 30)
	c.Set(2, 35)
	c.Set(3, 40)

	require.True(t, c.ScanEquals(30).Contains(1))
	require.False(t, c.ScanEquals(30).Contains(0))

	between := c.ScanRange(30, 39, column.InclusiveBoth)
	require.True(t, between.Contains(1))
	require.True(t, between.Contains(2))
	require.False(t, between.Contains(0))
	require.False(t, between.Contains(3))

	gt := c.ScanGt(25)
	require.False(t, gt.Contains(0))
	require.True(t, gt.Contains(1))

	in := c.ScanIn(map[int64]struct{}{25: {}, 40: {}})
	require.True(t, in.Contains(0))
	require.True(t, in.Contains(3))
	require.False(t, in.Contains(1))
}

func TestNumericColumnClearAndNull(t *testing.T) {
	c := column.NewNumericColumn[int64](typecode.Int64, 4)
	c.Set(0, 1)
	require.True(t, c.ScanNull().Contains(1))
	require.False(t, c.ScanNull().Contains(0))
	c.Clear(0)
	require.True(t, c.ScanNull().Contains(0))
}

func TestStringColumnScans(t *testing.T) {
	c := column.NewStringColumn(typecode.String, 4)
	c.Set(0, "a@x")
	c.Set(1, "B@Y")

	require.True(t, c.ScanEquals("a@x").Contains(0))
	require.True(t, c.ScanEqualFold("b@y").Contains(1))
	require.True(t, c.ScanStartsWith("a@").Contains(0))
	require.True(t, c.ScanContains("@x").Contains(0))
	require.True(t, c.ScanLike("a%", false).Contains(0))
	require.True(t, c.ScanLike("A%", true).Contains(0))
	require.True(t, c.ScanStartsWithFold("B@").Contains(1))
	require.True(t, c.ScanEndsWithFold("@y").Contains(1))
}

func TestStringColumnNotLike(t *testing.T) {
	c := column.NewStringColumn(typecode.String, 4)
	c.Set(0, "apple")
	c.Set(1, "banana")

	sel := c.ScanNotLike("a%", false)
	require.False(t, sel.Contains(0))
	require.True(t, sel.Contains(1))
}

func TestBoolColumnScans(t *testing.T) {
	c := column.NewBoolColumn(4)
	c.Set(0, true)
	c.Set(1, false)

	require.True(t, c.ScanTrue().Contains(0))
	require.True(t, c.ScanFalse().Contains(1))
	require.False(t, c.ScanTrue().Contains(1))
}

func TestUUIDColumnRoundTrip(t *testing.T) {
	c := column.NewUUIDColumn(4)
	id := mustUUID(t)
	c.Set(0, id)
	require.Equal(t, id, c.Get(0))
	require.True(t, c.ScanEquals(id).Contains(0))
}
