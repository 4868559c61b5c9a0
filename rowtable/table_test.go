package rowtable_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/rowtable"
	"github.com/syssam/rowbase/typecode"
)

// field indices used throughout: 0 = id (int64), 1 = name (string)
var specs = []typecode.Code{typecode.Int64, typecode.String}

func setRow(tbl *rowtable.Table, h rowtable.Handle, id int64, name string) {
	tbl.Publish(h, func(cols []column.Column, slot int) {
		cols[0].(*column.NumericColumn[int64]).Set(slot, id)
		cols[1].(*column.StringColumn).Set(slot, name)
	})
}

func readRow(tbl *rowtable.Table, h rowtable.Handle) (id int64, name string, ok bool) {
	ok1, _ := tbl.Read(h, func(cols []column.Column, slot int) {
		id = cols[0].(*column.NumericColumn[int64]).Get(slot)
		name = cols[1].(*column.StringColumn).Get(slot)
	})
	return id, name, ok1
}

func TestTableSaveAndFind(t *testing.T) {
	tbl := rowtable.New(specs, 4, 4, 1)

	h, err := tbl.AllocateSlot()
	require.NoError(t, err)
	setRow(tbl, h, 1, "alice")

	id, name, ok := readRow(tbl, h)
	require.True(t, ok)
	require.Equal(t, int64(1), id)
	require.Equal(t, "alice", name)
	require.EqualValues(t, 1, tbl.RowCount())
}

func TestTableDeleteRecyclesSlot(t *testing.T) {
	tbl := rowtable.New(specs, 4, 4, 1)

	h, err := tbl.AllocateSlot()
	require.NoError(t, err)
	setRow(tbl, h, 7, "bob")
	require.NoError(t, tbl.Delete(h))

	_, _, ok := readRow(tbl, h)
	require.False(t, ok)
	require.EqualValues(t, 0, tbl.RowCount())

	h2, err := tbl.AllocateSlot()
	require.NoError(t, err)
	require.Equal(t, h, h2, "freed slot should be reused before growing")
}

func TestTablePageBoundaryCrossing(t *testing.T) {
	pageSize := 4
	tbl := rowtable.New(specs, pageSize, 4, 1)

	var handles []rowtable.Handle
	for i := 0; i < pageSize+2; i++ {
		h, err := tbl.AllocateSlot()
		require.NoError(t, err)
		setRow(tbl, h, int64(i), "row")
		handles = append(handles, h)
	}

	require.Equal(t, 0, handles[0].Page())
	require.Equal(t, 1, handles[pageSize].Page(), "allocation past page capacity should land on the next page")
	require.EqualValues(t, pageSize+2, tbl.RowCount())
}

func TestTableFullWhenMaxPagesExhausted(t *testing.T) {
	pageSize, maxPages := 2, 1
	tbl := rowtable.New(specs, pageSize, maxPages, 1)

	for i := 0; i < pageSize; i++ {
		_, err := tbl.AllocateSlot()
		require.NoError(t, err)
	}
	_, err := tbl.AllocateSlot()
	require.ErrorIs(t, err, rowtable.ErrTableFull)
}

func TestTableConcurrentWritersDistinctRows(t *testing.T) {
	tbl := rowtable.New(specs, 64, 16, 1)

	const n = 200
	handles := make([]rowtable.Handle, n)
	for i := range handles {
		h, err := tbl.AllocateSlot()
		require.NoError(t, err)
		handles[i] = h
	}

	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h rowtable.Handle) {
			defer wg.Done()
			setRow(tbl, h, int64(i), "concurrent")
		}(i, h)
	}
	wg.Wait()

	for i, h := range handles {
		id, _, ok := readRow(tbl, h)
		require.True(t, ok)
		require.Equal(t, int64(i), id)
	}
}

func TestTableSeqlockReadDuringWrite(t *testing.T) {
	tbl := rowtable.New(specs, 4, 4, 1)
	h, err := tbl.AllocateSlot()
	require.NoError(t, err)
	setRow(tbl, h, 1, "initial")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			setRow(tbl, h, int64(i), "writer")
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			// Every successful read must observe a consistent (id, name)
			// pair, never a torn mix of two different publishes.
			_, _, _ = readRow(tbl, h)
		}
	}()

	wg.Wait()
	_, _, ok := readRow(tbl, h)
	require.True(t, ok)
}
