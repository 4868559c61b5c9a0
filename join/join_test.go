package join_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/join"
	"github.com/syssam/rowbase/rowtable"
)

type fakeInner struct {
	pk map[rowtable.Handle]any
}

func (f fakeInner) PrimaryKeyAt(h rowtable.Handle) (any, bool) {
	v, ok := f.pk[h]
	return v, ok
}

type fakeOuterIndex struct {
	byKey map[any]index.HandleSet
}

func (f fakeOuterIndex) Lookup(key any) index.HandleSet { return f.byKey[key] }

type fakeOuterScanner struct {
	called bool
	result index.HandleSet
}

func (f *fakeOuterScanner) ScanForeignKeyIn(keys map[any]struct{}) index.HandleSet {
	f.called = true
	return f.result
}

func TestResolveViaIndex(t *testing.T) {
	innerA := rowtable.NewHandle(0, 1)
	outerX := rowtable.NewHandle(1, 5)
	outerY := rowtable.NewHandle(1, 6)

	inner := fakeInner{pk: map[rowtable.Handle]any{innerA: int64(7)}}
	outerIdx := fakeOuterIndex{byKey: map[any]index.HandleSet{
		int64(7): {outerX: {}, outerY: {}},
	}}

	got := join.Resolve(index.HandleSet{innerA: {}}, inner, outerIdx, nil)
	require.Len(t, got, 2)
	require.Contains(t, got, outerX)
	require.Contains(t, got, outerY)
}

func TestResolveFallsBackToScanWhenNoIndex(t *testing.T) {
	innerA := rowtable.NewHandle(0, 1)
	inner := fakeInner{pk: map[rowtable.Handle]any{innerA: "abc"}}
	scanner := &fakeOuterScanner{result: index.HandleSet{rowtable.NewHandle(2, 2): {}}}

	got := join.Resolve(index.HandleSet{innerA: {}}, inner, nil, scanner)
	require.True(t, scanner.called)
	require.Len(t, got, 1)
}

func TestResolveWithNoInnerHandlesReturnsEmpty(t *testing.T) {
	scanner := &fakeOuterScanner{}
	got := join.Resolve(index.HandleSet{}, fakeInner{}, nil, scanner)
	require.Empty(t, got)
	require.False(t, scanner.called)
}
