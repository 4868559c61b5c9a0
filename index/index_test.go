package index_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/rowtable"
)

func h(n int) rowtable.Handle {
	// Handles are normally minted by rowtable.Table; tests only need
	// distinct, comparable values.
	return rowtable.Handle(n)
}

func TestHashIndexAddRemoveLookup(t *testing.T) {
	idx := index.NewHashIndex[string]()
	idx.Add("alice", h(1))
	idx.Add("alice", h(2))
	idx.Add("bob", h(3))

	set := idx.Lookup("alice")
	require.Len(t, set, 2)
	_, ok := set[h(1)]
	require.True(t, ok)

	idx.Remove("alice", h(1))
	require.Len(t, idx.Lookup("alice"), 1)
	require.Empty(t, idx.Lookup("nobody"))
}

func TestRangeIndexBetweenAndComparisons(t *testing.T) {
	idx := index.NewRangeIndex[int64](func(a, b int64) bool { return a < b })
	idx.Add(10, h(1))
	idx.Add(20, h(2))
	idx.Add(30, h(3))

	between := idx.Between(10, 20, index.InclusiveBoth)
	require.Len(t, between, 2)

	exclusive := idx.Between(10, 30, index.ExclusiveBoth)
	require.Len(t, exclusive, 1)
	_, ok := exclusive[h(2)]
	require.True(t, ok)

	require.Len(t, idx.Gt(10), 2)
	require.Len(t, idx.Ge(10), 3)
	require.Len(t, idx.Lt(30), 2)
	require.Len(t, idx.Le(30), 3)
}

func TestRangeIndexRemove(t *testing.T) {
	idx := index.NewRangeIndex[int64](func(a, b int64) bool { return a < b })
	idx.Add(5, h(1))
	idx.Remove(5, h(1))
	require.Empty(t, idx.Lookup(5))
}

func TestPrefixIndexStartsWith(t *testing.T) {
	idx := index.NewPrefixIndex(false)
	idx.Add("alice", h(1))
	idx.Add("alex", h(2))
	idx.Add("bob", h(3))

	set := idx.StartsWith("al")
	require.Len(t, set, 2)
	require.Empty(t, idx.StartsWith("zz"))
}

func TestPrefixIndexCaseInsensitive(t *testing.T) {
	idx := index.NewPrefixIndex(true)
	idx.Add("Alice", h(1))
	require.Len(t, idx.StartsWith("al"), 1)
	require.Len(t, idx.StartsWith("AL"), 1)
}

func TestSuffixIndexEndsWith(t *testing.T) {
	idx := index.NewSuffixIndex(false)
	idx.Add("report.pdf", h(1))
	idx.Add("notes.pdf", h(2))
	idx.Add("image.png", h(3))

	set := idx.EndsWith(".pdf")
	require.Len(t, set, 2)
}

func TestLongIdIndexDuplicateIsError(t *testing.T) {
	idx := index.NewLongIdIndex()
	require.NoError(t, idx.Insert(1, h(1)))
	err := idx.Insert(1, h(2))
	require.Error(t, err)
	var dup *index.ErrDuplicateKey
	require.ErrorAs(t, err, &dup)
}

func TestLongIdIndexRemoveMissingIsError(t *testing.T) {
	idx := index.NewLongIdIndex()
	err := idx.Remove(42)
	require.Error(t, err)
	var notFound *index.ErrKeyNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestStringIdIndexLookup(t *testing.T) {
	idx := index.NewStringIdIndex()
	require.NoError(t, idx.Insert("user-1", h(7)))
	got, ok := idx.Lookup("user-1")
	require.True(t, ok)
	require.Equal(t, h(7), got)
	require.Equal(t, 1, idx.Len())
}

func TestUnionAndIntersect(t *testing.T) {
	a := index.HandleSet{h(1): {}, h(2): {}}
	b := index.HandleSet{h(2): {}, h(3): {}}

	require.Len(t, index.Union(a, b), 3)
	inter := index.Intersect(a, b)
	require.Len(t, inter, 1)
	_, ok := inter[h(2)]
	require.True(t, ok)
}
