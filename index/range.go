package index

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/syssam/rowbase/rowtable"
)

// rangeItem is one key's entry in a RangeIndex's backing B-tree: the key
// itself plus an atomic pointer to the current handle set, so a value
// already present in the tree can be updated without touching the tree's
// structure (a compute-style update).
type rangeItem[K any] struct {
	key     K
	handles *atomic.Pointer[HandleSet]
}

// RangeIndex is an ordered index over a comparable key type, backed by a
// github.com/google/btree B-tree. Structural
// modification (a never-before-seen key) takes a write lock; updating the
// handle set under an existing key is a lock-free CAS loop. Reads
// (Between/Gt/Ge/Lt/Le/Lookup) take a read lock only long enough to collect
// matching *atomic.Pointer[HandleSet] values, then dereference outside the
// lock.
type RangeIndex[K any] struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[rangeItem[K]]
	less func(a, b K) bool
}

// NewRangeIndex constructs an empty range index ordered by less.
func NewRangeIndex[K any](less func(a, b K) bool) *RangeIndex[K] {
	itemLess := func(a, b rangeItem[K]) bool { return less(a.key, b.key) }
	return &RangeIndex[K]{
		tree: btree.NewG(32, itemLess),
		less: less,
	}
}

func (idx *RangeIndex[K]) probe(key K) rangeItem[K] {
	return rangeItem[K]{key: key}
}

// bucketFor returns the atomic handle-set pointer for key, creating and
// inserting a new tree item under the write lock if key has never been seen.
func (idx *RangeIndex[K]) bucketFor(key K) *atomic.Pointer[HandleSet] {
	idx.mu.RLock()
	existing, ok := idx.tree.Get(idx.probe(key))
	idx.mu.RUnlock()
	if ok {
		return existing.handles
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if existing, ok := idx.tree.Get(idx.probe(key)); ok {
		return existing.handles
	}
	item := rangeItem[K]{key: key, handles: &atomic.Pointer[HandleSet]{}}
	idx.tree.ReplaceOrInsert(item)
	return item.handles
}

// Add inserts h under key.
func (idx *RangeIndex[K]) Add(key K, h rowtable.Handle) {
	b := idx.bucketFor(key)
	for {
		old := b.Load()
		next := make(HandleSet, len(deref(old))+1)
		for existing := range deref(old) {
			next[existing] = struct{}{}
		}
		next[h] = struct{}{}
		if b.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Remove deletes h from key's entry. An entry left empty stays in the tree
// (removing tree nodes needs the write lock and empty buckets are cheap);
// range scans simply skip them since they yield no handles.
func (idx *RangeIndex[K]) Remove(key K, h rowtable.Handle) {
	b := idx.bucketFor(key)
	for {
		old := b.Load()
		set := deref(old)
		if _, ok := set[h]; !ok {
			return
		}
		next := make(HandleSet, len(set))
		for existing := range set {
			if existing != h {
				next[existing] = struct{}{}
			}
		}
		if b.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Lookup returns the handles stored under the exact key.
func (idx *RangeIndex[K]) Lookup(key K) HandleSet {
	idx.mu.RLock()
	item, ok := idx.tree.Get(idx.probe(key))
	idx.mu.RUnlock()
	if !ok {
		return nil
	}
	return deref(item.handles.Load())
}

// Inclusivity mirrors column.Inclusivity for range bound semantics.
type Inclusivity uint8

const (
	InclusiveBoth Inclusivity = iota
	InclusiveLo
	InclusiveHi
	ExclusiveBoth
)

// Between returns the union of handle sets for every key in [lo,hi]
// according to inc.
func (idx *RangeIndex[K]) Between(lo, hi K, inc Inclusivity) HandleSet {
	out := HandleSet{}
	idx.mu.RLock()
	var items []rangeItem[K]
	idx.tree.AscendRange(idx.probe(lo), idx.probe(hi), func(it rangeItem[K]) bool {
		items = append(items, it)
		return true
	})
	// AscendRange excludes hi itself (half-open [lo, hi)); pick it up
	// explicitly when it's present and the caller wants it included.
	if hiItem, ok := idx.tree.Get(idx.probe(hi)); ok {
		items = append(items, hiItem)
	}
	idx.mu.RUnlock()

	for _, it := range items {
		if withinRange(idx.less, lo, hi, it.key, inc) {
			for h := range deref(it.handles.Load()) {
				out[h] = struct{}{}
			}
		}
	}
	return out
}

func withinRange[K any](less func(a, b K) bool, lo, hi, key K, inc Inclusivity) bool {
	aboveLo := less(lo, key)
	belowHi := less(key, hi)
	eqLo := !less(lo, key) && !less(key, lo)
	eqHi := !less(hi, key) && !less(key, hi)
	switch inc {
	case InclusiveBoth:
		return (aboveLo || eqLo) && (belowHi || eqHi)
	case InclusiveLo:
		return (aboveLo || eqLo) && belowHi
	case InclusiveHi:
		return aboveLo && (belowHi || eqHi)
	default: // ExclusiveBoth
		return aboveLo && belowHi
	}
}

// Gt returns the union of handle sets for every key strictly greater than k.
func (idx *RangeIndex[K]) Gt(k K) HandleSet { return idx.scanFrom(k, false, true) }

// Ge returns the union of handle sets for every key greater than or equal to k.
func (idx *RangeIndex[K]) Ge(k K) HandleSet { return idx.scanFrom(k, true, true) }

// Lt returns the union of handle sets for every key strictly less than k.
func (idx *RangeIndex[K]) Lt(k K) HandleSet { return idx.scanFrom(k, false, false) }

// Le returns the union of handle sets for every key less than or equal to k.
func (idx *RangeIndex[K]) Le(k K) HandleSet { return idx.scanFrom(k, true, false) }

func (idx *RangeIndex[K]) scanFrom(k K, inclusive, ascending bool) HandleSet {
	out := HandleSet{}
	idx.mu.RLock()
	var items []rangeItem[K]
	visit := func(it rangeItem[K]) bool {
		items = append(items, it)
		return true
	}
	if ascending {
		idx.tree.AscendGreaterOrEqual(idx.probe(k), visit)
	} else {
		idx.tree.DescendLessOrEqual(idx.probe(k), visit)
	}
	idx.mu.RUnlock()

	for _, it := range items {
		eq := !idx.less(k, it.key) && !idx.less(it.key, k)
		if eq && !inclusive {
			continue
		}
		for h := range deref(it.handles.Load()) {
			out[h] = struct{}{}
		}
	}
	return out
}
