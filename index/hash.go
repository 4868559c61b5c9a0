package index

import (
	"sync"
	"sync/atomic"

	"github.com/syssam/rowbase/rowtable"
)

// HashIndex is a concurrent map from key to a set of row handles.
// Each bucket is an atomic.Pointer to an immutable HandleSet;
// add/remove are compute-style updates — load, copy, CAS, retry on
// contention — so no bucket is ever locked, only the small map sitting at
// the bucket is swapped.
type HashIndex[K comparable] struct {
	buckets sync.Map // K -> *atomic.Pointer[HandleSet]
}

// NewHashIndex constructs an empty hash index over keys of type K.
func NewHashIndex[K comparable]() *HashIndex[K] {
	return &HashIndex[K]{}
}

func (idx *HashIndex[K]) bucket(key K) *atomic.Pointer[HandleSet] {
	if v, ok := idx.buckets.Load(key); ok {
		return v.(*atomic.Pointer[HandleSet])
	}
	fresh := &atomic.Pointer[HandleSet]{}
	v, _ := idx.buckets.LoadOrStore(key, fresh)
	return v.(*atomic.Pointer[HandleSet])
}

// Add inserts h under key. Lock-free: retries the CAS until it wins.
func (idx *HashIndex[K]) Add(key K, h rowtable.Handle) {
	b := idx.bucket(key)
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

// Remove deletes h from key's bucket, if present.
func (idx *HashIndex[K]) Remove(key K, h rowtable.Handle) {
	b := idx.bucket(key)
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

// Lookup returns a snapshot of the handles stored under key. The returned
// set is immutable and safe to range over concurrently with further
// Add/Remove calls.
func (idx *HashIndex[K]) Lookup(key K) HandleSet {
	v, ok := idx.buckets.Load(key)
	if !ok {
		return nil
	}
	return deref(v.(*atomic.Pointer[HandleSet]).Load())
}

func deref(p *HandleSet) HandleSet {
	if p == nil {
		return nil
	}
	return *p
}
