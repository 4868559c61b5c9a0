package index

import (
	"sync"

	"github.com/syssam/rowbase/rowtable"
)

// IDIndex is a specialized unique index from a primary-key value of type K
// to exactly one row handle. Unlike HashIndex/RangeIndex it stores a
// single handle per key, not a set, and insertion of a duplicate key is an
// error rather than silently growing a bucket.
type IDIndex[K comparable] struct {
	mu   sync.RWMutex
	byID map[K]rowtable.Handle
}

// NewIDIndex constructs an empty unique-ID index.
func NewIDIndex[K comparable]() *IDIndex[K] {
	return &IDIndex[K]{byID: make(map[K]rowtable.Handle)}
}

// Insert adds key -> h. Returns ErrDuplicateKey if key is already present;
// the caller decides whether to update instead.
func (idx *IDIndex[K]) Insert(key K, h rowtable.Handle) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.byID[key]; ok {
		return &ErrDuplicateKey{Key: key}
	}
	idx.byID[key] = h
	return nil
}

// Update overwrites key's handle unconditionally (used when a row is
// rewritten in place and its ID column itself hasn't changed).
func (idx *IDIndex[K]) Update(key K, h rowtable.Handle) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byID[key] = h
}

// Remove deletes key. Returns ErrKeyNotFound if key was absent.
func (idx *IDIndex[K]) Remove(key K) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.byID[key]; !ok {
		return &ErrKeyNotFound{Key: key}
	}
	delete(idx.byID, key)
	return nil
}

// Lookup returns the handle stored under key, if any.
func (idx *IDIndex[K]) Lookup(key K) (rowtable.Handle, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	h, ok := idx.byID[key]
	return h, ok
}

// Len returns the number of keys currently indexed.
func (idx *IDIndex[K]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

// LongIdIndex is the unique-ID index for int64-keyed entities.
type LongIdIndex = IDIndex[int64]

// NewLongIdIndex constructs an empty LongIdIndex.
func NewLongIdIndex() *LongIdIndex { return NewIDIndex[int64]() }

// StringIdIndex is the unique-ID index for string-keyed entities.
type StringIdIndex = IDIndex[string]

// NewStringIdIndex constructs an empty StringIdIndex.
func NewStringIdIndex() *StringIdIndex { return NewIDIndex[string]() }
