// Package index implements the lock-free-ish secondary index structures
// maintained alongside a rowtable.Table: HashIndex, RangeIndex, prefix/
// suffix indexes, and the specialized unique-ID indexes. Every index stores
// row handles, never rows; materialization always goes back through the
// table under its seqlock.
package index

import (
	"fmt"

	"github.com/syssam/rowbase/rowtable"
)

// HandleSet is an unordered set of row handles, the common result shape
// every index operation returns.
type HandleSet map[rowtable.Handle]struct{}

func newHandleSet(capacity int) HandleSet { return make(HandleSet, capacity) }

// Union returns the set union of a and b without mutating either.
func Union(a, b HandleSet) HandleSet {
	out := newHandleSet(len(a) + len(b))
	for h := range a {
		out[h] = struct{}{}
	}
	for h := range b {
		out[h] = struct{}{}
	}
	return out
}

// Intersect returns the set intersection of a and b without mutating either.
func Intersect(a, b HandleSet) HandleSet {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	out := newHandleSet(len(small))
	for h := range small {
		if _, ok := large[h]; ok {
			out[h] = struct{}{}
		}
	}
	return out
}

// ErrDuplicateKey is returned by a unique index's Insert when the key is
// already present: insertion of a duplicate ID is an error, and the
// caller decides whether to update instead.
type ErrDuplicateKey struct {
	Key any
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("index: duplicate key %v", e.Key)
}

// ErrKeyNotFound is returned by a unique index's Remove when the key is
// absent.
type ErrKeyNotFound struct {
	Key any
}

func (e *ErrKeyNotFound) Error() string {
	return fmt.Sprintf("index: key %v not found", e.Key)
}
