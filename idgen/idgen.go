// Package idgen implements the per-entity identity strategies an
// EntityDescriptor may declare: a monotonic atomic counter for integer
// primary keys, and a random UUID strategy for UUID primary keys.
package idgen

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Strategy assigns a primary-key value of type K to a newly saved entity
// that did not already carry one.
type Strategy[K any] interface {
	// Next returns the next key to assign. Called only when the caller's
	// entity arrives with its ID field unset (ALLOCATED).
	Next() K
}

// LongStrategy is a per-table monotonic counter, the default ID strategy
// for int64 primary keys: a monotonic atomic counter per table.
type LongStrategy struct {
	counter atomic.Int64
}

// NewLongStrategy constructs a counter that starts issuing IDs from start+1.
func NewLongStrategy(start int64) *LongStrategy {
	s := &LongStrategy{}
	s.counter.Store(start)
	return s
}

// Next returns the next value in the sequence.
func (s *LongStrategy) Next() int64 { return s.counter.Add(1) }

// Observe advances the counter so that subsequent Next calls return values
// greater than seen, never colliding with a manually assigned ID <= seen.
// Used when an entity arrives with an
// explicit ID already set, to keep the generator monotonic.
func (s *LongStrategy) Observe(seen int64) {
	for {
		cur := s.counter.Load()
		if seen <= cur {
			return
		}
		if s.counter.CompareAndSwap(cur, seen) {
			return
		}
	}
}

// UUIDStrategy generates random (version 4) UUID primary keys.
type UUIDStrategy struct{}

// NewUUIDStrategy constructs a UUID strategy.
func NewUUIDStrategy() *UUIDStrategy { return &UUIDStrategy{} }

// Next returns a freshly generated random UUID.
func (UUIDStrategy) Next() uuid.UUID {
	id, err := uuid.NewRandom()
	if err != nil {
		// crypto/rand failure is not a recoverable condition for an ID
		// generator; every caller of Next assumes a usable key.
		panic("idgen: uuid.NewRandom failed: " + err.Error())
	}
	return id
}
