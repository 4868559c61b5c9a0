package rowtable

import "sync/atomic"

// freeList is a lock-free Treiber stack of recycled row handles, used for
// AllocateSlot's pop and Delete's push. The stack top is
// a single atomic.Uint64 packing (handle+1) in the low 32 bits and a
// monotonically increasing push/pop counter in the high 32 bits; the
// counter changes on every successful push or pop, so a CAS that reads a
// stale top can never mistake "popped-then-pushed-back-same-handle" (ABA)
// for "unchanged" — the counter half will differ.
type freeList struct {
	top  atomic.Uint64
	next []atomic.Uint32 // next[id] = (pushed-before-id id)+1, or 0 if id was the bottom of the stack
}

func newFreeList(capacity int) *freeList {
	return &freeList{next: make([]atomic.Uint32, capacity)}
}

func packTop(idPlusOne, counter uint32) uint64 {
	return uint64(counter)<<32 | uint64(idPlusOne)
}

func unpackTop(v uint64) (idPlusOne, counter uint32) {
	return uint32(v), uint32(v >> 32)
}

// push returns a compact global slot id to the free list. Table translates
// between Handle and this id (page*pageSize+slot) so the stack's backing
// array can be sized exactly maxPages*pageSize instead of 1<<32. The caller
// must have already cleared the slot's presence bit and bumped its
// generation counter (Table.Delete does this before calling push).
func (fl *freeList) push(id uint32) {
	for {
		old := fl.top.Load()
		oldTop, counter := unpackTop(old)
		fl.next[id].Store(oldTop)
		if fl.top.CompareAndSwap(old, packTop(id+1, counter+1)) {
			return
		}
	}
}

// pop removes and returns a global slot id from the free list, or reports
// false if the list is empty.
func (fl *freeList) pop() (uint32, bool) {
	for {
		old := fl.top.Load()
		topPlusOne, counter := unpackTop(old)
		if topPlusOne == 0 {
			return 0, false
		}
		top := topPlusOne - 1
		next := fl.next[top].Load()
		if fl.top.CompareAndSwap(old, packTop(next, counter+1)) {
			return top, true
		}
	}
}
