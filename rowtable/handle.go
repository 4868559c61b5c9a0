// Package rowtable implements the paged, seqlock-protected, typed row
// store: an AbstractTable generalized to any field layout described by
// a []typecode.Code slice, built on columns from the column package.
package rowtable

import "fmt"

// Handle is an opaque, stable, non-negative identifier for a row's slot:
// (page index, slot index) packed into a 32-bit integer. Handles are stable
// for the life of the row; delete reclaims them through the free list.
type Handle uint32

// NoHandle is the sentinel value meaning "no handle". It is never returned
// by AllocateSlot. The free list does not use it: its empty-stack marker is
// a stored id+1 of 0.
const NoHandle Handle = 1<<32 - 1

// slotBits is the number of low bits reserved for the in-page slot index.
// 20 bits (1,048,576 slots/page) comfortably covers any realistic pageSize
// while leaving 12 bits (4,096 pages) for the page index — both far above
// the package's own defaults (pageSize=1024, maxPages=1024).
const slotBits = 20
const slotMask = 1<<slotBits - 1

// NewHandle constructs a Handle from a page index and in-page slot index.
// Exported for the kernel package, which needs to turn a column scan's
// page-local Selection bits back into row handles.
func NewHandle(page, slot int) Handle { return newHandle(page, slot) }

func newHandle(page, slot int) Handle {
	if page < 0 || slot < 0 || slot > slotMask || page > (1<<(32-slotBits))-1 {
		panic(fmt.Sprintf("rowtable: page/slot out of range (page=%d slot=%d)", page, slot))
	}
	return Handle(uint32(page)<<slotBits | uint32(slot))
}

// Page returns the handle's page index.
func (h Handle) Page() int { return int(uint32(h) >> slotBits) }

// Slot returns the handle's in-page slot index.
func (h Handle) Slot() int { return int(uint32(h) & slotMask) }

func (h Handle) String() string {
	if h == NoHandle {
		return "rowtable.NoHandle"
	}
	return fmt.Sprintf("rowtable.Handle(page=%d,slot=%d)", h.Page(), h.Slot())
}
