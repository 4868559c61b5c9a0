// Package column implements the PageColumn family: one typed, dense,
// fixed-capacity array per primitive/reference storage kind, each owning a
// presence bitmap and exposing in-place scalar scans. Scans never allocate
// per row; they return a page-local Selection (a bitmap.Bitmap) that the
// kernel combines across pages and conditions.
package column

import (
	"fmt"

	"github.com/kelindar/bitmap"
	"github.com/syssam/rowbase/typecode"
)

// Selection is a page-local set of matching slots, one bit per slot.
// Selections are combined with AND (intersection), OR (union) and AND NOT
// (difference) exactly as github.com/kelindar/bitmap's Txn composes column
// indices: dst.And(src), dst.Or(src), dst.AndNot(src).
type Selection = bitmap.Bitmap

// Column is the per-page, per-field typed storage contract. Every concrete
// column type (NumericColumn[T], BoolColumn, CharColumn, StringColumn,
// which also backs Decimal, and UUIDColumn) implements it for its own Go
// storage type;
// the generic accessors here are the reflection-free common surface the
// table and kernel packages use to talk to "some column" without knowing
// which one.
type Column interface {
	// TypeCode reports the storage type code this column holds.
	TypeCode() typecode.Code
	// Cap returns the column's fixed capacity (the page size).
	Cap() int
	// Presence returns the column's own presence bitmap view.
	Presence() Selection
	// ScanNull returns the slots where the column holds no value.
	ScanNull() Selection
	// Clear wipes the value (and presence bit) at slot, used on delete.
	Clear(slot int)
}

// OutOfRange is a programmer-error panic value: an out-of-bounds slot access
// is never a recoverable condition in this engine — assert/fail-fast.
type OutOfRange struct {
	Slot, Cap int
}

func (e OutOfRange) Error() string {
	return fmt.Sprintf("column: slot %d out of range [0,%d)", e.Slot, e.Cap)
}

func checkSlot(slot, cap int) {
	if slot < 0 || slot >= cap {
		panic(OutOfRange{Slot: slot, Cap: cap})
	}
}
