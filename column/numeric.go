package column

import (
	"github.com/kelindar/bitmap"
	"github.com/syssam/rowbase/typecode"
)

// Numeric is the constraint satisfied by every fixed-width numeric storage
// type the engine supports (int8/16/32/64, float32/64, and the
// epoch-encoded date/time carriers, which are stored as int64).
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// NumericColumn is a dense, fixed-capacity array of T plus a presence
// bitmap. One instance backs one column on one page. Comparisons follow the
// total order of T directly.
type NumericColumn[T Numeric] struct {
	typ      typecode.Code
	values   []T
	presence bitmap.Bitmap
}

// NewNumericColumn allocates a page-sized numeric column for the given type
// code (which must correspond to T — the caller, the table package, is the
// only caller and always passes a matching pair).
func NewNumericColumn[T Numeric](typ typecode.Code, pageSize int) *NumericColumn[T] {
	return &NumericColumn[T]{
		typ:      typ,
		values:   make([]T, pageSize),
		presence: make(bitmap.Bitmap, 0, uint32(pageSize)/64+1),
	}
}

func (c *NumericColumn[T]) TypeCode() typecode.Code { return c.typ }
func (c *NumericColumn[T]) Cap() int                { return len(c.values) }
func (c *NumericColumn[T]) Presence() Selection     { return c.presence }

// Get reads the value at slot. Out-of-range slot is a programmer error.
func (c *NumericColumn[T]) Get(slot int) T {
	checkSlot(slot, len(c.values))
	return c.values[slot]
}

// Set writes the value at slot and marks it present.
func (c *NumericColumn[T]) Set(slot int, v T) {
	checkSlot(slot, len(c.values))
	c.values[slot] = v
	c.presence.Set(uint32(slot))
}

// Clear removes the value and presence bit at slot (used on row delete).
func (c *NumericColumn[T]) Clear(slot int) {
	checkSlot(slot, len(c.values))
	var zero T
	c.values[slot] = zero
	c.presence.Remove(uint32(slot))
}

// ScanNull returns the slots holding no value.
func (c *NumericColumn[T]) ScanNull() Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	for i := 0; i < len(c.values); i++ {
		if !c.presence.Contains(uint32(i)) {
			out.Set(uint32(i))
		}
	}
	return out
}

func (c *NumericColumn[T]) scan(pred func(T) bool) Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	c.presence.Range(func(x uint32) {
		if pred(c.values[x]) {
			out.Set(x)
		}
	})
	return out
}

// ScanEquals returns the slots whose value equals v.
func (c *NumericColumn[T]) ScanEquals(v T) Selection {
	return c.scan(func(x T) bool { return x == v })
}

// ScanNotEquals returns the slots whose value does not equal v.
func (c *NumericColumn[T]) ScanNotEquals(v T) Selection {
	return c.scan(func(x T) bool { return x != v })
}

// ScanGt returns the slots whose value is strictly greater than v.
func (c *NumericColumn[T]) ScanGt(v T) Selection { return c.scan(func(x T) bool { return x > v }) }

// ScanGe returns the slots whose value is greater than or equal to v.
func (c *NumericColumn[T]) ScanGe(v T) Selection { return c.scan(func(x T) bool { return x >= v }) }

// ScanLt returns the slots whose value is strictly less than v.
func (c *NumericColumn[T]) ScanLt(v T) Selection { return c.scan(func(x T) bool { return x < v }) }

// ScanLe returns the slots whose value is less than or equal to v.
func (c *NumericColumn[T]) ScanLe(v T) Selection { return c.scan(func(x T) bool { return x <= v }) }

// Inclusivity controls whether ScanRange's bounds are open or closed on
// each side.
type Inclusivity uint8

const (
	// InclusiveBoth matches BETWEEN: lo <= x <= hi.
	InclusiveBoth Inclusivity = iota
	InclusiveLo
	InclusiveHi
	ExclusiveBoth
)

// ScanRange returns the slots whose value falls within [lo,hi] according to
// inclusivity.
func (c *NumericColumn[T]) ScanRange(lo, hi T, inc Inclusivity) Selection {
	return c.scan(func(x T) bool {
		loOK := x > lo
		hiOK := x < hi
		switch inc {
		case InclusiveBoth:
			loOK, hiOK = x >= lo, x <= hi
		case InclusiveLo:
			loOK, hiOK = x >= lo, x < hi
		case InclusiveHi:
			loOK, hiOK = x > lo, x <= hi
		}
		return loOK && hiOK
	})
}

// ScanIn returns the slots whose value is a member of set.
func (c *NumericColumn[T]) ScanIn(set map[T]struct{}) Selection {
	return c.scan(func(x T) bool { _, ok := set[x]; return ok })
}

// ScanNotIn returns the slots whose value is not a member of set.
func (c *NumericColumn[T]) ScanNotIn(set map[T]struct{}) Selection {
	return c.scan(func(x T) bool { _, ok := set[x]; return !ok })
}
