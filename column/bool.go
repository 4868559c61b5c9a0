package column

import (
	"github.com/kelindar/bitmap"
	"github.com/syssam/rowbase/typecode"
)

// BoolColumn stores booleans as two bitmaps: presence and truth. Its
// operator set is limited to EQ, NE, IS_TRUE, IS_FALSE.
type BoolColumn struct {
	size     int
	presence bitmap.Bitmap
	truth    bitmap.Bitmap
}

func NewBoolColumn(pageSize int) *BoolColumn {
	words := uint32(pageSize)/64 + 1
	return &BoolColumn{
		size:     pageSize,
		presence: make(bitmap.Bitmap, 0, words),
		truth:    make(bitmap.Bitmap, 0, words),
	}
}

func (c *BoolColumn) TypeCode() typecode.Code { return typecode.Bool }
func (c *BoolColumn) Cap() int                { return c.size }
func (c *BoolColumn) Presence() Selection     { return c.presence }

func (c *BoolColumn) Get(slot int) bool {
	return c.truth.Contains(uint32(slot))
}

func (c *BoolColumn) Set(slot int, v bool) {
	c.presence.Set(uint32(slot))
	if v {
		c.truth.Set(uint32(slot))
	} else {
		c.truth.Remove(uint32(slot))
	}
}

func (c *BoolColumn) Clear(slot int) {
	c.presence.Remove(uint32(slot))
	c.truth.Remove(uint32(slot))
}

func (c *BoolColumn) ScanNull() Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	n := c.Cap()
	for i := 0; i < n; i++ {
		if !c.presence.Contains(uint32(i)) {
			out.Set(uint32(i))
		}
	}
	return out
}

// ScanEquals returns the slots whose value equals v.
func (c *BoolColumn) ScanEquals(v bool) Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	c.presence.Range(func(x uint32) {
		if c.truth.Contains(x) == v {
			out.Set(x)
		}
	})
	return out
}

// ScanNotEquals returns the slots whose value does not equal v.
func (c *BoolColumn) ScanNotEquals(v bool) Selection { return c.ScanEquals(!v) }

// ScanTrue returns the slots holding true.
func (c *BoolColumn) ScanTrue() Selection { return c.ScanEquals(true) }

// ScanFalse returns the slots holding false.
func (c *BoolColumn) ScanFalse() Selection { return c.ScanEquals(false) }
