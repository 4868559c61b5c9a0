package column

import (
	"github.com/kelindar/bitmap"
	"github.com/syssam/rowbase/typecode"
)

// CharColumn stores single Unicode code points (a "16-bit char" storage
// kind). Supported operators: EQ, NE, IN, NOT_IN.
type CharColumn struct {
	values   []rune
	presence bitmap.Bitmap
}

func NewCharColumn(pageSize int) *CharColumn {
	return &CharColumn{
		values:   make([]rune, pageSize),
		presence: make(bitmap.Bitmap, 0, uint32(pageSize)/64+1),
	}
}

func (c *CharColumn) TypeCode() typecode.Code { return typecode.Char }
func (c *CharColumn) Cap() int                { return len(c.values) }
func (c *CharColumn) Presence() Selection     { return c.presence }

func (c *CharColumn) Get(slot int) rune {
	checkSlot(slot, len(c.values))
	return c.values[slot]
}

func (c *CharColumn) Set(slot int, v rune) {
	checkSlot(slot, len(c.values))
	c.values[slot] = v
	c.presence.Set(uint32(slot))
}

func (c *CharColumn) Clear(slot int) {
	checkSlot(slot, len(c.values))
	c.values[slot] = 0
	c.presence.Remove(uint32(slot))
}

func (c *CharColumn) ScanNull() Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	for i := 0; i < len(c.values); i++ {
		if !c.presence.Contains(uint32(i)) {
			out.Set(uint32(i))
		}
	}
	return out
}

func (c *CharColumn) scan(pred func(rune) bool) Selection {
	out := make(bitmap.Bitmap, len(c.presence))
	c.presence.Range(func(x uint32) {
		if pred(c.values[x]) {
			out.Set(x)
		}
	})
	return out
}

func (c *CharColumn) ScanEquals(v rune) Selection    { return c.scan(func(x rune) bool { return x == v }) }
func (c *CharColumn) ScanNotEquals(v rune) Selection { return c.scan(func(x rune) bool { return x != v }) }

func (c *CharColumn) ScanIn(set map[rune]struct{}) Selection {
	return c.scan(func(x rune) bool { _, ok := set[x]; return ok })
}

func (c *CharColumn) ScanNotIn(set map[rune]struct{}) Selection {
	return c.scan(func(x rune) bool { _, ok := set[x]; return !ok })
}
