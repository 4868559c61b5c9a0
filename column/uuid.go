package column

import (
	"github.com/google/uuid"
	"github.com/syssam/rowbase/typecode"
)

// UUIDColumn stores a UUID as two int64 columns (MSB, LSB). Presence is
// tracked once, on the MSB half; both halves are always written together
// by Set and cleared together by Clear.
type UUIDColumn struct {
	msb *NumericColumn[int64]
	lsb *NumericColumn[int64]
}

func NewUUIDColumn(pageSize int) *UUIDColumn {
	return &UUIDColumn{
		msb: NewNumericColumn[int64](typecode.UUID, pageSize),
		lsb: NewNumericColumn[int64](typecode.UUID, pageSize),
	}
}

func (c *UUIDColumn) TypeCode() typecode.Code { return typecode.UUID }
func (c *UUIDColumn) Cap() int                { return c.msb.Cap() }
func (c *UUIDColumn) Presence() Selection     { return c.msb.Presence() }

func split(u uuid.UUID) (msb, lsb int64) {
	b := u[:]
	for i := 0; i < 8; i++ {
		msb = msb<<8 | int64(b[i])
	}
	for i := 8; i < 16; i++ {
		lsb = lsb<<8 | int64(b[i])
	}
	return
}

func join(msb, lsb int64) uuid.UUID {
	var u uuid.UUID
	for i := 7; i >= 0; i-- {
		u[i] = byte(msb)
		msb >>= 8
	}
	for i := 15; i >= 8; i-- {
		u[i] = byte(lsb)
		lsb >>= 8
	}
	return u
}

func (c *UUIDColumn) Get(slot int) uuid.UUID {
	return join(c.msb.Get(slot), c.lsb.Get(slot))
}

func (c *UUIDColumn) Set(slot int, v uuid.UUID) {
	msb, lsb := split(v)
	c.msb.Set(slot, msb)
	c.lsb.Set(slot, lsb)
}

func (c *UUIDColumn) Clear(slot int) {
	c.msb.Clear(slot)
	c.lsb.Clear(slot)
}

func (c *UUIDColumn) ScanNull() Selection { return c.msb.ScanNull() }

func (c *UUIDColumn) ScanEquals(v uuid.UUID) Selection {
	msb, lsb := split(v)
	out := make([]uint64, 0)
	sel := Selection(out)
	c.msb.presence.Range(func(x uint32) {
		if c.msb.values[x] == msb && c.lsb.values[x] == lsb {
			sel.Set(x)
		}
	})
	return sel
}

func (c *UUIDColumn) ScanNotEquals(v uuid.UUID) Selection {
	msb, lsb := split(v)
	var sel Selection
	c.msb.presence.Range(func(x uint32) {
		if !(c.msb.values[x] == msb && c.lsb.values[x] == lsb) {
			sel.Set(x)
		}
	})
	return sel
}

func (c *UUIDColumn) ScanIn(set map[uuid.UUID]struct{}) Selection {
	var sel Selection
	c.msb.presence.Range(func(x uint32) {
		v := join(c.msb.values[x], c.lsb.values[x])
		if _, ok := set[v]; ok {
			sel.Set(x)
		}
	})
	return sel
}

func (c *UUIDColumn) ScanNotIn(set map[uuid.UUID]struct{}) Selection {
	var sel Selection
	c.msb.presence.Range(func(x uint32) {
		v := join(c.msb.values[x], c.lsb.values[x])
		if _, ok := set[v]; !ok {
			sel.Set(x)
		}
	})
	return sel
}
