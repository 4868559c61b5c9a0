package rowtable

import (
	"sync/atomic"

	"github.com/kelindar/bitmap"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/typecode"
)

// newColumn constructs the concrete PageColumn for a given type code. This
// is the one place the closed TypeCode enum is switched over to build
// storage — every other package only ever talks to column.Column.
func newColumn(code typecode.Code, pageSize int) column.Column {
	switch code {
	case typecode.Int8:
		return column.NewNumericColumn[int8](code, pageSize)
	case typecode.Int16:
		return column.NewNumericColumn[int16](code, pageSize)
	case typecode.Int32:
		return column.NewNumericColumn[int32](code, pageSize)
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return column.NewNumericColumn[int64](code, pageSize)
	case typecode.Float32:
		return column.NewNumericColumn[float32](code, pageSize)
	case typecode.Float64:
		return column.NewNumericColumn[float64](code, pageSize)
	case typecode.Bool:
		return column.NewBoolColumn(pageSize)
	case typecode.Char:
		return column.NewCharColumn(pageSize)
	case typecode.String:
		return column.NewStringColumn(code, pageSize)
	case typecode.UUID:
		return column.NewUUIDColumn(pageSize)
	case typecode.Decimal:
		return column.NewDecimalColumn(pageSize)
	default:
		panic("rowtable: unknown type code " + code.String())
	}
}

// Page is a fixed-capacity block of row slots: one Column per field, one
// row-liveness presence bitmap, and one seqlock version word per slot
//. A table is an ordered list of pages.
type Page struct {
	index    int
	capacity int
	columns  []column.Column
	presence bitmap.Bitmap    // row liveness: 1 = live, 0 = free (distinct from each column's own null-presence bitmap)
	versions []atomic.Uint32  // per-row seqlock: even = stable, odd = writer in progress
	gen      []atomic.Uint32  // per-row generation, bumped on delete (state-machine DELETING->FREE)
	cursor   atomic.Uint32    // next never-allocated slot, advanced by claimFreshSlot
}

func newPage(index, capacity int, specs []typecode.Code) *Page {
	cols := make([]column.Column, len(specs))
	for i, code := range specs {
		cols[i] = newColumn(code, capacity)
	}
	return &Page{
		index:    index,
		capacity: capacity,
		columns:  cols,
		presence: make(bitmap.Bitmap, 0, uint32(capacity)/64+1),
		versions: make([]atomic.Uint32, capacity),
		gen:      make([]atomic.Uint32, capacity),
	}
}

// isLive reports whether slot currently holds a published row.
func (p *Page) isLive(slot int) bool { return p.presence.Contains(uint32(slot)) }

// version loads the slot's current seqlock version word.
func (p *Page) version(slot int) uint32 { return p.versions[slot].Load() }

// generation loads the slot's current generation counter.
func (p *Page) generation(slot int) uint32 { return p.gen[slot].Load() }
