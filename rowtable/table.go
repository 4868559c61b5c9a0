package rowtable

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/typecode"
)

// ErrTableFull is returned by AllocateSlot when the configured maxPages has
// been reached and the free list is empty (TableFull).
var ErrTableFull = fmt.Errorf("rowtable: table is full")

// maxReadRetries bounds how many times Read re-snapshots a row before
// surfacing a transient conflict to the caller.
const maxReadRetries = 8

// Table is a paged, typed, column-oriented row store with row-level
// seqlock concurrency and a lock-free free list. It knows
// nothing about entities or queries: callers address columns purely by
// field index.
type Table struct {
	pageSize int
	maxPages int
	specs    []typecode.Code

	pagesMu sync.Mutex     // serializes page *appends* only; never held during row reads/writes
	pages   atomic.Pointer[[]*Page]

	rowCount atomic.Int64
	idSeq    atomic.Int64

	free *freeList
}

// New creates a table with one column per entry in specs (field index order),
// sized per pageSize/maxPages/initialPages.
func New(specs []typecode.Code, pageSize, maxPages, initialPages int) *Table {
	if pageSize <= 0 {
		pageSize = 1024
	}
	if maxPages <= 0 {
		maxPages = 1024
	}
	t := &Table{
		pageSize: pageSize,
		maxPages: maxPages,
		specs:    append([]typecode.Code(nil), specs...),
		free:     newFreeList(pageSize * maxPages),
	}
	initial := make([]*Page, 0, maxPages)
	for i := 0; i < initialPages && i < maxPages; i++ {
		initial = append(initial, newPage(i, pageSize, specs))
	}
	t.pages.Store(&initial)
	return t
}

// PageSize returns the configured rows-per-page.
func (t *Table) PageSize() int { return t.pageSize }

// RowCount returns the live row count: the count of set presence bits
// across all pages.
func (t *Table) RowCount() int64 { return t.rowCount.Load() }

// NextID returns the next value from this table's monotonic per-entity ID
// counter (ID generator).
func (t *Table) NextID() int64 { return t.idSeq.Add(1) }

func (t *Table) snapshotPages() []*Page { return *t.pages.Load() }

func (t *Table) globalID(h Handle) uint32 {
	return uint32(h.Page())*uint32(t.pageSize) + uint32(h.Slot())
}

func (t *Table) handleFromGlobalID(id uint32) Handle {
	page := int(id / uint32(t.pageSize))
	slot := int(id % uint32(t.pageSize))
	return newHandle(page, slot)
}

// pageAt returns the page at index, growing the table (appending pages) if
// needed and permitted. Growth is the only operation that takes pagesMu.
func (t *Table) pageAt(index int) (*Page, error) {
	pages := t.snapshotPages()
	if index < len(pages) {
		return pages[index], nil
	}
	if index >= t.maxPages {
		return nil, ErrTableFull
	}
	t.pagesMu.Lock()
	defer t.pagesMu.Unlock()
	pages = t.snapshotPages()
	if index < len(pages) {
		return pages[index], nil
	}
	grown := append(append([]*Page(nil), pages...), newPage(len(pages), t.pageSize, t.specs))
	for len(grown) <= index && len(grown) < t.maxPages {
		grown = append(grown, newPage(len(grown), t.pageSize, t.specs))
	}
	t.pages.Store(&grown)
	return grown[index], nil
}

// AllocateSlot reserves a row slot: pop from the free list, or append to the
// current page, or grow a new page, up to maxPages.
func (t *Table) AllocateSlot() (Handle, error) {
	if id, ok := t.free.pop(); ok {
		return t.handleFromGlobalID(id), nil
	}
	pages := t.snapshotPages()
	for _, p := range pages {
		if slot, ok := claimFreshSlot(p); ok {
			return newHandle(p.index, slot), nil
		}
	}
	// Every existing page is exhausted of fresh (never-used) slots; grow.
	nextIndex := len(pages)
	if nextIndex >= t.maxPages {
		return 0, ErrTableFull
	}
	p, err := t.pageAt(nextIndex)
	if err != nil {
		return 0, err
	}
	slot, ok := claimFreshSlot(p)
	if !ok {
		return 0, ErrTableFull
	}
	return newHandle(p.index, slot), nil
}

// claimFreshSlot hands out the next never-before-allocated slot on p via a
// simple atomic cursor; once exhausted, recycling happens only through the
// table-wide free list.
func claimFreshSlot(p *Page) (int, bool) {
	next := p.cursor.Add(1) - 1
	if int(next) >= p.capacity {
		return 0, false
	}
	return int(next), true
}

// RowWriter receives pre-resolved column references and fills them during
// Publish. Implementations must only touch the columns they were handed.
type RowWriter func(cols []column.Column, slot int)

// RowReader snapshot-reads a row's columns during Read.
type RowReader func(cols []column.Column, slot int)

// Publish writes (or rewrites) the row at h. Publication sequence: CAS the
// version word from even v to v+1 (write phase begins), run writer, set the
// row-liveness presence bit, then store v+2 (write phase ends). Concurrent
// publishes to different rows proceed in parallel; publishes to the same
// row serialize through the version CAS.
func (t *Table) Publish(h Handle, writer RowWriter) error {
	p, err := t.pageAt(h.Page())
	if err != nil {
		return err
	}
	slot := h.Slot()
	wasLive := p.isLive(slot)
	v := beginWrite(p, slot)
	writer(p.columns, slot)
	p.presence.Set(uint32(slot))
	endWrite(p, slot, v)
	if !wasLive {
		t.rowCount.Add(1)
	}
	return nil
}

// Read snapshot-reads the row at h: load v1 (retry while odd), run reader,
// load v2, and accept the read only if v1 == v2. After maxReadRetries
// unsuccessful attempts it reports a transient conflict; callers (the
// kernel) re-read or drop the row.
func (t *Table) Read(h Handle, reader RowReader) (ok bool, transient bool) {
	pages := t.snapshotPages()
	if h.Page() >= len(pages) {
		return false, false
	}
	p := pages[h.Page()]
	slot := h.Slot()
	for attempt := 0; attempt < maxReadRetries; attempt++ {
		v1 := p.version(slot)
		if v1&1 == 1 {
			continue // writer holds the row; spin
		}
		if !p.isLive(slot) {
			return false, false
		}
		reader(p.columns, slot)
		v2 := p.version(slot)
		if v1 == v2 {
			return true, false
		}
	}
	return false, true
}

// Delete clears the row at h under its seqlock, bumps its generation
// counter, and pushes the slot onto the free list.
func (t *Table) Delete(h Handle) error {
	pages := t.snapshotPages()
	if h.Page() >= len(pages) {
		return fmt.Errorf("rowtable: delete of unknown page %d", h.Page())
	}
	p := pages[h.Page()]
	slot := h.Slot()
	if !p.isLive(slot) {
		return nil // already free; delete is idempotent
	}
	v := beginWrite(p, slot)
	p.presence.Remove(uint32(slot))
	for _, c := range p.columns {
		c.Clear(slot)
	}
	p.gen[slot].Add(1)
	endWrite(p, slot, v)
	t.rowCount.Add(-1)
	t.free.push(t.globalID(h))
	return nil
}

// ColumnAt returns the column at fieldIndex on the page at pageIndex — used
// by the index/kernel packages to run typed scans without re-deriving the page.
func (t *Table) ColumnAt(pageIndex, fieldIndex int) column.Column {
	pages := t.snapshotPages()
	return pages[pageIndex].columns[fieldIndex]
}

// Pages returns a stable snapshot of the table's current pages, in index
// order. Scans iterate this slice; pages appended afterwards are simply not
// part of that scan's result — a scan has no cross-row atomicity guarantee
// anyway.
func (t *Table) Pages() []*Page { return t.snapshotPages() }

// PageIndex returns p's position in the table.
func (p *Page) PageIndex() int { return p.index }

// Presence returns p's row-liveness bitmap (distinct from each column's own
// null-presence bitmap).
func (p *Page) Presence() column.Selection { return p.presence }

// Column returns the column at fieldIndex.
func (p *Page) Column(fieldIndex int) column.Column { return p.columns[fieldIndex] }

// Capacity returns the page's fixed slot capacity.
func (p *Page) Capacity() int { return p.capacity }

// Generation returns the slot's current generation counter, which Delete
// bumps each time the row is freed. The kernel does not call it.
func (p *Page) Generation(slot int) uint32 { return p.generation(slot) }

func beginWrite(p *Page, slot int) uint32 {
	for {
		v := p.versions[slot].Load()
		if v&1 == 1 {
			continue // another writer holds this row; spin
		}
		if p.versions[slot].CompareAndSwap(v, v+1) {
			return v
		}
	}
}

func endWrite(p *Page, slot int, v uint32) {
	p.versions[slot].Store(v + 2)
}
