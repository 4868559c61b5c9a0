package kernel

import (
	"context"

	"github.com/google/uuid"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/join"
	"github.com/syssam/rowbase/rowtable"
	"github.com/syssam/rowbase/typecode"
)

// TableOptions configures a new Table's underlying rowtable.Table plus its
// materializer/extractor accessors. desc must already have been through
// Descriptor.Finalize.
type TableOptions struct {
	PageSize     int
	MaxPages     int
	InitialPages int
	Construct    func() any
	Converters   map[string]entity.Converter
	Cache        Cache
	CacheTTL     int64 // seconds; 0 means the cache entry never expires

	// EnableParallelSorting and ParallelSortThreshold configure ORDER BY's
	// sharded sort path. A zero ParallelSortThreshold falls back to
	// defaultParallelSortThreshold.
	EnableParallelSorting bool
	ParallelSortThreshold int
}

// Table is the per-entity runtime bundle: a rowtable.Table for storage, an
// entity.Materializer/Extractor for crossing to and from the caller's Go
// value type, a primary-key index, and one secondary index per field that
// declared one.
type Table struct {
	desc *entity.Descriptor
	mat  *entity.Materializer
	ext  *entity.Extractor

	store  *rowtable.Table
	pk     index.PrimaryKeyIndex
	fields []*fieldIndex // parallel to desc.Fields; nil entry = not indexed

	cache    Cache
	cacheTTL int64

	enableParallelSorting bool
	parallelSortThreshold int
}

// NewTable constructs a Table for desc. desc.Finalize must already have
// been called.
func NewTable(desc *entity.Descriptor, opts TableOptions) (*Table, error) {
	if desc.PrimaryKeyField < 0 {
		return nil, entity.ErrNoPrimaryKey
	}

	specs := make([]typecode.Code, len(desc.Fields))
	for i, fd := range desc.Fields {
		specs[i] = fd.TypeCode
	}
	store := rowtable.New(specs, opts.PageSize, opts.MaxPages, opts.InitialPages)

	pk, err := index.NewIDIndexFor(desc.Fields[desc.PrimaryKeyField].TypeCode)
	if err != nil {
		return nil, err
	}

	fields, err := buildFieldIndexes(desc)
	if err != nil {
		return nil, err
	}

	return &Table{
		desc:                  desc,
		mat:                   entity.NewMaterializer(desc, opts.Construct, opts.Converters),
		ext:                   entity.NewExtractor(desc, opts.Converters),
		store:                 store,
		pk:                    pk,
		fields:                fields,
		cache:                 opts.Cache,
		cacheTTL:              opts.CacheTTL,
		enableParallelSorting: opts.EnableParallelSorting,
		parallelSortThreshold: opts.ParallelSortThreshold,
	}, nil
}

// Descriptor returns the entity descriptor this table stores.
func (t *Table) Descriptor() *entity.Descriptor { return t.desc }

// invalidateCache drops every COUNT/EXISTS entry memoized for this table,
// since any write can change either result. Sharper per-query invalidation
// would need tracking which cache keys touched which rows; given this
// engine's write volume is expected to be low relative to reads, a blanket
// per-table prefix invalidation is the simpler and still-correct choice.
func (t *Table) invalidateCache() {
	if t.cache == nil {
		return
	}
	_ = t.cache.DeletePrefix(context.Background(), t.desc.Name+":")
}

func isZeroKey(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case int8:
		return x == 0
	case int16:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case string:
		return x == ""
	case uuid.UUID:
		return x == uuid.Nil
	default:
		return false
	}
}

func (t *Table) generateID() any {
	switch t.desc.IDStrategy {
	case entity.IDStrategyLong:
		return t.desc.NextLongID()
	case entity.IDStrategyUUID:
		return t.desc.NextUUID()
	default:
		panic("kernel: table " + t.desc.Name + " has a generated primary key but no ID strategy")
	}
}

// Save inserts value as a new row, or rewrites the row already keyed by
// value's primary key. Returns the (possibly freshly generated) primary
// key.
func (t *Table) Save(value any) (any, error) {
	values := t.ext.Extract(value)
	pkIdx := t.desc.PrimaryKeyField
	pkField := t.desc.Fields[pkIdx]
	key := values[pkIdx]

	if pkField.IsGenerated && isZeroKey(key) {
		key = t.generateID()
		values[pkIdx] = key
		if pkField.Writer != nil {
			pkField.Writer(value, key)
		}
	} else if t.desc.IDStrategy == entity.IDStrategyLong {
		if k, ok := key.(int64); ok {
			t.desc.ObserveLongID(k)
		}
	}

	existing, isUpdate := t.pk.Lookup(key)
	var h rowtable.Handle
	var oldValues []any
	if isUpdate {
		h = existing
		oldValues = t.readRawValues(h)
	} else {
		allocated, err := t.store.AllocateSlot()
		if err != nil {
			return nil, err
		}
		if err := t.pk.Insert(key, allocated); err != nil {
			return nil, err
		}
		h = allocated
	}

	if isUpdate {
		removeIndexEntries(t.fields, t.desc, oldValues, h)
	}

	if err := t.store.Publish(h, func(cols []column.Column, slot int) {
		for i, fd := range t.desc.Fields {
			if fd.IsTransient {
				continue
			}
			entity.WriteColumn(cols[i], fd.TypeCode, slot, values[i])
		}
	}); err != nil {
		if isUpdate {
			addIndexEntries(t.fields, t.desc, oldValues, h)
		}
		return nil, err
	}

	if isUpdate {
		t.pk.Update(key, h)
	}
	addIndexEntries(t.fields, t.desc, values, h)
	t.invalidateCache()
	return key, nil
}

// FindByID looks up and materializes the row whose primary key is key.
func (t *Table) FindByID(key any) (any, bool) {
	h, ok := t.pk.Lookup(key)
	if !ok {
		return nil, false
	}
	return t.materializeAt(h)
}

// DeleteByID removes the row keyed by key, if present, and reports whether
// anything was deleted.
func (t *Table) DeleteByID(key any) (bool, error) {
	h, ok := t.pk.Lookup(key)
	if !ok {
		return false, nil
	}
	old := t.readRawValues(h)
	removeIndexEntries(t.fields, t.desc, old, h)
	if err := t.store.Delete(h); err != nil {
		return false, err
	}
	_ = t.pk.Remove(key)
	t.invalidateCache()
	return true, nil
}

// readRawValues snapshot-reads every non-transient column at h into a
// slice parallel to desc.Fields, skipping fields that hold no value.
func (t *Table) readRawValues(h rowtable.Handle) []any {
	values := make([]any, len(t.desc.Fields))
	t.store.Read(h, func(cols []column.Column, slot int) {
		for i, fd := range t.desc.Fields {
			if fd.IsTransient {
				continue
			}
			if fd.Nullable && !cols[i].Presence().Contains(uint32(slot)) {
				continue
			}
			values[i] = entity.ReadColumn(cols[i], fd.TypeCode, slot)
		}
	})
	return values
}

// materializeAt snapshot-reads h and builds the caller's entity value from
// it. A transient (seqlock-exhausted) read is retried once before giving
// up and reporting the row absent.
func (t *Table) materializeAt(h rowtable.Handle) (any, bool) {
	var out any
	ok, transient := t.store.Read(h, func(cols []column.Column, slot int) {
		out = t.mat.Materialize(cols, slot)
	})
	if transient {
		ok, _ = t.store.Read(h, func(cols []column.Column, slot int) {
			out = t.mat.Materialize(cols, slot)
		})
	}
	return out, ok
}

// materializeWithRaw is materializeAt plus a parallel raw-value slice, in
// one seqlock read: the query pipeline needs the caller's entity value for
// the result set but also the raw field values to evaluate ORDER
// BY/GROUP BY/DISTINCT keys without re-running the caller's accessors.
func (t *Table) materializeWithRaw(h rowtable.Handle) (value any, raw []any, ok bool) {
	read := func(cols []column.Column, slot int) {
		value = t.mat.Materialize(cols, slot)
		raw = make([]any, len(t.desc.Fields))
		for i, fd := range t.desc.Fields {
			if fd.IsTransient {
				continue
			}
			if fd.Nullable && !cols[i].Presence().Contains(uint32(slot)) {
				continue
			}
			raw[i] = entity.ReadColumn(cols[i], fd.TypeCode, slot)
		}
	}
	var transient bool
	ok, transient = t.store.Read(h, read)
	if transient {
		ok, _ = t.store.Read(h, read)
	}
	return
}

// allHandles returns every currently live row handle — the row set for a
// query with no conditions.
func (t *Table) allHandles() index.HandleSet {
	out := index.HandleSet{}
	for _, p := range t.store.Pages() {
		presence := p.Presence()
		for slot := 0; slot < p.Capacity(); slot++ {
			if presence.Contains(uint32(slot)) {
				out[rowtable.NewHandle(p.PageIndex(), slot)] = struct{}{}
			}
		}
	}
	return out
}

// PrimaryKeyAt implements join.InnerKeyReader: it recovers this table's
// primary-key value for a row already known to match an inner-entity join
// condition.
func (t *Table) PrimaryKeyAt(h rowtable.Handle) (any, bool) {
	v := t.readRawValues(h)[t.desc.PrimaryKeyField]
	return v, v != nil
}

// outerIndexFor returns a join.OuterKeyIndex backed by fieldIndex's hash
// index, or a true nil interface if that field is not hash-indexed (the
// join then falls back to a full-column scan). Returning *hashLookup
// directly here would hand join.Resolve a non-nil interface wrapping a
// nil pointer in the unindexed case, so the nil check is done with the
// interface type, not the concrete one.
func (t *Table) outerIndexFor(fieldIndex int) join.OuterKeyIndex {
	fi := t.fields[fieldIndex]
	if fi == nil || fi.hash == nil {
		return nil
	}
	return &hashLookup{fi.hash}
}

type hashLookup struct{ inner index.AnyIndex }

func (l *hashLookup) Lookup(key any) index.HandleSet { return l.inner.Lookup(key) }

// outerScanner implements join.OuterKeyScanner by scanning the outer
// table's foreign-key column for membership in the inner table's matched
// primary keys.
type outerScanner struct {
	table      *Table
	fieldIndex int
}

func (s outerScanner) ScanForeignKeyIn(keys map[any]struct{}) index.HandleSet {
	fd := s.table.desc.Fields[s.fieldIndex]
	out := index.HandleSet{}
	for _, p := range s.table.store.Pages() {
		col := p.Column(s.fieldIndex)
		sel := scanColumn(col, fd.TypeCode, typecode.In, false, nil, setToSlice(keys))
		sel.Range(func(slot uint32) {
			out[rowtable.NewHandle(p.PageIndex(), int(slot))] = struct{}{}
		})
	}
	return out
}

func setToSlice(keys map[any]struct{}) []any {
	out := make([]any, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	return out
}
