package entity

import (
	"github.com/google/uuid"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/typecode"
)

// Converter transforms a stored column value into (or out of) the shape a
// field's Go type wants — e.g. a custom enum backed by a string column.
// Resolved by ConverterID through a caller-supplied registry, kept outside
// this package so entity never depends on any specific converter set.
type Converter interface {
	FromStorage(v any) any
	ToStorage(v any) any
}

// Materializer holds the dense, once-bound writer array a table uses to
// turn a row into a user value. Constructed once per
// Descriptor at setup; Materialize is the only hot-path call, and it never
// reflects.
type Materializer struct {
	desc       *Descriptor
	construct  func() any
	converters map[string]Converter
}

// NewMaterializer binds desc's field writers into a Materializer. construct
// allocates a fresh zero-value of the caller's entity type.
func NewMaterializer(desc *Descriptor, construct func() any, converters map[string]Converter) *Materializer {
	return &Materializer{desc: desc, construct: construct, converters: converters}
}

// Materialize builds one entity value from the live row at slot. Callers
// must already hold this row's seqlock read (table.Read's reader callback
// is the expected call site) so every field is observed from the same
// publication.
func (m *Materializer) Materialize(cols []column.Column, slot int) any {
	target := m.construct()
	for _, fd := range m.desc.Fields {
		if fd.IsTransient || fd.Writer == nil {
			continue
		}
		col := cols[fd.Index]
		if fd.Nullable && !col.Presence().Contains(uint32(slot)) {
			fd.Writer(target, nil)
			continue
		}
		value := readColumn(col, fd.TypeCode, slot)
		if fd.ConverterID != "" {
			if conv, ok := m.converters[fd.ConverterID]; ok {
				value = conv.FromStorage(value)
			}
		}
		fd.Writer(target, value)
	}
	return target
}

// Extractor is the inverse of Materializer: it recovers field values from a
// user value, used by SAVE (to populate columns) and by DELETE-by-entity
// (to recover the primary key)
type Extractor struct {
	desc       *Descriptor
	converters map[string]Converter
}

// NewExtractor binds desc's field readers into an Extractor.
func NewExtractor(desc *Descriptor, converters map[string]Converter) *Extractor {
	return &Extractor{desc: desc, converters: converters}
}

// Extract reads every non-transient field off source into a field-indexed
// slice of storage-ready values, in column-index order.
func (e *Extractor) Extract(source any) []any {
	out := make([]any, len(e.desc.Fields))
	for _, fd := range e.desc.Fields {
		if fd.IsTransient || fd.Reader == nil {
			continue
		}
		value := fd.Reader(source)
		if fd.ConverterID != "" {
			if conv, ok := e.converters[fd.ConverterID]; ok {
				value = conv.ToStorage(value)
			}
		}
		out[fd.Index] = value
	}
	return out
}

// PrimaryKey reads just the ID field off source, using the descriptor's
// primary-key field index.
func (e *Extractor) PrimaryKey(source any) any {
	fd := e.desc.Fields[e.desc.PrimaryKeyField]
	return fd.Reader(source)
}

// ReadColumn type-switches on code to pull a typed value out of col at
// slot and box it as any. Like rowtable/page.go and kernel/scan.go, it
// knows the concrete column types — required because materialization
// crosses from the closed typecode world into the caller's open value
// space. Exported for the kernel package's raw-value reads.
func ReadColumn(col column.Column, code typecode.Code, slot int) any {
	return readColumn(col, code, slot)
}

func readColumn(col column.Column, code typecode.Code, slot int) any {
	switch code {
	case typecode.Int8:
		return col.(*column.NumericColumn[int8]).Get(slot)
	case typecode.Int16:
		return col.(*column.NumericColumn[int16]).Get(slot)
	case typecode.Int32:
		return col.(*column.NumericColumn[int32]).Get(slot)
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return col.(*column.NumericColumn[int64]).Get(slot)
	case typecode.Float32:
		return col.(*column.NumericColumn[float32]).Get(slot)
	case typecode.Float64:
		return col.(*column.NumericColumn[float64]).Get(slot)
	case typecode.Bool:
		return col.(*column.BoolColumn).Get(slot)
	case typecode.Char:
		return col.(*column.CharColumn).Get(slot)
	case typecode.String, typecode.Decimal:
		return col.(*column.StringColumn).Get(slot)
	case typecode.UUID:
		return col.(*column.UUIDColumn).Get(slot)
	default:
		panic("entity: unreadable type code " + code.String())
	}
}

// WriteColumn is readColumn's inverse, used by the kernel package when
// applying an Extractor's output to a freshly allocated row.
func WriteColumn(col column.Column, code typecode.Code, slot int, value any) {
	writeColumn(col, code, slot, value)
}

func writeColumn(col column.Column, code typecode.Code, slot int, value any) {
	if value == nil {
		col.Clear(slot)
		return
	}
	switch code {
	case typecode.Int8:
		col.(*column.NumericColumn[int8]).Set(slot, value.(int8))
	case typecode.Int16:
		col.(*column.NumericColumn[int16]).Set(slot, value.(int16))
	case typecode.Int32:
		col.(*column.NumericColumn[int32]).Set(slot, value.(int32))
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		col.(*column.NumericColumn[int64]).Set(slot, value.(int64))
	case typecode.Float32:
		col.(*column.NumericColumn[float32]).Set(slot, value.(float32))
	case typecode.Float64:
		col.(*column.NumericColumn[float64]).Set(slot, value.(float64))
	case typecode.Bool:
		col.(*column.BoolColumn).Set(slot, value.(bool))
	case typecode.Char:
		col.(*column.CharColumn).Set(slot, value.(rune))
	case typecode.String, typecode.Decimal:
		col.(*column.StringColumn).Set(slot, value.(string))
	case typecode.UUID:
		col.(*column.UUIDColumn).Set(slot, value.(uuid.UUID))
	default:
		panic("entity: unwritable type code " + code.String())
	}
}
