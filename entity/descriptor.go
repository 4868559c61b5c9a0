// Package entity describes the shape of a stored record — its fields, its
// primary key, its indexed and relationship fields — and materializes rows
// into (or extracts them from) the caller's own Go value type without
// reflection on the hot path.
package entity

import (
	"fmt"

	"github.com/syssam/rowbase/idgen"
	"github.com/syssam/rowbase/typecode"
)

// IDStrategyKind selects how a table mints primary keys for entities saved
// without one already set ("ID generator & key policy").
type IDStrategyKind uint8

const (
	// IDStrategyNone means callers always supply their own primary key.
	IDStrategyNone IDStrategyKind = iota
	// IDStrategyLong uses idgen.LongStrategy (monotonic int64 counter).
	IDStrategyLong
	// IDStrategyUUID uses idgen.UUIDStrategy (random v4 UUID).
	IDStrategyUUID
)

// IndexKind names which secondary index structure backs a FieldDescriptor's
// IndexKind setting.
type IndexKind uint8

const (
	IndexNone IndexKind = iota
	IndexHash
	IndexRange
	IndexPrefix
	IndexSuffix
)

// RelationshipDescriptor describes a single-level reference from one entity
// to another through a foreign-key column: the owning
// field's column stores the target's primary key.
type RelationshipDescriptor struct {
	FieldIndex   int
	TargetEntity *Descriptor
	// ForeignKeyField is the name of this relationship's storage field,
	// which physically holds the target entity's primary-key value.
	ForeignKeyField string
}

// FieldDescriptor is one column's static metadata. Writer and
// Reader are the build-time-resolved accessors the materializer and
// extractor invoke — ordinary closures over the user's concrete struct
// type, supplied once at registration, never derived via reflection at
// call time.
type FieldDescriptor struct {
	Index          int
	Name           string
	TypeCode       typecode.Code
	Nullable       bool
	IsID           bool
	IsGenerated    bool
	IsTransient    bool
	IndexKind      IndexKind
	CaseFold       bool // case-insensitive PREFIX/SUFFIX matching
	Relationship   *RelationshipDescriptor
	ConverterID    string
	Writer         func(target any, value any)
	Reader         func(target any) any
}

// Descriptor is an entity's full static shape: fully-qualified identity of
// the user's value type, its fields in column-index order, which field is
// the primary key, and how that key is generated.
type Descriptor struct {
	Name            string
	Fields          []*FieldDescriptor
	PrimaryKeyField int // index into Fields
	IDStrategy      IDStrategyKind

	longIDs  *idgen.LongStrategy
	uuidIDs  *idgen.UUIDStrategy
}

// NewDescriptor constructs a Descriptor with no fields. Use AddField to
// populate it, then Finalize to validate and wire its ID strategy.
func NewDescriptor(name string) *Descriptor {
	return &Descriptor{Name: name, PrimaryKeyField: -1}
}

// AddField appends fd to the descriptor, assigning it the next column
// index. Returns the assigned index.
func (d *Descriptor) AddField(fd *FieldDescriptor) int {
	fd.Index = len(d.Fields)
	d.Fields = append(d.Fields, fd)
	if fd.IsID {
		d.PrimaryKeyField = fd.Index
	}
	return fd.Index
}

// FieldByName performs case-sensitive lookup of a top-level field by its
// declared name. Dotted relationship paths are resolved by the compile
// package, not here — dots are allowed only in compiled conditions.
func (d *Descriptor) FieldByName(name string) (*FieldDescriptor, bool) {
	for _, fd := range d.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return nil, false
}

// ErrNoPrimaryKey is returned by Finalize when no field was marked IsID.
var ErrNoPrimaryKey = fmt.Errorf("entity: descriptor has no primary key field")

// Finalize validates the descriptor and wires its ID strategy. Must be
// called once, after all AddField calls, before the descriptor is
// registered with a table.
func (d *Descriptor) Finalize() error {
	if d.PrimaryKeyField < 0 {
		return ErrNoPrimaryKey
	}
	switch d.IDStrategy {
	case IDStrategyLong:
		d.longIDs = idgen.NewLongStrategy(0)
	case IDStrategyUUID:
		d.uuidIDs = idgen.NewUUIDStrategy()
	}
	return nil
}

// NextLongID returns the next value from this descriptor's long ID
// strategy. Panics if IDStrategy is not IDStrategyLong — a programmer
// error, since kernel.Table only calls the strategy matching the
// descriptor's own declared kind.
func (d *Descriptor) NextLongID() int64 {
	if d.longIDs == nil {
		panic("entity: descriptor " + d.Name + " has no long ID strategy")
	}
	return d.longIDs.Next()
}

// ObserveLongID advances the long ID counter past an explicitly assigned
// value, keeping future generated IDs from colliding with it.
func (d *Descriptor) ObserveLongID(seen int64) {
	if d.longIDs != nil {
		d.longIDs.Observe(seen)
	}
}

// NextUUID returns the next value from this descriptor's UUID strategy.
func (d *Descriptor) NextUUID() any {
	if d.uuidIDs == nil {
		panic("entity: descriptor " + d.Name + " has no UUID strategy")
	}
	return d.uuidIDs.Next()
}
