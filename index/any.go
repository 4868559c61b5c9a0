package index

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/syssam/rowbase/rowtable"
	"github.com/syssam/rowbase/typecode"
)

// AnyIndex type-erases a concrete HashIndex[K]/RangeIndex[K]/PrefixIndex/
// SuffixIndex behind key type any, so the kernel package can hold one index
// per indexed field without itself being generic over each field's key
// type. The erasure happens once, at table-registration time, via the
// factories below; the hot Add/Remove/Lookup path still only ever performs
// the single type assertion back to the concrete K ('s
// "one indirect call" budget applies here too).
type AnyIndex interface {
	Add(key any, h rowtable.Handle)
	Remove(key any, h rowtable.Handle)
	Lookup(key any) HandleSet
}

// RangeAnyIndex extends AnyIndex with the ordered-scan operations a
// RangeIndex supports.
type RangeAnyIndex interface {
	AnyIndex
	Between(lo, hi any, inc Inclusivity) HandleSet
	Gt(k any) HandleSet
	Ge(k any) HandleSet
	Lt(k any) HandleSet
	Le(k any) HandleSet
}

// PrefixAnyIndex is satisfied by PrefixIndex and SuffixIndex (both already
// take/return string keys, so no adapter is needed — they implement it
// directly).
type PrefixAnyIndex interface {
	Add(key string, h rowtable.Handle)
	Remove(key string, h rowtable.Handle)
}

type hashAdapter[K comparable] struct{ inner *HashIndex[K] }

func (a hashAdapter[K]) Add(key any, h rowtable.Handle)    { a.inner.Add(key.(K), h) }
func (a hashAdapter[K]) Remove(key any, h rowtable.Handle) { a.inner.Remove(key.(K), h) }
func (a hashAdapter[K]) Lookup(key any) HandleSet          { return a.inner.Lookup(key.(K)) }

type rangeAdapter[K any] struct{ inner *RangeIndex[K] }

func (a rangeAdapter[K]) Add(key any, h rowtable.Handle)    { a.inner.Add(key.(K), h) }
func (a rangeAdapter[K]) Remove(key any, h rowtable.Handle) { a.inner.Remove(key.(K), h) }
func (a rangeAdapter[K]) Lookup(key any) HandleSet          { return a.inner.Lookup(key.(K)) }
func (a rangeAdapter[K]) Between(lo, hi any, inc Inclusivity) HandleSet {
	return a.inner.Between(lo.(K), hi.(K), inc)
}
func (a rangeAdapter[K]) Gt(k any) HandleSet { return a.inner.Gt(k.(K)) }
func (a rangeAdapter[K]) Ge(k any) HandleSet { return a.inner.Ge(k.(K)) }
func (a rangeAdapter[K]) Lt(k any) HandleSet { return a.inner.Lt(k.(K)) }
func (a rangeAdapter[K]) Le(k any) HandleSet { return a.inner.Le(k.(K)) }

// ErrUnindexableType is returned when a factory is asked to build an index
// over a type code that structurally cannot back that index kind (e.g. a
// RangeIndex over a Bool field).
type ErrUnindexableType struct {
	Code typecode.Code
	Kind string
}

func (e *ErrUnindexableType) Error() string {
	return fmt.Sprintf("index: type %s cannot back a %s index", e.Code, e.Kind)
}

// NewHashIndexFor builds a HashIndex keyed on code's natural Go scalar type
// (the same type entity.ReadColumn hands back for that code), wrapped as
// an AnyIndex.
func NewHashIndexFor(code typecode.Code) (AnyIndex, error) {
	switch code {
	case typecode.Int8:
		return hashAdapter[int8]{NewHashIndex[int8]()}, nil
	case typecode.Int16:
		return hashAdapter[int16]{NewHashIndex[int16]()}, nil
	case typecode.Int32:
		return hashAdapter[int32]{NewHashIndex[int32]()}, nil
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return hashAdapter[int64]{NewHashIndex[int64]()}, nil
	case typecode.Bool:
		return hashAdapter[bool]{NewHashIndex[bool]()}, nil
	case typecode.Char:
		return hashAdapter[rune]{NewHashIndex[rune]()}, nil
	case typecode.String, typecode.Decimal:
		return hashAdapter[string]{NewHashIndex[string]()}, nil
	case typecode.UUID:
		return hashAdapter[uuid.UUID]{NewHashIndex[uuid.UUID]()}, nil
	default:
		return nil, &ErrUnindexableType{Code: code, Kind: "hash"}
	}
}

// NewRangeIndexFor builds a RangeIndex keyed on code's natural Go scalar
// type, wrapped as a RangeAnyIndex. Bool, Char and UUID have no useful
// total order for range scans and are rejected.
func NewRangeIndexFor(code typecode.Code) (RangeAnyIndex, error) {
	switch code {
	case typecode.Int8:
		return rangeAdapter[int8]{NewRangeIndex(lessOrdered[int8])}, nil
	case typecode.Int16:
		return rangeAdapter[int16]{NewRangeIndex(lessOrdered[int16])}, nil
	case typecode.Int32:
		return rangeAdapter[int32]{NewRangeIndex(lessOrdered[int32])}, nil
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return rangeAdapter[int64]{NewRangeIndex(lessOrdered[int64])}, nil
	case typecode.Float32:
		return rangeAdapter[float32]{NewRangeIndex(lessOrdered[float32])}, nil
	case typecode.Float64:
		return rangeAdapter[float64]{NewRangeIndex(lessOrdered[float64])}, nil
	case typecode.String, typecode.Decimal:
		return rangeAdapter[string]{NewRangeIndex(lessOrdered[string])}, nil
	default:
		return nil, &ErrUnindexableType{Code: code, Kind: "range"}
	}
}

type ordered interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64 | ~string
}

func lessOrdered[T ordered](a, b T) bool { return a < b }

// PrimaryKeyIndex type-erases an IDIndex[K] behind key type any, the same
// way AnyIndex erases HashIndex/RangeIndex, so the kernel package can hold
// one primary-key index per table without being generic over that table's
// key type.
type PrimaryKeyIndex interface {
	Insert(key any, h rowtable.Handle) error
	Update(key any, h rowtable.Handle)
	Remove(key any) error
	Lookup(key any) (rowtable.Handle, bool)
}

type idAdapter[K comparable] struct{ inner *IDIndex[K] }

func (a idAdapter[K]) Insert(key any, h rowtable.Handle) error { return a.inner.Insert(key.(K), h) }
func (a idAdapter[K]) Update(key any, h rowtable.Handle)       { a.inner.Update(key.(K), h) }
func (a idAdapter[K]) Remove(key any) error                    { return a.inner.Remove(key.(K)) }
func (a idAdapter[K]) Lookup(key any) (rowtable.Handle, bool)  { return a.inner.Lookup(key.(K)) }

// NewIDIndexFor builds a PrimaryKeyIndex keyed on code's natural Go scalar
// type, wrapped as a PrimaryKeyIndex.
func NewIDIndexFor(code typecode.Code) (PrimaryKeyIndex, error) {
	switch code {
	case typecode.Int8:
		return idAdapter[int8]{NewIDIndex[int8]()}, nil
	case typecode.Int16:
		return idAdapter[int16]{NewIDIndex[int16]()}, nil
	case typecode.Int32:
		return idAdapter[int32]{NewIDIndex[int32]()}, nil
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return idAdapter[int64]{NewIDIndex[int64]()}, nil
	case typecode.String, typecode.Decimal:
		return idAdapter[string]{NewIDIndex[string]()}, nil
	case typecode.UUID:
		return idAdapter[uuid.UUID]{NewIDIndex[uuid.UUID]()}, nil
	default:
		return nil, &ErrUnindexableType{Code: code, Kind: "id"}
	}
}
