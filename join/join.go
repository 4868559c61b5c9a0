// Package join resolves a single-level relationship hop between two
// tables: an outer table's foreign-key column pointing at an inner table's
// primary key. It knows nothing about column or entity, and uses rowtable
// only for its Handle type — it consumes small interfaces the kernel package's table wrapper
// satisfies, so kernel can depend on join without join depending back on
// kernel.
package join

import (
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/rowtable"
)

// InnerKeyReader recovers the inner table's primary-key value for a
// matched inner-table row handle.
type InnerKeyReader interface {
	PrimaryKeyAt(h rowtable.Handle) (any, bool)
}

// OuterKeyIndex looks up outer-table row handles whose foreign-key field
// equals a given inner primary-key value. Used when that field carries a
// hash index; nil when it does not.
type OuterKeyIndex interface {
	Lookup(key any) index.HandleSet
}

// OuterKeyScanner scans the outer table's foreign-key column for
// membership in a set of inner primary-key values. The fallback path when
// OuterKeyIndex is unavailable.
type OuterKeyScanner interface {
	ScanForeignKeyIn(keys map[any]struct{}) index.HandleSet
}

// Resolve translates innerHandles — rows of the inner (target) entity that
// already satisfy a join condition — into the matching rows of the outer
// (owning) entity, by reading each inner row's primary key and following
// it back through the outer table's foreign-key column. outerIndex may be
// nil, in which case scanner performs a full-column scan instead.
func Resolve(innerHandles index.HandleSet, inner InnerKeyReader, outerIndex OuterKeyIndex, scanner OuterKeyScanner) index.HandleSet {
	keys := make(map[any]struct{}, len(innerHandles))
	for h := range innerHandles {
		if pk, ok := inner.PrimaryKeyAt(h); ok {
			keys[pk] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return index.HandleSet{}
	}
	if outerIndex != nil {
		out := make(index.HandleSet, len(keys))
		for k := range keys {
			for h := range outerIndex.Lookup(k) {
				out[h] = struct{}{}
			}
		}
		return out
	}
	return scanner.ScanForeignKeyIn(keys)
}
