package kernel

import (
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/rowtable"
)

// fieldIndex bundles whichever secondary index a field declared. Exactly
// one of hash/rang/prefix/suffix is non-nil, matching the field's
// entity.IndexKind.
type fieldIndex struct {
	kind   entity.IndexKind
	hash   index.AnyIndex
	rang   index.RangeAnyIndex
	prefix *index.PrefixIndex
	suffix *index.SuffixIndex
}

// buildFieldIndexes allocates one secondary index per indexed field of
// desc, in field order, with nil entries for fields that declared none.
func buildFieldIndexes(desc *entity.Descriptor) ([]*fieldIndex, error) {
	out := make([]*fieldIndex, len(desc.Fields))
	for i, fd := range desc.Fields {
		switch fd.IndexKind {
		case entity.IndexNone:
			continue
		case entity.IndexHash:
			h, err := index.NewHashIndexFor(fd.TypeCode)
			if err != nil {
				return nil, err
			}
			out[i] = &fieldIndex{kind: entity.IndexHash, hash: h}
		case entity.IndexRange:
			r, err := index.NewRangeIndexFor(fd.TypeCode)
			if err != nil {
				return nil, err
			}
			out[i] = &fieldIndex{kind: entity.IndexRange, rang: r}
		case entity.IndexPrefix:
			out[i] = &fieldIndex{kind: entity.IndexPrefix, prefix: index.NewPrefixIndex(fd.CaseFold)}
		case entity.IndexSuffix:
			out[i] = &fieldIndex{kind: entity.IndexSuffix, suffix: index.NewSuffixIndex(fd.CaseFold)}
		}
	}
	return out, nil
}

// addIndexEntries registers h under every indexed field's current value in
// values, skipping fields that hold no value (nil, for an optional field
// that wasn't set).
func addIndexEntries(fields []*fieldIndex, desc *entity.Descriptor, values []any, h rowtable.Handle) {
	for i, fi := range fields {
		if fi == nil || values[i] == nil {
			continue
		}
		addOneIndexEntry(fi, desc.Fields[i], values[i], h)
	}
}

// removeIndexEntries undoes addIndexEntries for the row's previous values,
// used before rewriting an updated row and before deleting one.
func removeIndexEntries(fields []*fieldIndex, desc *entity.Descriptor, values []any, h rowtable.Handle) {
	for i, fi := range fields {
		if fi == nil || values[i] == nil {
			continue
		}
		removeOneIndexEntry(fi, values[i], h)
	}
}

func addOneIndexEntry(fi *fieldIndex, fd *entity.FieldDescriptor, value any, h rowtable.Handle) {
	switch fi.kind {
	case entity.IndexHash:
		fi.hash.Add(value, h)
	case entity.IndexRange:
		fi.rang.Add(value, h)
	case entity.IndexPrefix:
		fi.prefix.Add(value.(string), h)
	case entity.IndexSuffix:
		fi.suffix.Add(value.(string), h)
	}
}

func removeOneIndexEntry(fi *fieldIndex, value any, h rowtable.Handle) {
	switch fi.kind {
	case entity.IndexHash:
		fi.hash.Remove(value, h)
	case entity.IndexRange:
		fi.rang.Remove(value, h)
	case entity.IndexPrefix:
		fi.prefix.Remove(value.(string), h)
	case entity.IndexSuffix:
		fi.suffix.Remove(value.(string), h)
	}
}
