package index

import (
	"strings"

	"github.com/syssam/rowbase/rowtable"
	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// PrefixIndex maps a string key to the set of handles whose indexed field
// starts with it. Internally it is a HashIndex keyed by the
// raw string; StartsWith walks every stored key and checks prefix match,
// since a true trie is unneeded at the scale this engine targets and a
// HashIndex gives Add/Remove for free.
type PrefixIndex struct {
	caseInsensitive bool
	buckets         *HashIndex[string]
	keysMu          stringSet
}

// NewPrefixIndex constructs a prefix index. When caseInsensitive is true,
// keys are folded with golang.org/x/text/cases before storage and lookup:
// the query only folds case when the field's index declaration marks
// case-insensitive matching.
func NewPrefixIndex(caseInsensitive bool) *PrefixIndex {
	return &PrefixIndex{
		caseInsensitive: caseInsensitive,
		buckets:         NewHashIndex[string](),
		keysMu:          newStringSet(),
	}
}

func (idx *PrefixIndex) normalize(s string) string {
	if idx.caseInsensitive {
		return fold.String(s)
	}
	return s
}

// Add inserts h under key.
func (idx *PrefixIndex) Add(key string, h rowtable.Handle) {
	key = idx.normalize(key)
	idx.buckets.Add(key, h)
	idx.keysMu.add(key)
}

// Remove deletes h from key's bucket.
func (idx *PrefixIndex) Remove(key string, h rowtable.Handle) {
	key = idx.normalize(key)
	idx.buckets.Remove(key, h)
}

// StartsWith returns the union of handle sets for every stored key that has
// prefix as a prefix.
func (idx *PrefixIndex) StartsWith(prefix string) HandleSet {
	prefix = idx.normalize(prefix)
	out := HandleSet{}
	for _, key := range idx.keysMu.snapshot() {
		if strings.HasPrefix(key, prefix) {
			for h := range idx.buckets.Lookup(key) {
				out[h] = struct{}{}
			}
		}
	}
	return out
}

// SuffixIndex is a PrefixIndex over reversed strings (// "SuffixIndex stores reversed strings"), so EndsWith reduces to a reversed
// StartsWith.
type SuffixIndex struct {
	inner *PrefixIndex
}

// NewSuffixIndex constructs a suffix index with the same case-folding rule
// as PrefixIndex.
func NewSuffixIndex(caseInsensitive bool) *SuffixIndex {
	return &SuffixIndex{inner: NewPrefixIndex(caseInsensitive)}
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// Add inserts h under key (stored reversed).
func (idx *SuffixIndex) Add(key string, h rowtable.Handle) { idx.inner.Add(reverseString(key), h) }

// Remove deletes h from key's bucket.
func (idx *SuffixIndex) Remove(key string, h rowtable.Handle) { idx.inner.Remove(reverseString(key), h) }

// EndsWith returns the union of handle sets for every stored key that has
// suffix as a suffix.
func (idx *SuffixIndex) EndsWith(suffix string) HandleSet {
	return idx.inner.StartsWith(reverseString(suffix))
}
