package index

import "sync"

// stringSet is a minimal concurrent set used by PrefixIndex to track which
// keys have ever been inserted, so StartsWith/EndsWith has something to
// range over without enumerating the HashIndex itself.
type stringSet struct {
	m sync.Map // string -> struct{}
}

func newStringSet() stringSet { return stringSet{} }

func (s *stringSet) add(key string) { s.m.Store(key, struct{}{}) }

func (s *stringSet) snapshot() []string {
	var out []string
	s.m.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}
