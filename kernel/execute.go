package kernel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/compile"
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/query"
	"github.com/syssam/rowbase/rowtable"
	"github.com/syssam/rowbase/typecode"
)

// materializeChunkSize bounds how many handles one goroutine materializes
// before the scan checks for cancellation, so ctx.Done() is honored
// within a bounded number of rows rather than only between whole pages.
const materializeChunkSize = 256

// materializeHandles turns a row-handle set into materialized candidates,
// split across errgroup.WithContext workers so a canceled/timed-out
// caller context stops in-flight materialization instead of running to
// completion and discarding the result.
func (t *Table) materializeHandles(ctx context.Context, handles index.HandleSet) ([]candidate, error) {
	all := make([]rowtable.Handle, 0, len(handles))
	for h := range handles {
		all = append(all, h)
	}

	results := make([]candidate, len(all))
	present := make([]bool, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(all); start += materializeChunkSize {
		start := start
		end := start + materializeChunkSize
		if end > len(all) {
			end = len(all)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				value, raw, ok := t.materializeWithRaw(all[i])
				if !ok {
					continue
				}
				results[i] = candidate{value: value, raw: raw}
				present[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(all))
	for i, ok := range present {
		if ok {
			out = append(out, results[i])
		}
	}
	return out, nil
}

// dedupe removes candidates whose dedupeField (the whole row for plain
// DISTINCT, or one projected property for DistinctByProperty) repeats a
// value already seen, preserving first-seen order.
func dedupe(candidates []candidate, field int) []candidate {
	seen := make(map[any]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		var key any
		if field < 0 {
			key = fmt.Sprintf("%v", c.raw)
		} else {
			key = c.raw[field]
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// groupKey builds the composite grouping key for a GROUP BY clause as a
// stable string, since Go map keys can't be arbitrary slices.
func groupKey(raw []any, groupBy []int) string {
	var b strings.Builder
	for i, fieldIndex := range groupBy {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		fmt.Fprintf(&b, "%v", raw[fieldIndex])
	}
	return b.String()
}

// groupRepresentative recovers one group's key-field values for the
// result map, since groupKey's string encoding isn't reversible.
func groupRepresentative(raw []any, groupBy []int) []any {
	out := make([]any, len(groupBy))
	for i, fieldIndex := range groupBy {
		out[i] = raw[fieldIndex]
	}
	return out
}

// GroupCount is one row of a GROUP BY ... HAVING COUNT result: the
// grouping key's field values, in GroupBy order, plus the group's row
// count.
type GroupCount struct {
	Keys  []any
	Count int64
}

// applyHaving filters grouped counts against having, interpreted against
// the group's row count — the query pipeline's supported subset of
// HAVING. Only JPQL input produces a HAVING clause; derived method names
// have no GROUP BY or HAVING grammar.
func applyHaving(groups []GroupCount, having *compile.CompiledCondition, args []any) ([]GroupCount, error) {
	if having == nil {
		return groups, nil
	}
	value, err := resolveSource(having.Value, args, typecode.Int64)
	if err != nil {
		return nil, err
	}
	threshold, ok := value.(int64)
	if !ok {
		return nil, fmt.Errorf("kernel: HAVING clause must compare against an integer count")
	}
	out := groups[:0]
	for _, g := range groups {
		if havingMatches(having.Operator, g.Count, threshold) {
			out = append(out, g)
		}
	}
	return out, nil
}

func havingMatches(op typecode.Operator, count, threshold int64) bool {
	switch op {
	case typecode.EQ:
		return count == threshold
	case typecode.NE:
		return count != threshold
	case typecode.LT:
		return count < threshold
	case typecode.LE:
		return count <= threshold
	case typecode.GT:
		return count > threshold
	case typecode.GE:
		return count >= threshold
	default:
		return false
	}
}

// cacheKey derives the memoization key for a COUNT/EXISTS call: the
// entity name, the compiled method's identity (its condition shape is
// fixed per repository method, so the method's Arity plus the literal
// args fully determine the result), and every bound argument, msgpack-
// encoded for a compact, stable byte key.
func cacheKey(entityName, methodID string, args []any) (string, error) {
	encoded, err := msgpack.Marshal(args)
	if err != nil {
		return "", err
	}
	return entityName + ":" + methodID + ":" + string(encoded), nil
}

// ExecuteCount evaluates cq's conditions and returns the matching row
// count, consulting cache first when one is configured.
func (t *Table) ExecuteCount(ctx context.Context, methodID string, cq *compile.CompiledQuery, args []any, registry *Registry) (int64, error) {
	if t.cache != nil {
		key, err := cacheKey(t.desc.Name, methodID, args)
		if err == nil {
			if cached, err := t.cache.Get(ctx, key); err == nil && cached != nil {
				var n int64
				if msgpack.Unmarshal(cached, &n) == nil {
					return n, nil
				}
			}
		}
	}

	handles, err := t.evaluateConditions(cq.Conditions, args, registry)
	if err != nil {
		return 0, err
	}
	n := int64(len(handles))

	if t.cache != nil {
		key, err := cacheKey(t.desc.Name, methodID, args)
		if err == nil {
			if encoded, err := msgpack.Marshal(n); err == nil {
				_ = t.cache.Set(ctx, key, encoded, time.Duration(t.cacheTTL)*time.Second)
			}
		}
	}
	return n, nil
}

// ExecuteExists evaluates cq's conditions and reports whether any row
// matches, consulting cache first when one is configured.
func (t *Table) ExecuteExists(ctx context.Context, methodID string, cq *compile.CompiledQuery, args []any, registry *Registry) (bool, error) {
	if t.cache != nil {
		key, err := cacheKey(t.desc.Name, methodID, args)
		if err == nil {
			if cached, err := t.cache.Get(ctx, key); err == nil && cached != nil {
				var b bool
				if msgpack.Unmarshal(cached, &b) == nil {
					return b, nil
				}
			}
		}
	}

	handles, err := t.evaluateConditions(cq.Conditions, args, registry)
	if err != nil {
		return false, err
	}
	exists := len(handles) > 0

	if t.cache != nil {
		key, err := cacheKey(t.desc.Name, methodID, args)
		if err == nil {
			if encoded, err := msgpack.Marshal(exists); err == nil {
				_ = t.cache.Set(ctx, key, encoded, time.Duration(t.cacheTTL)*time.Second)
			}
		}
	}
	return exists, nil
}

// ExecuteFind evaluates cq's conditions and returns the materialized,
// ordered, deduped, limited result set.
func (t *Table) ExecuteFind(ctx context.Context, cq *compile.CompiledQuery, args []any, registry *Registry) ([]any, error) {
	handles, err := t.evaluateConditions(cq.Conditions, args, registry)
	if err != nil {
		return nil, err
	}
	candidates, err := t.materializeHandles(ctx, handles)
	if err != nil {
		return nil, err
	}

	if err := t.sortCandidates(candidates, cq.OrderBy); err != nil {
		return nil, err
	}

	if cq.Distinct {
		field := cq.DistinctField
		candidates = dedupe(candidates, field)
	}

	if cq.Limit > 0 && len(candidates) > cq.Limit {
		candidates = candidates[:cq.Limit]
	}

	out := make([]any, len(candidates))
	for i, c := range candidates {
		out[i] = c.value
	}
	return out, nil
}

// ExecuteFindOne is ExecuteFind narrowed to a single result, as used by a
// derived findBy... method whose return type is the entity itself rather
// than a slice.
func (t *Table) ExecuteFindOne(ctx context.Context, cq *compile.CompiledQuery, args []any, registry *Registry) (any, bool, error) {
	limited := *cq
	limited.Limit = 1
	results, err := t.ExecuteFind(ctx, &limited, args, registry)
	if err != nil {
		return nil, false, err
	}
	if len(results) == 0 {
		return nil, false, nil
	}
	return results[0], true, nil
}

// ExecuteDelete evaluates cq's conditions and deletes every matching row,
// returning the number deleted.
func (t *Table) ExecuteDelete(cq *compile.CompiledQuery, args []any, registry *Registry) (int64, error) {
	handles, err := t.evaluateConditions(cq.Conditions, args, registry)
	if err != nil {
		return 0, err
	}
	var n int64
	for h := range handles {
		old := t.readRawValues(h)
		removeIndexEntries(t.fields, t.desc, old, h)
		if err := t.store.Delete(h); err != nil {
			return n, err
		}
		if pk := old[t.desc.PrimaryKeyField]; pk != nil {
			_ = t.pk.Remove(pk)
		}
		n++
	}
	t.invalidateCache()
	return n, nil
}

// ExecuteUpdate evaluates cq's conditions and applies cq.UpdateAssignments
// to every matching row, returning the number updated.
func (t *Table) ExecuteUpdate(cq *compile.CompiledQuery, args []any, registry *Registry) (int64, error) {
	handles, err := t.evaluateConditions(cq.Conditions, args, registry)
	if err != nil {
		return 0, err
	}

	resolved := make(map[int]any, len(cq.UpdateAssignments))
	for fieldIndex, vs := range cq.UpdateAssignments {
		v, err := resolveSource(vs, args, t.desc.Fields[fieldIndex].TypeCode)
		if err != nil {
			return 0, err
		}
		resolved[fieldIndex] = v
	}

	var n int64
	for h := range handles {
		old := t.readRawValues(h)
		newValues := make([]any, len(old))
		copy(newValues, old)
		for fieldIndex, v := range resolved {
			newValues[fieldIndex] = v
		}

		removeIndexEntries(t.fields, t.desc, old, h)
		if err := t.store.Publish(h, func(cols []column.Column, slot int) {
			for fieldIndex, v := range resolved {
				entity.WriteColumn(cols[fieldIndex], t.desc.Fields[fieldIndex].TypeCode, slot, v)
			}
		}); err != nil {
			addIndexEntries(t.fields, t.desc, old, h)
			return n, err
		}
		addIndexEntries(t.fields, t.desc, newValues, h)
		n++
	}
	t.invalidateCache()
	return n, nil
}

// ExecuteGroupCount evaluates cq's conditions, groups the matches by
// cq.GroupBy, counts each group, and applies cq.Having — the simplified,
// COUNT-only aggregate path Execute sends every query with a GROUP BY to
// (only JPQL input produces one).
func (t *Table) ExecuteGroupCount(cq *compile.CompiledQuery, args []any, registry *Registry) ([]GroupCount, error) {
	handles, err := t.evaluateConditions(cq.Conditions, args, registry)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	reps := make(map[string][]any)
	for h := range handles {
		raw := t.readRawValues(h)
		key := groupKey(raw, cq.GroupBy)
		counts[key]++
		if _, ok := reps[key]; !ok {
			reps[key] = groupRepresentative(raw, cq.GroupBy)
		}
	}

	groups := make([]GroupCount, 0, len(counts))
	for key, n := range counts {
		groups = append(groups, GroupCount{Keys: reps[key], Count: n})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Count < groups[j].Count })

	return applyHaving(groups, cq.Having, args)
}

// Execute dispatches cq to the matching execution path by its compiled
// prefix/shape. methodID identifies the repository method for cache
// keying; ctx governs materialization cancellation.
func (t *Table) Execute(ctx context.Context, methodID string, cq *compile.CompiledQuery, args []any, registry *Registry) (any, error) {
	switch {
	case cq.Modifying && len(cq.UpdateAssignments) > 0:
		return t.ExecuteUpdate(cq, args, registry)
	case cq.Prefix == query.DeleteBy:
		return t.ExecuteDelete(cq, args, registry)
	case len(cq.GroupBy) > 0:
		return t.ExecuteGroupCount(cq, args, registry)
	case cq.Prefix == query.CountBy:
		return t.ExecuteCount(ctx, methodID, cq, args, registry)
	case cq.Prefix == query.ExistsBy:
		return t.ExecuteExists(ctx, methodID, cq, args, registry)
	default:
		return t.ExecuteFind(ctx, cq, args, registry)
	}
}
