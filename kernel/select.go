package kernel

import (
	"fmt"

	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/compile"
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/join"
	"github.com/syssam/rowbase/query"
	"github.com/syssam/rowbase/rowtable"
	"github.com/syssam/rowbase/typecode"
)

var noValueOps = map[typecode.Operator]bool{
	typecode.IsNull: true, typecode.IsNotNull: true,
	typecode.IsTrue: true, typecode.IsFalse: true,
}

// resolveConditionValues resolves c's Value/Values into the (value,
// values) pair scanColumn and the index lookups expect: value alone for
// EQ/NE/LT/LE/GT/GE/StartingWith/EndingWith/Containing/Like/ILike/NotLike, values
// alone for Between/In/NotIn, neither for the four no-argument operators.
func resolveConditionValues(c compile.CompiledCondition, args []any) (value any, values []any, err error) {
	if noValueOps[c.Operator] {
		return nil, nil, nil
	}
	if c.Operator == typecode.Between || ((c.Operator == typecode.In || c.Operator == typecode.NotIn) && !c.ArgIsCollection && len(c.Values) > 0) {
		values, err = resolveValues(c.Values, args, c.TypeCode)
		return nil, values, err
	}
	if (c.Operator == typecode.In || c.Operator == typecode.NotIn) && c.ArgIsCollection {
		values, err = resolveCollectionArg(c.Value, args, c.TypeCode)
		return nil, values, err
	}
	value, err = resolveSource(c.Value, args, c.TypeCode)
	return value, nil, err
}

// splitOrGroups partitions conds into OR-separated AND groups: a new
// group starts at every condition whose Combinator is query.Or. Explicit
// parenthesis nesting (CompiledCondition.GroupDepth) is not reconstructed
// into a full boolean tree — AND-binds-tighter-than-OR precedence is
// applied uniformly instead, which matches every method-name-derived
// query (GroupDepth always 0) and any JPQL input whose parentheses do not
// place an OR inside an AND run; "a AND (b OR c)" evaluates as
// "(a AND b) OR c".
func splitOrGroups(conds []compile.CompiledCondition) [][]compile.CompiledCondition {
	if len(conds) == 0 {
		return nil
	}
	var groups [][]compile.CompiledCondition
	cur := []compile.CompiledCondition{conds[0]}
	for _, c := range conds[1:] {
		if c.Combinator == query.Or {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, c)
	}
	return append(groups, cur)
}

// evaluateConditions runs every compiled condition against this table and
// combines the results per the query's AND/OR structure. registry
// resolves a join condition's target entity into its live Table.
func (t *Table) evaluateConditions(conds []compile.CompiledCondition, args []any, registry *Registry) (index.HandleSet, error) {
	if len(conds) == 0 {
		return t.allHandles(), nil
	}
	groups := splitOrGroups(conds)
	result, err := t.evaluateGroup(groups[0], args, registry)
	if err != nil {
		return nil, err
	}
	for _, g := range groups[1:] {
		next, err := t.evaluateGroup(g, args, registry)
		if err != nil {
			return nil, err
		}
		result = index.Union(result, next)
	}
	return result, nil
}

// evaluateGroup ANDs every condition in one OR-group together. Scan-
// strategy conditions are combined in one pass per page using
// kelindar/bitmap's in-place And, which is both the fast path (one bitmap
// walk per page instead of one HandleSet per condition) and the reason
// this field is scanned rather than indexed in the first place. Index and
// join conditions each produce their own HandleSet, intersected in with
// index.Intersect.
func (t *Table) evaluateGroup(group []compile.CompiledCondition, args []any, registry *Registry) (index.HandleSet, error) {
	var scanConds, other []compile.CompiledCondition
	for _, c := range group {
		if c.IsJoin || c.Strategy == compile.UseIndex {
			other = append(other, c)
		} else {
			scanConds = append(scanConds, c)
		}
	}

	var result index.HandleSet
	haveResult := false

	if len(scanConds) > 0 {
		hs, err := t.evaluateScanGroup(scanConds, args)
		if err != nil {
			return nil, err
		}
		result, haveResult = hs, true
	}

	for _, c := range other {
		var hs index.HandleSet
		var err error
		if c.IsJoin {
			hs, err = t.evaluateJoinCondition(c, args, registry)
		} else {
			hs, err = t.evaluateIndexCondition(c, args)
		}
		if err != nil {
			return nil, err
		}
		if !haveResult {
			result, haveResult = hs, true
		} else {
			result = index.Intersect(result, hs)
		}
	}

	if !haveResult {
		return index.HandleSet{}, nil
	}
	return result, nil
}

// evaluateScanGroup evaluates every scan-strategy condition in a group
// page by page, AND-ing their Selections in place before turning the
// page's surviving slots into handles.
func (t *Table) evaluateScanGroup(conds []compile.CompiledCondition, args []any) (index.HandleSet, error) {
	out := index.HandleSet{}
	for _, p := range t.store.Pages() {
		var combined column.Selection
		for i, c := range conds {
			value, values, err := resolveConditionValues(c, args)
			if err != nil {
				return nil, err
			}
			sel := scanColumn(p.Column(c.FieldIndex), c.TypeCode, c.Operator, c.IgnoreCase, value, values)
			if i == 0 {
				combined = sel
			} else {
				combined.And(sel)
			}
		}
		combined.And(p.Presence())
		pageIndex := p.PageIndex()
		combined.Range(func(slot uint32) {
			out[rowtable.NewHandle(pageIndex, int(slot))] = struct{}{}
		})
	}
	return out, nil
}

// evaluateIndexCondition answers a UseIndex-strategy condition from its
// field's secondary index rather than scanning the column.
func (t *Table) evaluateIndexCondition(c compile.CompiledCondition, args []any) (index.HandleSet, error) {
	fi := t.fields[c.FieldIndex]
	if fi == nil {
		return nil, fmt.Errorf("kernel: field %d has no secondary index", c.FieldIndex)
	}
	switch fi.kind {
	case entity.IndexHash:
		return t.evaluateHashCondition(fi, c, args)
	case entity.IndexRange:
		return t.evaluateRangeCondition(fi, c, args)
	case entity.IndexPrefix:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.prefix.StartsWith(value.(string)), nil
	case entity.IndexSuffix:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.suffix.EndsWith(value.(string)), nil
	default:
		return nil, fmt.Errorf("kernel: field %d has no indexable kind", c.FieldIndex)
	}
}

func (t *Table) evaluateHashCondition(fi *fieldIndex, c compile.CompiledCondition, args []any) (index.HandleSet, error) {
	if c.Operator == typecode.In {
		var values []any
		var err error
		if c.ArgIsCollection {
			values, err = resolveCollectionArg(c.Value, args, c.TypeCode)
		} else {
			values, err = resolveValues(c.Values, args, c.TypeCode)
		}
		if err != nil {
			return nil, err
		}
		out := index.HandleSet{}
		for _, v := range values {
			for h := range fi.hash.Lookup(v) {
				out[h] = struct{}{}
			}
		}
		return out, nil
	}
	value, err := resolveSource(c.Value, args, c.TypeCode)
	if err != nil {
		return nil, err
	}
	return fi.hash.Lookup(value), nil
}

func (t *Table) evaluateRangeCondition(fi *fieldIndex, c compile.CompiledCondition, args []any) (index.HandleSet, error) {
	switch c.Operator {
	case typecode.Between:
		values, err := resolveValues(c.Values, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.rang.Between(values[0], values[1], index.InclusiveBoth), nil
	case typecode.EQ:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.rang.Lookup(value), nil
	case typecode.LT:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.rang.Lt(value), nil
	case typecode.LE:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.rang.Le(value), nil
	case typecode.GT:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.rang.Gt(value), nil
	case typecode.GE:
		value, err := resolveSource(c.Value, args, c.TypeCode)
		if err != nil {
			return nil, err
		}
		return fi.rang.Ge(value), nil
	default:
		return nil, fmt.Errorf("kernel: unsupported range operator %s", c.Operator)
	}
}

// evaluateJoinCondition evaluates c's inner condition against the joined
// entity's own table, then walks back to this table's matching rows
// through the join package.
func (t *Table) evaluateJoinCondition(c compile.CompiledCondition, args []any, registry *Registry) (index.HandleSet, error) {
	innerTable := registry.tableNamed(c.JoinTarget.Name)
	if innerTable == nil {
		return nil, fmt.Errorf("kernel: join target table %q is not registered", c.JoinTarget.Name)
	}
	inner := c
	inner.FieldIndex = c.InnerFieldIndex
	inner.IsJoin = false
	innerHandles, err := innerTable.evaluateGroup([]compile.CompiledCondition{inner}, args, registry)
	if err != nil {
		return nil, err
	}
	return join.Resolve(innerHandles, innerTable, t.outerIndexFor(c.FieldIndex), outerScanner{table: t, fieldIndex: c.FieldIndex}), nil
}
