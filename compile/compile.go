// Package compile turns a query.LogicalQuery — the syntactic output of the
// method-name tokenizer or the JPQL parser — into a CompiledQuery: every
// property path resolved to a column/field index, every condition given an
// index-or-scan strategy and a single operator+typecode dispatch code, and
// every argument slot assigned a parameterIndex or a boundValue.
// CompiledQuery is immutable once built; kernel.executeN never resolves a
// name or inspects a type at call time.
package compile

import (
	"fmt"
	"strings"

	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/query"
	"github.com/syssam/rowbase/typecode"
)

// ErrFieldNotFound is returned when a condition's property path does not
// resolve, unambiguously, to a field on the target entity.
type ErrFieldNotFound struct {
	Entity string
	Path   string
}

func (e *ErrFieldNotFound) Error() string {
	return fmt.Sprintf("compile: %s has no field %q", e.Entity, e.Path)
}

// ErrUnknownParam is returned when a JPQL condition references a named
// parameter (":foo") that does not appear in the repository method's
// declared parameter names.
type ErrUnknownParam struct {
	Name string
}

func (e *ErrUnknownParam) Error() string {
	return fmt.Sprintf("compile: unknown named parameter %q", e.Name)
}

// ErrDeepJoin is returned when a property path traverses more than one
// relationship hop; only single-level joins are supported.
type ErrDeepJoin struct {
	Path string
}

func (e *ErrDeepJoin) Error() string {
	return fmt.Sprintf("compile: join path %q is deeper than one level", e.Path)
}

// ErrLiteralTypeMismatch is returned when a JPQL literal or a derived
// method's bound value does not match its field's declared storage type
// ('s TypeMismatch, raised at setup/compile time).
type ErrLiteralTypeMismatch struct {
	Code typecode.Code
	Got  any
}

func (e *ErrLiteralTypeMismatch) Error() string {
	return fmt.Sprintf("compile: literal %v (%T) does not match type %s", e.Got, e.Got, e.Code)
}

// Strategy selects how a compiled condition is evaluated at runtime.
type Strategy uint8

const (
	ScanColumn Strategy = iota
	UseIndex
)

// ValueSource is where a condition's bound value comes from at call time:
// either a literal fixed at compile time, or an index into the caller's
// argument list.
type ValueSource struct {
	IsParam    bool
	ParamIndex int // valid iff IsParam
	Literal    any // valid iff !IsParam
}

// CompiledCondition is one LogicalQuery condition after name resolution and
// strategy selection.
type CompiledCondition struct {
	FieldIndex int
	TypeCode   typecode.Code
	Operator   typecode.Operator
	IgnoreCase bool
	Combinator query.Combinator
	GroupDepth int

	Strategy  Strategy
	IndexKind entity.IndexKind

	// Value/Values mirror query.Condition's split: Between/In/NotIn use
	// Values (exactly 2 for Between; 1-or-more for In/NotIn's literal-list
	// form), everything else uses at most Value. When an In/NotIn
	// condition binds to a single collection-valued argument or named
	// parameter instead of a literal list, ArgIsCollection is set and
	// Value carries that one ValueSource.
	Value           ValueSource
	Values          []ValueSource
	ArgIsCollection bool

	// Join fields are populated when PropertyPath had two segments: the
	// outer field (FieldIndex, the foreign-key column) plus the inner
	// entity/field the condition actually filters on.
	IsJoin          bool
	JoinTarget      *entity.Descriptor
	InnerFieldIndex int
}

// CompiledOrderTerm is one resolved ORDER BY key.
type CompiledOrderTerm struct {
	FieldIndex int
	Descending bool
}

// CompiledQuery is the fully resolved, name-free, reflection-free plan
// kernel.executeN dispatches against.
type CompiledQuery struct {
	Entity *entity.Descriptor
	Prefix query.Prefix

	Conditions []CompiledCondition
	OrderBy    []CompiledOrderTerm

	Distinct          bool
	DistinctField     int // -1 when DistinctByProperty was not set
	Limit             int
	GroupBy           []int
	Having            *CompiledCondition
	Modifying         bool
	UpdateAssignments map[int]ValueSource

	// Arity is the number of positional arguments the compiled method
	// expects, derived from the highest parameter index any condition or
	// assignment references.
	Arity int
}

// paramBinder tracks the next free positional argument slot for
// derived-method conditions (which bind purely in declaration order) and
// resolves named JPQL parameters against the caller-declared parameter
// names.
type paramBinder struct {
	next       int
	paramNames []string
}

func (b *paramBinder) positional() ValueSource {
	v := ValueSource{IsParam: true, ParamIndex: b.next}
	b.next++
	return v
}

func (b *paramBinder) resolve(raw any) (ValueSource, error) {
	switch v := raw.(type) {
	case query.NamedParam:
		for i, name := range b.paramNames {
			if name == string(v) {
				if i+1 > b.next {
					b.next = i + 1
				}
				return ValueSource{IsParam: true, ParamIndex: i}, nil
			}
		}
		return ValueSource{}, &ErrUnknownParam{Name: string(v)}
	case query.PositionalParam:
		idx := int(v) - 1
		if idx+1 > b.next {
			b.next = idx + 1
		}
		return ValueSource{IsParam: true, ParamIndex: idx}, nil
	default:
		return ValueSource{Literal: raw}, nil
	}
}

// Compile resolves lq against desc. paramNames names the repository
// method's declared parameters in order, used only to resolve JPQL named
// parameters (":name"); pass nil for a derived-method query, whose
// arguments always bind positionally in declaration order.
func Compile(lq *query.LogicalQuery, desc *entity.Descriptor, paramNames []string) (*CompiledQuery, error) {
	binder := &paramBinder{paramNames: paramNames}

	conditions := make([]CompiledCondition, 0, len(lq.Conditions))
	for _, c := range lq.Conditions {
		cc, err := compileCondition(c, desc, binder)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cc)
	}

	orderBy := make([]CompiledOrderTerm, 0, len(lq.OrderBy))
	for _, term := range lq.OrderBy {
		fd, ok := resolveSimplePath(desc, term.PropertyPath)
		if !ok {
			return nil, &ErrFieldNotFound{Entity: desc.Name, Path: strings.Join(term.PropertyPath, ".")}
		}
		orderBy = append(orderBy, CompiledOrderTerm{FieldIndex: fd.Index, Descending: term.Descending})
	}

	distinctField := -1
	if len(lq.DistinctByProperty) > 0 {
		fd, ok := resolveSimplePath(desc, lq.DistinctByProperty)
		if !ok {
			return nil, &ErrFieldNotFound{Entity: desc.Name, Path: strings.Join(lq.DistinctByProperty, ".")}
		}
		distinctField = fd.Index
	}

	groupBy := make([]int, 0, len(lq.GroupBy))
	for _, path := range lq.GroupBy {
		fd, ok := resolveSimplePath(desc, strings.Split(path, "."))
		if !ok {
			return nil, &ErrFieldNotFound{Entity: desc.Name, Path: path}
		}
		groupBy = append(groupBy, fd.Index)
	}

	var having *CompiledCondition
	if lq.Having != nil {
		hc, err := compileCondition(*lq.Having, desc, binder)
		if err != nil {
			return nil, err
		}
		having = &hc
	}

	assignments := make(map[int]ValueSource, len(lq.UpdateAssignments))
	for prop, raw := range lq.UpdateAssignments {
		fd, ok := desc.FieldByName(prop)
		if !ok {
			return nil, &ErrFieldNotFound{Entity: desc.Name, Path: prop}
		}
		vs, err := binder.resolve(raw)
		if err != nil {
			return nil, err
		}
		if !vs.IsParam {
			if err := checkLiteralType(fd, vs.Literal); err != nil {
				return nil, err
			}
		}
		assignments[fd.Index] = vs
	}

	return &CompiledQuery{
		Entity:            desc,
		Prefix:            lq.Prefix,
		Conditions:        conditions,
		OrderBy:           orderBy,
		Distinct:          lq.Distinct,
		DistinctField:     distinctField,
		Limit:             lq.Limit,
		GroupBy:           groupBy,
		Having:            having,
		Modifying:         lq.Modifying,
		UpdateAssignments: assignments,
		Arity:             binder.next,
	}, nil
}

// resolveSimplePath resolves a single-segment property path (no join).
func resolveSimplePath(desc *entity.Descriptor, path []string) (*entity.FieldDescriptor, bool) {
	if len(path) != 1 {
		return nil, false
	}
	return desc.FieldByName(path[0])
}

func compileCondition(c query.Condition, desc *entity.Descriptor, binder *paramBinder) (CompiledCondition, error) {
	cc := CompiledCondition{
		Combinator: c.Combinator,
		GroupDepth: c.GroupDepth,
		IgnoreCase: c.IgnoreCase,
		Operator:   c.Operator,
	}

	switch len(c.PropertyPath) {
	case 1:
		fd, ok := desc.FieldByName(c.PropertyPath[0])
		if !ok {
			return CompiledCondition{}, &ErrFieldNotFound{Entity: desc.Name, Path: c.PropertyPath[0]}
		}
		cc.FieldIndex = fd.Index
		cc.TypeCode = fd.TypeCode
		cc.IndexKind = fd.IndexKind
	case 2:
		outer, ok := desc.FieldByName(c.PropertyPath[0])
		if !ok || outer.Relationship == nil {
			return CompiledCondition{}, &ErrFieldNotFound{Entity: desc.Name, Path: strings.Join(c.PropertyPath, ".")}
		}
		target := outer.Relationship.TargetEntity
		inner, ok := target.FieldByName(c.PropertyPath[1])
		if !ok {
			return CompiledCondition{}, &ErrFieldNotFound{Entity: target.Name, Path: c.PropertyPath[1]}
		}
		cc.IsJoin = true
		cc.FieldIndex = outer.Index
		cc.JoinTarget = target
		cc.InnerFieldIndex = inner.Index
		cc.TypeCode = inner.TypeCode
		cc.IndexKind = inner.IndexKind
	default:
		return CompiledCondition{}, &ErrDeepJoin{Path: strings.Join(c.PropertyPath, ".")}
	}

	if !typecode.Supports(cc.TypeCode, cc.Operator) {
		return CompiledCondition{}, &typecode.ErrUnsupportedOperator{Code: cc.TypeCode, Op: cc.Operator}
	}
	cc.Strategy = strategyFor(cc.IndexKind, cc.Operator)

	if err := bindConditionValues(&cc, c, binder); err != nil {
		return CompiledCondition{}, err
	}
	return cc, nil
}

// strategyFor decides whether a condition can be served by its field's
// declared index, falling back to a full column scan.
func strategyFor(kind entity.IndexKind, op typecode.Operator) Strategy {
	switch kind {
	case entity.IndexHash:
		if op == typecode.EQ || op == typecode.In {
			return UseIndex
		}
	case entity.IndexRange:
		switch op {
		case typecode.EQ, typecode.LT, typecode.LE, typecode.GT, typecode.GE, typecode.Between:
			return UseIndex
		}
	case entity.IndexPrefix:
		if op == typecode.StartingWith {
			return UseIndex
		}
	case entity.IndexSuffix:
		if op == typecode.EndingWith {
			return UseIndex
		}
	}
	return ScanColumn
}

// noValueOps never bind an argument: they dispatch purely against the
// presence bitmap or the boolean truth bitmap.
var noValueOps = map[typecode.Operator]bool{
	typecode.IsNull: true, typecode.IsNotNull: true,
	typecode.IsTrue: true, typecode.IsFalse: true,
}

func bindConditionValues(cc *CompiledCondition, c query.Condition, binder *paramBinder) error {
	if noValueOps[c.Operator] {
		return nil
	}

	if len(c.Values) > 0 {
		values := make([]ValueSource, 0, len(c.Values))
		for _, raw := range c.Values {
			vs, err := binder.resolve(raw)
			if err != nil {
				return err
			}
			if !vs.IsParam {
				if err := checkValueType(cc.TypeCode, vs.Literal); err != nil {
					return err
				}
			}
			values = append(values, vs)
		}
		cc.Values = values
		return nil
	}

	if c.Operator == typecode.Between {
		if c.Value != nil {
			// JPQL would have populated Values; a bare Value here means
			// this condition came from the method tokenizer, which never
			// sets Value — defensive, not expected to trigger.
			return fmt.Errorf("compile: BETWEEN condition has a single value")
		}
		cc.Values = []ValueSource{binder.positional(), binder.positional()}
		return nil
	}

	if (c.Operator == typecode.In || c.Operator == typecode.NotIn) && c.Value == nil {
		// Derived-method IN: a single positional argument supplies the
		// whole collection.
		cc.Value = binder.positional()
		cc.ArgIsCollection = true
		return nil
	}

	if c.Value != nil {
		vs, err := binder.resolve(c.Value)
		if err != nil {
			return err
		}
		if !vs.IsParam {
			if err := checkValueType(cc.TypeCode, vs.Literal); err != nil {
				return err
			}
		}
		if (c.Operator == typecode.In || c.Operator == typecode.NotIn) && !vs.IsParam {
			// A single literal Value on IN with no Values list (a
			// LogicalQuery built directly; ParseJPQL always fills Values)
			// is treated as a one-element collection rather than a scalar.
			cc.ArgIsCollection = false
			cc.Values = []ValueSource{vs}
			return nil
		}
		if (c.Operator == typecode.In || c.Operator == typecode.NotIn) && vs.IsParam {
			cc.ArgIsCollection = true
		}
		cc.Value = vs
		return nil
	}

	cc.Value = binder.positional()
	return nil
}

// checkValueType validates a compile-time literal's Go type against code,
// when the pairing is unambiguous. Parameter-bound values are checked at
// call time instead (compile has no argument to inspect yet).
func checkValueType(code typecode.Code, v any) error {
	if v == nil {
		return nil
	}
	switch code {
	case typecode.Int8, typecode.Int16, typecode.Int32, typecode.Int64,
		typecode.Instant, typecode.Date, typecode.DateTime:
		switch v.(type) {
		case int64, float64:
			return nil
		}
		return &ErrLiteralTypeMismatch{Code: code, Got: v}
	case typecode.Float32, typecode.Float64:
		switch v.(type) {
		case int64, float64:
			return nil
		}
		return &ErrLiteralTypeMismatch{Code: code, Got: v}
	case typecode.Bool:
		if _, ok := v.(bool); !ok {
			return &ErrLiteralTypeMismatch{Code: code, Got: v}
		}
	case typecode.String, typecode.Decimal:
		if _, ok := v.(string); !ok {
			return &ErrLiteralTypeMismatch{Code: code, Got: v}
		}
	}
	return nil
}

func checkLiteralType(fd *entity.FieldDescriptor, v any) error {
	return checkValueType(fd.TypeCode, v)
}
