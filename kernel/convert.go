package kernel

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/syssam/rowbase/compile"
	"github.com/syssam/rowbase/typecode"
)

// convertToFieldType widens/narrows a value decoded off the wire (compile's
// literals and a caller's query arguments only ever arrive as int64,
// float64, bool, string, uuid.UUID or nil) into the exact Go type its
// column's typecode.Code stores. Doing this once, here, means every
// downstream comparison — a scanColumn predicate, a HashIndex/RangeIndex
// lookup — can use a direct, unchecked type assertion instead of repeating
// per-width conversion logic at each call site.
func convertToFieldType(code typecode.Code, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch code {
	case typecode.Int8:
		n, err := toInt64(v)
		return int8(n), err
	case typecode.Int16:
		n, err := toInt64(v)
		return int16(n), err
	case typecode.Int32:
		n, err := toInt64(v)
		return int32(n), err
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return toInt64(v)
	case typecode.Float32:
		f, err := toFloat64(v)
		return float32(f), err
	case typecode.Float64:
		return toFloat64(v)
	case typecode.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("kernel: value %v (%T) is not a bool", v, v)
		}
		return b, nil
	case typecode.Char:
		return toRune(v)
	case typecode.String, typecode.Decimal:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("kernel: value %v (%T) is not a string", v, v)
		}
		return s, nil
	case typecode.UUID:
		return toUUID(v)
	default:
		return nil, fmt.Errorf("kernel: unconvertible type code %s", code)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("kernel: value %v (%T) is not numeric", v, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("kernel: value %v (%T) is not numeric", v, v)
	}
}

func toRune(v any) (rune, error) {
	switch x := v.(type) {
	case string:
		rs := []rune(x)
		if len(rs) != 1 {
			return 0, fmt.Errorf("kernel: value %q is not a single character", x)
		}
		return rs[0], nil
	case int64:
		return rune(x), nil
	default:
		return 0, fmt.Errorf("kernel: value %v (%T) is not a char", v, v)
	}
}

func toUUID(v any) (any, error) {
	if u, ok := v.(uuid.UUID); ok {
		return u, nil
	}
	if s, ok := v.(string); ok {
		return parseUUID(s)
	}
	return nil, fmt.Errorf("kernel: value %v (%T) is not a UUID", v, v)
}

// resolveSource pulls vs's value from either its compile-time literal or
// the caller's positional argument list, then converts it to code's exact
// storage type.
func resolveSource(vs compile.ValueSource, args []any, code typecode.Code) (any, error) {
	var raw any
	if vs.IsParam {
		if vs.ParamIndex < 0 || vs.ParamIndex >= len(args) {
			return nil, fmt.Errorf("kernel: argument index %d out of range (%d args given)", vs.ParamIndex, len(args))
		}
		raw = args[vs.ParamIndex]
	} else {
		raw = vs.Literal
	}
	return convertToFieldType(code, raw)
}

// resolveValues converts an ordered list of ValueSources (BETWEEN's
// exactly-2 form, or IN/NOT IN's literal-list form) into field-typed
// values, preserving order — BETWEEN's scan depends on values[0] being lo
// and values[1] being hi.
func resolveValues(sources []compile.ValueSource, args []any, code typecode.Code) ([]any, error) {
	out := make([]any, 0, len(sources))
	for _, vs := range sources {
		v, err := resolveSource(vs, args, code)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// resolveCollectionArg converts a single argument known to hold a Go
// slice/collection (CompiledCondition.ArgIsCollection) into an ordered
// list of field-typed values.
func resolveCollectionArg(vs compile.ValueSource, args []any, code typecode.Code) ([]any, error) {
	var raw any
	if vs.IsParam {
		if vs.ParamIndex < 0 || vs.ParamIndex >= len(args) {
			return nil, fmt.Errorf("kernel: argument index %d out of range (%d args given)", vs.ParamIndex, len(args))
		}
		raw = args[vs.ParamIndex]
	} else {
		raw = vs.Literal
	}
	items, err := toAnySlice(raw)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := convertToFieldType(code, item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// toAnySlice reflects just enough to walk an arbitrary collection-typed
// argument ([]int64, []string, a user's []CustomID, ...) element by
// element; this is the one place outside entity's accessor boundary that
// touches reflection, because the collection's element type is never
// known until call time.
func toAnySlice(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case []int64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	case []float64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	default:
		return reflectSlice(v)
	}
}
