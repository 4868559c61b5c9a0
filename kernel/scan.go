package kernel

import (
	"github.com/google/uuid"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/typecode"
)

// scanColumn evaluates one condition directly against a page's column,
// dispatching on typecode.Code to recover the concrete column type with a
// single type assertion — the same reflection-avoidance boundary
// entity.ReadColumn/WriteColumn use. value/values are already converted to
// the field's exact storage type by convert.go.
func scanColumn(col column.Column, code typecode.Code, op typecode.Operator, ignoreCase bool, value any, values []any) column.Selection {
	if op == typecode.IsNull {
		return col.ScanNull()
	}
	if op == typecode.IsNotNull {
		// Presence returns the column's live internal bitmap, not a copy.
		// Callers (evaluateScanGroup) AND selections together in place, so
		// handing out the original would let that mutate the column's real
		// presence tracking.
		presence := col.Presence()
		clone := make(column.Selection, len(presence))
		copy(clone, presence)
		return clone
	}

	switch code {
	case typecode.Int8:
		return scanNumeric(col.(*column.NumericColumn[int8]), op, value, values)
	case typecode.Int16:
		return scanNumeric(col.(*column.NumericColumn[int16]), op, value, values)
	case typecode.Int32:
		return scanNumeric(col.(*column.NumericColumn[int32]), op, value, values)
	case typecode.Int64, typecode.Instant, typecode.Date, typecode.DateTime:
		return scanNumeric(col.(*column.NumericColumn[int64]), op, value, values)
	case typecode.Float32:
		return scanNumeric(col.(*column.NumericColumn[float32]), op, value, values)
	case typecode.Float64:
		return scanNumeric(col.(*column.NumericColumn[float64]), op, value, values)
	case typecode.Bool:
		return scanBool(col.(*column.BoolColumn), op, value)
	case typecode.Char:
		return scanChar(col.(*column.CharColumn), op, value, values)
	case typecode.String, typecode.Decimal:
		return scanString(col.(*column.StringColumn), op, ignoreCase, value, values)
	case typecode.UUID:
		return scanUUID(col.(*column.UUIDColumn), op, value, values)
	default:
		panic("kernel: unscannable type code " + code.String())
	}
}

func scanNumeric[T column.Numeric](col *column.NumericColumn[T], op typecode.Operator, value any, values []any) column.Selection {
	switch op {
	case typecode.EQ:
		return col.ScanEquals(value.(T))
	case typecode.NE:
		return col.ScanNotEquals(value.(T))
	case typecode.LT:
		return col.ScanLt(value.(T))
	case typecode.LE:
		return col.ScanLe(value.(T))
	case typecode.GT:
		return col.ScanGt(value.(T))
	case typecode.GE:
		return col.ScanGe(value.(T))
	case typecode.Between:
		return col.ScanRange(values[0].(T), values[1].(T), column.InclusiveBoth)
	case typecode.In:
		return col.ScanIn(toNumericSet[T](values))
	case typecode.NotIn:
		return col.ScanNotIn(toNumericSet[T](values))
	default:
		panic("kernel: unsupported numeric operator " + op.String())
	}
}

func toNumericSet[T column.Numeric](values []any) map[T]struct{} {
	out := make(map[T]struct{}, len(values))
	for _, v := range values {
		out[v.(T)] = struct{}{}
	}
	return out
}

func scanBool(col *column.BoolColumn, op typecode.Operator, value any) column.Selection {
	switch op {
	case typecode.EQ:
		return col.ScanEquals(value.(bool))
	case typecode.NE:
		return col.ScanNotEquals(value.(bool))
	case typecode.IsTrue:
		return col.ScanTrue()
	case typecode.IsFalse:
		return col.ScanFalse()
	default:
		panic("kernel: unsupported bool operator " + op.String())
	}
}

func scanChar(col *column.CharColumn, op typecode.Operator, value any, values []any) column.Selection {
	switch op {
	case typecode.EQ:
		return col.ScanEquals(value.(rune))
	case typecode.NE:
		return col.ScanNotEquals(value.(rune))
	case typecode.In:
		return col.ScanIn(toRuneSet(values))
	case typecode.NotIn:
		return col.ScanNotIn(toRuneSet(values))
	default:
		panic("kernel: unsupported char operator " + op.String())
	}
}

func toRuneSet(values []any) map[rune]struct{} {
	out := make(map[rune]struct{}, len(values))
	for _, v := range values {
		out[v.(rune)] = struct{}{}
	}
	return out
}

func scanString(col *column.StringColumn, op typecode.Operator, ignoreCase bool, value any, values []any) column.Selection {
	switch op {
	case typecode.EQ:
		if ignoreCase {
			return col.ScanEqualFold(value.(string))
		}
		return col.ScanEquals(value.(string))
	case typecode.NE:
		return col.ScanNotEquals(value.(string))
	case typecode.In:
		return col.ScanIn(toStringSet(values))
	case typecode.NotIn:
		return col.ScanNotIn(toStringSet(values))
	case typecode.StartingWith:
		if ignoreCase {
			return col.ScanStartsWithFold(value.(string))
		}
		return col.ScanStartsWith(value.(string))
	case typecode.EndingWith:
		if ignoreCase {
			return col.ScanEndsWithFold(value.(string))
		}
		return col.ScanEndsWith(value.(string))
	case typecode.Containing:
		if ignoreCase {
			return col.ScanContainsFold(value.(string))
		}
		return col.ScanContains(value.(string))
	case typecode.Like:
		return col.ScanLike(value.(string), false)
	case typecode.ILike:
		return col.ScanLike(value.(string), true)
	case typecode.NotLike:
		return col.ScanNotLike(value.(string), ignoreCase)
	default:
		panic("kernel: unsupported string operator " + op.String())
	}
}

func toStringSet(values []any) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v.(string)] = struct{}{}
	}
	return out
}

func scanUUID(col *column.UUIDColumn, op typecode.Operator, value any, values []any) column.Selection {
	switch op {
	case typecode.EQ:
		return col.ScanEquals(value.(uuid.UUID))
	case typecode.NE:
		return col.ScanNotEquals(value.(uuid.UUID))
	case typecode.In:
		return col.ScanIn(toUUIDSet(values))
	case typecode.NotIn:
		return col.ScanNotIn(toUUIDSet(values))
	default:
		panic("kernel: unsupported uuid operator " + op.String())
	}
}

func toUUIDSet(values []any) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(values))
	for _, v := range values {
		out[v.(uuid.UUID)] = struct{}{}
	}
	return out
}
