// Package typecode defines the closed set of storage type tags the engine
// understands, along with the operator set each tag supports.
package typecode

import "fmt"

// Code is a small integer tag identifying one of the supported storage
// encodings. The set is closed: every PageColumn, every compiled condition,
// and every materializer writer dispatches on Code rather than reflection.
type Code uint8

const (
	Invalid Code = iota
	Int8
	Int16
	Int32
	Int64
	Bool
	Float32
	Float64
	Char
	String
	Instant  // epoch-millis
	Date     // epoch-day
	DateTime // epoch-millis, local
	UUID     // two int64 columns: MSB, LSB
	Decimal  // canonical string storage
)

func (c Code) String() string {
	switch c {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Char:
		return "char"
	case String:
		return "string"
	case Instant:
		return "instant"
	case Date:
		return "date"
	case DateTime:
		return "datetime"
	case UUID:
		return "uuid"
	case Decimal:
		return "decimal"
	default:
		return "invalid"
	}
}

// Operator is the closed set of comparison/match operators a compiled
// condition may carry.
type Operator uint8

const (
	OpInvalid Operator = iota
	EQ
	NE
	LT
	LE
	GT
	GE
	Between
	In
	NotIn
	IsTrue
	IsFalse
	Like
	ILike
	NotLike
	StartingWith
	EndingWith
	Containing
	IsNull
	IsNotNull
)

func (o Operator) String() string {
	switch o {
	case EQ:
		return "EQ"
	case NE:
		return "NE"
	case LT:
		return "LT"
	case LE:
		return "LE"
	case GT:
		return "GT"
	case GE:
		return "GE"
	case Between:
		return "BETWEEN"
	case In:
		return "IN"
	case NotIn:
		return "NOT_IN"
	case IsTrue:
		return "IS_TRUE"
	case IsFalse:
		return "IS_FALSE"
	case Like:
		return "LIKE"
	case ILike:
		return "ILIKE"
	case NotLike:
		return "NOT_LIKE"
	case StartingWith:
		return "STARTING_WITH"
	case EndingWith:
		return "ENDING_WITH"
	case Containing:
		return "CONTAINING"
	case IsNull:
		return "IS_NULL"
	case IsNotNull:
		return "IS_NOT_NULL"
	default:
		return "INVALID"
	}
}

// numericOps is shared by every fixed-width numeric type code.
var numericOps = map[Operator]bool{
	EQ: true, NE: true, LT: true, LE: true, GT: true, GE: true,
	Between: true, In: true, NotIn: true,
}

var opsByCode = map[Code]map[Operator]bool{
	Int8:     numericOps,
	Int16:    numericOps,
	Int32:    numericOps,
	Int64:    numericOps,
	Instant:  numericOps,
	Date:     numericOps,
	DateTime: numericOps,
	Float32: {
		EQ: true, NE: true, LT: true, LE: true, GT: true, GE: true, Between: true,
	},
	Float64: {
		EQ: true, NE: true, LT: true, LE: true, GT: true, GE: true, Between: true,
	},
	Bool: {
		EQ: true, NE: true, IsTrue: true, IsFalse: true,
	},
	Char: {
		EQ: true, NE: true, In: true, NotIn: true,
	},
	String: {
		EQ: true, NE: true, In: true, NotIn: true, Like: true, ILike: true, NotLike: true,
		StartingWith: true, EndingWith: true, Containing: true,
	},
	UUID: {
		EQ: true, NE: true, In: true, NotIn: true,
	},
	Decimal: {
		EQ: true, NE: true, In: true, NotIn: true,
	},
}

// Supports reports whether the given type code supports the given operator.
// IS_NULL / IS_NOT_NULL are supported by every type code: they dispatch
// against the column's presence bitmap, never its value storage.
func Supports(c Code, op Operator) bool {
	if op == IsNull || op == IsNotNull {
		return true
	}
	ops, ok := opsByCode[c]
	if !ok {
		return false
	}
	return ops[op]
}

// ErrUnsupportedOperator is returned by the compiler when a condition pairs
// an operator with a type code that does not support it.
type ErrUnsupportedOperator struct {
	Code Code
	Op   Operator
}

func (e *ErrUnsupportedOperator) Error() string {
	return fmt.Sprintf("typecode: operator %s is not supported for type %s", e.Op, e.Code)
}
