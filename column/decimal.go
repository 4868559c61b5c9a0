package column

import "github.com/syssam/rowbase/typecode"

// NewDecimalColumn returns a column for the big-decimal/big-integer storage
// kind. Decimals are stored as their canonical string form with operators
// limited to EQ, NE, IN, NOT_IN, so a DecimalColumn is just a StringColumn
// tagged with typecode.Decimal instead of typecode.String; the compiler
// enforces the narrower operator set via typecode.Supports.
func NewDecimalColumn(pageSize int) *StringColumn {
	return NewStringColumn(typecode.Decimal, pageSize)
}
