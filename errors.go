package rowbase

import (
	"errors"
	"fmt"
)

// errTransientConflict names the condition of a seqlock read exhausting its
// retry budget. Nothing in this module returns it: rowtable.Table.Read
// reports that condition through its transient result, and the kernel
// re-reads the row once and otherwise drops it from the result set — so
// callers only ever see the five Error kinds below.
var errTransientConflict = errors.New("rowbase: transient seqlock conflict")

// BadInputError is raised at setup time: a missing parameter, an
// unparseable repository method name, an unparseable JPQL string, or an
// ambiguous/unresolvable property path.
type BadInputError struct {
	Context string // the repository method or JPQL string being compiled
	Reason  string
}

func (e *BadInputError) Error() string {
	return fmt.Sprintf("rowbase: bad input in %q: %s", e.Context, e.Reason)
}

// NewBadInputError returns a new BadInputError.
func NewBadInputError(context, reason string) *BadInputError {
	return &BadInputError{Context: context, Reason: reason}
}

// IsBadInput returns true if err is a BadInputError.
func IsBadInput(err error) bool {
	if err == nil {
		return false
	}
	var e *BadInputError
	return errors.As(err, &e)
}

// TypeMismatchError describes a field whose declared storage type does not
// fit an operator or a value's class. Client.RegisterQuery reports an
// unsupported operator or a mismatched literal found by compile as a
// BadInputError, so no path in this package returns a TypeMismatchError.
type TypeMismatchError struct {
	Field    string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("rowbase: field %q expected %s, got %s", e.Field, e.Expected, e.Got)
}

// NewTypeMismatchError returns a new TypeMismatchError.
func NewTypeMismatchError(field, expected, got string) *TypeMismatchError {
	return &TypeMismatchError{Field: field, Expected: expected, Got: got}
}

// IsTypeMismatch returns true if err is a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *TypeMismatchError
	return errors.As(err, &e)
}

// TableFullError is raised at runtime when a table has exhausted its
// configured page budget, and is surfaced directly to the caller.
type TableFullError struct {
	Table    string
	MaxPages int
}

func (e *TableFullError) Error() string {
	return fmt.Sprintf("rowbase: table %q is full (max %d pages)", e.Table, e.MaxPages)
}

// NewTableFullError returns a new TableFullError.
func NewTableFullError(table string, maxPages int) *TableFullError {
	return &TableFullError{Table: table, MaxPages: maxPages}
}

// IsTableFull returns true if err is a TableFullError.
func IsTableFull(err error) bool {
	if err == nil {
		return false
	}
	var e *TableFullError
	return errors.As(err, &e)
}

// DuplicateIDError is raised at runtime when saving an entity whose
// primary key already exists in the table's ID index.
type DuplicateIDError struct {
	Table string
	ID    any
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("rowbase: %s: id %v already exists", e.Table, e.ID)
}

// NewDuplicateIDError returns a new DuplicateIDError.
func NewDuplicateIDError(table string, id any) *DuplicateIDError {
	return &DuplicateIDError{Table: table, ID: id}
}

// IsDuplicateID returns true if err is a DuplicateIDError.
func IsDuplicateID(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateIDError
	return errors.As(err, &e)
}

// MissingEntityError is returned when an entity name has no registered
// table, and when a primary-key index reports an absent key
// (index.ErrKeyNotFound). DeleteByID of an unknown ID reports false rather
// than this error, and a foreign key that points at a deleted row is not
// reported with it.
type MissingEntityError struct {
	Table string
	ID    any
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("rowbase: %s: no row for id %v", e.Table, e.ID)
}

// NewMissingEntityError returns a new MissingEntityError.
func NewMissingEntityError(table string, id any) *MissingEntityError {
	return &MissingEntityError{Table: table, ID: id}
}

// IsMissingEntity returns true if err is a MissingEntityError.
func IsMissingEntity(err error) bool {
	if err == nil {
		return false
	}
	var e *MissingEntityError
	return errors.As(err, &e)
}
