package rowbase_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/rowbase"
)

func TestBadInputError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := rowbase.NewBadInputError("findByFoo", "unrecognized prefix")
		assert.Equal(t, `rowbase: bad input in "findByFoo": unrecognized prefix`, err.Error())
	})

	t.Run("IsBadInput", func(t *testing.T) {
		err := rowbase.NewBadInputError("findByFoo", "unrecognized prefix")
		assert.True(t, rowbase.IsBadInput(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, rowbase.IsBadInput(wrapped))

		assert.False(t, rowbase.IsBadInput(errors.New("other error")))
		assert.False(t, rowbase.IsBadInput(nil))
	})
}

func TestTypeMismatchError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := rowbase.NewTypeMismatchError("age", "int32", "string")
		assert.Equal(t, `rowbase: field "age" expected int32, got string`, err.Error())
	})

	t.Run("IsTypeMismatch", func(t *testing.T) {
		err := rowbase.NewTypeMismatchError("age", "int32", "string")
		assert.True(t, rowbase.IsTypeMismatch(err))
		assert.False(t, rowbase.IsTypeMismatch(errors.New("other error")))
		assert.False(t, rowbase.IsTypeMismatch(nil))
	})
}

func TestTableFullError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := rowbase.NewTableFullError("User", 64)
		assert.Equal(t, `rowbase: table "User" is full (max 64 pages)`, err.Error())
	})

	t.Run("IsTableFull", func(t *testing.T) {
		err := rowbase.NewTableFullError("User", 64)
		assert.True(t, rowbase.IsTableFull(err))
		assert.False(t, rowbase.IsTableFull(nil))
	})
}

func TestDuplicateIDError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := rowbase.NewDuplicateIDError("User", int64(1))
		assert.Equal(t, "rowbase: User: id 1 already exists", err.Error())
	})

	t.Run("IsDuplicateID", func(t *testing.T) {
		err := rowbase.NewDuplicateIDError("User", int64(1))
		assert.True(t, rowbase.IsDuplicateID(err))
		assert.False(t, rowbase.IsDuplicateID(nil))
	})
}

func TestMissingEntityError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := rowbase.NewMissingEntityError("User", int64(9))
		assert.Equal(t, "rowbase: User: no row for id 9", err.Error())
	})

	t.Run("IsMissingEntity", func(t *testing.T) {
		err := rowbase.NewMissingEntityError("User", int64(9))
		assert.True(t, rowbase.IsMissingEntity(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, rowbase.IsMissingEntity(wrapped))

		assert.False(t, rowbase.IsMissingEntity(nil))
	})
}
