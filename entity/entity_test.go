package entity_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syssam/rowbase/column"
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/typecode"
)

type user struct {
	ID    int64
	Email string
	Age   int32
}

func buildUserDescriptor() *entity.Descriptor {
	desc := entity.NewDescriptor("User")
	desc.AddField(entity.Int64("id").ID().Generated().
		Accessors(
			func(t any, v any) { t.(*user).ID = v.(int64) },
			func(t any) any { return t.(*user).ID },
		).Descriptor())
	desc.AddField(entity.String("email").HashIndexed().
		Accessors(
			func(t any, v any) { t.(*user).Email = v.(string) },
			func(t any) any { return t.(*user).Email },
		).Descriptor())
	desc.AddField(entity.Int32("age").RangeIndexed().
		Accessors(
			func(t any, v any) { t.(*user).Age = v.(int32) },
			func(t any) any { return t.(*user).Age },
		).Descriptor())
	desc.IDStrategy = entity.IDStrategyLong
	return desc
}

func TestDescriptorFinalizeRequiresPrimaryKey(t *testing.T) {
	desc := entity.NewDescriptor("Empty")
	require.ErrorIs(t, desc.Finalize(), entity.ErrNoPrimaryKey)
}

func TestMaterializeAndExtractRoundTrip(t *testing.T) {
	desc := buildUserDescriptor()
	require.NoError(t, desc.Finalize())

	idCol := column.NewNumericColumn[int64](typecode.Int64, 4)
	emailCol := column.NewStringColumn(typecode.String, 4)
	ageCol := column.NewNumericColumn[int32](typecode.Int32, 4)
	cols := []column.Column{idCol, emailCol, ageCol}

	idCol.Set(0, 1)
	emailCol.Set(0, "a@x")
	ageCol.Set(0, 30)

	mat := entity.NewMaterializer(desc, func() any { return &user{} }, nil)
	got := mat.Materialize(cols, 0).(*user)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, "a@x", got.Email)
	require.Equal(t, int32(30), got.Age)

	ext := entity.NewExtractor(desc, nil)
	values := ext.Extract(got)
	require.Equal(t, int64(1), values[0])
	require.Equal(t, "a@x", values[1])
	require.Equal(t, int32(30), values[2])

	require.Equal(t, int64(1), ext.PrimaryKey(got))
}

func TestDescriptorIDGeneration(t *testing.T) {
	desc := buildUserDescriptor()
	require.NoError(t, desc.Finalize())

	first := desc.NextLongID()
	second := desc.NextLongID()
	require.NotEqual(t, first, second)
}

func TestFieldByNameLookup(t *testing.T) {
	desc := buildUserDescriptor()
	fd, ok := desc.FieldByName("email")
	require.True(t, ok)
	require.Equal(t, entity.IndexHash, fd.IndexKind)

	_, ok = desc.FieldByName("missing")
	require.False(t, ok)
}
