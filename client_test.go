package rowbase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/rowbase"
	"github.com/syssam/rowbase/entity"
)

type widget struct {
	ID   int64
	Name string
	Qty  int32
}

func buildWidgetDescriptor() *entity.Descriptor {
	desc := entity.NewDescriptor("Widget")
	desc.AddField(entity.Int64("id").ID().Generated().
		Accessors(
			func(t any, v any) { t.(*widget).ID = v.(int64) },
			func(t any) any { return t.(*widget).ID },
		).Descriptor())
	desc.AddField(entity.String("name").HashIndexed().
		Accessors(
			func(t any, v any) { t.(*widget).Name = v.(string) },
			func(t any) any { return t.(*widget).Name },
		).Descriptor())
	desc.AddField(entity.Int32("qty").RangeIndexed().
		Accessors(
			func(t any, v any) { t.(*widget).Qty = v.(int32) },
			func(t any) any { return t.(*widget).Qty },
		).Descriptor())
	desc.IDStrategy = entity.IDStrategyLong
	return desc
}

func newWidgetClient(t *testing.T) *rowbase.Client {
	desc := buildWidgetDescriptor()
	require.NoError(t, desc.Finalize())

	client, err := rowbase.NewClient(rowbase.WithPageSize(64), rowbase.WithMaxPages(8))
	require.NoError(t, err)
	require.NoError(t, client.RegisterTable(desc, func() any { return &widget{} }, nil))
	return client
}

func TestClientSaveAndFindByID(t *testing.T) {
	client := newWidgetClient(t)

	id, err := client.Save("Widget", &widget{Name: "bolt", Qty: 10})
	require.NoError(t, err)

	got, ok, err := client.FindByID("Widget", id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bolt", got.(*widget).Name)
}

func TestClientFindByIDUnknownEntity(t *testing.T) {
	client := newWidgetClient(t)

	_, _, err := client.FindByID("Gadget", int64(1))
	require.Error(t, err)
	require.True(t, rowbase.IsMissingEntity(err))
}

func TestClientRegisterQueryAndExecuteDerivedMethod(t *testing.T) {
	client := newWidgetClient(t)

	_, err := client.Save("Widget", &widget{Name: "bolt", Qty: 10})
	require.NoError(t, err)
	_, err = client.Save("Widget", &widget{Name: "nut", Qty: 20})
	require.NoError(t, err)

	queryId, err := client.RegisterQuery("Widget", "findByNameEquals", "findByName", nil)
	require.NoError(t, err)

	out, err := client.Execute(context.Background(), queryId, "nut")
	require.NoError(t, err)
	results := out.([]any)
	require.Len(t, results, 1)
	require.Equal(t, "nut", results[0].(*widget).Name)
}

func TestClientRegisterQueryAndExecuteJPQL(t *testing.T) {
	client := newWidgetClient(t)

	_, err := client.Save("Widget", &widget{Name: "bolt", Qty: 5})
	require.NoError(t, err)
	_, err = client.Save("Widget", &widget{Name: "nut", Qty: 25})
	require.NoError(t, err)

	queryId, err := client.RegisterQuery("Widget", "findHeavy",
		"SELECT w FROM Widget w WHERE w.qty > :min", []string{"min"})
	require.NoError(t, err)

	out, err := client.Execute(context.Background(), queryId, int64(10))
	require.NoError(t, err)
	results := out.([]any)
	require.Len(t, results, 1)
	require.Equal(t, "nut", results[0].(*widget).Name)
}

func TestClientExecuteUnknownQueryId(t *testing.T) {
	client := newWidgetClient(t)

	_, err := client.Execute(context.Background(), 99)
	require.Error(t, err)
	require.True(t, rowbase.IsBadInput(err))
}

func TestClientExecuteTooFewArguments(t *testing.T) {
	client := newWidgetClient(t)

	queryId, err := client.RegisterQuery("Widget", "findByNameEquals", "findByName", nil)
	require.NoError(t, err)

	_, err = client.Execute(context.Background(), queryId)
	require.Error(t, err)
	require.True(t, rowbase.IsBadInput(err))
}

func TestClientDeleteByID(t *testing.T) {
	client := newWidgetClient(t)

	id, err := client.Save("Widget", &widget{Name: "bolt", Qty: 10})
	require.NoError(t, err)

	deleted, err := client.DeleteByID("Widget", id)
	require.NoError(t, err)
	require.True(t, deleted)

	_, ok, err := client.FindByID("Widget", id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClientRegisterTableHonorsPrefixSuffixToggle(t *testing.T) {
	desc := entity.NewDescriptor("Tagged")
	desc.AddField(entity.Int64("id").ID().Generated().
		Accessors(
			func(t any, v any) {},
			func(t any) any { return int64(0) },
		).Descriptor())
	desc.AddField(entity.String("label").PrefixIndexed(false).
		Accessors(
			func(t any, v any) {},
			func(t any) any { return "" },
		).Descriptor())
	desc.IDStrategy = entity.IDStrategyLong
	require.NoError(t, desc.Finalize())

	client, err := rowbase.NewClient(rowbase.WithPrefixIndex(false))
	require.NoError(t, err)
	require.NoError(t, client.RegisterTable(desc, func() any { return new(struct{}) }, nil))

	require.Equal(t, entity.IndexNone, desc.Fields[1].IndexKind)
}
