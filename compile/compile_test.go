package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/rowbase/compile"
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/query"
	"github.com/syssam/rowbase/typecode"
)

func noopAccessors() (func(any, any), func(any) any) {
	return func(any, any) {}, func(any) any { return nil }
}

func userDescriptor(t *testing.T) *entity.Descriptor {
	t.Helper()
	writer, reader := noopAccessors()

	authorDesc := entity.NewDescriptor("Author")
	idFD := entity.Int64("id").ID()
	idFD.Accessors(writer, reader)
	authorDesc.AddField(idFD.Descriptor())
	nameFD := entity.String("name")
	nameFD.Accessors(writer, reader)
	authorDesc.AddField(nameFD.Descriptor())
	require.NoError(t, authorDesc.Finalize())

	desc := entity.NewDescriptor("User")

	id := entity.Int64("id").ID().Generated()
	id.Accessors(writer, reader)
	desc.AddField(id.Descriptor())

	email := entity.String("email").HashIndexed()
	email.Accessors(writer, reader)
	desc.AddField(email.Descriptor())

	age := entity.Int32("age").RangeIndexed()
	age.Accessors(writer, reader)
	desc.AddField(age.Descriptor())

	sku := entity.String("sku")
	sku.Accessors(writer, reader)
	desc.AddField(sku.Descriptor())

	name := entity.String("name").PrefixIndexed(true)
	name.Accessors(writer, reader)
	desc.AddField(name.Descriptor())

	active := entity.Bool("active")
	active.Accessors(writer, reader)
	desc.AddField(active.Descriptor())

	author := entity.Int64("author").Relationship(authorDesc)
	author.Accessors(writer, reader)
	desc.AddField(author.Descriptor())

	desc.IDStrategy = entity.IDStrategyLong
	require.NoError(t, desc.Finalize())
	return desc
}

func cond(path []string, op typecode.Operator, value any) query.Condition {
	return query.Condition{PropertyPath: path, Operator: op, Value: value}
}

func TestCompileSimpleEquality(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix:     query.FindBy,
		Conditions: []query.Condition{cond([]string{"email"}, typecode.EQ, nil)},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	require.Len(t, cq.Conditions, 1)
	cc := cq.Conditions[0]
	assert.Equal(t, 1, cc.FieldIndex) // email is field index 1
	assert.Equal(t, typecode.EQ, cc.Operator)
	assert.Equal(t, compile.UseIndex, cc.Strategy)
	assert.True(t, cc.Value.IsParam)
	assert.Equal(t, 0, cc.Value.ParamIndex)
	assert.Equal(t, 1, cq.Arity)
}

func TestCompileRangeAnd(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"age"}, typecode.GT, nil),
			{PropertyPath: []string{"active"}, Operator: typecode.IsTrue, Combinator: query.And},
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	require.Len(t, cq.Conditions, 2)
	assert.Equal(t, compile.UseIndex, cq.Conditions[0].Strategy)
	assert.Equal(t, compile.ScanColumn, cq.Conditions[1].Strategy)
	assert.Equal(t, query.And, cq.Conditions[1].Combinator)
	// active is IS_TRUE, never binds an argument
	assert.False(t, cq.Conditions[1].Value.IsParam)
	assert.Nil(t, cq.Conditions[1].Value.Literal)
	assert.Equal(t, 1, cq.Arity)
}

func TestCompileInWithLiteralList(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			{PropertyPath: []string{"sku"}, Operator: typecode.In, Values: []any{"a", "b", "c"}},
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	cc := cq.Conditions[0]
	require.Len(t, cc.Values, 3)
	for _, v := range cc.Values {
		assert.False(t, v.IsParam)
	}
	assert.Equal(t, "a", cc.Values[0].Literal)
	assert.Equal(t, 0, cq.Arity)
}

func TestCompileInWithSingleCollectionArg(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			{PropertyPath: []string{"sku"}, Operator: typecode.In},
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	cc := cq.Conditions[0]
	assert.True(t, cc.ArgIsCollection)
	assert.True(t, cc.Value.IsParam)
	assert.Equal(t, 0, cc.Value.ParamIndex)
	assert.Equal(t, 1, cq.Arity)
}

func TestCompileBetween(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			{PropertyPath: []string{"age"}, Operator: typecode.Between, Values: []any{int64(18), int64(65)}},
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	cc := cq.Conditions[0]
	require.Len(t, cc.Values, 2)
	assert.Equal(t, int64(18), cc.Values[0].Literal)
	assert.Equal(t, int64(65), cc.Values[1].Literal)
	assert.Equal(t, compile.UseIndex, cc.Strategy)
}

func TestCompileBetweenDerivedMethodBindsTwoPositionalArgs(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			{PropertyPath: []string{"age"}, Operator: typecode.Between},
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	cc := cq.Conditions[0]
	require.Len(t, cc.Values, 2)
	assert.True(t, cc.Values[0].IsParam)
	assert.True(t, cc.Values[1].IsParam)
	assert.Equal(t, 0, cc.Values[0].ParamIndex)
	assert.Equal(t, 1, cc.Values[1].ParamIndex)
	assert.Equal(t, 2, cq.Arity)
}

func TestCompileNamedParam(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"email"}, typecode.EQ, query.NamedParam("email")),
		},
	}
	cq, err := compile.Compile(lq, desc, []string{"name", "email"})
	require.NoError(t, err)
	cc := cq.Conditions[0]
	assert.True(t, cc.Value.IsParam)
	assert.Equal(t, 1, cc.Value.ParamIndex)
}

func TestCompileUnknownNamedParam(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"email"}, typecode.EQ, query.NamedParam("nope")),
		},
	}
	_, err := compile.Compile(lq, desc, []string{"email"})
	require.Error(t, err)
	var target *compile.ErrUnknownParam
	assert.ErrorAs(t, err, &target)
}

func TestCompilePositionalParam(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"email"}, typecode.EQ, query.PositionalParam(1)),
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cq.Conditions[0].Value.ParamIndex)
}

func TestCompileSingleLevelJoin(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"author", "name"}, typecode.EQ, "Ada"),
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	cc := cq.Conditions[0]
	assert.True(t, cc.IsJoin)
	require.NotNil(t, cc.JoinTarget)
	assert.Equal(t, "Author", cc.JoinTarget.Name)
	assert.Equal(t, 1, cc.InnerFieldIndex) // Author.name is field index 1
}

func TestCompileDeepJoinRejected(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"author", "name", "suffix"}, typecode.EQ, "x"),
		},
	}
	_, err := compile.Compile(lq, desc, nil)
	require.Error(t, err)
	var target *compile.ErrDeepJoin
	assert.ErrorAs(t, err, &target)
}

func TestCompileFieldNotFound(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"nonexistent"}, typecode.EQ, "x"),
		},
	}
	_, err := compile.Compile(lq, desc, nil)
	require.Error(t, err)
	var target *compile.ErrFieldNotFound
	assert.ErrorAs(t, err, &target)
}

func TestCompileUnsupportedOperator(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"active"}, typecode.StartingWith, "x"),
		},
	}
	_, err := compile.Compile(lq, desc, nil)
	require.Error(t, err)
	var target *typecode.ErrUnsupportedOperator
	assert.ErrorAs(t, err, &target)
}

func TestCompileLiteralTypeMismatch(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"email"}, typecode.EQ, int64(5)),
		},
	}
	_, err := compile.Compile(lq, desc, nil)
	require.Error(t, err)
	var target *compile.ErrLiteralTypeMismatch
	assert.ErrorAs(t, err, &target)
}

func TestCompileStrategyForPrefixIndex(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"name"}, typecode.StartingWith, "Jo"),
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	assert.Equal(t, compile.UseIndex, cq.Conditions[0].Strategy)

	lq2 := &query.LogicalQuery{
		Prefix: query.FindBy,
		Conditions: []query.Condition{
			cond([]string{"name"}, typecode.Containing, "o"),
		},
	}
	cq2, err := compile.Compile(lq2, desc, nil)
	require.NoError(t, err)
	assert.Equal(t, compile.ScanColumn, cq2.Conditions[0].Strategy)
}

func TestCompileDistinctByProperty(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix:             query.FindBy,
		DistinctByProperty: []string{"email"},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cq.DistinctField)
}

func TestCompileNoDistinctByPropertyLeavesDistinctFieldUnset(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{Prefix: query.FindBy}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, cq.DistinctField)
}

func TestCompileGroupByAndHaving(t *testing.T) {
	desc := userDescriptor(t)
	having := cond([]string{"age"}, typecode.GT, nil)
	lq := &query.LogicalQuery{
		Prefix:  query.FindBy,
		GroupBy: []string{"active"},
		Having:  &having,
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	require.Len(t, cq.GroupBy, 1)
	assert.Equal(t, 5, cq.GroupBy[0]) // active is field index 5
	require.NotNil(t, cq.Having)
	assert.Equal(t, typecode.GT, cq.Having.Operator)
	assert.True(t, cq.Having.Value.IsParam)
}

func TestCompileUpdateAssignments(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix:    query.PrefixInvalid,
		Modifying: true,
		UpdateAssignments: map[string]any{
			"email": "new@example.com",
			"age":   query.NamedParam("newAge"),
		},
	}
	cq, err := compile.Compile(lq, desc, []string{"newAge"})
	require.NoError(t, err)
	require.True(t, cq.Modifying)

	emailFD, ok := desc.FieldByName("email")
	require.True(t, ok)
	ageFD, ok := desc.FieldByName("age")
	require.True(t, ok)

	emailAssign := cq.UpdateAssignments[emailFD.Index]
	assert.False(t, emailAssign.IsParam)
	assert.Equal(t, "new@example.com", emailAssign.Literal)

	ageAssign := cq.UpdateAssignments[ageFD.Index]
	assert.True(t, ageAssign.IsParam)
	assert.Equal(t, 0, ageAssign.ParamIndex)
}

func TestCompileOrderBy(t *testing.T) {
	desc := userDescriptor(t)
	lq := &query.LogicalQuery{
		Prefix: query.FindBy,
		OrderBy: []query.OrderByTerm{
			{PropertyPath: []string{"age"}, Descending: true},
			{PropertyPath: []string{"email"}, Descending: false},
		},
	}
	cq, err := compile.Compile(lq, desc, nil)
	require.NoError(t, err)
	require.Len(t, cq.OrderBy, 2)
	assert.Equal(t, 2, cq.OrderBy[0].FieldIndex) // age
	assert.True(t, cq.OrderBy[0].Descending)
	assert.Equal(t, 1, cq.OrderBy[1].FieldIndex) // email
	assert.False(t, cq.OrderBy[1].Descending)
}
