package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuilder(t *testing.T) {
	q := New().
		Where(Gt("price", 100.0)).
		Where(Lte("price", 150.0)).
		Select("name price").
		SortBy("-price").
		SkipN(1).
		LimitN(2)

	want := &Query{
		Filter:     And(Gt("price", 100.0), Lte("price", 150.0)),
		Projection: []string{"name", "price"},
		Sort:       []SortField{{Field: "price", Desc: true}},
		Skip:       1,
		Limit:      2,
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, q.Validate())
}

func TestQueryOr(t *testing.T) {
	q := New().Select("name price rating").Or(
		Gte("rating", 4.5),
		In("ingredients", "chiken", "mutton"),
	)
	assert.Equal(t, Or(Gte("rating", 4.5), In("ingredients", "chiken", "mutton")), q.Filter)
	assert.NoError(t, q.Validate())
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, []SortField{{Field: "price", Desc: true}, {Field: "name"}}, ParseSort("-price +name"))
	assert.Nil(t, ParseSort("  "))
}

func TestQueryValidateRejectsUnknownFields(t *testing.T) {
	assert.ErrorIs(t, New().Where(Eq("colour", "red")).Validate(), ErrUnknownField)
	assert.ErrorIs(t, New().Select("name colour").Validate(), ErrUnknownField)
	assert.ErrorIs(t, New().SortBy("-colour").Validate(), ErrUnknownField)
	assert.ErrorIs(t, New().SkipN(-1).Validate(), ErrInvalidFilter)
}

func TestValidateOperatorShapes(t *testing.T) {
	assert.ErrorIs(t, Validate(Gt("ingredients", "rice")), ErrInvalidFilter)
	assert.ErrorIs(t, Validate(Gt("is_available", true)), ErrInvalidFilter)
	assert.ErrorIs(t, Validate(Regex("price", "1", false)), ErrInvalidFilter)
	assert.ErrorIs(t, Validate(Regex("name", "(", false)), ErrInvalidFilter)
	assert.ErrorIs(t, Validate(Cond{Field: "name", Op: OpIn, Value: "x"}), ErrInvalidFilter)
	assert.ErrorIs(t, Validate(Logical{Op: OpOr}), ErrInvalidFilter)
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(Nor(Eq("category", "Veg"), Regex("name", "^Ram", true))))
}

func TestPattern(t *testing.T) {
	p := Pattern{Expr: "pappu$", CaseInsensitive: true}
	re, err := p.Compile()
	require.NoError(t, err)
	assert.True(t, re.MatchString("Mango Pappu"))

	re, err = Pattern{Expr: "pappu$"}.Compile()
	require.NoError(t, err)
	assert.False(t, re.MatchString("Mango Pappu"))
}
