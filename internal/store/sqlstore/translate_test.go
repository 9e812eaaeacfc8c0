package sqlstore

import (
	"testing"

	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func TestWherePostgres(t *testing.T) {
	d := dialect{name: "postgres"}

	tests := []struct {
		name     string
		filter   query.Filter
		wantSQL  string
		wantArgs []any
	}{
		{"nil", nil, "", nil},
		{"eq", query.Eq("name", "Fish Fry"), "food_items.name = ?", []any{"Fish Fry"}},
		{
			"range",
			query.And(query.Gt("price", 100.0), query.Lte("price", 150.0)),
			"(food_items.price > ?) AND (food_items.price <= ?)",
			[]any{100.0, 150.0},
		},
		{"regex ci", query.Regex("name", "pappu$", true), "food_items.name ~* ?", []any{"pappu$"}},
		{
			"array in",
			query.In("ingredients", "chiken", "mango"),
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(food_items.ingredients::jsonb) AS elem(value) WHERE elem.value IN ?)",
			[]any{[]any{"chiken", "mango"}},
		},
		{
			"nor",
			query.Nor(query.Eq("category", "Veg")),
			"NOT ((COALESCE((food_items.category = ?), FALSE)))",
			[]any{"Veg"},
		},
		{
			"nor over a nullable column",
			query.Nor(query.Gt("price", 100.0), query.Regex("name", "^Bir", false)),
			"NOT ((COALESCE((food_items.price > ?), FALSE)) OR (COALESCE((food_items.name ~ ?), FALSE)))",
			[]any{100.0, "^Bir"},
		},
		{"empty nin", query.Cond{Field: "name", Op: query.OpNin, Value: []any{}}, "1 = 1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := d.where(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestWhereSQLiteRegex(t *testing.T) {
	sql, args, err := dialect{name: "sqlite"}.where(query.Regex("name", "^Ram", true))
	require.NoError(t, err)
	assert.Equal(t, "food_items.name REGEXP ?", sql)
	assert.Equal(t, []any{"(?i)^Ram"}, args)
}

func TestWhereRejectsUnknownFields(t *testing.T) {
	_, _, err := dialect{name: "sqlite"}.where(query.Eq("colour", "red"))
	assert.ErrorIs(t, err, query.ErrUnknownField)
}

func TestOrderPlacesMissingValuesFirst(t *testing.T) {
	pg := dialect{name: "postgres"}
	assert.Equal(t, "food_items.price ASC NULLS FIRST", pg.order(query.SortField{Field: "price"}))
	assert.Equal(t, "food_items.price DESC NULLS LAST", pg.order(query.SortField{Field: "price", Desc: true}))

	lite := dialect{name: "sqlite"}
	assert.Equal(t, clause.OrderByColumn{Column: clause.Column{Name: "rating"}, Desc: true}, lite.order(query.SortField{Field: "rating", Desc: true}))
}
