// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Menu returns the sample records the tests run against.
func Menu() []*model.FoodItem {
	return []*model.FoodItem{
		{
			Name:        "Fish Fry",
			Description: "Delicious Food",
			Category:    model.CategoryNonVeg,
			Price:       model.Float(200),
			IsAvailable: model.Bool(true),
			Rating:      model.Float(4.5),
			Ingredients: model.StringArray{"mutton", "basmathi rice", "spices"},
		},
		{
			Name:        "Mango Pappu",
			Description: "Andhra style dal",
			Category:    model.CategoryVeg,
			Price:       model.Float(120),
			IsAvailable: model.Bool(true),
			Rating:      model.Float(4.1),
			Ingredients: model.StringArray{"mango", "toor dal"},
		},
		{
			Name:        "Chicken Biryani",
			Description: "Dum cooked",
			Category:    model.CategoryNonVeg,
			Price:       model.Float(150),
			IsAvailable: model.Bool(true),
			Rating:      model.Float(3.9),
			Ingredients: model.StringArray{"chiken", "basmathi rice"},
		},
		{
			Name:        "Tomato Pappu",
			Description: "Seasonal",
			Category:    model.CategoryVeg,
			IsAvailable: model.Bool(false),
			Rating:      model.Float(4.8),
			Ingredients: model.StringArray{"tomato", "toor dal"},
		},
	}
}

// Seed inserts Menu into s and returns the stored records by name.
func Seed(t *testing.T, s store.Store) map[string]*model.FoodItem {
	t.Helper()
	byName := make(map[string]*model.FoodItem)
	for _, item := range Menu() {
		require.NoError(t, s.Insert(context.Background(), item))
		byName[item.Name] = item
	}
	return byName
}

// itemOpts compares stored records ignoring timestamp precision lost by
// the backend.
var itemOpts = cmp.Options{
	cmpopts.IgnoreFields(model.FoodItem{}, "CreatedAt", "UpdatedAt"),
	cmpopts.EquateEmpty(),
}

func names(items []*model.FoodItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func sorted(items []*model.FoodItem) []string {
	out := names(items)
	sort.Strings(out)
	return out
}

// Run exercises s, which must start out empty.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("insert and find by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := Menu()[0]

		require.NoError(t, s.Insert(ctx, item))
		assert.NotEmpty(t, item.ID)
		assert.False(t, item.CreatedAt.IsZero())

		got, err := s.FindByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		if diff := cmp.Diff(item, got, itemOpts); diff != "" {
			t.Errorf("FindByID mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("find by unknown or malformed id", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		for _, id := range []string{"61b71dfc99b7b46d32cfe5cb", "7d1d2a59-4b4e-4b8e-9f5e-2f6a5c1f0c11", "not-an-id", ""} {
			got, err := s.FindByID(context.Background(), id)
			assert.NoError(t, err, id)
			assert.Nil(t, got, id)
		}
	})

	t.Run("find", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		ctx := context.Background()

		tests := []struct {
			name string
			q    *query.Query
			want []string
		}{
			{"all", query.New(), []string{"Chicken Biryani", "Fish Fry", "Mango Pappu", "Tomato Pappu"}},
			{"equality", query.New().Where(query.Eq("name", "Mango Pappu")), []string{"Mango Pappu"}},
			{
				"price range",
				query.New().Where(query.Gt("price", 100.0)).Where(query.Lte("price", 150.0)),
				[]string{"Chicken Biryani", "Mango Pappu"},
			},
			{"ingredient membership", query.New().Where(query.In("ingredients", "chiken", "mango")), []string{"Chicken Biryani", "Mango Pappu"}},
			{"ingredient equality", query.New().Where(query.Eq("ingredients", "toor dal")), []string{"Mango Pappu", "Tomato Pappu"}},
			{"ingredient exclusion", query.New().Where(query.Nin("ingredients", "toor dal", "chiken")), []string{"Fish Fry"}},
			{
				"or",
				query.New().Or(query.Gte("rating", 4.5), query.In("ingredients", "chiken", "mutton")),
				[]string{"Chicken Biryani", "Fish Fry", "Tomato Pappu"},
			},
			{"nor", query.New().Where(query.Nor(query.Eq("category", "Veg"), query.Lt("rating", 4.0))), []string{"Fish Fry"}},
			{"nor matches missing values", query.New().Where(query.Nor(query.Gt("price", 130.0))), []string{"Mango Pappu", "Tomato Pappu"}},
			{"nor over several branches", query.New().Where(query.Nor(query.Regex("name", "^Chi", false), query.Lt("price", 130.0))), []string{"Fish Fry", "Tomato Pappu"}},
			{"equality with null matches missing values", query.New().Where(query.Eq("price", nil)), []string{"Tomato Pappu"}},
			{"regex ends with", query.New().Where(query.Regex("name", "pappu$", true)), []string{"Mango Pappu", "Tomato Pappu"}},
			{"regex is case sensitive by default", query.New().Where(query.Regex("name", "pappu$", false)), []string{}},
			{"regex on array elements", query.New().Where(query.Regex("ingredients", "^basmathi", false)), []string{"Chicken Biryani", "Fish Fry"}},
			{"not equal includes missing values", query.New().Where(query.Ne("price", 200.0)), []string{"Chicken Biryani", "Mango Pappu", "Tomato Pappu"}},
			{"boolean", query.New().Where(query.Eq("is_available", false)), []string{"Tomato Pappu"}},
			{"empty in", query.New().Where(query.Cond{Field: "category", Op: query.OpIn, Value: []any{}}), []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.Find(ctx, tt.q)
				require.NoError(t, err)
				assert.Equal(t, tt.want, sorted(got))
			})
		}
	})

	t.Run("sort places missing values first", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		ctx := context.Background()

		got, err := s.Find(ctx, query.New().SortBy("price"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Tomato Pappu", "Mango Pappu", "Chicken Biryani", "Fish Fry"}, names(got))

		got, err = s.Find(ctx, query.New().SortBy("-price"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Fish Fry", "Chicken Biryani", "Mango Pappu", "Tomato Pappu"}, names(got))
	})

	t.Run("find with projection sort skip and limit", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		ctx := context.Background()

		got, err := s.Find(ctx, query.New().Where(query.Gte("price", 0.0)).Select("name price").SortBy("-price").LimitN(2))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, []string{"Fish Fry", "Chicken Biryani"}, names(got))
		assert.NotEmpty(t, got[0].ID)
		assert.Equal(t, 200.0, *got[0].Price)
		assert.Empty(t, got[0].Description)
		assert.Nil(t, got[0].Rating)

		got, err = s.Find(ctx, query.New().Where(query.Gte("price", 0.0)).SortBy("price").SkipN(1))
		require.NoError(t, err)
		assert.Equal(t, []string{"Chicken Biryani", "Fish Fry"}, names(got))
	})

	t.Run("count", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		ctx := context.Background()

		n, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 4, n)

		n, err = s.Count(ctx, query.Eq("category", model.CategoryVeg))
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Find(context.Background(), query.New().Where(query.Eq("colour", "red")))
		assert.ErrorIs(t, err, query.ErrUnknownField)
		_, err = s.Count(context.Background(), query.Eq("colour", "red"))
		assert.ErrorIs(t, err, query.ErrUnknownField)
	})

	t.Run("save replaces the record", func(t *testing.T) {
		s := newStore(t)
		items := Seed(t, s)
		ctx := context.Background()

		item, err := s.FindByID(ctx, items["Mango Pappu"].ID)
		require.NoError(t, err)
		item.Name = "Mudha Pappu"
		item.Price = model.Float(70)
		item.Ingredients = nil
		require.NoError(t, s.Save(ctx, item))

		got, err := s.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mudha Pappu", got.Name)
		assert.Equal(t, 70.0, *got.Price)
		assert.Empty(t, got.Ingredients)
		assert.Equal(t, "Andhra style dal", got.Description)
	})

	t.Run("save of a missing record", func(t *testing.T) {
		s := newStore(t)
		items := Seed(t, s)
		ctx := context.Background()

		gone, err := s.Delete(ctx, items["Fish Fry"].ID)
		require.NoError(t, err)
		require.NotNil(t, gone)
		assert.ErrorIs(t, s.Save(ctx, gone), store.ErrNotFound)
	})

	t.Run("set fields", func(t *testing.T) {
		s := newStore(t)
		items := Seed(t, s)
		ctx := context.Background()
		id := items["Mango Pappu"].ID

		after, err := s.SetFields(ctx, id, model.FoodItemPatch{Name: model.String("Pappu Curry"), Price: model.Float(60)}, true)
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Equal(t, "Pappu Curry", after.Name)
		assert.Equal(t, 60.0, *after.Price)
		assert.Equal(t, 4.1, *after.Rating)

		before, err := s.SetFields(ctx, id, model.FoodItemPatch{Ingredients: &[]string{"mango"}}, false)
		require.NoError(t, err)
		require.NotNil(t, before)
		assert.Equal(t, model.StringArray{"mango", "toor dal"}, before.Ingredients)

		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StringArray{"mango"}, got.Ingredients)
		assert.Equal(t, "Pappu Curry", got.Name)
	})

	t.Run("set fields on a missing record", func(t *testing.T) {
		s := newStore(t)
		got, err := s.SetFields(context.Background(), "61b71dfc99b7b46d32cfe5cb", model.FoodItemPatch{Name: model.String("x")}, true)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		items := Seed(t, s)
		ctx := context.Background()
		id := items["Tomato Pappu"].ID

		removed, err := s.Delete(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, removed)
		assert.Equal(t, "Tomato Pappu", removed.Name)

		again, err := s.Delete(ctx, id)
		assert.NoError(t, err)
		assert.Nil(t, again)

		n, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}
