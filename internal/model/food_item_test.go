package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayValueAndScan(t *testing.T) {
	v, err := StringArray{"mutton", "spices"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["mutton","spices"]`, v)

	empty, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	var a StringArray
	require.NoError(t, a.Scan([]byte(`["rice"]`)))
	assert.Equal(t, StringArray{"rice"}, a)

	require.NoError(t, a.Scan(nil))
	assert.Empty(t, a)

	assert.Error(t, a.Scan(42))
}

func TestBeforeCreateAssignsID(t *testing.T) {
	f := &FoodItem{Name: "Fish Fry"}
	require.NoError(t, f.BeforeCreate(nil))
	assert.Len(t, f.ID, 36)

	kept := &FoodItem{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed", kept.ID)
}

func TestCloneIsDeep(t *testing.T) {
	f := &FoodItem{Price: Float(200), Rating: Float(4.5), IsAvailable: Bool(true), Ingredients: StringArray{"a"}}
	c := f.Clone()
	*c.Price = 10
	c.Ingredients[0] = "b"
	assert.Equal(t, 200.0, *f.Price)
	assert.Equal(t, "a", f.Ingredients[0])
}

func TestPatch(t *testing.T) {
	p := FoodItemPatch{Name: String("Mudha Pappu"), Price: Float(70)}
	assert.Equal(t, []string{FieldName, FieldPrice}, p.Paths())
	assert.Equal(t, map[string]any{FieldName: "Mudha Pappu", FieldPrice: 70.0}, p.Values())
	assert.True(t, FoodItemPatch{}.Empty())

	f := &FoodItem{Name: "Pappu", Price: Float(50), Category: CategoryVeg}
	p.Apply(f)
	assert.Equal(t, "Mudha Pappu", f.Name)
	assert.Equal(t, 70.0, *f.Price)
	assert.Equal(t, CategoryVeg, f.Category)
}
