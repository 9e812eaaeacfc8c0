package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/homefoods/backend/internal/schema"
)

func fishFry() *FoodItem {
	return &FoodItem{
		Name:        "Fish Fry",
		Description: "Delicious Food",
		Category:    CategoryNonVeg,
		Price:       Float(200),
		IsAvailable: Bool(true),
		Rating:      Float(4.5),
		Ingredients: StringArray{"mutton", "basmathi rice", "spices"},
	}
}

func validationMessages(t *testing.T, f *FoodItem) map[string]string {
	t.Helper()
	err := FoodItemSchema.Validate(f)
	if err == nil {
		return nil
	}
	verr, ok := schema.AsValidationError(err)
	require.True(t, ok, "unexpected error type %T", err)
	return verr.Messages()
}

func TestFoodItemSchemaAcceptsFishFry(t *testing.T) {
	assert.NoError(t, FoodItemSchema.Validate(fishFry()))
}

func TestFoodItemSchemaRequiredFields(t *testing.T) {
	tests := []struct {
		path    string
		mutate  func(*FoodItem)
		message string
	}{
		{FieldName, func(f *FoodItem) { f.Name = "" }, "Path `name` is required."},
		{FieldDescription, func(f *FoodItem) { f.Description = "" }, "Path `description` is required."},
		{FieldCategory, func(f *FoodItem) { f.Category = "" }, "Path `category` is required."},
		{FieldRating, func(f *FoodItem) { f.Rating = nil }, "Please send rating"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := fishFry()
			tt.mutate(f)
			assert.Equal(t, map[string]string{tt.path: tt.message}, validationMessages(t, f))
		})
	}
}

func TestFoodItemSchemaPriceRange(t *testing.T) {
	tests := []struct {
		price   float64
		message string
	}{
		{5, "Why any item less than 10?"},
		{10, ""},
		{1000, ""},
		{1001, "more than 1000, any item should not sell"},
	}
	for _, tt := range tests {
		f := fishFry()
		f.Price = Float(tt.price)
		msgs := validationMessages(t, f)
		if tt.message == "" {
			assert.Nil(t, msgs, "price %v", tt.price)
			continue
		}
		assert.Equal(t, tt.message, msgs[FieldPrice], "price %v", tt.price)
	}
}

func TestFoodItemSchemaCategoryEnum(t *testing.T) {
	f := fishFry()
	f.Category = "Spicy"
	assert.Equal(t, map[string]string{FieldCategory: "Spicy is not supported"}, validationMessages(t, f))

	f.Category = CategoryVeg
	assert.Nil(t, validationMessages(t, f))
}

func TestFoodItemSchemaRatingRange(t *testing.T) {
	for rating, ok := range map[float64]bool{5.5: false, 5: true, 0: true, -0.1: false} {
		f := fishFry()
		f.Rating = Float(rating)
		msgs := validationMessages(t, f)
		if ok {
			assert.Nil(t, msgs, "rating %v", rating)
		} else {
			assert.Equal(t, "please send rating between 0 and 5", msgs[FieldRating], "rating %v", rating)
		}
	}
}

func TestFoodItemSchemaConditionalPrice(t *testing.T) {
	f := fishFry()
	f.Price = nil
	f.IsAvailable = Bool(false)
	assert.Nil(t, validationMessages(t, f))

	f.IsAvailable = nil
	assert.Nil(t, validationMessages(t, f))

	f.IsAvailable = Bool(true)
	assert.Equal(t, map[string]string{FieldPrice: "Path `price` is required."}, validationMessages(t, f))
}

func TestFoodItemSchemaAggregatesEveryViolation(t *testing.T) {
	f := &FoodItem{Price: Float(250), IsAvailable: Bool(true), Rating: Float(4.2), Ingredients: StringArray{"mutton"}}
	err := FoodItemSchema.Validate(f)
	verr, ok := schema.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{FieldName, FieldDescription, FieldCategory}, verr.Paths())
	assert.Equal(t, "FoodItem validation failed: name: Path `name` is required., description: Path `description` is required., category: Path `category` is required.", err.Error())
}
