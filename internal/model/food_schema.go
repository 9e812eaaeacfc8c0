package model

import "github.com/pageza/homefoods/backend/internal/schema"

// FoodItemSchema holds the validation rules for food items.
var FoodItemSchema = schema.New[*FoodItem]("FoodItem").
	Add(FieldName, func(f *FoodItem) (any, bool) { return f.Name, f.Name != "" },
		schema.Required[*FoodItem](nil, ""),
	).
	Add(FieldDescription, func(f *FoodItem) (any, bool) { return f.Description, f.Description != "" },
		schema.Required[*FoodItem](nil, ""),
	).
	Add(FieldCategory, func(f *FoodItem) (any, bool) { return f.Category, f.Category != "" },
		schema.Required[*FoodItem](nil, ""),
		schema.Enum[*FoodItem](Categories, "{VALUE} is not supported"),
	).
	Add(FieldPrice, func(f *FoodItem) (any, bool) { return deref(f.Price), f.Price != nil },
		schema.Required((*FoodItem).Available, ""),
		schema.Min[*FoodItem](10, "Why any item less than 10?"),
		schema.Max[*FoodItem](1000, "more than 1000, any item should not sell"),
	).
	Add(FieldIsAvailable, func(f *FoodItem) (any, bool) { return derefBool(f.IsAvailable), f.IsAvailable != nil }).
	Add(FieldRating, func(f *FoodItem) (any, bool) { return deref(f.Rating), f.Rating != nil },
		schema.Required[*FoodItem](nil, "Please send rating"),
		schema.Custom[*FoodItem](func(v any) bool {
			r, ok := v.(float64)
			return ok && r >= 0 && r <= 5
		}, "please send rating between 0 and 5"),
	).
	Add(FieldIngredients, func(f *FoodItem) (any, bool) { return []string(f.Ingredients), f.Ingredients != nil })

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
