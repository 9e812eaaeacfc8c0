package model

// FoodItemPatch is a partial update. Nil fields are left untouched.
type FoodItemPatch struct {
	Name        *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    *string   `json:"category,omitempty" yaml:"category,omitempty"`
	Price       *float64  `json:"price,omitempty" yaml:"price,omitempty"`
	IsAvailable *bool     `json:"is_available,omitempty" yaml:"is_available,omitempty"`
	Rating      *float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Ingredients *[]string `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`
}

// Empty reports whether the patch sets no field.
func (p FoodItemPatch) Empty() bool {
	return len(p.Paths()) == 0
}

// Paths returns the field paths the patch sets, in schema order.
func (p FoodItemPatch) Paths() []string {
	var paths []string
	if p.Name != nil {
		paths = append(paths, FieldName)
	}
	if p.Description != nil {
		paths = append(paths, FieldDescription)
	}
	if p.Category != nil {
		paths = append(paths, FieldCategory)
	}
	if p.Price != nil {
		paths = append(paths, FieldPrice)
	}
	if p.IsAvailable != nil {
		paths = append(paths, FieldIsAvailable)
	}
	if p.Rating != nil {
		paths = append(paths, FieldRating)
	}
	if p.Ingredients != nil {
		paths = append(paths, FieldIngredients)
	}
	return paths
}

// Values returns path -> value for every set field. Values are the
// dereferenced Go values, ingredients as a StringArray.
func (p FoodItemPatch) Values() map[string]any {
	values := make(map[string]any)
	if p.Name != nil {
		values[FieldName] = *p.Name
	}
	if p.Description != nil {
		values[FieldDescription] = *p.Description
	}
	if p.Category != nil {
		values[FieldCategory] = *p.Category
	}
	if p.Price != nil {
		values[FieldPrice] = *p.Price
	}
	if p.IsAvailable != nil {
		values[FieldIsAvailable] = *p.IsAvailable
	}
	if p.Rating != nil {
		values[FieldRating] = *p.Rating
	}
	if p.Ingredients != nil {
		values[FieldIngredients] = StringArray(append([]string{}, (*p.Ingredients)...))
	}
	return values
}

// Apply copies the set fields onto f.
func (p FoodItemPatch) Apply(f *FoodItem) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Price != nil {
		f.Price = Float(*p.Price)
	}
	if p.IsAvailable != nil {
		f.IsAvailable = Bool(*p.IsAvailable)
	}
	if p.Rating != nil {
		f.Rating = Float(*p.Rating)
	}
	if p.Ingredients != nil {
		f.Ingredients = append(StringArray{}, (*p.Ingredients)...)
	}
}
