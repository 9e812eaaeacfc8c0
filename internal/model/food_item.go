package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Food categories accepted by the schema.
const (
	CategoryVeg    = "Veg"
	CategoryNonVeg = "Non Veg"
)

// Categories lists every accepted category in declaration order.
var Categories = []string{CategoryVeg, CategoryNonVeg}

// Field paths of a food item, as they appear on the wire and in filters.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldIsAvailable = "is_available"
	FieldRating      = "rating"
	FieldIngredients = "ingredients"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// FieldKind describes the storage shape of a field for query translation.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindStringArray
	KindTime
)

// Fields maps every queryable path to its kind.
var Fields = map[string]FieldKind{
	FieldID:          KindString,
	FieldName:        KindString,
	FieldDescription: KindString,
	FieldCategory:    KindString,
	FieldPrice:       KindNumber,
	FieldIsAvailable: KindBool,
	FieldRating:      KindNumber,
	FieldIngredients: KindStringArray,
	FieldCreatedAt:   KindTime,
	FieldUpdatedAt:   KindTime,
}

// StringArray is a string slice stored as a JSON array column
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}

	return json.Unmarshal(bytes, a)
}

// FoodItem is one dish on the menu.
//
// Price, IsAvailable and Rating are pointers because their presence matters
// to validation: a rating of 0 is valid, a missing rating is not.
type FoodItem struct {
	ID          string      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Name        string      `gorm:"size:255;index" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Category    string      `gorm:"size:50;index" json:"category"`
	Price       *float64    `json:"price,omitempty"`
	IsAvailable *bool       `json:"is_available,omitempty"`
	Rating      *float64    `json:"rating,omitempty"`
	Ingredients StringArray `gorm:"type:text;not null;default:'[]'" json:"ingredients"`
}

// TableName returns the table name for the FoodItem model
func (FoodItem) TableName() string {
	return "food_items"
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (f *FoodItem) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Clone returns a deep copy of the item.
func (f *FoodItem) Clone() *FoodItem {
	if f == nil {
		return nil
	}
	c := *f
	if f.Price != nil {
		c.Price = Float(*f.Price)
	}
	if f.IsAvailable != nil {
		c.IsAvailable = Bool(*f.IsAvailable)
	}
	if f.Rating != nil {
		c.Rating = Float(*f.Rating)
	}
	if f.Ingredients != nil {
		c.Ingredients = append(StringArray{}, f.Ingredients...)
	}
	return &c
}

// Available reports whether the item is marked as available.
func (f *FoodItem) Available() bool {
	return f.IsAvailable != nil && *f.IsAvailable
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
