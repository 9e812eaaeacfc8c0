package mongostore

import (
	"time"

	"github.com/pageza/homefoods/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// foodDocument is the stored shape of a food item. Absent optional fields
// are left out of the document.
type foodDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Price       *float64           `bson:"price,omitempty"`
	IsAvailable *bool              `bson:"is_available,omitempty"`
	Rating      *float64           `bson:"rating,omitempty"`
	Ingredients []string           `bson:"ingredients"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func fromModel(item *model.FoodItem) (*foodDocument, error) {
	doc := &foodDocument{
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price,
		IsAvailable: item.IsAvailable,
		Rating:      item.Rating,
		Ingredients: []string(item.Ingredients),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if doc.Ingredients == nil {
		doc.Ingredients = []string{}
	}
	if item.ID != "" {
		oid, err := primitive.ObjectIDFromHex(item.ID)
		if err != nil {
			return nil, err
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *foodDocument) toModel() *model.FoodItem {
	item := &model.FoodItem{
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       d.Price,
		IsAvailable: d.IsAvailable,
		Rating:      d.Rating,
		Ingredients: model.StringArray(d.Ingredients),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if !d.ID.IsZero() {
		item.ID = d.ID.Hex()
	}
	if item.Ingredients == nil {
		item.Ingredients = model.StringArray{}
	}
	return item
}
