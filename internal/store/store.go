// Package store defines the persistence contract for food items. Backends
// live in the sqlstore and mongostore subpackages.
package store

import (
	"context"
	"errors"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
)

// Drivers accepted by Open.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	// ErrUnsupportedDriver is returned for an unknown driver name.
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	// ErrNotFound is returned by Save when the record no longer exists.
	ErrNotFound = errors.New("food item not found")
)

// Store persists food items.
//
// Lookups by identifier return (nil, nil) when nothing matches, including
// when the identifier is not well formed for the backend.
type Store interface {
	// Insert assigns an identifier and timestamps, then persists item.
	Insert(ctx context.Context, item *model.FoodItem) error
	FindByID(ctx context.Context, id string) (*model.FoodItem, error)
	Find(ctx context.Context, q *query.Query) ([]*model.FoodItem, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
	// Save replaces an existing record with item. It returns ErrNotFound
	// when no record has item's identifier.
	Save(ctx context.Context, item *model.FoodItem) error
	// SetFields atomically applies patch to the record with id and returns
	// the record after the update when returnNew is set, before it
	// otherwise.
	SetFields(ctx context.Context, id string, patch model.FoodItemPatch, returnNew bool) (*model.FoodItem, error)
	// Delete removes the record with id and returns it.
	Delete(ctx context.Context, id string) (*model.FoodItem, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
