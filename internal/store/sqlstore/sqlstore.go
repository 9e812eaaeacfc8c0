// Package sqlstore implements store.Store on gorm, for PostgreSQL and
// SQLite. SQLite connections must come from OpenSQLite, which registers
// the REGEXP function used by $regex filters.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a gorm backed food item store.
type Store struct {
	db      *gorm.DB
	dialect dialect
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db, dialect: dialect{name: db.Dialector.Name()}}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.FoodItem{}); err != nil {
		return fmt.Errorf("failed to migrate food_items: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, item *model.FoodItem) error {
	if item.Ingredients == nil {
		item.Ingredients = model.StringArray{}
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to insert food item: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.FoodItem, error) {
	return first(s.db.WithContext(ctx), id)
}

func first(tx *gorm.DB, id string) (*model.FoodItem, error) {
	var item model.FoodItem
	err := tx.Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load food item %s: %w", id, err)
	}
	return &item, nil
}

func (s *Store) Find(ctx context.Context, q *query.Query) ([]*model.FoodItem, error) {
	if q == nil {
		q = query.New()
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.scoped(s.db.WithContext(ctx), q.Filter)
	if err != nil {
		return nil, err
	}
	if len(q.Projection) > 0 {
		cols := append([]string{model.FieldID}, q.Projection...)
		tx = tx.Select(dedupe(cols))
	}
	for _, sf := range q.Sort {
		tx = tx.Order(s.dialect.order(sf))
	}
	if q.Skip > 0 {
		tx = tx.Offset(int(q.Skip))
	}
	if q.Limit > 0 {
		tx = tx.Limit(int(q.Limit))
	}

	var items []model.FoodItem
	if err := tx.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query food items: %w", err)
	}
	out := make([]*model.FoodItem, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f query.Filter) (int64, error) {
	tx, err := s.scoped(s.db.WithContext(ctx), f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count food items: %w", err)
	}
	return n, nil
}

// Save writes every column of item except the creation time. gorm's own
// Save would insert a missing row, so the update is issued directly.
func (s *Store) Save(ctx context.Context, item *model.FoodItem) error {
	if item.Ingredients == nil {
		item.Ingredients = model.StringArray{}
	}
	res := s.db.WithContext(ctx).Model(item).Select("*").Omit(model.FieldID, model.FieldCreatedAt).Updates(item)
	if res.Error != nil {
		return fmt.Errorf("failed to save food item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetFields(ctx context.Context, id string, patch model.FoodItemPatch, returnNew bool) (*model.FoodItem, error) {
	var result *model.FoodItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil || current == nil {
			return err
		}
		before := current.Clone()

		if !patch.Empty() {
			if err := tx.Model(current).Updates(patch.Values()).Error; err != nil {
				return fmt.Errorf("failed to update food item %s: %w", id, err)
			}
		}
		if !returnNew {
			result = before
			return nil
		}
		result, err = first(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) Delete(ctx context.Context, id string) (*model.FoodItem, error) {
	var removed *model.FoodItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil || current == nil {
			return err
		}
		if err := tx.Delete(&model.FoodItem{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete food item %s: %w", id, err)
		}
		removed = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) scoped(tx *gorm.DB, f query.Filter) (*gorm.DB, error) {
	if err := query.Validate(f); err != nil {
		return nil, err
	}
	tx = tx.Model(&model.FoodItem{})
	where, args, err := s.dialect.where(f)
	if err != nil {
		return nil, err
	}
	if where != "" {
		tx = tx.Where(where, args...)
	}
	return tx, nil
}

func dedupe(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	out := cols[:0]
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
