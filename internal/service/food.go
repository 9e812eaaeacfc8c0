package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pageza/homefoods/backend/internal/cache"
	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/schema"
	"github.com/pageza/homefoods/backend/internal/store"
)

// SetOptions control an atomic update.
type SetOptions struct {
	// ReturnNew returns the record as it is after the update instead of
	// before it.
	ReturnNew bool
	// RunValidators validates the updated paths before writing.
	RunValidators bool
}

// FoodService handles food item operations
type FoodService struct {
	store  store.Store
	schema *schema.Schema[*model.FoodItem]
	cache  cache.Cache
	logger *slog.Logger
}

// NewFoodService creates a new FoodService. A nil cache disables caching
// and a nil logger uses slog.Default.
func NewFoodService(st store.Store, c cache.Cache, logger *slog.Logger) *FoodService {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FoodService{
		store:  st,
		schema: model.FoodItemSchema,
		cache:  c,
		logger: logger,
	}
}

// Create validates item and persists it. On a validation failure nothing
// is written and the error is a *schema.ValidationError.
func (s *FoodService) Create(ctx context.Context, item *model.FoodItem) (*model.FoodItem, error) {
	if err := s.schema.Validate(item); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("food item created", "id", item.ID, "name", item.Name)
	return item, nil
}

// Get retrieves a food item by ID. It returns nil when there is none.
func (s *FoodService) Get(ctx context.Context, id string) (*model.FoodItem, error) {
	if item, ok, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn("cache read failed", "id", id, "error", err)
	} else if ok {
		return item, nil
	}

	version, verr := s.cache.Version(ctx, id)
	if verr != nil {
		s.logger.Warn("cache read failed", "id", id, "error", verr)
	}

	item, err := s.store.FindByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	if verr == nil {
		if err := s.cache.Set(ctx, item, version); err != nil {
			s.logger.Warn("cache write failed", "id", id, "error", err)
		}
	}
	return item, nil
}

// Find lists food items matching q.
func (s *FoodService) Find(ctx context.Context, q *query.Query) ([]*model.FoodItem, error) {
	if q == nil {
		q = query.New()
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.store.Find(ctx, q)
}

// Count returns the number of food items matching f.
func (s *FoodService) Count(ctx context.Context, f query.Filter) (int64, error) {
	if err := query.Validate(f); err != nil {
		return 0, err
	}
	return s.store.Count(ctx, f)
}

// Update loads the item, applies patch, validates the whole record and
// saves it. It returns nil when the item does not exist.
func (s *FoodService) Update(ctx context.Context, id string, patch model.FoodItemPatch) (*model.FoodItem, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}

	patch.Apply(item)
	if err := s.schema.Validate(item); err != nil {
		return nil, err
	}

	err = s.store.Save(ctx, item)
	s.invalidate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Set applies patch in a single atomic step. Only the patched paths are
// validated, and only when opts.RunValidators is set.
func (s *FoodService) Set(ctx context.Context, id string, patch model.FoodItemPatch, opts SetOptions) (*model.FoodItem, error) {
	if opts.RunValidators {
		candidate := &model.FoodItem{}
		patch.Apply(candidate)
		if err := s.schema.ValidatePaths(candidate, patch.Paths()); err != nil {
			return nil, err
		}
	}

	item, err := s.store.SetFields(ctx, id, patch, opts.ReturnNew)
	s.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a food item and returns it, or nil when it did not exist.
func (s *FoodService) Delete(ctx context.Context, id string) (*model.FoodItem, error) {
	item, err := s.store.Delete(ctx, id)
	s.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if item != nil {
		s.logger.Info("food item deleted", "id", id)
	}
	return item, nil
}

// ImportFailure describes a rejected import row.
type ImportFailure struct {
	Row    int               `json:"row"`
	Name   string            `json:"name,omitempty"`
	Errors map[string]string `json:"errors"`
}

// ImportReport summarises a bulk import.
type ImportReport struct {
	Inserted []*model.FoodItem `json:"inserted"`
	Failures []ImportFailure   `json:"failures"`
}

// Import validates every item on its own and inserts the valid ones. Rows
// are numbered from 1. A storage error stops the import and is returned
// together with the report so far.
func (s *FoodService) Import(ctx context.Context, items []*model.FoodItem) (*ImportReport, error) {
	report := &ImportReport{Inserted: []*model.FoodItem{}, Failures: []ImportFailure{}}
	for i, item := range items {
		if err := s.schema.Validate(item); err != nil {
			verr, ok := schema.AsValidationError(err)
			if !ok {
				return report, err
			}
			report.Failures = append(report.Failures, ImportFailure{Row: i + 1, Name: item.Name, Errors: verr.Messages()})
			continue
		}
		if err := s.store.Insert(ctx, item); err != nil {
			return report, fmt.Errorf("row %d: %w", i+1, err)
		}
		report.Inserted = append(report.Inserted, item)
	}
	s.logger.Info("food items imported", "inserted", len(report.Inserted), "rejected", len(report.Failures))
	return report, nil
}

// Ping checks the backing store.
func (s *FoodService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *FoodService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("cache invalidation failed", "id", id, "error", err)
	}
}
