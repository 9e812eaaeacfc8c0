package main

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/schema"
	"github.com/pageza/homefoods/backend/internal/service"
)

// walkthroughCmd saves a dish, queries the menu, then updates, sets and
// deletes the saved dish, printing every result.
func walkthroughCmd() *Command {
	fs := flag.NewFlagSet("walkthrough", flag.ContinueOnError)
	keep := fs.Bool("keep", false, "Leave the saved dish in place")

	return &Command{
		Flags: fs,
		Usage: "walkthrough [flags]",
		Short: "Save, query, update, set and delete a sample dish",
		Exec: func(ctx context.Context, e *env, _ []string) error {
			foods, err := e.open(ctx, true)
			if err != nil {
				return err
			}

			saved, err := saveFoodItem(ctx, e, foods)
			if err != nil || saved == nil {
				return err
			}
			if err := getFoodItems(ctx, e, foods); err != nil {
				return err
			}
			if err := updateFoodItem(ctx, e, foods, saved.ID, "Mudha Pappu", 70); err != nil {
				return err
			}
			if err := setFoodItem(ctx, e, foods, saved.ID, "Pappu Curry", 60); err != nil {
				return err
			}
			if *keep {
				return nil
			}
			return deleteFoodItem(ctx, e, foods, saved.ID)
		},
	}
}

// saveFoodItem returns nil without an error when validation fails; the
// messages are printed one per line.
func saveFoodItem(ctx context.Context, e *env, foods *service.FoodService) (*model.FoodItem, error) {
	item := &model.FoodItem{
		Name:        "Fish Fry",
		Description: "Delicious Food",
		Category:    model.CategoryNonVeg,
		Price:       model.Float(200),
		IsAvailable: model.Bool(true),
		Rating:      model.Float(4.5),
		Ingredients: model.StringArray{"mutton", "basmathi rice", "spices"},
	}
	result, err := foods.Create(ctx, item)
	if verr, ok := schema.AsValidationError(err); ok {
		for _, fe := range verr.Errors {
			fmt.Fprintln(e.out, fe.Message)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, e.printJSON(result)
}

func getFoodItems(ctx context.Context, e *env, foods *service.FoodService) error {
	items, err := foods.Find(ctx, query.New().Select("name price").SkipN(1))
	if err != nil {
		return err
	}
	return e.printJSON(items)
}

func updateFoodItem(ctx context.Context, e *env, foods *service.FoodService, id, name string, price float64) error {
	result, err := foods.Update(ctx, id, model.FoodItemPatch{Name: model.String(name), Price: model.Float(price)})
	if verr, ok := schema.AsValidationError(err); ok {
		for _, fe := range verr.Errors {
			fmt.Fprintln(e.out, fe.Message)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(e.out, "Food Item is not present")
		return nil
	}
	return e.printJSON(result)
}

func setFoodItem(ctx context.Context, e *env, foods *service.FoodService, id, name string, price float64) error {
	result, err := foods.Set(ctx, id, model.FoodItemPatch{Name: model.String(name), Price: model.Float(price)}, service.SetOptions{ReturnNew: true})
	if err != nil {
		return err
	}
	return e.printJSON(result)
}

func deleteFoodItem(ctx context.Context, e *env, foods *service.FoodService, id string) error {
	result, err := foods.Delete(ctx, id)
	if err != nil {
		return err
	}
	return e.printJSON(result)
}
