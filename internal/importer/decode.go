// Package importer reads food items from spreadsheets and documents and
// writes menu snapshots.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format is a supported file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FormatFromName picks the format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// record is the document shape of one food item.
type record struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	Price       *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty" yaml:"is_available,omitempty"`
	Rating      *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
}

func (r record) item() *model.FoodItem {
	ingredients := model.StringArray(r.Ingredients)
	if ingredients == nil {
		ingredients = model.StringArray{}
	}
	return &model.FoodItem{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		IsAvailable: r.IsAvailable,
		Rating:      r.Rating,
		Ingredients: ingredients,
	}
}

// Decode reads every food item in r. Values are not validated.
func Decode(r io.Reader, format Format) ([]*model.FoodItem, error) {
	switch format {
	case FormatXLSX:
		return decodeXLSX(r)
	case FormatYAML:
		var recs []record
		if err := yaml.NewDecoder(r).Decode(&recs); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return items(recs), nil
	case FormatJSON:
		var recs []record
		if err := json.NewDecoder(r).Decode(&recs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return items(recs), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func items(recs []record) []*model.FoodItem {
	out := make([]*model.FoodItem, len(recs))
	for i, r := range recs {
		out[i] = r.item()
	}
	return out
}

// columns maps accepted header names to field paths.
var columns = map[string]string{
	"name":         model.FieldName,
	"description":  model.FieldDescription,
	"category":     model.FieldCategory,
	"price":        model.FieldPrice,
	"is_available": model.FieldIsAvailable,
	"isavailable":  model.FieldIsAvailable,
	"available":    model.FieldIsAvailable,
	"rating":       model.FieldRating,
	"ingredients":  model.FieldIngredients,
}

// decodeXLSX reads the first sheet. The first row names the columns;
// ingredients are comma separated and blank cells leave a field unset.
func decodeXLSX(r io.Reader) ([]*model.FoodItem, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := xl.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("excel file has no header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		header[i] = columns[key]
	}

	var out []*model.FoodItem
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		item := &model.FoodItem{Ingredients: model.StringArray{}}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if err := setCell(item, header[i], strings.TrimSpace(cell)); err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func setCell(item *model.FoodItem, path, cell string) error {
	if cell == "" {
		return nil
	}
	switch path {
	case model.FieldName:
		item.Name = cell
	case model.FieldDescription:
		item.Description = cell
	case model.FieldCategory:
		item.Category = cell
	case model.FieldPrice, model.FieldRating:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q", path, cell)
		}
		if path == model.FieldPrice {
			item.Price = model.Float(v)
		} else {
			item.Rating = model.Float(v)
		}
	case model.FieldIsAvailable:
		v, err := parseBool(cell)
		if err != nil {
			return err
		}
		item.IsAvailable = model.Bool(v)
	case model.FieldIngredients:
		for _, part := range strings.Split(cell, ",") {
			if part = strings.TrimSpace(part); part != "" {
				item.Ingredients = append(item.Ingredients, part)
			}
		}
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid is_available %q", s)
	}
	return v, nil
}
