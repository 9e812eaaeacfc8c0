package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Uploader stores a snapshot remotely.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
}

var contentTypes = map[Format]string{
	FormatJSON: "application/json",
	FormatYAML: "application/yaml",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Encode writes items to w. JSON and YAML snapshots carry the stored
// identifiers and timestamps; spreadsheets carry the importable columns
// only.
func Encode(w io.Writer, items []*model.FoodItem, format Format) error {
	if items == nil {
		items = []*model.FoodItem{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(snapshot(items)); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return nil
	case FormatXLSX:
		return encodeXLSX(w, items)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// yamlItem mirrors the JSON shape of a stored item.
type yamlItem struct {
	ID     string `yaml:"id"`
	record `yaml:",inline"`
}

func snapshot(items []*model.FoodItem) []yamlItem {
	out := make([]yamlItem, len(items))
	for i, item := range items {
		out[i] = yamlItem{
			ID: item.ID,
			record: record{
				Name:        item.Name,
				Description: item.Description,
				Category:    item.Category,
				Price:       item.Price,
				IsAvailable: item.IsAvailable,
				Rating:      item.Rating,
				Ingredients: []string(item.Ingredients),
			},
		}
	}
	return out
}

var xlsxHeader = []any{"name", "description", "category", "price", "is_available", "rating", "ingredients"}

func encodeXLSX(w io.Writer, items []*model.FoodItem) error {
	xl := excelize.NewFile()
	defer xl.Close()
	sheet := xl.GetSheetName(0)

	if err := xl.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return err
	}
	for i, item := range items {
		row := []any{
			item.Name,
			item.Description,
			item.Category,
			optionalFloat(item.Price),
			optionalBool(item.IsAvailable),
			optionalFloat(item.Rating),
			strings.Join(item.Ingredients, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return xl.Write(w)
}

func optionalFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func optionalBool(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

// WriteFile replaces path with a snapshot of items in the format its
// extension names. Readers never observe a partial file.
func WriteFile(path string, items []*model.FoodItem) error {
	format, err := FormatFromName(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, items, format); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Publish uploads a snapshot of items under key.
func Publish(ctx context.Context, up Uploader, key string, items []*model.FoodItem) error {
	format, err := FormatFromName(key)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, items, format); err != nil {
		return err
	}
	if err := up.Upload(ctx, key, contentTypes[format], &buf); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
