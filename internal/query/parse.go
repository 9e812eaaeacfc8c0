package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pageza/homefoods/backend/internal/model"
)

// ParseFilter decodes a MongoDB-style JSON filter such as
//
//	{"price": {"$gt": 100, "$lte": 150}, "$or": [{"rating": {"$gte": 4.5}}]}
//
// into a Filter. An empty document yields a nil Filter.
func ParseFilter(data []byte) (Filter, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	f, err := parseDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

func parseDocument(doc map[string]any) (Filter, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var filters []Filter
	for _, k := range keys {
		v := doc[k]
		switch LogicalOp(k) {
		case OpAnd, OpOr, OpNor:
			f, err := parseLogical(LogicalOp(k), v)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
			continue
		}
		if strings.HasPrefix(k, "$") {
			return nil, fmt.Errorf("%w: unknown top-level operator %q", ErrInvalidFilter, k)
		}
		fs, err := parseField(k, v)
		if err != nil {
			return nil, err
		}
		filters = append(filters, fs...)
	}

	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return And(filters...), nil
	}
}

func parseLogical(op LogicalOp, v any) (Filter, error) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: %s needs a non-empty array", ErrInvalidFilter, op)
	}
	subs := make([]Filter, 0, len(items))
	for _, item := range items {
		doc, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s entries must be objects", ErrInvalidFilter, op)
		}
		f, err := parseDocument(doc)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("%w: empty expression in %s", ErrInvalidFilter, op)
		}
		subs = append(subs, f)
	}
	return Logical{Op: op, Filters: subs}, nil
}

func parseField(field string, v any) ([]Filter, error) {
	kind, ok := model.Fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	ops, isOps := v.(map[string]any)
	if !isOps || !allOperators(ops) {
		val, err := nullable(kind, v)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", field, err)
		}
		return []Filter{Eq(field, val)}, nil
	}

	names := make([]string, 0, len(ops))
	for k := range ops {
		names = append(names, k)
	}
	sort.Strings(names)

	var out []Filter
	for _, name := range names {
		raw := ops[name]
		switch Op(name) {
		case OpEq, OpNe:
			val, err := nullable(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", field, err)
			}
			out = append(out, Cond{Field: field, Op: Op(name), Value: val})
		case OpGt, OpGte, OpLt, OpLte:
			val, err := scalar(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", field, err)
			}
			out = append(out, Cond{Field: field, Op: Op(name), Value: val})
		case OpIn, OpNin:
			items, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s on %q needs an array", ErrInvalidFilter, name, field)
			}
			vals := make([]any, len(items))
			for i, item := range items {
				val, err := scalar(kind, item)
				if err != nil {
					return nil, fmt.Errorf("%q: %w", field, err)
				}
				vals[i] = val
			}
			out = append(out, Cond{Field: field, Op: Op(name), Value: vals})
		case OpRegex:
			expr, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: $regex on %q needs a string", ErrInvalidFilter, field)
			}
			options, _ := ops["$options"].(string)
			if strings.Trim(options, "i") != "" {
				return nil, fmt.Errorf("%w: unsupported $options %q", ErrInvalidFilter, options)
			}
			out = append(out, Regex(field, expr, options != ""))
		case "$options":
			if _, ok := ops["$regex"]; !ok {
				return nil, fmt.Errorf("%w: $options without $regex on %q", ErrInvalidFilter, field)
			}
		default:
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, name)
		}
	}
	return out, nil
}

func allOperators(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

// nullable is scalar that also lets null through, matching records where
// the field is missing. Array fields are never missing.
func nullable(kind model.FieldKind, v any) (any, error) {
	if v == nil && kind != model.KindStringArray {
		return nil, nil
	}
	return scalar(kind, v)
}

// scalar checks a decoded JSON value against the field kind. Array fields
// compare element-wise, so they take string operands.
func scalar(kind model.FieldKind, v any) (any, error) {
	switch kind {
	case model.KindString, model.KindStringArray:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case model.KindNumber:
		if n, ok := v.(float64); ok {
			return n, nil
		}
	case model.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case model.KindTime:
		if s, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected value %v (%T)", ErrInvalidFilter, v, v)
}
