package sqlstore

import (
	"fmt"
	"strings"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"gorm.io/gorm/clause"
)

// dialect knows the SQL spelling differences between PostgreSQL and SQLite.
type dialect struct {
	name string
}

func (d dialect) regex(column string, p query.Pattern) (string, any) {
	if d.name == "postgres" {
		if p.CaseInsensitive {
			return column + " ~* ?", p.Expr
		}
		return column + " ~ ?", p.Expr
	}
	expr := p.Expr
	if p.CaseInsensitive {
		expr = "(?i)" + expr
	}
	return column + " REGEXP ?", expr
}

// order sorts missing values before present ones, descending after. That
// is SQLite's default; PostgreSQL needs it spelled out.
func (d dialect) order(sf query.SortField) any {
	if d.name != "postgres" {
		return clause.OrderByColumn{Column: clause.Column{Name: sf.Field}, Desc: sf.Desc}
	}
	if sf.Desc {
		return "food_items." + sf.Field + " DESC NULLS LAST"
	}
	return "food_items." + sf.Field + " ASC NULLS FIRST"
}

// elements wraps cond, written against the column "elem.value", in an
// EXISTS over the JSON array column.
func (d dialect) elements(column, cond string) string {
	if d.name == "postgres" {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s::jsonb) AS elem(value) WHERE %s)", column, cond)
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) AS elem WHERE %s)", column, cond)
}

// where renders f as a SQL condition with ? placeholders. A nil filter
// renders as the empty string.
func (d dialect) where(f query.Filter) (string, []any, error) {
	switch n := f.(type) {
	case nil:
		return "", nil, nil
	case query.Cond:
		return d.cond(n)
	case query.Logical:
		parts := make([]string, 0, len(n.Filters))
		var args []any
		for _, sub := range n.Filters {
			sql, subArgs, err := d.where(sub)
			if err != nil {
				return "", nil, err
			}
			// A comparison against NULL is unknown; $nor treats it as no match.
			if n.Op == query.OpNor {
				sql = "COALESCE((" + sql + "), FALSE)"
			}
			parts = append(parts, "("+sql+")")
			args = append(args, subArgs...)
		}
		switch n.Op {
		case query.OpAnd:
			return strings.Join(parts, " AND "), args, nil
		case query.OpOr:
			return strings.Join(parts, " OR "), args, nil
		case query.OpNor:
			return "NOT (" + strings.Join(parts, " OR ") + ")", args, nil
		}
		return "", nil, fmt.Errorf("%w: unknown logical operator %q", query.ErrInvalidFilter, n.Op)
	default:
		return "", nil, fmt.Errorf("%w: unsupported node %T", query.ErrInvalidFilter, f)
	}
}

func (d dialect) cond(c query.Cond) (string, []any, error) {
	kind, ok := model.Fields[c.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", query.ErrUnknownField, c.Field)
	}
	column := "food_items." + c.Field

	if kind == model.KindStringArray {
		return d.arrayCond(column, c)
	}

	switch c.Op {
	case query.OpEq:
		if c.Value == nil {
			return column + " IS NULL", nil, nil
		}
		return column + " = ?", []any{c.Value}, nil
	case query.OpNe:
		// Absent values do not equal anything.
		if c.Value == nil {
			return column + " IS NOT NULL", nil, nil
		}
		return "(" + column + " <> ? OR " + column + " IS NULL)", []any{c.Value}, nil
	case query.OpGt:
		return column + " > ?", []any{c.Value}, nil
	case query.OpGte:
		return column + " >= ?", []any{c.Value}, nil
	case query.OpLt:
		return column + " < ?", []any{c.Value}, nil
	case query.OpLte:
		return column + " <= ?", []any{c.Value}, nil
	case query.OpIn:
		vals, _ := c.Value.([]any)
		if len(vals) == 0 {
			return "1 = 0", nil, nil
		}
		return column + " IN ?", []any{vals}, nil
	case query.OpNin:
		vals, _ := c.Value.([]any)
		if len(vals) == 0 {
			return "1 = 1", nil, nil
		}
		return "(" + column + " NOT IN ? OR " + column + " IS NULL)", []any{vals}, nil
	case query.OpRegex:
		p, ok := c.Value.(query.Pattern)
		if !ok {
			return "", nil, fmt.Errorf("%w: $regex on %q needs a pattern", query.ErrInvalidFilter, c.Field)
		}
		sql, arg := d.regex(column, p)
		return sql, []any{arg}, nil
	}
	return "", nil, fmt.Errorf("%w: unknown operator %q", query.ErrInvalidFilter, c.Op)
}

// arrayCond matches element-wise: a record matches $eq when any element
// equals the value and $ne when none does.
func (d dialect) arrayCond(column string, c query.Cond) (string, []any, error) {
	switch c.Op {
	case query.OpEq:
		return d.elements(column, "elem.value = ?"), []any{c.Value}, nil
	case query.OpNe:
		return "NOT " + d.elements(column, "elem.value = ?"), []any{c.Value}, nil
	case query.OpIn:
		vals, _ := c.Value.([]any)
		if len(vals) == 0 {
			return "1 = 0", nil, nil
		}
		return d.elements(column, "elem.value IN ?"), []any{vals}, nil
	case query.OpNin:
		vals, _ := c.Value.([]any)
		if len(vals) == 0 {
			return "1 = 1", nil, nil
		}
		return "NOT " + d.elements(column, "elem.value IN ?"), []any{vals}, nil
	case query.OpRegex:
		p, ok := c.Value.(query.Pattern)
		if !ok {
			return "", nil, fmt.Errorf("%w: $regex on %q needs a pattern", query.ErrInvalidFilter, c.Field)
		}
		sql, arg := d.regex("elem.value", p)
		return d.elements(column, sql), []any{arg}, nil
	}
	return "", nil, fmt.Errorf("%w: %s is not supported on %q", query.ErrInvalidFilter, c.Op, c.Field)
}
