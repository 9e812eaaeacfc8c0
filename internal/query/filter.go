// Package query describes which food items to match and how to shape the
// result: filter expressions, projection, sort order and pagination.
//
// The types are storage-neutral; each store translates them into its own
// query language.
package query

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/pageza/homefoods/backend/internal/model"
)

var (
	// ErrUnknownField is returned when a filter, projection or sort names a
	// field the model does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidFilter is returned for malformed filter expressions.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Op is a comparison operator.
type Op string

const (
	OpEq    Op = "$eq"
	OpNe    Op = "$ne"
	OpGt    Op = "$gt"
	OpGte   Op = "$gte"
	OpLt    Op = "$lt"
	OpLte   Op = "$lte"
	OpIn    Op = "$in"
	OpNin   Op = "$nin"
	OpRegex Op = "$regex"
)

// LogicalOp combines filters.
type LogicalOp string

const (
	OpAnd LogicalOp = "$and"
	OpOr  LogicalOp = "$or"
	OpNor LogicalOp = "$nor"
)

// Filter is a node of a filter expression. A nil Filter matches everything.
type Filter interface {
	filter()
}

// Cond compares one field against a value. For OpIn and OpNin Value is a
// []any; for OpRegex it is a Pattern.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Logical combines sub-filters with $and, $or or $nor.
type Logical struct {
	Op      LogicalOp
	Filters []Filter
}

// Pattern is a regular expression in Go RE2 syntax.
type Pattern struct {
	Expr            string
	CaseInsensitive bool
}

func (Cond) filter()    {}
func (Logical) filter() {}

// Compile returns the Go regexp for the pattern.
func (p Pattern) Compile() (*regexp.Regexp, error) {
	expr := p.Expr
	if p.CaseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// Eq matches records whose field equals value.
func Eq(field string, value any) Filter { return Cond{Field: field, Op: OpEq, Value: value} }

// Ne matches records whose field does not equal value.
func Ne(field string, value any) Filter { return Cond{Field: field, Op: OpNe, Value: value} }

// Gt matches records whose field is greater than value.
func Gt(field string, value any) Filter { return Cond{Field: field, Op: OpGt, Value: value} }

// Gte matches records whose field is greater than or equal to value.
func Gte(field string, value any) Filter { return Cond{Field: field, Op: OpGte, Value: value} }

// Lt matches records whose field is less than value.
func Lt(field string, value any) Filter { return Cond{Field: field, Op: OpLt, Value: value} }

// Lte matches records whose field is less than or equal to value.
func Lte(field string, value any) Filter { return Cond{Field: field, Op: OpLte, Value: value} }

// In matches records whose field equals any of values.
func In(field string, values ...any) Filter { return Cond{Field: field, Op: OpIn, Value: values} }

// Nin matches records whose field equals none of values.
func Nin(field string, values ...any) Filter { return Cond{Field: field, Op: OpNin, Value: values} }

// Regex matches string fields against expr.
func Regex(field, expr string, caseInsensitive bool) Filter {
	return Cond{Field: field, Op: OpRegex, Value: Pattern{Expr: expr, CaseInsensitive: caseInsensitive}}
}

// And matches records matching every filter.
func And(filters ...Filter) Filter { return Logical{Op: OpAnd, Filters: filters} }

// Or matches records matching at least one filter.
func Or(filters ...Filter) Filter { return Logical{Op: OpOr, Filters: filters} }

// Nor matches records matching none of the filters.
func Nor(filters ...Filter) Filter { return Logical{Op: OpNor, Filters: filters} }

// Validate checks field names, operator arity and value shapes.
func Validate(f Filter) error {
	switch n := f.(type) {
	case nil:
		return nil
	case Cond:
		return validateCond(n)
	case Logical:
		if n.Op != OpAnd && n.Op != OpOr && n.Op != OpNor {
			return fmt.Errorf("%w: unknown logical operator %q", ErrInvalidFilter, n.Op)
		}
		if len(n.Filters) == 0 {
			return fmt.Errorf("%w: %s needs at least one expression", ErrInvalidFilter, n.Op)
		}
		for _, sub := range n.Filters {
			if err := Validate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported node %T", ErrInvalidFilter, f)
	}
}

func validateCond(c Cond) error {
	kind, ok := model.Fields[c.Field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
	}
	switch c.Op {
	case OpEq, OpNe:
	case OpGt, OpGte, OpLt, OpLte:
		if kind == model.KindStringArray || kind == model.KindBool {
			return fmt.Errorf("%w: %s is not supported on %q", ErrInvalidFilter, c.Op, c.Field)
		}
	case OpIn, OpNin:
		if _, ok := c.Value.([]any); !ok {
			return fmt.Errorf("%w: %s on %q needs an array", ErrInvalidFilter, c.Op, c.Field)
		}
	case OpRegex:
		p, ok := c.Value.(Pattern)
		if !ok {
			return fmt.Errorf("%w: $regex on %q needs a pattern", ErrInvalidFilter, c.Field)
		}
		if kind != model.KindString && kind != model.KindStringArray {
			return fmt.Errorf("%w: $regex is not supported on %q", ErrInvalidFilter, c.Field)
		}
		if _, err := p.Compile(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, c.Op)
	}
	return nil
}
