package query

import (
	"fmt"
	"strings"

	"github.com/pageza/homefoods/backend/internal/model"
)

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Query is a filter plus result shaping. The zero value returns every record
// in storage order.
type Query struct {
	Filter     Filter
	Projection []string
	Sort       []SortField
	Skip       int64
	Limit      int64
}

// New starts an empty query.
func New() *Query {
	return &Query{}
}

// Where ANDs f onto the current filter.
func (q *Query) Where(f Filter) *Query {
	switch {
	case q.Filter == nil:
		q.Filter = f
	default:
		if l, ok := q.Filter.(Logical); ok && l.Op == OpAnd {
			l.Filters = append(append([]Filter{}, l.Filters...), f)
			q.Filter = l
		} else {
			q.Filter = And(q.Filter, f)
		}
	}
	return q
}

// Or ORs the given filters and ANDs the result onto the current filter.
func (q *Query) Or(filters ...Filter) *Query {
	return q.Where(Or(filters...))
}

// Select sets the projection from a space separated field list such as
// "name price". The identifier is always returned.
func (q *Query) Select(fields string) *Query {
	q.Projection = append(q.Projection, strings.Fields(fields)...)
	return q
}

// SortBy parses a sort spec such as "-price name": a leading '-' sorts
// descending.
func (q *Query) SortBy(spec string) *Query {
	q.Sort = append(q.Sort, ParseSort(spec)...)
	return q
}

// SkipN skips the first n matches.
func (q *Query) SkipN(n int64) *Query {
	q.Skip = n
	return q
}

// LimitN caps the number of matches returned. Zero means no limit.
func (q *Query) LimitN(n int64) *Query {
	q.Limit = n
	return q
}

// ParseSort parses "-price name" into sort fields.
func ParseSort(spec string) []SortField {
	var out []SortField
	for _, tok := range strings.Fields(spec) {
		if strings.HasPrefix(tok, "-") {
			out = append(out, SortField{Field: tok[1:], Desc: true})
			continue
		}
		out = append(out, SortField{Field: strings.TrimPrefix(tok, "+")})
	}
	return out
}

// Validate checks the filter and every field named by the projection and
// sort.
func (q *Query) Validate() error {
	if err := Validate(q.Filter); err != nil {
		return err
	}
	for _, f := range q.Projection {
		if _, ok := model.Fields[f]; !ok {
			return fmt.Errorf("%w: %q in projection", ErrUnknownField, f)
		}
	}
	for _, s := range q.Sort {
		if _, ok := model.Fields[s.Field]; !ok {
			return fmt.Errorf("%w: %q in sort", ErrUnknownField, s.Field)
		}
	}
	if q.Skip < 0 || q.Limit < 0 {
		return fmt.Errorf("%w: skip and limit must not be negative", ErrInvalidFilter)
	}
	return nil
}
