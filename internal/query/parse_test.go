package query

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Filter
	}{
		{"empty", ``, nil},
		{"empty document", `{}`, nil},
		{"equality", `{"name": "Mango Pappu"}`, Eq("name", "Mango Pappu")},
		{
			"range",
			`{"price": {"$gt": 100, "$lte": 150}}`,
			And(Gt("price", 100.0), Lte("price", 150.0)),
		},
		{
			"membership",
			`{"ingredients": {"$in": ["chiken", "mango"]}}`,
			In("ingredients", "chiken", "mango"),
		},
		{
			"or",
			`{"$or": [{"rating": {"$gte": 4.5}}, {"ingredients": {"$in": ["chiken", "mutton"]}}]}`,
			Or(Gte("rating", 4.5), In("ingredients", "chiken", "mutton")),
		},
		{
			"regex",
			`{"name": {"$regex": "pappu$", "$options": "i"}}`,
			Regex("name", "pappu$", true),
		},
		{
			"several fields are sorted and anded",
			`{"is_available": true, "category": "Veg"}`,
			And(Eq("category", "Veg"), Eq("is_available", true)),
		},
		{
			"nor",
			`{"$nor": [{"category": "Veg"}]}`,
			Nor(Eq("category", "Veg")),
		},
		{"null matches missing values", `{"price": null}`, Eq("price", nil)},
		{"not null", `{"rating": {"$ne": null}}`, Ne("rating", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter([]byte(tt.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFilter(%s) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseFilterTimes(t *testing.T) {
	got, err := ParseFilter([]byte(`{"created_at": {"$gte": "2024-01-02T03:04:05Z"}}`))
	require.NoError(t, err)
	assert.Equal(t, Gte("created_at", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), got)
}

func TestParseFilterErrors(t *testing.T) {
	tests := map[string]error{
		`not json`:                                   ErrInvalidFilter,
		`{"colour": "red"}`:                          ErrUnknownField,
		`{"price": "cheap"}`:                         ErrInvalidFilter,
		`{"price": {"$between": [1, 2]}}`:            ErrInvalidFilter,
		`{"$where": "1"}`:                            ErrInvalidFilter,
		`{"$or": []}`:                                ErrInvalidFilter,
		`{"$or": [1]}`:                               ErrInvalidFilter,
		`{"name": {"$regex": 1}}`:                    ErrInvalidFilter,
		`{"name": {"$regex": "a", "$options": "x"}}`: ErrInvalidFilter,
		`{"name": {"$options": "i"}}`:                ErrInvalidFilter,
		`{"category": {"$in": "Veg"}}`:               ErrInvalidFilter,
		`{"ingredients": {"$gt": "a"}}`:              ErrInvalidFilter,
		`{"created_at": {"$gt": "yesterday"}}`:       ErrInvalidFilter,
		`{"price": {"$gt": null}}`:                   ErrInvalidFilter,
		`{"ingredients": null}`:                      ErrInvalidFilter,
	}
	for in, want := range tests {
		_, err := ParseFilter([]byte(in))
		assert.ErrorIs(t, err, want, in)
	}
}
