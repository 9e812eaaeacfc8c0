package mongostore

import (
	"fmt"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// key maps a field path to its document key.
func key(field string) string {
	if field == model.FieldID {
		return "_id"
	}
	return field
}

// idValue converts hex identifiers to ObjectIDs. Anything else is kept and
// simply matches no document.
func idValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return s
	}
	return oid
}

func toBSON(f query.Filter) (bson.D, error) {
	switch n := f.(type) {
	case nil:
		return bson.D{}, nil
	case query.Cond:
		return condBSON(n)
	case query.Logical:
		subs := make(bson.A, 0, len(n.Filters))
		for _, sub := range n.Filters {
			d, err := toBSON(sub)
			if err != nil {
				return nil, err
			}
			subs = append(subs, d)
		}
		return bson.D{{Key: string(n.Op), Value: subs}}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", query.ErrInvalidFilter, f)
	}
}

func condBSON(c query.Cond) (bson.D, error) {
	if _, ok := model.Fields[c.Field]; !ok {
		return nil, fmt.Errorf("%w: %q", query.ErrUnknownField, c.Field)
	}

	value := c.Value
	switch c.Op {
	case query.OpRegex:
		p, ok := value.(query.Pattern)
		if !ok {
			return nil, fmt.Errorf("%w: $regex on %q needs a pattern", query.ErrInvalidFilter, c.Field)
		}
		opts := ""
		if p.CaseInsensitive {
			opts = "i"
		}
		value = primitive.Regex{Pattern: p.Expr, Options: opts}
	case query.OpIn, query.OpNin:
		vals, _ := value.([]any)
		arr := make(bson.A, len(vals))
		for i, v := range vals {
			if c.Field == model.FieldID {
				v = idValue(v)
			}
			arr[i] = v
		}
		value = arr
	default:
		if c.Field == model.FieldID {
			value = idValue(value)
		}
	}
	return bson.D{{Key: key(c.Field), Value: bson.D{{Key: string(c.Op), Value: value}}}}, nil
}

func projectionBSON(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		d = append(d, bson.E{Key: key(f), Value: 1})
	}
	return d
}

func sortBSON(fields []query.SortField) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, sf := range fields {
		dir := 1
		if sf.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: key(sf.Field), Value: dir})
	}
	return d
}

// setBSON renders patch as a $set document in schema order.
func setBSON(patch model.FoodItemPatch) bson.D {
	values := patch.Values()
	d := make(bson.D, 0, len(values)+1)
	for _, path := range patch.Paths() {
		v := values[path]
		if a, ok := v.(model.StringArray); ok {
			v = []string(a)
		}
		d = append(d, bson.E{Key: path, Value: v})
	}
	return d
}
