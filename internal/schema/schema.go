// Package schema declares per-field validation rules for records and checks
// candidate records against them.
//
// A Schema is an ordered list of fields. Each field owns an ordered list of
// validators; the first failing validator of a field produces that field's
// message, and every field is always evaluated, so a ValidationError carries
// one message per violated field.
package schema

import (
	"fmt"
	"strings"
)

// Validator kinds reported on FieldError.
const (
	KindRequired    = "required"
	KindMin         = "min"
	KindMax         = "max"
	KindEnum        = "enum"
	KindUserDefined = "user defined"
)

// Validator is one rule on a field. Check receives the field value (never
// called for an absent optional field) and the whole record.
type Validator[T any] struct {
	Kind    string
	Check   func(value any, doc T) bool
	Message string

	// required is evaluated before presence; nil means always required.
	required func(doc T) bool
	isReq    bool
	params   map[string]string
}

// Field describes one path of a record.
type Field[T any] struct {
	Path       string
	Get        func(doc T) (value any, present bool)
	Validators []Validator[T]
}

// Schema is a named, ordered set of fields.
type Schema[T any] struct {
	Name   string
	Fields []Field[T]
}

// New creates an empty schema for records of type T.
func New[T any](name string) *Schema[T] {
	return &Schema[T]{Name: name}
}

// Add appends a field and returns the schema for chaining.
func (s *Schema[T]) Add(path string, get func(doc T) (any, bool), validators ...Validator[T]) *Schema[T] {
	s.Fields = append(s.Fields, Field[T]{Path: path, Get: get, Validators: validators})
	return s
}

// Paths returns the declared field paths in order.
func (s *Schema[T]) Paths() []string {
	paths := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		paths[i] = f.Path
	}
	return paths
}

// Validate checks doc against every field. It returns nil or a
// *ValidationError.
func (s *Schema[T]) Validate(doc T) error {
	return s.validate(doc, nil)
}

// ValidatePaths checks only the named paths; other fields are ignored even
// when they are invalid.
func (s *Schema[T]) ValidatePaths(doc T, paths []string) error {
	only := make(map[string]bool, len(paths))
	for _, p := range paths {
		only[p] = true
	}
	return s.validate(doc, only)
}

func (s *Schema[T]) validate(doc T, only map[string]bool) error {
	verr := &ValidationError{Schema: s.Name}
	for _, field := range s.Fields {
		if only != nil && !only[field.Path] {
			continue
		}
		if fe := field.check(doc); fe != nil {
			verr.Errors = append(verr.Errors, fe)
		}
	}
	if len(verr.Errors) == 0 {
		return nil
	}
	return verr
}

func (f Field[T]) check(doc T) *FieldError {
	value, present := f.Get(doc)

	for _, v := range f.Validators {
		if !v.isReq {
			continue
		}
		if v.required != nil && !v.required(doc) {
			continue
		}
		if !present {
			return f.fail(v, nil)
		}
	}
	if !present {
		return nil
	}

	for _, v := range f.Validators {
		if v.isReq || v.Check == nil {
			continue
		}
		if !v.Check(value, doc) {
			return f.fail(v, value)
		}
	}
	return nil
}

func (f Field[T]) fail(v Validator[T], value any) *FieldError {
	return &FieldError{
		Path:    f.Path,
		Kind:    v.Kind,
		Value:   value,
		Message: render(v.Message, f.Path, value, v.params),
	}
}

func render(tmpl, path string, value any, params map[string]string) string {
	pairs := []string{"{PATH}", path, "{VALUE}", formatValue(value)}
	for k, p := range params {
		pairs = append(pairs, "{"+k+"}", p)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
