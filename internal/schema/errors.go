package schema

import (
	"errors"
	"strings"
)

// FieldError is a single failed rule.
type FieldError struct {
	Path    string
	Kind    string
	Value   any
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ValidationError aggregates one FieldError per violated field, in schema
// order.
type ValidationError struct {
	Schema string
	Errors []*FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Path + ": " + fe.Message
	}
	return e.Schema + " validation failed: " + strings.Join(parts, ", ")
}

// Messages returns path -> message.
func (e *ValidationError) Messages() map[string]string {
	m := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		m[fe.Path] = fe.Message
	}
	return m
}

// Field returns the error recorded for path, or nil.
func (e *ValidationError) Field(path string) *FieldError {
	for _, fe := range e.Errors {
		if fe.Path == path {
			return fe
		}
	}
	return nil
}

// Paths returns the violated paths in schema order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		paths[i] = fe.Path
	}
	return paths
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
