package schema

import (
	"slices"
	"strconv"
)

// Default messages, matching the wording users of document mappers expect.
const (
	DefaultRequiredMessage    = "Path `{PATH}` is required."
	DefaultMinMessage         = "Path `{PATH}` ({VALUE}) is less than minimum allowed value ({MIN})."
	DefaultMaxMessage         = "Path `{PATH}` ({VALUE}) is more than maximum allowed value ({MAX})."
	DefaultEnumMessage        = "`{VALUE}` is not a valid enum value for path `{PATH}`."
	DefaultUserDefinedMessage = "Validator failed for path `{PATH}` with value `{VALUE}`"
)

// Required marks a field as required. When when is non-nil the field is
// required only if when(doc) returns true. An empty message selects the
// default.
func Required[T any](when func(doc T) bool, message string) Validator[T] {
	if message == "" {
		message = DefaultRequiredMessage
	}
	return Validator[T]{Kind: KindRequired, Message: message, required: when, isReq: true}
}

// Min rejects numbers below min.
func Min[T any](min float64, message string) Validator[T] {
	if message == "" {
		message = DefaultMinMessage
	}
	return Validator[T]{
		Kind:    KindMin,
		Message: message,
		Check: func(value any, _ T) bool {
			n, ok := number(value)
			return ok && n >= min
		},
		params: map[string]string{"MIN": strconv.FormatFloat(min, 'f', -1, 64)},
	}
}

// Max rejects numbers above max.
func Max[T any](max float64, message string) Validator[T] {
	if message == "" {
		message = DefaultMaxMessage
	}
	return Validator[T]{
		Kind:    KindMax,
		Message: message,
		Check: func(value any, _ T) bool {
			n, ok := number(value)
			return ok && n <= max
		},
		params: map[string]string{"MAX": strconv.FormatFloat(max, 'f', -1, 64)},
	}
}

// Enum rejects strings outside values.
func Enum[T any](values []string, message string) Validator[T] {
	if message == "" {
		message = DefaultEnumMessage
	}
	allowed := slices.Clone(values)
	return Validator[T]{
		Kind:    KindEnum,
		Message: message,
		Check: func(value any, _ T) bool {
			s, ok := value.(string)
			return ok && slices.Contains(allowed, s)
		},
	}
}

// Custom wraps a boolean predicate over the field value.
func Custom[T any](check func(value any) bool, message string) Validator[T] {
	if message == "" {
		message = DefaultUserDefinedMessage
	}
	return Validator[T]{
		Kind:    KindUserDefined,
		Message: message,
		Check:   func(value any, _ T) bool { return check(value) },
	}
}

func number(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
