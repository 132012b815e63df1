package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Outcome kinds returned by the Manager. Not-found is reported with
// types.ErrApplicationNotFound so that callers can match it with errors.Is no
// matter which layer produced it.
var (
	ErrDenied      = errors.New("access denied")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("record store unavailable")
	ErrIntegrity   = errors.New("data integrity violation")
)

// ValidationError reports the offending fields keyed by their form name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func integrity(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIntegrity, err)
}
