// Package validate wraps go-playground/validator and produces errors that
// unwrap to httpx.ErrValidation so handlers can render them as form messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
	return instance
}

// Error is a validation failure keyed by field name.
type Error struct {
	Problems map[string]string
}

// Field builds an Error for a single field.
func Field(name, message string) *Error {
	return &Error{Problems: map[string]string{name: message}}
}

func (e *Error) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return httpx.ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Problems))
	for k := range e.Problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Problems[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, httpx.ErrValidation).
func (e *Error) Unwrap() error { return httpx.ErrValidation }

// Fields implements httpx.FieldErrors.
func (e *Error) Fields() map[string]string { return e.Problems }

// Struct validates v using its `validate` tags.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	out := &Error{Problems: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Problems[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}
