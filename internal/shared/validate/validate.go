// Package validate evaluates declarative rule lists and turns struct tag
// failures into readable messages.
package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"backend-trailhub/internal/shared/apperr"

	"github.com/go-playground/validator/v10"
)

// Rule checks one business rule and returns every violation it finds. An
// error means the rule could not be evaluated, not that the input is invalid.
type Rule[T any] struct {
	Name  string
	Check func(ctx context.Context, in T) ([]string, error)
}

// Category is a group of rules that are all evaluated together.
type Category[T any] []Rule[T]

// Run evaluates categories in order. Every rule of a category runs; if any of
// them reports a violation the remaining categories are skipped and all
// collected messages are returned as one ValidationError. A rule error aborts
// immediately and is returned unchanged.
func Run[T any](ctx context.Context, in T, categories ...Category[T]) error {
	for _, category := range categories {
		var messages []string
		for _, rule := range category {
			found, err := rule.Check(ctx, in)
			if err != nil {
				return fmt.Errorf("%s: %w", rule.Name, err)
			}
			messages = append(messages, found...)
		}
		if len(messages) > 0 {
			return apperr.Validation(messages...)
		}
	}
	return nil
}

// Pure adapts a rule that cannot fail to evaluate.
func Pure[T any](name string, check func(in T) []string) Rule[T] {
	return Rule[T]{Name: name, Check: func(_ context.Context, in T) ([]string, error) {
		return check(in), nil
	}}
}

// Structs wraps a go-playground validator that reports fields by their form
// tag name.
type Structs struct {
	v *validator.Validate
}

func NewStructs() *Structs {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Structs{v: v}
}

// Check validates in and returns one message per failing field, each prefixed
// with prefix (for example "TrailCoords[2] "). Fields named in skip are not
// reported, which lets callers drop fields that already failed to decode.
func (s *Structs) Check(prefix string, in any, skip ...string) []string {
	err := s.v.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{prefix + err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if slices.Contains(skip, fe.Field()) {
			continue
		}
		messages = append(messages, prefix+describe(fe))
	}
	return messages
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt", "min":
		return fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit(fe))
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", fe.Field(), fe.Param(), unit(fe))
	case "email":
		return fe.Field() + " must be a valid email address"
	case "uuid4", "uuid":
		return fe.Field() + " must be a valid id"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func unit(fe validator.FieldError) string {
	if fe.Kind() == reflect.String {
		return " characters"
	}
	return ""
}
