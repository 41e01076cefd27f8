package world

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/worldloom/worldloom/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("element_type", func(fl validator.FieldLevel) bool {
			return ElementType(fl.Field().String()).Valid()
		})
	})
	return validate
}

// Validate checks struct constraints and element id uniqueness.
// Relationships pointing at unknown elements are allowed; the engine drops
// them at layout time.
func (w *World) Validate() error {
	if err := validatorInstance().Struct(w); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWorld, err, "world %q: %s", w.ID, describe(err))
	}
	seen := make(map[string]struct{}, len(w.Elements))
	for _, e := range w.Elements {
		if _, dup := seen[e.ID]; dup {
			return errors.New(errors.ErrCodeInvalidWorld, "world %q: duplicate element id %q", w.ID, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// describe flattens validator errors into one readable line.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Namespace()))
		case "element_type":
			parts = append(parts, fmt.Sprintf("%s: unknown element type %q", fe.Namespace(), fe.Value()))
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must be between 1 and 10, got %v", fe.Namespace(), fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
