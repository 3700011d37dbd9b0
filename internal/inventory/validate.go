package inventory

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so errors read the same on
// the HTTP and CLI paths.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateFields trims text fields and checks the struct tags on
// domain.ItemFields.
func validateFields(fields domain.ItemFields) (domain.ItemFields, error) {
	fields.ProductName = strings.TrimSpace(fields.ProductName)
	fields.Category = strings.TrimSpace(fields.Category)
	fields.ExpiryDate = strings.TrimSpace(fields.ExpiryDate)

	return fields, ValidateStruct(fields)
}

// ValidateStruct runs the `validate` tags of v and returns the first failure
// as a *domain.ValidationError.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) *domain.ValidationError {
	reason := "is invalid"
	switch fe.Tag() {
	case "required":
		reason = "is required"
		if fe.Kind() == reflect.String {
			reason = "must not be empty"
		}
	case "min", "number":
		reason = "must be a non-negative integer"
	case "datetime":
		reason = "must be a YYYY-MM-DD date"
	}
	return &domain.ValidationError{Field: fe.Field(), Reason: reason}
}

// ParseCount parses a user-supplied quantity or threshold.
func ParseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	invalid := &domain.ValidationError{Field: field, Reason: "must be a non-negative integer"}
	if err := validate.Var(raw, "required,number"); err != nil {
		return 0, invalid
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid
	}
	return n, nil
}
