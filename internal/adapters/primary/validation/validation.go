package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 1 << 20

var (
	structOnce sync.Once
	structV    *validator.Validate
)

func structValidator() *validator.Validate {
	structOnce.Do(func() {
		structV = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names.
		structV.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return structV
}

// Validator accumulates field errors for checks that struct tags cannot
// express.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// Struct runs the `validate` tags of s and returns *apperrors.ValidationErrors
// keyed by JSON field name, or nil.
func Struct(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewBadRequestError(err, "Invalid request")
	}

	out := apperrors.NewValidationErrors()
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Must be at most " + fe.Param()
	case "min":
		return "Must be at least " + fe.Param()
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "Must be a valid email address"
	default:
		return fmt.Sprintf("Failed %q validation", fe.Tag())
	}
}

// DecodeAndValidate decodes the JSON request body into T and runs its
// struct tags.
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	if err := Struct(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseIntQueryParam safely parses an integer query parameter
func ParseIntQueryParam(r *http.Request, key string, defaultValue int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
