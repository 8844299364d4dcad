// Package validation wraps go-playground/validator with the tags and error
// translation shared by every domain service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Field builds a single-field failure for cross-field checks.
func Field(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

type Validator struct {
	validate *validator.Validate
}

func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("hhmm", validateClock); err != nil {
		return nil, fmt.Errorf("register hhmm: %w", err)
	}
	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		return nil, fmt.Errorf("register booking_status: %w", err)
	}
	return &Validator{validate: v}, nil
}

// MustNew is New for wiring code, where a registration failure is a
// programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

func validateClock(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return model.BookingStatus(fl.Field().String()).Valid()
}

// Struct validates s and returns ValidationErrors for tag failures.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be a time in HH:MM format", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), joinStatuses())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(err),
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath drops the root struct name from the namespace, leaving e.g.
// "days[0].start_time".
func fieldPath(err validator.FieldError) string {
	_, path, found := strings.Cut(err.Namespace(), ".")
	if !found {
		return err.Field()
	}
	return path
}

func joinStatuses() string {
	statuses := model.BookingStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return strings.Join(out, " ")
}

// ToAppError converts a validation failure into the 422 application error.
// Other errors pass through unchanged.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid input", map[string]any{"fields": []ValidationError(verrs)})
	}
	return err
}
