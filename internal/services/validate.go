package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinMovieYear = 1888
	MinRating    = 1.0
	MaxRating    = 10.0
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of input and converts failures into a ValidationError
func validateStruct(input any) *ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(NonFieldErrors, err.Error())
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "iso3166_1_alpha2":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	case "url":
		return "Enter a valid URL."
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

// checkYear enforces 1888 <= year <= current calendar year
func checkYear(year int, now time.Time) error {
	if year < MinMovieYear || year > now.Year() {
		return errors.New("Year must be between 1888 and the current year.")
	}
	return nil
}

// checkRating enforces 1 <= rating <= 10
func checkRating(rating float64) error {
	if rating < MinRating || rating > MaxRating {
		return errors.New("Rate must be between 1 - 10")
	}
	return nil
}
