// Package validation checks meal submissions before they reach the store.
package validation

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
)

// NotBlankValidator rejects strings that are empty after trimming.
var NotBlankValidator = func(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// PositiveValidator accepts finite numbers strictly greater than zero.
var PositiveValidator = func(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}

// MealTypeValidator accepts the four meal types.
var MealTypeValidator = func(fl validator.FieldLevel) bool {
	return model.MealType(fl.Field().String()).Valid()
}

// UnitValidator accepts the six units. Absence is handled by omitempty.
var UnitValidator = func(fl validator.FieldLevel) bool {
	return model.Unit(fl.Field().String()).Valid()
}

// Validator runs the meal schema.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the meal tags registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", NotBlankValidator)
	_ = v.RegisterValidation("positive", PositiveValidator)
	_ = v.RegisterValidation("mealtype", MealTypeValidator)
	_ = v.RegisterValidation("unit", UnitValidator)
	return &Validator{validate: v}
}

// Validate returns s unchanged when it is acceptable. Otherwise it returns
// apperror.ValidationErrors listing every rejected field.
func (v *Validator) Validate(s model.Submission) (model.Submission, error) {
	if err := v.validate.Struct(s); err != nil {
		return s, apperror.CustomValidationError(err)
	}
	return s, nil
}

// ParseAmount parses a free-text quantity. Only the format is checked here,
// range is left to Validate.
func ParseAmount(text string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, apperror.ErrInvalidFormat
	}
	return f, nil
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
