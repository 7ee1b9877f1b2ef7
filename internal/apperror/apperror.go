// Package apperror defines the meal error taxonomy and maps validator errors
// onto it.
package apperror

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
)

// Validation error kinds. Field errors wrap exactly one of these.
var (
	ErrRequiredField      = errors.New("required field")
	ErrInvalidEnum        = errors.New("invalid enum value")
	ErrInvalidRange       = errors.New("value out of range")
	ErrRequiredCollection = errors.New("required collection")
	ErrInvalidFormat      = errors.New("invalid format")
)

// Persistence error kinds.
var (
	ErrPersistenceRead  = errors.New("persistence read failed")
	ErrPersistenceWrite = errors.New("persistence write failed")
)

var (
	errNameRequired           = errors.New("Name is required")
	errIngredientNameRequired = errors.New("Ingredient name is required")
	errAmountPositive         = errors.New("Amount must be positive")
	errAmountNumber           = errors.New("Amount must be a number")
	errAtLeastOneIngredient   = errors.New("Add at least one ingredient")
	errInvalidMealType        = errors.New(oneOf(model.AllMealTypes()))
	errInvalidUnit            = errors.New(oneOf(model.AllUnits()))
)

func oneOf[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return "must be one of " + strings.Join(names, ", ")
}

// customErrors is keyed by "<namespace without indices>.<tag>".
var customErrors = map[string]error{
	"name.notblank":               errNameRequired,
	"type.mealtype":               errInvalidMealType,
	"ingredients.min":             errAtLeastOneIngredient,
	"ingredients.name.notblank":   errIngredientNameRequired,
	"ingredients.amount.positive": errAmountPositive,
	"ingredients.amount.format":   errAmountNumber,
	"ingredients.unit.unit":       errInvalidUnit,
}

var tagKinds = map[string]error{
	"required": ErrRequiredField,
	"notblank": ErrRequiredField,
	"mealtype": ErrInvalidEnum,
	"unit":     ErrInvalidEnum,
	"oneof":    ErrInvalidEnum,
	"positive": ErrInvalidRange,
	"gt":       ErrInvalidRange,
	"min":      ErrRequiredCollection,
	"format":   ErrInvalidFormat,
}

var indexPattern = regexp.MustCompile(`\[\d+\]`)

// FieldError is a single rejected field. Field is the JSON path, e.g.
// "ingredients[0].amount".
type FieldError struct {
	Field   string
	Kind    error
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// NewFieldError builds a field error for the given tag, using the same
// message table as validator-produced errors.
func NewFieldError(field, tag string) *FieldError {
	kind, ok := tagKinds[tag]
	if !ok {
		kind = ErrInvalidFormat
	}
	msg := fmt.Sprintf("%s is invalid", field)
	if v, ok := customErrors[indexPattern.ReplaceAllString(field, "")+"."+tag]; ok {
		msg = v.Error()
	}
	return &FieldError{Field: field, Kind: kind, Message: msg}
}

// ValidationErrors carries every rejected field of one submission.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match any of the contained kinds.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// Field returns the error reported for field, or nil.
func (v ValidationErrors) Field(field string) *FieldError {
	for _, e := range v {
		if e.Field == field {
			return e
		}
	}
	return nil
}

// Merge appends the errors of other whose field is not already present.
func (v ValidationErrors) Merge(other ValidationErrors) ValidationErrors {
	for _, e := range other {
		if v.Field(e.Field) == nil {
			v = append(v, e)
		}
	}
	return v
}

// Response renders the errors in the list-of-objects shape the HTTP layer returns.
func (v ValidationErrors) Response() []map[string]string {
	errList := make([]map[string]string, 0, len(v))
	for _, e := range v {
		errList = append(errList, map[string]string{e.Field: e.Message})
	}
	return errList
}

// CustomValidationError converts validator errors into ValidationErrors.
// Errors of any other type are returned unchanged.
func CustomValidationError(err error) error {
	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) {
		return err
	}

	errList := make(ValidationErrors, 0, len(validationErr))
	for _, e := range validationErr {
		errList = append(errList, NewFieldError(fieldPath(e), e.Tag()))
	}
	return errList
}

// fieldPath strips the root struct name from the namespace,
// "Submission.ingredients[0].name" becomes "ingredients[0].name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// PersistenceError reports a failed durable read or write of key.
type PersistenceError struct {
	Kind error
	Key  string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (key %q): %v", e.Kind, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewPersistenceReadError wraps a failed hydration read.
func NewPersistenceReadError(key string, err error) error {
	return &PersistenceError{Kind: ErrPersistenceRead, Key: key, Err: err}
}

// NewPersistenceWriteError wraps a failed durable write.
func NewPersistenceWriteError(key string, err error) error {
	return &PersistenceError{Kind: ErrPersistenceWrite, Key: key, Err: err}
}
