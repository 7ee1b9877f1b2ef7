// Package form turns a raw new-meal form into a stored meal.
package form

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/metrics"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
	"github.com/Damianjacob/mealbuddy-mobile/internal/validation"
)

// IngredientDraft is one ingredient row as typed by the user. An empty Unit
// means the quantity is a count.
type IngredientDraft struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
}

// Draft is the unvalidated content of the new-meal form.
type Draft struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Ingredients []IngredientDraft `json:"ingredients"`
}

// MealStore is the part of the store the form writes through.
type MealStore interface {
	NewMeal(sub model.Submission) model.Meal
	Append(meal model.Meal) error
}

// Submitter validates drafts and appends accepted meals.
type Submitter struct {
	log      *zap.Logger
	store    MealStore
	validate *validation.Validator
}

// NewSubmitter creates a Submitter writing to store.
func NewSubmitter(log *zap.Logger, store MealStore, v *validation.Validator) *Submitter {
	return &Submitter{log: log, store: store, validate: v}
}

// Submit parses and validates d. On rejection it returns
// apperror.ValidationErrors covering every bad field and the store is left
// untouched. On success the new meal is appended and returned.
func (s *Submitter) Submit(d Draft) (model.Meal, error) {
	sub, formatErrs := parse(d)

	_, err := s.validate.Validate(sub)
	var schemaErrs apperror.ValidationErrors
	if err != nil && !errors.As(err, &schemaErrs) {
		return model.Meal{}, fmt.Errorf("validating meal: %w", err)
	}

	if errs := formatErrs.Merge(schemaErrs); len(errs) > 0 {
		metrics.RecordSubmission(false)
		s.log.Debug("meal rejected", zap.Int("fields", len(errs)), zap.Error(errs))
		return model.Meal{}, errs
	}

	meal := s.store.NewMeal(sub)
	if err := s.store.Append(meal); err != nil {
		return model.Meal{}, fmt.Errorf("appending meal: %w", err)
	}
	metrics.RecordSubmission(true)
	s.log.Info("meal added",
		zap.String("id", meal.ID),
		zap.String("type", string(meal.Type)),
		zap.Int("ingredients", len(meal.Ingredients)))
	return meal, nil
}

func parse(d Draft) (model.Submission, apperror.ValidationErrors) {
	var errs apperror.ValidationErrors
	sub := model.Submission{
		Name:        strings.TrimSpace(d.Name),
		Type:        model.MealType(strings.TrimSpace(d.Type)),
		Ingredients: make([]model.Ingredient, 0, len(d.Ingredients)),
	}

	for i, row := range d.Ingredients {
		amount, err := validation.ParseAmount(row.Quantity)
		if err != nil {
			errs = append(errs, apperror.NewFieldError(fmt.Sprintf("ingredients[%d].amount", i), "format"))
		}
		ing := model.Ingredient{Name: strings.TrimSpace(row.Name), Amount: amount}
		if u := strings.TrimSpace(row.Unit); u != "" {
			ing.Unit = model.UnitPtr(model.Unit(u))
		}
		sub.Ingredients = append(sub.Ingredients, ing)
	}
	return sub, errs
}
