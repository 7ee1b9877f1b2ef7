// Package model defines the meal and ingredient shapes shared by validation,
// storage and presentation.
package model

import (
	"strconv"
)

// MealType classifies a meal.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// AllMealTypes lists every meal type in display order.
func AllMealTypes() []MealType {
	return []MealType{Breakfast, Lunch, Dinner, Snack}
}

// Valid reports whether t is one of the known meal types.
func (t MealType) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// Unit is the measurement an ingredient amount is expressed in.
type Unit string

const (
	Gram       Unit = "gr"
	Kilogram   Unit = "kg"
	Millilitre Unit = "ml"
	Litre      Unit = "l"
	Tablespoon Unit = "tbsp"
	Teaspoon   Unit = "tsp"
)

// AllUnits lists every unit in picker order.
func AllUnits() []Unit {
	return []Unit{Gram, Kilogram, Millilitre, Litre, Tablespoon, Teaspoon}
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case Gram, Kilogram, Millilitre, Litre, Tablespoon, Teaspoon:
		return true
	}
	return false
}

// UnitPtr returns a pointer to u, for building ingredients inline.
func UnitPtr(u Unit) *Unit {
	return &u
}

// UnitLabel is the picker label for an optional unit. A nil unit is a plain count.
func UnitLabel(u *Unit) string {
	if u == nil {
		return "count"
	}
	return string(*u)
}

// Ingredient is one line of a meal. A nil Unit means Amount is a count.
type Ingredient struct {
	Name   string  `json:"name" validate:"notblank"`
	Amount float64 `json:"amount" validate:"positive"`
	Unit   *Unit   `json:"unit,omitempty" validate:"omitempty,unit"`
}

// Counted reports whether the amount is a plain count rather than a measure.
func (i Ingredient) Counted() bool {
	return i.Unit == nil
}

// String renders the ingredient as "50gr oats" or "3x egg".
func (i Ingredient) String() string {
	amount := strconv.FormatFloat(i.Amount, 'f', -1, 64)
	if i.Unit != nil {
		return amount + string(*i.Unit) + " " + i.Name
	}
	return amount + "x " + i.Name
}

// Submission is a candidate meal before an id is assigned.
type Submission struct {
	Name        string       `json:"name" validate:"notblank"`
	Type        MealType     `json:"type" validate:"mealtype"`
	Ingredients []Ingredient `json:"ingredients" validate:"min=1,dive"`
}

// Meal is a recorded meal. ID is assigned at creation and only used as a list key.
type Meal struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        MealType     `json:"type"`
	Ingredients []Ingredient `json:"ingredients"`
}

// FromSubmission builds a meal from a validated submission.
func FromSubmission(id string, s Submission) Meal {
	m := Meal{ID: id, Name: s.Name, Type: s.Type}
	m.Ingredients = cloneIngredients(s.Ingredients)
	return m
}

// Clone returns a deep copy so callers can't reach the store's backing arrays.
func (m Meal) Clone() Meal {
	m.Ingredients = cloneIngredients(m.Ingredients)
	return m
}

func cloneIngredients(in []Ingredient) []Ingredient {
	if in == nil {
		return nil
	}
	out := make([]Ingredient, len(in))
	for i, ing := range in {
		if ing.Unit != nil {
			ing.Unit = UnitPtr(*ing.Unit)
		}
		out[i] = ing
	}
	return out
}
