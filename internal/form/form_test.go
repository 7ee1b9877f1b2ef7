package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/kv"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
	"github.com/Damianjacob/mealbuddy-mobile/internal/store"
	"github.com/Damianjacob/mealbuddy-mobile/internal/validation"
)

func setup(t *testing.T) (*Submitter, *store.Store) {
	t.Helper()
	log := zaptest.NewLogger(t)
	st := store.New(kv.NewMemory(), store.WithLogger(log))
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	require.NoError(t, st.Load(context.Background()))
	return NewSubmitter(log, st, validation.New()), st
}

func TestSubmit_Oatmeal(t *testing.T) {
	sub, st := setup(t)
	before := len(st.GetAll())

	meal, err := sub.Submit(Draft{
		Name:        "Oatmeal",
		Type:        "breakfast",
		Ingredients: []IngredientDraft{{Name: "oats", Quantity: "50", Unit: "gr"}},
	})
	require.NoError(t, err)

	all := st.GetAll()
	require.Len(t, all, before+1)
	last := all[len(all)-1]
	assert.Equal(t, meal, last)
	assert.NotEmpty(t, last.ID)
	assert.Equal(t, "Oatmeal", last.Name)
	assert.Equal(t, model.Breakfast, last.Type)
	assert.Equal(t, []model.Ingredient{{Name: "oats", Amount: 50, Unit: model.UnitPtr(model.Gram)}}, last.Ingredients)
}

func TestSubmit_EmptyNameRejected(t *testing.T) {
	sub, st := setup(t)

	_, err := sub.Submit(Draft{
		Name:        "",
		Type:        "lunch",
		Ingredients: []IngredientDraft{{Name: "rice", Quantity: "100", Unit: "gr"}},
	})

	var verrs apperror.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "name", verrs[0].Field)
	assert.ErrorIs(t, verrs[0], apperror.ErrRequiredField)
	assert.Empty(t, st.GetAll())
}

func TestSubmit_CountedIngredient(t *testing.T) {
	sub, st := setup(t)

	meal, err := sub.Submit(Draft{
		Name:        "Eggs",
		Type:        "breakfast",
		Ingredients: []IngredientDraft{{Name: "egg", Quantity: "3"}},
	})
	require.NoError(t, err)
	require.Len(t, meal.Ingredients, 1)
	assert.True(t, meal.Ingredients[0].Counted())
	assert.Equal(t, "3x egg", meal.Ingredients[0].String())
	assert.Nil(t, st.GetAll()[0].Ingredients[0].Unit)
}

func TestSubmit_CollectsFormatAndSchemaErrors(t *testing.T) {
	sub, st := setup(t)

	_, err := sub.Submit(Draft{
		Name: "  ",
		Type: "brunch",
		Ingredients: []IngredientDraft{
			{Name: "flour", Quantity: "lots", Unit: "gr"},
			{Name: "", Quantity: "0"},
			{Name: "salt", Quantity: "1", Unit: "pinch"},
		},
	})

	var verrs apperror.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.ErrorIs(t, verrs.Field("name"), apperror.ErrRequiredField)
	assert.ErrorIs(t, verrs.Field("type"), apperror.ErrInvalidEnum)
	assert.ErrorIs(t, verrs.Field("ingredients[0].amount"), apperror.ErrInvalidFormat)
	assert.ErrorIs(t, verrs.Field("ingredients[1].name"), apperror.ErrRequiredField)
	assert.ErrorIs(t, verrs.Field("ingredients[1].amount"), apperror.ErrInvalidRange)
	assert.ErrorIs(t, verrs.Field("ingredients[2].unit"), apperror.ErrInvalidEnum)
	assert.Len(t, verrs, 6)
	assert.Empty(t, st.GetAll())
}

func TestSubmit_NoIngredients(t *testing.T) {
	sub, _ := setup(t)
	_, err := sub.Submit(Draft{Name: "Air", Type: "snack"})
	assert.ErrorIs(t, err, apperror.ErrRequiredCollection)
}

type failingStore struct{}

func (failingStore) NewMeal(s model.Submission) model.Meal { return model.FromSubmission("id", s) }
func (failingStore) Append(model.Meal) error               { return store.ErrNotReady }

func TestSubmit_StoreNotReady(t *testing.T) {
	sub := NewSubmitter(zaptest.NewLogger(t), failingStore{}, validation.New())
	_, err := sub.Submit(Draft{Name: "Toast", Type: "breakfast", Ingredients: []IngredientDraft{{Name: "bread", Quantity: "2"}}})
	assert.True(t, errors.Is(err, store.ErrNotReady))
}
