package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
)

func oatmeal() model.Submission {
	return model.Submission{
		Name: "Oatmeal",
		Type: model.Breakfast,
		Ingredients: []model.Ingredient{
			{Name: "oats", Amount: 50, Unit: model.UnitPtr(model.Gram)},
		},
	}
}

func validationErrors(t *testing.T, err error) apperror.ValidationErrors {
	t.Helper()
	var verrs apperror.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs
}

func TestValidate_AcceptsUnchanged(t *testing.T) {
	v := New()
	in := oatmeal()

	out, err := v.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestValidate_CountedIngredientAccepted(t *testing.T) {
	v := New()
	in := oatmeal()
	in.Ingredients = []model.Ingredient{{Name: "egg", Amount: 3}}

	out, err := v.Validate(in)
	require.NoError(t, err)
	assert.Nil(t, out.Ingredients[0].Unit)
}

func TestValidate_EmptyName(t *testing.T) {
	v := New()
	for _, name := range []string{"", "   ", "\t\n"} {
		in := oatmeal()
		in.Name = name
		// independent of the validity of other fields
		for _, other := range []model.Submission{in, {Name: name, Type: "nope"}} {
			_, err := v.Validate(other)
			fe := validationErrors(t, err).Field("name")
			require.NotNil(t, fe)
			assert.ErrorIs(t, fe, apperror.ErrRequiredField)
			assert.Equal(t, "Name is required", fe.Message)
		}
	}
}

func TestValidate_NoIngredients(t *testing.T) {
	v := New()
	for _, ings := range [][]model.Ingredient{nil, {}} {
		in := oatmeal()
		in.Ingredients = ings

		_, err := v.Validate(in)
		verrs := validationErrors(t, err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "ingredients", verrs[0].Field)
		assert.ErrorIs(t, verrs[0], apperror.ErrRequiredCollection)
	}
}

func TestValidate_AmountRange(t *testing.T) {
	v := New()

	for _, amount := range []float64{0, -1, -0.001, math.NaN(), math.Inf(1), math.Inf(-1)} {
		in := oatmeal()
		in.Ingredients[0].Amount = amount
		_, err := v.Validate(in)
		fe := validationErrors(t, err).Field("ingredients[0].amount")
		require.NotNil(t, fe, "amount %v", amount)
		assert.ErrorIs(t, fe, apperror.ErrInvalidRange)
	}

	for _, amount := range []float64{0.0001, 1, 250.5} {
		for _, unit := range []*model.Unit{nil, model.UnitPtr(model.Millilitre)} {
			in := oatmeal()
			in.Ingredients[0].Amount = amount
			in.Ingredients[0].Unit = unit
			_, err := v.Validate(in)
			assert.NoError(t, err, "amount %v unit %v", amount, unit)
		}
	}
}

func TestValidate_Enums(t *testing.T) {
	v := New()

	in := oatmeal()
	in.Type = "brunch"
	_, err := v.Validate(in)
	assert.ErrorIs(t, validationErrors(t, err).Field("type"), apperror.ErrInvalidEnum)

	in = oatmeal()
	in.Ingredients[0].Unit = model.UnitPtr("cup")
	_, err = v.Validate(in)
	assert.ErrorIs(t, validationErrors(t, err).Field("ingredients[0].unit"), apperror.ErrInvalidEnum)

	in = oatmeal()
	in.Ingredients[0].Unit = model.UnitPtr("")
	_, err = v.Validate(in)
	assert.ErrorIs(t, validationErrors(t, err).Field("ingredients[0].unit"), apperror.ErrInvalidEnum)
}

func TestValidate_ReportsAllFieldsAtOnce(t *testing.T) {
	v := New()
	in := model.Submission{
		Name: "",
		Type: "elevenses",
		Ingredients: []model.Ingredient{
			{Name: "ok", Amount: 1},
			{Name: " ", Amount: -2, Unit: model.UnitPtr("pinch")},
		},
	}

	_, err := v.Validate(in)
	verrs := validationErrors(t, err)

	assert.Len(t, verrs, 5)
	assert.ErrorIs(t, verrs.Field("name"), apperror.ErrRequiredField)
	assert.ErrorIs(t, verrs.Field("type"), apperror.ErrInvalidEnum)
	assert.ErrorIs(t, verrs.Field("ingredients[1].name"), apperror.ErrRequiredField)
	assert.ErrorIs(t, verrs.Field("ingredients[1].amount"), apperror.ErrInvalidRange)
	assert.ErrorIs(t, verrs.Field("ingredients[1].unit"), apperror.ErrInvalidEnum)
	assert.Nil(t, verrs.Field("ingredients[0].name"))
}

func TestParseAmount(t *testing.T) {
	f, err := ParseAmount(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	f, err = ParseAmount("-3")
	require.NoError(t, err)
	assert.Equal(t, -3.0, f)

	for _, bad := range []string{"", "abc", "1,5", "3 eggs"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, apperror.ErrInvalidFormat, bad)
	}
}
