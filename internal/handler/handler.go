// Package handler serves the meal list and the new-meal form over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/form"
	"github.com/Damianjacob/mealbuddy-mobile/internal/metrics"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
	"github.com/Damianjacob/mealbuddy-mobile/internal/store"
)

// MealLister is the read side of the store.
type MealLister interface {
	GetAll() []model.Meal
}

// MealSubmitter accepts new-meal form drafts.
type MealSubmitter interface {
	Submit(d form.Draft) (model.Meal, error)
}

// Handler wraps HTTP handlers with logger, store reads and form submission.
type Handler struct {
	log    *zap.Logger
	meals  MealLister
	submit MealSubmitter
}

// New creates a new Handler instance.
func New(log *zap.Logger, meals MealLister, submit MealSubmitter) *Handler {
	return &Handler{log: log, meals: meals, submit: submit}
}

// Routes mounts every endpoint on a chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.Get("/healthz", h.Healthz)
	r.Get("/meals", h.ListMeals)
	r.Post("/meals", h.AddMeal)
	r.Get("/meals/options", h.FormOptions)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// Healthz is a simple health check endpoint.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type mealView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        model.MealType `json:"type"`
	Ingredients []string       `json:"ingredients"`
}

// ListMeals renders the meal list in insertion order.
func (h *Handler) ListMeals(w http.ResponseWriter, _ *http.Request) {
	meals := h.meals.GetAll()
	views := make([]mealView, 0, len(meals))
	for _, m := range meals {
		v := mealView{ID: m.ID, Name: m.Name, Type: m.Type, Ingredients: make([]string, 0, len(m.Ingredients))}
		for _, ing := range m.Ingredients {
			v.Ingredients = append(v.Ingredients, ing.String())
		}
		views = append(views, v)
	}
	h.writeJSON(w, http.StatusOK, views)
}

// defaultMealType preselects the type picker of a new form.
const defaultMealType = model.Breakfast

type unitOption struct {
	Value *model.Unit `json:"value"`
	Label string      `json:"label"`
}

type formOptions struct {
	DefaultType model.MealType   `json:"defaultType"`
	Types       []model.MealType `json:"types"`
	Units       []unitOption     `json:"units"`
}

// FormOptions lists the meal types and units the new-meal form offers.
// The first unit is the plain count, with a null value.
func (h *Handler) FormOptions(w http.ResponseWriter, _ *http.Request) {
	units := model.AllUnits()
	opts := formOptions{
		DefaultType: defaultMealType,
		Types:       model.AllMealTypes(),
		Units:       make([]unitOption, 0, len(units)+1),
	}
	opts.Units = append(opts.Units, unitOption{Label: model.UnitLabel(nil)})
	for _, u := range units {
		opts.Units = append(opts.Units, unitOption{Value: model.UnitPtr(u), Label: model.UnitLabel(&u)})
	}
	h.writeJSON(w, http.StatusOK, opts)
}

// AddMeal receives a new-meal form draft. An omitted type takes the form's default.
func (h *Handler) AddMeal(w http.ResponseWriter, r *http.Request) {
	var draft form.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.log.Error("failed to decode json", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request payload",
		})
		return
	}
	if strings.TrimSpace(draft.Type) == "" {
		draft.Type = string(defaultMealType)
	}

	meal, err := h.submit.Submit(draft)
	var validationErr apperror.ValidationErrors
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, meal)
	case errors.As(err, &validationErr):
		h.log.Warn("validation failed", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, validationErr.Response())
	case errors.Is(err, store.ErrNotReady), errors.Is(err, store.ErrClosed):
		h.log.Warn("store unavailable", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "meal store is not available",
		})
	default:
		h.log.Error("failed to add meal", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal error",
		})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("unable to write response stream", zap.Error(err))
	}
}
