package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/meal"
)

// MealService is the meal log behaviour used by MealHandler.
type MealService interface {
	GetByDate(ctx context.Context, userID, date string) (models.MealsByType, error)
	Create(ctx context.Context, userID string, input *models.MealCreateRequest) (*models.Meal, error)
	GetOne(ctx context.Context, userID, mealID string) (*meal.Meal, error)
	AddFoodItem(ctx context.Context, m *meal.Meal, input *models.FoodReferenceInput) (string, error)
	UpdateFoodItem(ctx context.Context, m *meal.Meal, input *models.FoodReferenceUpdate) error
	RemoveFoodItem(ctx context.Context, m *meal.Meal, refID string) error
	Delete(ctx context.Context, m *meal.Meal) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

// MealHandler handles meal log endpoints. Every route requires a user.
type MealHandler struct {
	meals  MealService
	errors *ErrorWriter
}

// NewMealHandler creates a new MealHandler.
func NewMealHandler(meals MealService, errors *ErrorWriter) *MealHandler {
	return &MealHandler{meals: meals, errors: errors}
}

// GetByDate handles GET /v1/meals/date/{date}.
func (h *MealHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	meals, err := h.meals.GetByDate(r.Context(), userID, chi.URLParam(r, "date"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, meals)
}

// Create handles POST /v1/meals.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.MealCreateRequest
	if !decodeBody(w, r, &input) {
		return
	}

	created, err := h.meals.Create(r.Context(), userID, &input)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.Created(w, r, "", created)
}

// AddFoodItem handles PATCH /v1/meals/{id}/add.
func (h *MealHandler) AddFoodItem(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMeal(w, r)
	if !ok {
		return
	}

	var input models.FoodReferenceInput
	if !decodeBody(w, r, &input) {
		return
	}

	refID, err := h.meals.AddFoodItem(r.Context(), m, &input)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.Created(w, r, "", models.CreatedResource{ID: refID})
}

// UpdateFoodItem handles PATCH /v1/meals/{id}/upd.
func (h *MealHandler) UpdateFoodItem(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMeal(w, r)
	if !ok {
		return
	}

	var input models.FoodReferenceUpdate
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.meals.UpdateFoodItem(r.Context(), m, &input); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// RemoveFoodItem handles PATCH /v1/meals/{id}/del/{foodItemId}.
func (h *MealHandler) RemoveFoodItem(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMeal(w, r)
	if !ok {
		return
	}

	if err := h.meals.RemoveFoodItem(r.Context(), m, chi.URLParam(r, "foodItemId")); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// Delete handles DELETE /v1/meals/{id}.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMeal(w, r)
	if !ok {
		return
	}

	if err := h.meals.Delete(r.Context(), m); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// DeleteAll handles DELETE /v1/meals.
func (h *MealHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.meals.DeleteAllForUser(r.Context(), userID); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// loadMeal fetches the caller's meal named by the {id} route parameter.
func (h *MealHandler) loadMeal(w http.ResponseWriter, r *http.Request) (*meal.Meal, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}

	m, err := h.meals.GetOne(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return nil, false
	}
	return m, true
}
