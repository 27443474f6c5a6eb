package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
)

// FoodService is the catalog behaviour used by FoodHandler.
type FoodService interface {
	List(ctx context.Context, page, limit int) (*models.PagedFoodItems, error)
	Search(ctx context.Context, page, limit int, query string) (*models.PagedFoodItems, error)
	GetByCode(ctx context.Context, code string) (*models.FoodItem, error)
	Create(ctx context.Context, input *models.FoodItemCreateRequest, ownerID string) (*models.FoodItem, error)
	DeleteByCode(ctx context.Context, code, ownerID string) error
}

// FoodHandler handles food catalog endpoints.
type FoodHandler struct {
	foods  FoodService
	errors *ErrorWriter
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(foods FoodService, errors *ErrorWriter) *FoodHandler {
	return &FoodHandler{foods: foods, errors: errors}
}

// List handles GET /v1/foods.
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	result, err := h.foods.List(r.Context(), page, limit)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// Search handles GET /v1/foods/search and GET /v1/foods/search/{query}.
// A missing query matches every item.
func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	query, err := searchQuery(r)
	if err != nil {
		response.BadRequest(w, r, "invalid search query", nil)
		return
	}

	result, err := h.foods.Search(r.Context(), page, limit, query)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// searchQuery returns the decoded {query} segment. chi matches against
// RawPath when it is set, so the segment is only still escaped then.
func searchQuery(r *http.Request) (string, error) {
	query := chi.URLParam(r, "query")
	if r.URL.RawPath == "" {
		return query, nil
	}
	return url.PathUnescape(query)
}

// GetByCode handles GET /v1/foods/ean/{code}.
func (h *FoodHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	item, err := h.foods.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, item)
}

// Create handles POST /v1/foods.
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.FoodItemCreateRequest
	if !decodeBody(w, r, &input) {
		return
	}

	item, err := h.foods.Create(r.Context(), &input, userID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.Created(w, r, "/v1/foods/ean/"+url.PathEscape(item.Code), item)
}

// Delete handles DELETE /v1/foods/{code}. Only the user who created an item
// may delete it.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.foods.DeleteByCode(r.Context(), chi.URLParam(r, "code"), userID); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}
