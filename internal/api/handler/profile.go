package handler

import (
	"context"
	"net/http"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/profile"
)

// ProfileService is the profile behaviour used by ProfileHandler.
type ProfileService interface {
	FindOne(ctx context.Context, userID string) (*profile.Profile, error)
	Create(ctx context.Context, input *models.ProfileInput, userID string) (string, error)
	Update(ctx context.Context, p *profile.Profile, input *models.ProfileInput) error
	Delete(ctx context.Context, p *profile.Profile) error
}

// AccountService wipes everything a user owns.
type AccountService interface {
	DeleteAllData(ctx context.Context, userID string) error
}

// ProfileHandler handles the /v1/user endpoints.
type ProfileHandler struct {
	profiles ProfileService
	accounts AccountService
	errors   *ErrorWriter
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles ProfileService, accounts AccountService, errors *ErrorWriter) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, accounts: accounts, errors: errors}
}

// Get handles GET /v1/user.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, profile.ToAPIProfile(p))
}

// Create handles POST /v1/user.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ProfileInput
	if !decodeBody(w, r, &input) {
		return
	}

	id, err := h.profiles.Create(r.Context(), &input, userID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.Created(w, r, "/v1/user", models.CreatedResource{ID: id})
}

// Update handles PUT /v1/user. The body replaces every profile field and
// records a history entry for its effective date.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}

	var input models.ProfileInput
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.profiles.Update(r.Context(), p, &input); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// Delete handles DELETE /v1/user. Meals are kept.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}

	if err := h.profiles.Delete(r.Context(), p); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// DeleteAllData handles DELETE /v1/user/data, removing the caller's meals
// and profile.
func (h *ProfileHandler) DeleteAllData(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAllData(r.Context(), userID); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *ProfileHandler) loadProfile(w http.ResponseWriter, r *http.Request) (*profile.Profile, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}

	p, err := h.profiles.FindOne(r.Context(), userID)
	if err != nil {
		h.errors.Write(w, r, err)
		return nil, false
	}
	return p, true
}
