package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/response"
)

// maxBodyBytes bounds request bodies. Data URI images make food items the
// largest payload.
const maxBodyBytes = 1 << 20

// Pagination defaults.
const (
	defaultPage  = 1
	defaultLimit = 30
)

var errInvalidPagination = errors.New("invalid page or limit")

// requireUser returns the authenticated user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return "", false
	}
	return userID, true
}

// decodeBody decodes a JSON request body into dst or writes a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// parsePagination reads the page and limit query parameters. Missing values
// take the defaults; anything else must be an integer. Range checks are
// left to the service.
func parsePagination(r *http.Request) (page, limit int, err error) {
	page, limit = defaultPage, defaultLimit
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, errInvalidPagination
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, errInvalidPagination
		}
	}
	return page, limit, nil
}
