package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
)

// requestWithID returns a request whose context carries a request ID, as it
// would after the RequestID middleware.
func requestWithID(t *testing.T, method, path string) *http.Request {
	t.Helper()
	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))
	require.NotNil(t, processed)
	return processed
}

func TestJSON(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/foods")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, middleware.GetRequestID(req.Context()), rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"message":"hello"}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	req := requestWithID(t, http.MethodPost, "/v1/foods")
	rec := httptest.NewRecorder()

	response.Created(rec, req, "/v1/foods/ean/12345678", models.CreatedResource{ID: "12345678"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/foods/ean/12345678", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"id":"12345678"}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	req := requestWithID(t, http.MethodDelete, "/v1/meals")
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		wantStatus int
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "invalid", []models.FieldError{{Field: "page", Message: "bad"}})
		}, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "no") }, http.StatusUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "gone") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "dup") }, http.StatusConflict},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") }, http.StatusInternalServerError},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "down") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(t, http.MethodGet, "/v1/user")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "/v1/user", problem.Instance)
			assert.Equal(t, middleware.GetRequestID(req.Context()), problem.TraceID)
		})
	}
}
