package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name      string
		incoming  string
		wantReuse bool
	}{
		{"generated when absent", "", false},
		{"reuses well-formed id", "client-req.123_abc", true},
		{"replaces id with spaces", "bad id", false},
		{"replaces oversized id", strings.Repeat("a", 129), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))
			if tt.wantReuse {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.True(t, strings.HasPrefix(seen, "req_"), "got %q", seen)
			}
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	ids := make(map[string]struct{})
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ids[middleware.GetRequestID(r.Context())] = struct{}{}
	}))

	for i := 0; i < 50; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	}
	assert.Len(t, ids, 50)
}
