package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/nutrilog/nutrilog/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Rate limit presets.
var (
	// CatalogRateLimit applies per client IP to the public catalog reads.
	CatalogRateLimit = RateLimitConfig{RequestLimit: 120, WindowLength: time.Minute}

	// UserRateLimit applies per authenticated user to meal and profile routes.
	UserRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}

	// WriteRateLimit applies per user to catalog writes and account wipes.
	WriteRateLimit = RateLimitConfig{RequestLimit: 20, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP. Mount after chi's RealIP
// so proxies are accounted for.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByUser limits requests per authenticated user and falls back to
// the client IP when the request carries no user.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitExceeded writes a 429 problem with a Retry-After of one window.
func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewTooManyRequests(GetRequestID(r.Context()), "rate limit exceeded, please try again later").
			WithInstance(r.URL.Path).
			Write(w)
	}
}
