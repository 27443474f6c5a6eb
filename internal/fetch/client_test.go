package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/fetch"
)

// fastConfig retries quickly and never trips unless the test asks for it.
func fastConfig(name string) fetch.Config {
	breaker := fetch.DefaultBreakerConfig(name)
	breaker.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	return fetch.Config{
		Name:            name,
		Timeout:         2 * time.Second,
		MaxRetries:      4,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Breaker:         &breaker,
	}
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fetch.DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"code":"73108650","kcal":250}`))
	}))
	defer server.Close()

	client := fetch.NewClient(fastConfig("retailer"))

	var got struct {
		Code string  `json:"code"`
		Kcal float64 `json:"kcal"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &got))
	assert.Equal(t, "73108650", got.Code)
	assert.InDelta(t, 250, got.Kcal, 0.001)

	health := client.Health()
	assert.True(t, health.Healthy())
	assert.False(t, health.LastSuccessAt.IsZero())
	assert.Empty(t, health.LastError)
}

func TestClient_RetriesTransientStatuses(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch attempts.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	body, err := fetch.NewClient(fastConfig("retry")).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_ClientErrorsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := fetch.NewClient(fastConfig("missing"))
	_, err := client.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, fetch.IsNotFound(err))
	assert.Equal(t, int32(1), attempts.Load())
	assert.Contains(t, client.Health().LastError, "404")
}

func TestClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastConfig("down")
	cfg.MaxRetries = 2
	_, err := fetch.NewClient(cfg).Get(context.Background(), server.URL)

	var se *fetch.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, int32(3), attempts.Load(), "first attempt plus two retries")
}

func TestClient_CircuitOpens(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	breaker := fetch.DefaultBreakerConfig("flaky")
	breaker.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 }
	cfg := fastConfig("flaky")
	cfg.Breaker = &breaker
	client := fetch.NewClient(cfg)

	_, err := client.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, fetch.ErrCircuitOpen)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, gobreaker.StateOpen, client.Health().State)

	_, err = client.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, fetch.ErrCircuitOpen)
	assert.Equal(t, int32(2), attempts.Load(), "open breaker skips upstream")
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := fastConfig("cancel")
	cfg.InitialInterval = time.Second
	cfg.MaxInterval = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fetch.NewClient(cfg).Get(ctx, server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	var dst map[string]any
	err := fetch.NewClient(fastConfig("html")).GetJSON(context.Background(), server.URL, &dst)
	assert.ErrorContains(t, err, "decode")
}

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"too few requests", gobreaker.Counts{Requests: 4, TotalFailures: 4}, false},
		{"half failed", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"mostly ok", gobreaker.Counts{Requests: 10, TotalFailures: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fetch.DefaultReadyToTrip(tt.counts))
		})
	}
}
