package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// DefaultUserAgent identifies the importer to upstream sources.
const DefaultUserAgent = "nutrilog-importer/1.0 (+https://nutrilog.app)"

// maxBodyBytes caps a single upstream response.
const maxBodyBytes = 32 << 20

// ErrCircuitOpen is returned without calling upstream while the breaker is
// open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Config configures a Client.
type Config struct {
	Name      string
	UserAgent string

	// Timeout bounds each attempt.
	Timeout time.Duration

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Breaker defaults to DefaultBreakerConfig(Name).
	Breaker *BreakerConfig
}

// DefaultConfig returns the settings used for every production source.
func DefaultConfig(name string) Config {
	breaker := DefaultBreakerConfig(name)
	return Config{
		Name:            name,
		UserAgent:       DefaultUserAgent,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Breaker:         &breaker,
	}
}

// Client performs GET requests against one upstream.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     Config

	mu            sync.Mutex
	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastError     string
}

// NewClient fills zero fields of cfg from DefaultConfig.
func NewClient(cfg Config) *Client {
	defaults := DefaultConfig(cfg.Name)
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.Breaker == nil {
		cfg.Breaker = defaults.Breaker
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker[*http.Response](*cfg.Breaker), //nolint:bodyclose // type param, not response
		config:     cfg,
	}
}

// Name returns the upstream name the client was configured with.
func (c *Client) Name() string {
	return c.config.Name
}

// Get fetches url and returns the body of a 2xx response. Network errors,
// 429 and 5xx responses are retried. Other statuses return a *StatusError
// immediately.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	c.record(err)
	return body, err
}

// GetJSON fetches url and decodes the JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var body []byte
	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // closed below
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			req.Header.Set("User-Agent", c.config.UserAgent)
			req.Header.Set("Accept", "application/json, application/xml;q=0.9, */*;q=0.8")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			if retryable(resp.StatusCode) {
				drain(resp)
				return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
			}
			return resp, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		if err != nil {
			return err
		}
		defer drain(resp)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&StatusError{URL: url, StatusCode: resp.StatusCode})
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read %s: %w", url, err)
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func (c *Client) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if err == nil {
		c.lastSuccessAt = now
		return
	}
	c.lastFailureAt = now
	c.lastError = err.Error()
}

// Health snapshots the breaker state and the outcome of recent calls.
func (c *Client) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Health{
		Name:          c.config.Name,
		State:         c.breaker.State(),
		Counts:        c.breaker.Counts(),
		LastSuccessAt: c.lastSuccessAt,
		LastFailureAt: c.lastFailureAt,
		LastError:     c.lastError,
	}
}
