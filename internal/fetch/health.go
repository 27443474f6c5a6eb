package fetch

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one upstream.
type Health struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt time.Time
	LastFailureAt time.Time
	LastError     string
}

// Healthy reports whether the breaker is closed.
func (h Health) Healthy() bool {
	return h.State == gobreaker.StateClosed
}

// Registry tracks the clients created by a process so their health can be
// reported together.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register adds client under its name, replacing any earlier client.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.Name()] = client
}

// Health returns the health of the named client.
func (r *Registry) Health(name string) (Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	if !ok {
		return Health{}, false
	}
	return c.Health(), true
}

// All returns the health of every client sorted by name.
func (r *Registry) All() []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c.Health())
	}
	slices.SortFunc(out, func(a, b Health) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
