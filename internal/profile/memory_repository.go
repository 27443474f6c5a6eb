package profile

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository keyed by
// user ID, so a second profile for the same user is rejected.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// GetByUserID retrieves the profile owned by userID.
func (r *InMemoryRepository) GetByUserID(_ context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.clone(), nil
}

// Create inserts a profile.
func (r *InMemoryRepository) Create(_ context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profile.UserID]; exists {
		return ErrProfileExists
	}
	r.profiles[profile.UserID] = profile.clone()
	return nil
}

// Update replaces a stored profile.
func (r *InMemoryRepository) Update(_ context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.profiles[profile.UserID]
	if !ok || existing.ID != profile.ID {
		return ErrProfileNotFound
	}
	r.profiles[profile.UserID] = profile.clone()
	return nil
}

// Delete deletes a profile by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, p := range r.profiles {
		if p.ID == id {
			delete(r.profiles, userID)
			return nil
		}
	}
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
