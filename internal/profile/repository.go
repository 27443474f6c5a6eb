package profile

import "context"

// Repository defines the interface for profile storage.
type Repository interface {
	// GetByUserID retrieves the profile owned by userID.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)

	// Create inserts a profile. Returns ErrProfileExists when the user
	// already has one.
	Create(ctx context.Context, profile *Profile) error

	// Update replaces the stored scalars and history of a profile.
	Update(ctx context.Context, profile *Profile) error

	// Delete deletes a profile by ID.
	Delete(ctx context.Context, id string) error
}
