// Package account provides operations spanning all data owned by a user.
package account

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// MealDeleter deletes every meal of a user.
type MealDeleter interface {
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

// ProfileDeleter deletes the profile of a user if one exists.
type ProfileDeleter interface {
	DeleteForUser(ctx context.Context, userID string) error
}

// Service wipes user-owned data.
type Service struct {
	meals    MealDeleter
	profiles ProfileDeleter
	logger   zerolog.Logger
}

// NewService creates a new account service.
func NewService(meals MealDeleter, profiles ProfileDeleter, logger zerolog.Logger) *Service {
	return &Service{
		meals:    meals,
		profiles: profiles,
		logger:   logger.With().Str("component", "account").Logger(),
	}
}

// DeleteAllData deletes every meal of the user and then the profile. A user
// without a profile is not an error. Food items the user created stay in the
// shared catalog.
func (s *Service) DeleteAllData(ctx context.Context, userID string) error {
	deleted, err := s.meals.DeleteAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete meals: %w", err)
	}

	if err := s.profiles.DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("meals_deleted", deleted).
		Msg("user data deleted")
	return nil
}
