package profile

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nutrilog/nutrilog/internal/api/models"
)

// Validation limits.
const (
	MinTargetWeight   = 40
	MaxWeeklyChange   = 1.0
	minMeasuredWeight = 1
	minHeight         = 1
	minAge            = 1
)

// Service provides profile operations.
type Service struct {
	repo Repository
}

// NewService creates a new profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindOne retrieves the profile of userID.
func (s *Service) FindOne(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Create creates the profile of userID with a history of exactly one entry
// and returns its ID. A second profile for the same user surfaces as
// ErrProfileExists.
func (s *Service) Create(ctx context.Context, input *models.ProfileInput, userID string) (string, error) {
	if fieldErrors := validateInput(input); len(fieldErrors) > 0 {
		return "", &models.ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	p := &Profile{
		ID:        uuid.New().String(),
		UserID:    userID,
		History:   []HistoryEntry{historyEntry(input, now)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyScalars(p, input)

	if err := s.repo.Create(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Update applies input to the profile and records a history entry for its
// effective date. Nothing is written when neither the fields nor the history
// change. On success p reflects the stored state.
func (s *Service) Update(ctx context.Context, p *Profile, input *models.ProfileInput) error {
	if fieldErrors := validateInput(input); len(fieldErrors) > 0 {
		return &models.ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	history, err := ApplyHistory(p.History, historyEntry(input, now))
	if err != nil {
		if errors.Is(err, ErrBackdatedHistory) {
			return &models.ValidationError{
				Err:    err,
				Errors: []models.FieldError{{Field: "effectiveDate", Message: "must not be before " + p.History[0].EffectiveDate}},
			}
		}
		return err
	}

	candidate := *p
	applyScalars(&candidate, input)
	candidate.History = history
	if sameScalars(p, &candidate) && slices.Equal(p.History, candidate.History) {
		return nil
	}

	candidate.UpdatedAt = now
	if err := s.repo.Update(ctx, &candidate); err != nil {
		return err
	}
	*p = candidate
	return nil
}

// Delete deletes the profile. Meals are not affected.
func (s *Service) Delete(ctx context.Context, p *Profile) error {
	return s.repo.Delete(ctx, p.ID)
}

// DeleteForUser deletes the profile of userID if there is one.
func (s *Service) DeleteForUser(ctx context.Context, userID string) error {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil
		}
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func applyScalars(p *Profile, input *models.ProfileInput) {
	p.Gender = Gender(input.Gender)
	p.CurrentWeight = *input.CurrentWeight
	p.TargetWeight = *input.TargetWeight
	p.Height = *input.Height
	p.WeeklyChange = *input.WeeklyChange
	p.ActivityLevel = ActivityLevel(input.ActivityLevel)
}

func sameScalars(a, b *Profile) bool {
	return a.Gender == b.Gender &&
		a.CurrentWeight == b.CurrentWeight &&
		a.TargetWeight == b.TargetWeight &&
		a.Height == b.Height &&
		a.WeeklyChange == b.WeeklyChange &&
		a.ActivityLevel == b.ActivityLevel
}

func historyEntry(input *models.ProfileInput, now time.Time) HistoryEntry {
	date := input.EffectiveDate
	if date == "" {
		date = now.UTC().Format(DateLayout)
	}
	return HistoryEntry{
		EffectiveDate: date,
		CurrentWeight: *input.CurrentWeight,
		Age:           *input.Age,
		Height:        *input.Height,
	}
}

// validateInput validates a profile create or replace request. Every field
// except effectiveDate is required.
func validateInput(input *models.ProfileInput) []models.FieldError {
	var errs []models.FieldError

	if input.Gender == "" {
		errs = append(errs, models.FieldError{Field: "gender", Message: "is required"})
	} else if !Gender(input.Gender).Valid() {
		errs = append(errs, models.FieldError{Field: "gender", Message: "must be one of m, f"})
	}

	if input.ActivityLevel == "" {
		errs = append(errs, models.FieldError{Field: "activityLevel", Message: "is required"})
	} else if !ActivityLevel(input.ActivityLevel).Valid() {
		errs = append(errs, models.FieldError{
			Field:   "activityLevel",
			Message: "must be one of sedentary, light, moderate, heavy, athlete",
		})
	}

	errs = requireAtLeast(errs, "currentWeight", input.CurrentWeight, minMeasuredWeight)
	errs = requireAtLeast(errs, "targetWeight", input.TargetWeight, MinTargetWeight)
	errs = requireAtLeast(errs, "height", input.Height, minHeight)

	switch {
	case input.WeeklyChange == nil:
		errs = append(errs, models.FieldError{Field: "weeklyChange", Message: "is required"})
	case *input.WeeklyChange < 0 || *input.WeeklyChange > MaxWeeklyChange:
		errs = append(errs, models.FieldError{Field: "weeklyChange", Message: "must be between 0 and 1"})
	}

	switch {
	case input.Age == nil:
		errs = append(errs, models.FieldError{Field: "age", Message: "is required"})
	case *input.Age < minAge:
		errs = append(errs, models.FieldError{Field: "age", Message: "must be at least 1"})
	}

	if input.EffectiveDate != "" {
		if _, err := time.Parse(DateLayout, input.EffectiveDate); err != nil {
			errs = append(errs, models.FieldError{Field: "effectiveDate", Message: "must be a date in YYYY-MM-DD format"})
		}
	}

	return errs
}

func requireAtLeast(errs []models.FieldError, field string, value *float64, minimum float64) []models.FieldError {
	if value == nil {
		return append(errs, models.FieldError{Field: field, Message: "is required"})
	}
	if *value < minimum {
		return append(errs, models.FieldError{
			Field:   field,
			Message: "must be at least " + strconv.FormatFloat(minimum, 'f', -1, 64),
		})
	}
	return errs
}

// ToAPIProfile converts a profile to its API representation.
func ToAPIProfile(p *Profile) models.Profile {
	history := make([]models.ProfileHistoryEntry, 0, len(p.History))
	for _, e := range p.History {
		history = append(history, models.ProfileHistoryEntry{
			EffectiveDate: e.EffectiveDate,
			CurrentWeight: e.CurrentWeight,
			Age:           e.Age,
			Height:        e.Height,
		})
	}
	return models.Profile{
		ID:            p.ID,
		Gender:        string(p.Gender),
		CurrentWeight: p.CurrentWeight,
		TargetWeight:  p.TargetWeight,
		Height:        p.Height,
		WeeklyChange:  p.WeeklyChange,
		ActivityLevel: string(p.ActivityLevel),
		History:       history,
		CreatedAt:     models.Timestamp(p.CreatedAt),
		UpdatedAt:     models.Timestamp(p.UpdatedAt),
	}
}
