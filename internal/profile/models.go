// Package profile provides per-user body profiles with a dated measurement
// history.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/nutrilog/nutrilog/internal/database"
)

// Repository errors.
var (
	ErrProfileNotFound = fmt.Errorf("profile %w", database.ErrNotFound)
	ErrProfileExists   = fmt.Errorf("profile %w", database.ErrConflict)
)

// ErrBackdatedHistory is returned when a history entry predates the newest
// entry already recorded.
var ErrBackdatedHistory = errors.New("effective date is before the latest history entry")

// DateLayout is the calendar date format used for effective dates.
const DateLayout = "2006-01-02"

// Gender of the profile owner.
type Gender string

const (
	GenderMale   Gender = "m"
	GenderFemale Gender = "f"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ActivityLevel describes how physically active the user is.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHeavy     ActivityLevel = "heavy"
	ActivityAthlete   ActivityLevel = "athlete"
)

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityHeavy, ActivityAthlete:
		return true
	}
	return false
}

// Profile is a user's body profile. History is ordered newest first.
type Profile struct {
	ID            string
	UserID        string
	Gender        Gender
	CurrentWeight float64
	TargetWeight  float64
	Height        float64
	WeeklyChange  float64
	ActivityLevel ActivityLevel
	History       []HistoryEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HistoryEntry is one dated snapshot of weight, age and height.
type HistoryEntry struct {
	EffectiveDate string
	CurrentWeight float64
	Age           int
	Height        float64
}

func (p *Profile) clone() *Profile {
	cpy := *p
	cpy.History = append([]HistoryEntry{}, p.History...)
	return &cpy
}
