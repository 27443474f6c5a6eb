// Package meal provides the per-user meal log. Each meal holds references to
// catalog food items; nutrition data is joined in from the catalog on read.
package meal

import (
	"errors"
	"fmt"
	"time"

	"github.com/nutrilog/nutrilog/internal/database"
)

// Repository errors.
var (
	ErrMealNotFound = fmt.Errorf("meal %w", database.ErrNotFound)
	ErrMealExists   = fmt.Errorf("meal %w", database.ErrConflict)
)

// ErrInvalidMealID is wrapped by the ValidationError returned for a
// malformed meal id.
var ErrInvalidMealID = errors.New("invalid meal id")

// DateLayout is the calendar date format used for meal dates.
const DateLayout = "2006-01-02"

// Type is the meal slot within a day.
type Type string

const (
	TypeBreakfast Type = "breakfast"
	TypeLunch     Type = "lunch"
	TypeDinner    Type = "dinner"
	TypeSnack1    Type = "snack1"
	TypeSnack2    Type = "snack2"
	TypeSnack3    Type = "snack3"
)

// Valid reports whether t is a known meal type.
func (t Type) Valid() bool {
	switch t {
	case TypeBreakfast, TypeLunch, TypeDinner, TypeSnack1, TypeSnack2, TypeSnack3:
		return true
	}
	return false
}

// Unit is the unit a food reference weight is measured in.
type Unit string

// UnitGram is currently the only supported unit.
const UnitGram Unit = "g"

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitGram
}

// Meal is one user's log for a date and meal type.
type Meal struct {
	ID        string
	UserID    string
	Date      string
	Type      Type
	FoodItems []FoodReference
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FoodReference points at a catalog item by code. Only these fields are
// persisted.
type FoodReference struct {
	ID     string
	Code   string
	Weight float64
	Unit   Unit
}

func (m *Meal) clone() *Meal {
	cpy := *m
	cpy.FoodItems = append([]FoodReference{}, m.FoodItems...)
	return &cpy
}
