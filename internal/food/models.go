// Package food provides the food item catalog.
package food

import (
	"fmt"
	"regexp"
	"time"

	"github.com/nutrilog/nutrilog/internal/database"
)

// Repository errors.
var (
	ErrFoodItemNotFound = fmt.Errorf("food item %w", database.ErrNotFound)
	ErrFoodItemExists   = fmt.Errorf("food item %w", database.ErrConflict)
)

// codeRegex matches EAN-8, UPC-A style 11 digit and EAN-13 product codes.
var codeRegex = regexp.MustCompile(`^(\d{8}|\d{11}|\d{13})$`)

// ValidCode reports whether code is a well-formed product code.
func ValidCode(code string) bool {
	return codeRegex.MatchString(code)
}

// FoodItem is a catalog entry with nutrition facts per 100g.
type FoodItem struct {
	Code     string
	Name     string
	Brand    string
	Category []string
	Image    Images
	Kcal     float64
	Macros   Macros

	// CreatedBy is the user who added the item through the API. Empty for
	// imported items.
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Images holds the small and large pictures of an item.
type Images struct {
	Small Image
	Large Image
}

// Image is a picture reference.
type Image struct {
	URL string
	Alt string
}

// Macros holds macronutrients in grams per 100g.
type Macros struct {
	Fat           float64
	SaturatedFat  float64
	Carbohydrates float64
	Sugars        float64
	Protein       float64
	Salt          float64
	Fiber         float64
}

// Summary is the display projection of a FoodItem used to enrich meals.
type Summary struct {
	Code   string
	Name   string
	Brand  string
	Kcal   float64
	Macros Macros
	Image  Image
}

// Summary returns the display projection of the item.
func (f *FoodItem) Summary() Summary {
	return Summary{
		Code:   f.Code,
		Name:   f.Name,
		Brand:  f.Brand,
		Kcal:   f.Kcal,
		Macros: f.Macros,
		Image:  f.Image.Small,
	}
}

func (f *FoodItem) clone() *FoodItem {
	cpy := *f
	if f.Category != nil {
		cpy.Category = append([]string(nil), f.Category...)
	}
	return &cpy
}
