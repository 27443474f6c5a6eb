package models

// MealFoodItem is a food reference joined with its current catalog data.
type MealFoodItem struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	Weight        float64 `json:"weight"`
	Unit          string  `json:"unit"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand,omitempty"`
	KcalPer100g   float64 `json:"kcalPer100g"`
	MacrosPer100g Macros  `json:"macrosPer100g"`
	Image         *Image  `json:"image,omitempty"`
}

// Meal is an enriched meal as returned by the API.
type Meal struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Type      string         `json:"type"`
	FoodItems []MealFoodItem `json:"foodItems"`
}

// MealsByType maps a meal type to the meal logged for it.
type MealsByType map[string]Meal

// FoodReferenceInput adds a food item to a meal.
type FoodReferenceInput struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit,omitempty"`
}

// FoodReferenceUpdate changes the amount of a food item already in a meal.
type FoodReferenceUpdate struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit,omitempty"`
}

// MealCreateRequest is the body of POST /v1/meals.
type MealCreateRequest struct {
	Date      string               `json:"date"`
	Type      string               `json:"type"`
	FoodItems []FoodReferenceInput `json:"foodItems"`
}
