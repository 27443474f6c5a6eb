package models

// ProfileHistoryEntry is one dated body measurement.
type ProfileHistoryEntry struct {
	EffectiveDate string  `json:"effectiveDate"`
	CurrentWeight float64 `json:"currentWeight"`
	Age           int     `json:"age"`
	Height        float64 `json:"height"`
}

// Profile is a user's body profile as returned by the API.
type Profile struct {
	ID            string                `json:"id"`
	Gender        string                `json:"gender"`
	CurrentWeight float64               `json:"currentWeight"`
	TargetWeight  float64               `json:"targetWeight"`
	Height        float64               `json:"height"`
	WeeklyChange  float64               `json:"weeklyChange"`
	ActivityLevel string                `json:"activityLevel"`
	History       []ProfileHistoryEntry `json:"history"`
	CreatedAt     Timestamp             `json:"createdAt"`
	UpdatedAt     Timestamp             `json:"updatedAt"`
}

// ProfileInput is the body of POST and PUT /v1/user. EffectiveDate defaults
// to the current day when empty.
type ProfileInput struct {
	Gender        string   `json:"gender"`
	CurrentWeight *float64 `json:"currentWeight"`
	TargetWeight  *float64 `json:"targetWeight"`
	Height        *float64 `json:"height"`
	WeeklyChange  *float64 `json:"weeklyChange"`
	ActivityLevel string   `json:"activityLevel"`
	Age           *int     `json:"age"`
	EffectiveDate string   `json:"effectiveDate"`
}
