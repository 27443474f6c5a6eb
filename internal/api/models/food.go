package models

// Image is a single picture reference.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// FoodImages holds the small and large pictures of a food item.
type FoodImages struct {
	Small *Image `json:"sm,omitempty"`
	Large *Image `json:"lg,omitempty"`
}

// Macros holds macronutrient amounts in grams per 100g.
type Macros struct {
	Fat           float64 `json:"fat"`
	SaturatedFat  float64 `json:"saturatedFat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugars        float64 `json:"sugars"`
	Protein       float64 `json:"protein"`
	Salt          float64 `json:"salt"`
	Fiber         float64 `json:"fiber"`
}

// FoodItem is a catalog entry as returned by the API.
type FoodItem struct {
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	Brand         string      `json:"brand,omitempty"`
	Category      []string    `json:"category"`
	Image         *FoodImages `json:"image,omitempty"`
	KcalPer100g   float64     `json:"kcalPer100g"`
	MacrosPer100g Macros      `json:"macrosPer100g"`
}

// MacrosInput is the request form of Macros. Pointers distinguish a missing
// value from an explicit zero.
type MacrosInput struct {
	Fat           *float64 `json:"fat"`
	SaturatedFat  *float64 `json:"saturatedFat"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Sugars        *float64 `json:"sugars"`
	Protein       *float64 `json:"protein"`
	Salt          *float64 `json:"salt"`
	Fiber         *float64 `json:"fiber"`
}

// FoodItemCreateRequest is the body of POST /v1/foods.
type FoodItemCreateRequest struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Brand         string       `json:"brand"`
	Category      []string     `json:"category"`
	Image         *FoodImages  `json:"image"`
	KcalPer100g   *float64     `json:"kcalPer100g"`
	MacrosPer100g *MacrosInput `json:"macrosPer100g"`
}

// PagedFoodItems is a page of catalog entries.
type PagedFoodItems struct {
	Items    []FoodItem `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	From     int        `json:"from"`
	To       int        `json:"to"`
	Query    *string    `json:"query,omitempty"`
}
