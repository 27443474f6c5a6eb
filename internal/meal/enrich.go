package meal

import (
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/food"
)

// Enrich joins the catalog data for each food reference onto the meal.
// References whose code is missing from catalog are left out of the result.
// The meal itself is not modified.
func Enrich(m *Meal, catalog map[string]food.Summary) models.Meal {
	items := make([]models.MealFoodItem, 0, len(m.FoodItems))
	for _, ref := range m.FoodItems {
		summary, ok := catalog[ref.Code]
		if !ok {
			continue
		}

		item := models.MealFoodItem{
			ID:          ref.ID,
			Code:        ref.Code,
			Weight:      ref.Weight,
			Unit:        string(ref.Unit),
			Name:        summary.Name,
			Brand:       summary.Brand,
			KcalPer100g: summary.Kcal,
			MacrosPer100g: models.Macros{
				Fat:           summary.Macros.Fat,
				SaturatedFat:  summary.Macros.SaturatedFat,
				Carbohydrates: summary.Macros.Carbohydrates,
				Sugars:        summary.Macros.Sugars,
				Protein:       summary.Macros.Protein,
				Salt:          summary.Macros.Salt,
				Fiber:         summary.Macros.Fiber,
			},
		}
		if summary.Image.URL != "" {
			item.Image = &models.Image{URL: summary.Image.URL, Alt: summary.Image.Alt}
		}
		items = append(items, item)
	}

	return models.Meal{
		ID:        m.ID,
		Date:      m.Date,
		Type:      string(m.Type),
		FoodItems: items,
	}
}

// referencedCodes returns the codes referenced by meals in first-seen order.
func referencedCodes(meals ...*Meal) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, m := range meals {
		for _, ref := range m.FoodItems {
			if _, ok := seen[ref.Code]; ok {
				continue
			}
			seen[ref.Code] = struct{}{}
			codes = append(codes, ref.Code)
		}
	}
	return codes
}
