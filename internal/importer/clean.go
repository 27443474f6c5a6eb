package importer

import (
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/food"
)

// SkipReason explains why a scraped product was not cleaned into a catalog
// item. The empty reason means the product was kept.
type SkipReason string

// Skip reasons.
const (
	SkipExcludedCategory SkipReason = "excluded category"
	SkipNoNutritionFacts SkipReason = "does not have nutrition facts"
	SkipNoKcal           SkipReason = "does not have a kcal value"
	SkipInvalidCode      SkipReason = "does not have a valid product code"
)

// excludedCategories are retailer category slugs outside the catalog.
var excludedCategories = []string{
	"apotek",
	"djur",
	"bacon-och-stekflask",
	"chark",
	"korv",
	"kassler",
	"halsa-och-skonhet",
	"hem-och-stad",
	"kiosk",
	"tobak",
	"blommor-och-tradgard",
	"barn",
	"delikatesschark",
}

// CleanRetailerProduct maps a scraped product to a catalog item.
func CleanRetailerProduct(p RetailerProduct) (models.FoodItem, SkipReason) {
	if excludedProduct(p) {
		return models.FoodItem{}, SkipExcludedCategory
	}
	if len(p.NutritionFacts) == 0 {
		return models.FoodItem{}, SkipNoNutritionFacts
	}

	item := models.FoodItem{
		Code:     digitsOnly(p.EAN),
		Name:     strings.TrimSpace(p.Name),
		Brand:    strings.TrimSpace(p.Manufacturer),
		Category: append([]string{}, p.Category...),
	}

	hasKcal := false
	for _, fact := range p.NutritionFacts {
		value, ok := parseAmount(fact.Value)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(fact.TypeCode)) {
		case "energi":
			if fact.UnitCode == "kilokalori" {
				item.KcalPer100g = value
				hasKcal = value > 0
			}
		case "fett":
			item.MacrosPer100g.Fat = value
		case "varav mättat fett":
			item.MacrosPer100g.SaturatedFat = value
		case "kolhydrat":
			item.MacrosPer100g.Carbohydrates = value
		case "varav sockerarter":
			item.MacrosPer100g.Sugars = value
		case "protein":
			item.MacrosPer100g.Protein = value
		case "salt":
			item.MacrosPer100g.Salt = value
		case "fiber":
			item.MacrosPer100g.Fiber = value
		}
	}
	if !hasKcal {
		return models.FoodItem{}, SkipNoKcal
	}
	if !food.ValidCode(item.Code) {
		return models.FoodItem{}, SkipInvalidCode
	}

	images := &models.FoodImages{}
	if p.Thumbnail.URL != "" {
		images.Small = &models.Image{URL: p.Thumbnail.URL, Alt: p.Thumbnail.Alt}
	}
	if p.Image.URL != "" {
		images.Large = &models.Image{URL: p.Image.URL, Alt: p.Image.Alt}
	}
	if images.Small != nil || images.Large != nil {
		item.Image = images
	}

	return item, ""
}

// CleanResult summarizes a clean run.
type CleanResult struct {
	Total   int
	Kept    int
	Skipped map[SkipReason]int
}

// CleanFile reads scraped products from r, writes kept items to clean and
// skipped products to excluded. excluded may be nil.
func CleanFile(r io.Reader, clean, excluded io.Writer) (*CleanResult, error) {
	result := &CleanResult{Skipped: map[SkipReason]int{}}
	err := ReadJSONL(r, func(_ int, p RetailerProduct) error {
		result.Total++
		item, reason := CleanRetailerProduct(p)
		if reason != "" {
			result.Skipped[reason]++
			if excluded == nil {
				return nil
			}
			return WriteJSONL(excluded, excludedRecord{Reason: reason, Product: p})
		}
		result.Kept++
		return WriteJSONL(clean, item)
	})
	return result, err
}

type excludedRecord struct {
	Reason  SkipReason      `json:"reason"`
	Product RetailerProduct `json:"product"`
}

// excludedProduct checks the top category and the second breadcrumb.
func excludedProduct(p RetailerProduct) bool {
	for _, c := range p.Category[:min(2, len(p.Category))] {
		if c = strings.TrimSpace(c); c != "" {
			if slices.Contains(excludedCategories, strings.ToLower(c)) {
				return true
			}
			break
		}
	}
	if len(p.Breadcrumbs) > 1 {
		slug := path.Base(strings.TrimRight(p.Breadcrumbs[1].URL, "/"))
		if slices.Contains(excludedCategories, strings.ToLower(slug)) {
			return true
		}
	}
	return false
}

// parseAmount reads retailer amounts such as "12,5" or "<0,5".
func parseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "<>~ ")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
