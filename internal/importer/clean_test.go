package importer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/importer"
)

func breadProduct() importer.RetailerProduct {
	return importer.RetailerProduct{
		Name:         " Rågbröd ",
		EAN:          "7310865000002",
		Manufacturer: "Pågen",
		Category:     []string{"brod-och-kakor", "brod"},
		Image:        importer.RetailerImage{URL: "https://assets.example.com/lg.png", Alt: "stor"},
		Thumbnail:    importer.RetailerImage{URL: "https://assets.example.com/sm.png", Alt: "liten"},
		NutritionFacts: []importer.NutritionFact{
			{TypeCode: "energi", UnitCode: "kilojoule", Value: "1046"},
			{TypeCode: "energi", UnitCode: "kilokalori", Value: "250"},
			{TypeCode: "fett", Value: "3,5"},
			{TypeCode: "varav mättat fett", Value: "0,4"},
			{TypeCode: "kolhydrat", Value: "42"},
			{TypeCode: "varav sockerarter", Value: "<0,5"},
			{TypeCode: "protein", Value: "8"},
			{TypeCode: "salt", Value: "1,1"},
			{TypeCode: "fiber", Value: "9"},
		},
	}
}

func TestCleanRetailerProduct(t *testing.T) {
	item, reason := importer.CleanRetailerProduct(breadProduct())
	require.Empty(t, reason)

	assert.Equal(t, "7310865000002", item.Code)
	assert.Equal(t, "Rågbröd", item.Name)
	assert.Equal(t, "Pågen", item.Brand)
	assert.InDelta(t, 250, item.KcalPer100g, 0.001)
	assert.InDelta(t, 3.5, item.MacrosPer100g.Fat, 0.001)
	assert.InDelta(t, 0.4, item.MacrosPer100g.SaturatedFat, 0.001)
	assert.InDelta(t, 42, item.MacrosPer100g.Carbohydrates, 0.001)
	assert.InDelta(t, 0.5, item.MacrosPer100g.Sugars, 0.001)
	assert.InDelta(t, 8, item.MacrosPer100g.Protein, 0.001)
	assert.InDelta(t, 1.1, item.MacrosPer100g.Salt, 0.001)
	assert.InDelta(t, 9, item.MacrosPer100g.Fiber, 0.001)
	require.NotNil(t, item.Image)
	assert.Equal(t, "liten", item.Image.Small.Alt)
	assert.Equal(t, "https://assets.example.com/lg.png", item.Image.Large.URL)
}

func TestCleanRetailerProduct_Skips(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *importer.RetailerProduct)
		want   importer.SkipReason
	}{
		{"excluded top category", func(p *importer.RetailerProduct) { p.Category = []string{"Kiosk", "godis"} }, importer.SkipExcludedCategory},
		{"excluded second category when first empty", func(p *importer.RetailerProduct) { p.Category = []string{"", "chark"} }, importer.SkipExcludedCategory},
		{"excluded breadcrumb", func(p *importer.RetailerProduct) {
			p.Breadcrumbs = []importer.Breadcrumb{{URL: "kott-chark-och-fagel"}, {URL: "kott-chark-och-fagel/korv"}}
		}, importer.SkipExcludedCategory},
		{"no nutrition facts", func(p *importer.RetailerProduct) { p.NutritionFacts = nil }, importer.SkipNoNutritionFacts},
		{"kilojoule only", func(p *importer.RetailerProduct) { p.NutritionFacts = p.NutritionFacts[:1] }, importer.SkipNoKcal},
		{"bad code", func(p *importer.RetailerProduct) { p.EAN = "123" }, importer.SkipInvalidCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := breadProduct()
			tt.modify(&p)
			_, reason := importer.CleanRetailerProduct(p)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func TestCleanFile(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, importer.WriteJSONL(&in, breadProduct()))
	noFacts := breadProduct()
	noFacts.NutritionFacts = nil
	require.NoError(t, importer.WriteJSONL(&in, noFacts))
	in.WriteString("\n")

	var clean, excluded bytes.Buffer
	result, err := importer.CleanFile(&in, &clean, &excluded)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Kept)
	assert.Equal(t, 1, result.Skipped[importer.SkipNoNutritionFacts])
	assert.Equal(t, 1, strings.Count(clean.String(), "\n"))
	assert.Contains(t, excluded.String(), string(importer.SkipNoNutritionFacts))
}

func TestReadJSONL_MalformedLine(t *testing.T) {
	err := importer.ReadJSONL(strings.NewReader("{\"name\":\"ok\"}\nnot json\n"), func(int, importer.RetailerProduct) error {
		return nil
	})
	assert.ErrorContains(t, err, "line 2")
}
