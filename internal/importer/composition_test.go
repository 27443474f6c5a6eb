package importer_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/importer"
)

func TestCompositionClient_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/livsmedel", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		switch r.URL.Query().Get("offset") {
		case "0":
			_, _ = w.Write([]byte(`{"livsmedel":[
				{"nummer":1,"namn":"Havregryn","livsmedelsgrupp":"Gryn"},
				{"nummer":2,"namn":"Fläskkotlett","livsmedelsgrupp":"Kött"}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"livsmedel":[
				{"nummer":3,"namn":"Köttbullar","livsmedelsgrupp":"Rätter"},
				{"nummer":4,"namn":"Äpple","livsmedelsgrupp":"Frukt"}]}`))
		default:
			_, _ = w.Write([]byte(`{"livsmedel":[]}`))
		}
	})
	mux.HandleFunc("/livsmedel/1/naringsvarden", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"namn":"Energi (kcal)","forkortning":"Ener","enhet":"kcal","varde":185,"viktGram":50,"precision":1},
			{"namn":"Protein","forkortning":"Prot","enhet":"g","varde":13,"viktGram":100}]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := importer.NewCompositionClient(testFetchClient("composition"),
		importer.CompositionConfig{BaseURL: server.URL, PageSize: 2}, zerolog.Nop(), nil)

	var out bytes.Buffer
	result, err := client.Fetch(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 2, result.Skipped)

	var foods []importer.CompositionFood
	require.NoError(t, importer.ReadJSONL(&out, func(_ int, f importer.CompositionFood) error {
		foods = append(foods, f)
		return nil
	}))
	require.Len(t, foods, 2)

	assert.Equal(t, "Havregryn", foods[0].Name)
	require.Len(t, foods[0].Nutrition, 2)
	assert.InDelta(t, 370, foods[0].Nutrition[0].ValuePer100g, 0.001)
	assert.Equal(t, "1", foods[0].Nutrition[0].Precision)
	assert.InDelta(t, 13, foods[0].Nutrition[1].ValuePer100g, 0.001)

	assert.Equal(t, "Äpple", foods[1].Name)
	assert.Empty(t, foods[1].Nutrition, "missing nutrition is written as an empty list")
}

func TestCompositionClient_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/livsmedel" {
			_, _ = w.Write([]byte(`{"livsmedel":[{"nummer":1,"namn":"Havregryn"},{"nummer":2,"namn":"Äpple"}]}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := importer.NewCompositionClient(testFetchClient("composition"),
		importer.CompositionConfig{BaseURL: server.URL, Limit: 1}, zerolog.Nop(), nil)

	result, err := client.Fetch(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
}

func TestSkipCompositionFood(t *testing.T) {
	tests := []struct {
		name, group string
		want        bool
	}{
		{"Havregryn", "Gryn", false},
		{"Bacon stekt", "Kött", true},
		{"FLÄSKFILÉ", "Kött", true},
		{"Njure", "Lever, njure, tunga etc.", true},
		{"Pytt i panna", "Rätter", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, importer.SkipCompositionFood(tt.name, tt.group), tt.name)
	}
}
