package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/fetch"
	"github.com/nutrilog/nutrilog/internal/importer"
)

func testContext(cfg config.Config) *Context {
	return &Context{
		Ctx:     context.Background(),
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Sources: fetch.NewRegistry(),
	}
}

func TestCleanThenLoad(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "retailer.jsonl")

	f, err := os.Create(raw)
	require.NoError(t, err)
	require.NoError(t, importer.WriteJSONL(f, importer.RetailerProduct{
		Name:     "Havredryck",
		EAN:      "7394376616037",
		Category: []string{"mejeri-ost-och-agg"},
		NutritionFacts: []importer.NutritionFact{
			{TypeCode: "energi", UnitCode: "kilokalori", Value: "46"},
			{TypeCode: "protein", Value: "1,0"},
		},
	}))
	require.NoError(t, f.Close())

	c := testContext(config.Config{StorageDriver: config.StorageMemory, ImportBatchSize: 10, WorkerConcurrency: 1})

	clean := &CleanCmd{In: raw, Out: filepath.Join(dir, "clean.jsonl"), Excluded: filepath.Join(dir, "excluded.jsonl")}
	require.NoError(t, clean.Run(c))

	out, err := os.ReadFile(clean.Out)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"code":"7394376616037"`)

	load := &LoadCmd{Path: clean.Out, Migrate: true}
	assert.NoError(t, load.Run(c))
}

func TestTokenCmd(t *testing.T) {
	cfg := config.Config{Env: config.EnvDevelopment, JWTSigningKey: "test-key"}
	assert.NoError(t, (&TokenCmd{UserID: "user-1"}).Run(testContext(cfg)))

	cfg.Env = "production"
	assert.Error(t, (&TokenCmd{UserID: "user-1"}).Run(testContext(cfg)))
}
