package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	services, err := app.Open(ctx, config.Config{StorageDriver: config.StorageMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer services.Close()

	assert.Nil(t, services.Pool)
	assert.Empty(t, services.ReadinessChecks())
	assert.NoError(t, services.Migrate(ctx))

	_, err = services.Foods.Import(ctx, []models.FoodItem{{Code: "73108650", Name: "Rågbröd", KcalPer100g: 250}})
	require.NoError(t, err)

	item, err := services.Foods.GetByCode(ctx, "73108650")
	require.NoError(t, err)
	assert.Equal(t, "Rågbröd", item.Name)

	require.NoError(t, services.Account.DeleteAllData(ctx, "user-1"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := app.NewLogger(&buf, "nutrilog-api", "1.2.3", "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "nutrilog-api", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := app.NewLogger(&buf, "svc", "dev", "loud")
	logger.Info().Msg("ok")
	assert.Contains(t, buf.String(), `"level":"info"`)
}
