package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/config"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "APP_ENV", "LOG_LEVEL", "STORAGE_DRIVER", "REQUIRE_TLS",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"JWT_SIGNING_KEY", "JWT_ISSUER", "JWT_AUDIENCE", "JWT_EXPIRY",
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_NAME",
		"PUBSUB_PROJECT_ID", "PUBSUB_SUBSCRIPTION", "WORKER_CONCURRENCY", "IMPORT_BATCH_SIZE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Development())
	assert.Equal(t, config.StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, config.DevSigningKey, cfg.JWTSigningKey)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"APP_PORT=9090\nSTORAGE_DRIVER=memory\nJWT_ISSUER=from-file\nOTEL_ENABLED=true\nDB_PORT=6543\n",
	), 0o600))

	// The environment wins over the file.
	t.Setenv("JWT_ISSUER", "from-env")

	cfg, err := config.Load(file)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "from-env", cfg.JWTIssuer)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestLoad_ProductionRequiresSigningKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "JWT_SIGNING_KEY")

	t.Setenv("JWT_SIGNING_KEY", "prod-secret")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, cfg.Development())
}

func TestLoad_InvalidStorageDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}
