// Package config loads process configuration from an optional .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nutrilog/nutrilog/internal/database"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// EnvDevelopment is the APP_ENV value that relaxes production checks.
const EnvDevelopment = "development"

// DevSigningKey is used when JWT_SIGNING_KEY is unset outside production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Config is the configuration shared by the API, worker and importer.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	StorageDriver string
	RequireTLS    bool

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	JWTExpiry     time.Duration

	Database database.Config

	PubSubProjectID    string
	PubSubSubscription string
	WorkerConcurrency  int
	ImportBatchSize    int
}

// Load reads files into the environment and builds a Config from it.
// Variables already set in the environment win over file values. Missing
// files are skipped; with no files, ".env" is tried.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:          getEnvOrDefault("APP_PORT", "8080"),
		Env:           getEnvOrDefault("APP_ENV", EnvDevelopment),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", StoragePostgres),
		RequireTLS:    getBool("REQUIRE_TLS", false),

		OTelEnabled:     getBool("OTEL_ENABLED", false),
		OTLPEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getFloat("OTEL_SAMPLE_RATIO", 1),

		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		JWTExpiry:     getDuration("JWT_EXPIRY", time.Hour),

		Database: database.ConfigFromEnv(),

		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "nutrilog-jobs-sub"),
		WorkerConcurrency:  getInt("WORKER_CONCURRENCY", 4),
		ImportBatchSize:    getInt("IMPORT_BATCH_SIZE", 200),
	}

	if cfg.JWTSigningKey == "" && cfg.Development() {
		cfg.JWTSigningKey = DevSigningKey
	}

	return cfg, cfg.Validate()
}

// Development reports whether the process runs in the development
// environment.
func (c Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Validate checks settings that have no safe default.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver))
	}
	if c.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required outside development"))
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be at least 1"))
	}
	if c.ImportBatchSize < 1 {
		errs = append(errs, errors.New("IMPORT_BATCH_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
