// Package app assembles the storage layer and domain services shared by the
// API server, the worker and the importer.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/account"
	"github.com/nutrilog/nutrilog/internal/api/handler"
	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/database"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/meal"
	"github.com/nutrilog/nutrilog/internal/profile"
)

// NewLogger creates the process logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, service, version, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// Services holds the domain services built on one storage backend.
type Services struct {
	Foods    *food.Service
	Meals    *meal.Service
	Profiles *profile.Service
	Account  *account.Service

	// Pool is nil for the memory backend.
	Pool *pgxpool.Pool
}

// Open connects the configured storage backend and builds the services.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Services, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return NewInMemory(logger), nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	return newServices(
		food.NewPostgresRepository(pool),
		meal.NewPostgresRepository(pool),
		profile.NewPostgresRepository(pool),
		pool,
		logger,
	), nil
}

// NewInMemory builds services on the in-memory repositories.
func NewInMemory(logger zerolog.Logger) *Services {
	return newServices(food.NewInMemoryRepository(), meal.NewInMemoryRepository(), profile.NewInMemoryRepository(), nil, logger)
}

func newServices(foods food.Repository, meals meal.Repository, profiles profile.Repository, pool *pgxpool.Pool, logger zerolog.Logger) *Services {
	foodService := food.NewService(foods)
	mealService := meal.NewService(meals, foodService)
	profileService := profile.NewService(profiles)
	return &Services{
		Foods:    foodService,
		Meals:    mealService,
		Profiles: profileService,
		Account:  account.NewService(mealService, profileService, logger),
		Pool:     pool,
	}
}

// Migrate applies the schema. It is a no-op for the memory backend.
func (s *Services) Migrate(ctx context.Context) error {
	if s.Pool == nil {
		return nil
	}
	return database.Migrate(ctx, s.Pool)
}

// ReadinessChecks returns the dependencies GET /v1/ops/ready should ping.
func (s *Services) ReadinessChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if s.Pool != nil {
		checks["database"] = s.Pool
	}
	return checks
}

// Close releases the database pool.
func (s *Services) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
