// Package api provides the HTTP API for nutrilog.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/handler"
	"github.com/nutrilog/nutrilog/internal/api/middleware"
)

// DefaultServiceName is used for tracing when RouterConfig.ServiceName is empty.
const DefaultServiceName = "nutrilog-api"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Authenticator  middleware.Authenticator
	FoodService    handler.FoodService
	MealService    handler.MealService
	ProfileService handler.ProfileService
	AccountService handler.AccountService

	// ReadinessChecks are pinged by GET /v1/ops/ready.
	ReadinessChecks map[string]handler.Pinger

	// RequireTLS rejects plain HTTP requests forwarded by a proxy.
	RequireTLS bool

	// Development exposes internal error details in 500 responses.
	Development bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	errorWriter := handler.NewErrorWriter(cfg.Logger, cfg.Development)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks)
	foodHandler := handler.NewFoodHandler(cfg.FoodService, errorWriter)
	mealHandler := handler.NewMealHandler(cfg.MealService, errorWriter)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService, cfg.AccountService, errorWriter)

	authMiddleware := middleware.Auth(cfg.Authenticator)
	catalogRateLimit := middleware.RateLimitByIP(middleware.CatalogRateLimit)
	userRateLimit := middleware.RateLimitByUser(middleware.UserRateLimit)
	writeRateLimit := middleware.RateLimitByUser(middleware.WriteRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Food catalog: reads are public, writes need a user
		r.Route("/foods", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(catalogRateLimit)
				r.Get("/", foodHandler.List)
				r.Get("/search", foodHandler.Search)
				r.Get("/search/{query}", foodHandler.Search)
				r.Get("/ean/{code}", foodHandler.GetByCode)
			})
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(writeRateLimit)
				r.Use(middleware.RequireJSON)
				r.Post("/", foodHandler.Create)
				r.Delete("/{code}", foodHandler.Delete)
			})
		})

		// Meal log (authenticated)
		r.Route("/meals", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)
			r.Use(middleware.RequireJSON)
			r.Get("/date/{date}", mealHandler.GetByDate)
			r.Post("/", mealHandler.Create)
			r.Delete("/", mealHandler.DeleteAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", mealHandler.Delete)
				r.Patch("/add", mealHandler.AddFoodItem)
				r.Patch("/upd", mealHandler.UpdateFoodItem)
				r.Patch("/del/{foodItemId}", mealHandler.RemoveFoodItem)
			})
		})

		// Profile and account (authenticated)
		r.Route("/user", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)
			r.Use(middleware.RequireJSON)
			r.Get("/", profileHandler.Get)
			r.Post("/", profileHandler.Create)
			r.Put("/", profileHandler.Update)
			r.Delete("/", profileHandler.Delete)
			r.With(writeRateLimit).Delete("/data", profileHandler.DeleteAllData)
		})
	})

	return r
}
