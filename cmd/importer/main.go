// Package main provides the nutrilog importer CLI, which scrapes, cleans and
// loads catalog data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/fetch"
	"github.com/nutrilog/nutrilog/internal/importer"
	"github.com/nutrilog/nutrilog/internal/telemetry"
)

// Version is set at compile time via ldflags.
var Version = "dev"

var CLI struct {
	Version kong.VersionFlag
	EnvFile []string `help:"Environment files to load." default:".env" type:"path"`

	ScrapeRetailer   ScrapeRetailerCmd   `cmd:"" help:"Scrape retailer products to JSONL."`
	FetchComposition FetchCompositionCmd `cmd:"" help:"Fetch the food composition database to JSONL."`
	Clean            CleanCmd            `cmd:"" help:"Clean scraped retailer products into catalog items."`
	Load             LoadCmd             `cmd:"" help:"Load cleaned catalog items into storage."`
	Token            TokenCmd            `cmd:"" help:"Mint an access token for local development."`
}

func main() {
	const serviceName = "nutrilog-importer"

	kctx := kong.Parse(&CLI,
		kong.Name("importer"),
		kong.Description("Acquire, clean and load nutrilog catalog data"),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)

	cfg, err := config.Load(CLI.EnvFile...)
	log := app.NewLogger(os.Stderr, serviceName, Version, cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	metrics, err := importer.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	appCtx := &Context{
		Ctx:     ctx,
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Sources: fetch.NewRegistry(),
	}

	runErr := kctx.Run(appCtx)

	for _, h := range appCtx.Sources.All() {
		log.Info().
			Str("source", h.Name).
			Str("circuit_state", h.State.String()).
			Uint32("requests", h.Counts.Requests).
			Uint32("failures", h.Counts.TotalFailures).
			Str("last_error", h.LastError).
			Msg("source health")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1) //nolint:gocritic // deferred cancel is irrelevant on exit
	}
}
