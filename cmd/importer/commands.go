package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/auth"
	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/fetch"
	"github.com/nutrilog/nutrilog/internal/importer"
)

// Context is passed to every command's Run method.
type Context struct {
	Ctx     context.Context
	Config  config.Config
	Logger  zerolog.Logger
	Metrics *importer.Metrics
	Sources *fetch.Registry
}

// source creates a fetch client for name and registers it for the health
// summary.
func (c *Context) source(name string) *fetch.Client {
	client := fetch.NewClient(fetch.DefaultConfig(name))
	c.Sources.Register(client)
	return client
}

// ScrapeRetailerCmd scrapes every product listed in the retailer sitemap.
type ScrapeRetailerCmd struct {
	Out     string        `help:"Output JSONL file." default:"retailer.jsonl" type:"path"`
	BaseURL string        `help:"Retailer base URL." default:"https://www.willys.se"`
	Delay   time.Duration `help:"Pause between product requests." default:"10s"`
	Limit   int           `help:"Stop after this many products (0 = all)."`
}

func (cmd *ScrapeRetailerCmd) Run(c *Context) error {
	client := importer.NewRetailerClient(c.source(importer.SourceRetailer), importer.RetailerConfig{
		BaseURL: cmd.BaseURL,
		Delay:   cmd.Delay,
		Limit:   cmd.Limit,
	}, c.Logger, c.Metrics)

	return withOutput(cmd.Out, func(w io.Writer) error {
		result, err := client.Scrape(c.Ctx, w)
		if result != nil {
			fmt.Printf("listed %d, written %d, failed %d in %s\n", result.Listed, result.Written, result.Failed, result.Duration.Round(time.Second))
		}
		return err
	})
}

// FetchCompositionCmd downloads the food composition database.
type FetchCompositionCmd struct {
	Out      string        `help:"Output JSONL file." default:"composition.jsonl" type:"path"`
	BaseURL  string        `help:"Composition API base URL." default:"https://dataportal.livsmedelsverket.se/livsmedel/api/v1"`
	Delay    time.Duration `help:"Pause between foods." default:"1s"`
	PageSize int           `help:"Foods per list request." default:"100"`
	Limit    int           `help:"Stop after this many foods (0 = all)."`
}

func (cmd *FetchCompositionCmd) Run(c *Context) error {
	client := importer.NewCompositionClient(c.source(importer.SourceComposition), importer.CompositionConfig{
		BaseURL:  cmd.BaseURL,
		Delay:    cmd.Delay,
		PageSize: cmd.PageSize,
		Limit:    cmd.Limit,
	}, c.Logger, c.Metrics)

	return withOutput(cmd.Out, func(w io.Writer) error {
		result, err := client.Fetch(c.Ctx, w)
		if result != nil {
			fmt.Printf("written %d, skipped %d in %s\n", result.Written, result.Skipped, result.Duration.Round(time.Second))
		}
		return err
	})
}

// CleanCmd turns scraped retailer products into catalog items.
type CleanCmd struct {
	In       string `arg:"" help:"Scraped retailer JSONL file." type:"existingfile"`
	Out      string `help:"Output file for catalog items." default:"clean.jsonl" type:"path"`
	Excluded string `help:"Output file for skipped products. Empty disables it." default:"excluded.jsonl" type:"path"`
}

func (cmd *CleanCmd) Run(c *Context) error {
	in, err := os.Open(cmd.In)
	if err != nil {
		return err
	}
	defer in.Close()

	return withOutput(cmd.Out, func(clean io.Writer) error {
		if cmd.Excluded == "" {
			return cmd.clean(c, in, clean, nil)
		}
		return withOutput(cmd.Excluded, func(excluded io.Writer) error {
			return cmd.clean(c, in, clean, excluded)
		})
	})
}

func (cmd *CleanCmd) clean(c *Context, in io.Reader, clean, excluded io.Writer) error {
	result, err := importer.CleanFile(in, clean, excluded)
	if err != nil {
		return err
	}
	for reason, n := range result.Skipped {
		c.Logger.Info().Str("reason", string(reason)).Int("count", n).Msg("products skipped")
	}
	fmt.Printf("read %d, kept %d\n", result.Total, result.Kept)
	return nil
}

// LoadCmd upserts cleaned catalog items into the configured storage.
type LoadCmd struct {
	Path        string `arg:"" help:"Cleaned JSONL file path or http(s) URL."`
	BatchSize   int    `help:"Items per import batch (defaults to IMPORT_BATCH_SIZE)."`
	Concurrency int    `help:"Concurrent batches (defaults to WORKER_CONCURRENCY)."`
	Migrate     bool   `help:"Apply the database schema first." default:"true" negatable:""`
}

func (cmd *LoadCmd) Run(c *Context) error {
	if c.Config.StorageDriver == config.StorageMemory {
		c.Logger.Warn().Msg("loading into memory storage, the catalog is discarded on exit")
	}

	services, err := app.Open(c.Ctx, c.Config, c.Logger)
	if err != nil {
		return err
	}
	defer services.Close()

	if cmd.Migrate {
		if err := services.Migrate(c.Ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	batchSize, concurrency := cmd.BatchSize, cmd.Concurrency
	if batchSize <= 0 {
		batchSize = c.Config.ImportBatchSize
	}
	if concurrency <= 0 {
		concurrency = c.Config.WorkerConcurrency
	}

	loader := importer.NewLoader(importer.LoaderConfig{
		Importer:    services.Foods,
		BatchSize:   batchSize,
		Concurrency: concurrency,
		Fetcher:     c.source("catalog-files"),
		Logger:      c.Logger,
		Metrics:     c.Metrics,
	})

	result, err := loader.LoadPath(c.Ctx, cmd.Path)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		c.Logger.Warn().Int("batch", e.Batch).Str("code", e.Code).Str("reason", e.Reason).Msg("item not imported")
	}
	fmt.Printf("total %d, imported %d, skipped %d, failed %d in %s\n",
		result.Total, result.Imported, result.Skipped, result.Failed, result.Duration.Round(time.Millisecond))
	if result.Failed > 0 {
		return fmt.Errorf("%d items failed to import", result.Failed)
	}
	return nil
}

// TokenCmd prints a signed access token for a user id.
type TokenCmd struct {
	UserID string        `arg:"" help:"User id to put in the token."`
	Expiry time.Duration `help:"Token lifetime (defaults to JWT_EXPIRY)."`
}

func (cmd *TokenCmd) Run(c *Context) error {
	if !c.Config.Development() {
		return errors.New("tokens can only be minted in development")
	}
	expiry := cmd.Expiry
	if expiry <= 0 {
		expiry = c.Config.JWTExpiry
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: c.Config.JWTSigningKey,
		Issuer:     c.Config.JWTIssuer,
		Audience:   c.Config.JWTAudience,
		Expiry:     expiry,
	})

	token, expiresAt, err := jwtService.GenerateAccessToken(cmd.UserID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	c.Logger.Info().Str("user_id", cmd.UserID).Time("expires_at", expiresAt).Msg("access token minted")
	return nil
}

// withOutput creates path, runs fn with a buffered writer and flushes it.
func withOutput(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		_ = w.Flush()
		return err
	}
	return w.Flush()
}
