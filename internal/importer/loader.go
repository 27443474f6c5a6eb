package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/fetch"
	"github.com/nutrilog/nutrilog/internal/food"
)

// SourceCatalog names catalog loads in metrics.
const SourceCatalog = "catalog"

// Default loader settings.
const (
	DefaultBatchSize    = 200
	DefaultConcurrency  = 4
	defaultBatchTimeout = 2 * time.Minute
)

// CatalogImporter bulk-upserts catalog items. food.Service implements it.
type CatalogImporter interface {
	Import(ctx context.Context, items []models.FoodItem) (*food.ImportResult, error)
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Importer     CatalogImporter
	BatchSize    int
	Concurrency  int
	BatchTimeout time.Duration
	// Fetcher reads http(s) sources in LoadPath. Optional.
	Fetcher *fetch.Client
	Logger  zerolog.Logger
	Metrics *Metrics
}

// LoadResult summarizes a catalog load.
type LoadResult struct {
	Total    int
	Imported int
	// Skipped counts items rejected by catalog validation.
	Skipped int
	// Failed counts items in batches that could not be written.
	Failed   int
	Duration time.Duration
	Errors   []LoadError
}

// LoadError describes an item or batch that was not imported.
type LoadError struct {
	Batch  int
	Code   string
	Reason string
}

// Loader imports cleaned catalog items in batches using a bounded pool of
// workers.
type Loader struct {
	importer     CatalogImporter
	batchSize    int
	concurrency  int
	batchTimeout time.Duration
	fetcher      *fetch.Client
	logger       zerolog.Logger
	metrics      *Metrics
}

// NewLoader creates a loader, filling unset sizes with the defaults.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	return &Loader{
		importer:     cfg.Importer,
		batchSize:    cfg.BatchSize,
		concurrency:  cfg.Concurrency,
		batchTimeout: cfg.BatchTimeout,
		fetcher:      cfg.Fetcher,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

type batch struct {
	index int
	items []models.FoodItem
}

type batchResult struct {
	imported int
	skipped  int
	failed   int
	errors   []LoadError
}

// Load imports items and reports what happened to each of them. Batches
// that fail are counted as failed; the rest of the load continues.
func (l *Loader) Load(ctx context.Context, items []models.FoodItem) *LoadResult {
	start := time.Now()
	result := &LoadResult{Total: len(items)}

	batches := make([]batch, 0, len(items)/l.batchSize+1)
	for i := 0; i < len(items); i += l.batchSize {
		end := min(i+l.batchSize, len(items))
		batches = append(batches, batch{index: len(batches), items: items[i:end]})
	}

	l.logger.Info().
		Int("items", len(items)).
		Int("batches", len(batches)).
		Int("concurrency", l.concurrency).
		Msg("starting catalog load")

	batchChan := make(chan batch, len(batches))
	resultsChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for range l.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.worker(ctx, batchChan, resultsChan)
		}()
	}

	for _, b := range batches {
		batchChan <- b
	}
	close(batchChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	processed := 0
	for br := range resultsChan {
		processed += br.imported + br.skipped + br.failed
		result.Imported += br.imported
		result.Skipped += br.skipped
		result.Failed += br.failed
		result.Errors = append(result.Errors, br.errors...)
	}
	// Batches left unclaimed after cancellation.
	result.Failed += result.Total - processed

	result.Duration = time.Since(start)
	l.metrics.Record(ctx, SourceCatalog, OutcomeImported, result.Imported)
	l.metrics.Record(ctx, SourceCatalog, OutcomeRejected, result.Skipped)
	l.metrics.Record(ctx, SourceCatalog, OutcomeFailed, result.Failed)

	l.logger.Info().
		Dur("duration", result.Duration).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("catalog load completed")

	return result
}

func (l *Loader) worker(ctx context.Context, batches <-chan batch, results chan<- batchResult) {
	for b := range batches {
		select {
		case <-ctx.Done():
			return
		default:
			results <- l.importBatch(ctx, b)
		}
	}
}

func (l *Loader) importBatch(ctx context.Context, b batch) batchResult {
	batchCtx, cancel := context.WithTimeout(ctx, l.batchTimeout)
	defer cancel()

	start := time.Now()
	res, err := l.importer.Import(batchCtx, b.items)
	l.metrics.ObserveBatch(ctx, time.Since(start), err != nil)

	var br batchResult
	if res != nil {
		br.skipped = len(res.Rejected)
		for _, r := range res.Rejected {
			br.errors = append(br.errors, LoadError{Batch: b.index, Code: r.Code, Reason: r.Reason})
		}
	}
	if res != nil {
		br.imported = res.Imported
	}
	if err != nil {
		l.logger.Error().Err(err).Int("batch", b.index).Int("items", len(b.items)).Int("imported", br.imported).Msg("batch import failed")
		br.failed = len(b.items) - br.skipped - br.imported
		br.errors = append(br.errors, LoadError{Batch: b.index, Reason: err.Error()})
	}
	return br
}

// LoadReader reads cleaned items from a JSONL stream and loads them.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader) (*LoadResult, error) {
	var items []models.FoodItem
	err := ReadJSONL(r, func(_ int, item models.FoodItem) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return l.Load(ctx, items), nil
}

// LoadPath loads a JSONL file from a local path or an http(s) URL.
func (l *Loader) LoadPath(ctx context.Context, location string) (*LoadResult, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if l.fetcher == nil {
			return nil, errors.New("remote sources need a fetch client")
		}
		body, err := l.fetcher.Get(ctx, location)
		if err != nil {
			return nil, err
		}
		return l.LoadReader(ctx, bytes.NewReader(body))
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.LoadReader(ctx, f)
}
