package importer

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/fetch"
)

// SourceComposition names the food composition database in logs and
// metrics.
const SourceComposition = "composition"

var (
	excludedGroups   = []string{"Lever, njure, tunga etc.", "Rätter"}
	excludedKeywords = []string{"späck", "gris", "fläsk", "bacon", "blandfärs", "korv", "blod"}
)

// CompositionConfig configures a CompositionClient.
type CompositionConfig struct {
	BaseURL  string
	Delay    time.Duration
	PageSize int
	// Limit stops after this many written foods. Zero means no limit.
	Limit int
}

// DefaultCompositionConfig returns the production settings for the public
// food composition API.
func DefaultCompositionConfig() CompositionConfig {
	return CompositionConfig{
		BaseURL:  "https://dataportal.livsmedelsverket.se/livsmedel/api/v1",
		Delay:    time.Second,
		PageSize: 100,
	}
}

// Nutrient is a nutrient value normalized to 100g.
type Nutrient struct {
	Name         string  `json:"name"`
	ShortName    string  `json:"shortName"`
	Unit         string  `json:"unit"`
	ValuePer100g float64 `json:"valuePer100g"`
	Precision    string  `json:"precision,omitempty"`
}

// CompositionFood is the record written by Fetch.
type CompositionFood struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Nutrition []Nutrient `json:"nutrition"`
}

type compositionPage struct {
	Foods []compositionListItem `json:"livsmedel"`
}

type compositionListItem struct {
	Number int    `json:"nummer"`
	Name   string `json:"namn"`
	Group  string `json:"livsmedelsgrupp"`
}

type compositionValue struct {
	Name       string  `json:"namn"`
	ShortName  string  `json:"forkortning"`
	Unit       string  `json:"enhet"`
	Value      float64 `json:"varde"`
	WeightGram float64 `json:"viktGram"`
	// Precision is published as either text or a number.
	Precision any `json:"precision"`
}

// FetchResult summarizes a composition fetch.
type FetchResult struct {
	Written  int
	Skipped  int
	Duration time.Duration
}

// CompositionClient pages the food composition API.
type CompositionClient struct {
	client  *fetch.Client
	config  CompositionConfig
	logger  zerolog.Logger
	metrics *Metrics
}

// NewCompositionClient creates a composition fetcher. metrics may be nil.
func NewCompositionClient(client *fetch.Client, cfg CompositionConfig, logger zerolog.Logger, metrics *Metrics) *CompositionClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultCompositionConfig().PageSize
	}
	return &CompositionClient{
		client:  client,
		config:  cfg,
		logger:  logger.With().Str("source", SourceComposition).Logger(),
		metrics: metrics,
	}
}

// Fetch writes every food that is not excluded, with its nutrition values,
// as a JSONL record to w. Paging stops at the first empty page.
func (c *CompositionClient) Fetch(ctx context.Context, w io.Writer) (*FetchResult, error) {
	start := time.Now()
	result := &FetchResult{}
	done := func(err error) (*FetchResult, error) {
		result.Duration = time.Since(start)
		return result, err
	}

	for offset := 0; ; offset += c.config.PageSize {
		foods, err := c.page(ctx, offset)
		if err != nil {
			return done(fmt.Errorf("list foods at offset %d: %w", offset, err))
		}
		if len(foods) == 0 {
			break
		}

		for _, item := range foods {
			if SkipCompositionFood(item.Name, item.Group) {
				result.Skipped++
				c.metrics.Record(ctx, SourceComposition, OutcomeSkipped, 1)
				c.logger.Debug().Str("name", item.Name).Msg("food excluded")
				continue
			}

			nutrition, err := c.nutrition(ctx, item.Number)
			if err != nil {
				if ctx.Err() != nil {
					return done(ctx.Err())
				}
				c.logger.Warn().Err(err).Int("number", item.Number).Msg("nutrition unavailable")
			}

			food := CompositionFood{
				ID:        item.Number,
				Name:      item.Name,
				Category:  item.Group,
				Nutrition: nutrition,
			}
			if err := WriteJSONL(w, food); err != nil {
				return done(err)
			}
			result.Written++
			c.metrics.Record(ctx, SourceComposition, OutcomeWritten, 1)

			if c.config.Limit > 0 && result.Written >= c.config.Limit {
				return done(nil)
			}
			if err := sleep(ctx, c.config.Delay); err != nil {
				return done(err)
			}
		}
	}

	c.logger.Info().
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Msg("composition fetch completed")
	return done(nil)
}

func (c *CompositionClient) page(ctx context.Context, offset int) ([]compositionListItem, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(c.config.PageSize))

	var page compositionPage
	if err := c.client.GetJSON(ctx, c.config.BaseURL+"/livsmedel?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return page.Foods, nil
}

// nutrition returns an empty list, never nil, when values are unavailable.
func (c *CompositionClient) nutrition(ctx context.Context, number int) ([]Nutrient, error) {
	var values []compositionValue
	endpoint := fmt.Sprintf("%s/livsmedel/%d/naringsvarden", c.config.BaseURL, number)
	if err := c.client.GetJSON(ctx, endpoint, &values); err != nil {
		return []Nutrient{}, err
	}

	out := make([]Nutrient, 0, len(values))
	for _, v := range values {
		out = append(out, Nutrient{
			Name:         v.Name,
			ShortName:    v.ShortName,
			Unit:         v.Unit,
			ValuePer100g: per100g(v.Value, v.WeightGram),
			Precision:    precisionText(v.Precision),
		})
	}
	return out, nil
}

// SkipCompositionFood reports whether a food belongs to an excluded group or
// has an excluded keyword in its name.
func SkipCompositionFood(name, group string) bool {
	if slices.Contains(excludedGroups, group) {
		return true
	}
	lower := strings.ToLower(name)
	for _, keyword := range excludedKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// per100g scales a value measured on weightGram grams to 100g. A missing
// reference weight leaves the value as published.
func per100g(value, weightGram float64) float64 {
	if weightGram <= 0 {
		return value
	}
	return value / weightGram * 100
}

func precisionText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
