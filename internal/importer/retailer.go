package importer

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/fetch"
)

// SourceRetailer names the retailer in logs and metrics.
const SourceRetailer = "retailer"

// productSitemapMarker identifies the product sitemap in the sitemap index.
const productSitemapMarker = "Product-en-SEK"

// ErrNoProductSitemap is returned when the sitemap index lists no product
// sitemap.
var ErrNoProductSitemap = errors.New("product sitemap not found")

// RetailerConfig configures a RetailerClient.
type RetailerConfig struct {
	BaseURL string
	// Delay is the pause between product requests.
	Delay time.Duration
	// Limit stops the scrape after this many products. Zero means no limit.
	Limit int
}

// DefaultRetailerConfig returns the production retailer settings.
func DefaultRetailerConfig() RetailerConfig {
	return RetailerConfig{
		BaseURL: "https://www.willys.se",
		Delay:   10 * time.Second,
	}
}

// RetailerImage is a picture reference in a scraped product.
type RetailerImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Breadcrumb is one step of the retailer's category path.
type Breadcrumb struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NutritionFact is one nutrient line as published by the retailer.
type NutritionFact struct {
	TypeCode string `json:"typeCode"`
	UnitCode string `json:"unitCode"`
	Value    string `json:"value"`
}

// RetailerProduct is the raw product record written by Scrape.
type RetailerProduct struct {
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	EAN            string          `json:"ean"`
	Manufacturer   string          `json:"manufacturer,omitempty"`
	Category       []string        `json:"category"`
	Breadcrumbs    []Breadcrumb    `json:"breadcrumbs,omitempty"`
	Ingredients    string          `json:"ingredients,omitempty"`
	Description    string          `json:"description,omitempty"`
	Price          string          `json:"price,omitempty"`
	Image          RetailerImage   `json:"image"`
	Thumbnail      RetailerImage   `json:"thumbnail"`
	NutritionFacts []NutritionFact `json:"nutritionsFactList"`
}

// apiProduct is the product document returned by the retailer API.
type apiProduct struct {
	Name                    string          `json:"name"`
	Code                    string          `json:"code"`
	EAN                     string          `json:"ean"`
	Manufacturer            string          `json:"manufacturer"`
	GoogleAnalyticsCategory string          `json:"googleAnalyticsCategory"`
	Breadcrumbs             []Breadcrumb    `json:"breadcrumbs"`
	Ingredients             string          `json:"ingredients"`
	Description             string          `json:"description"`
	Price                   string          `json:"price"`
	Image                   apiImage        `json:"image"`
	Thumbnail               apiImage        `json:"thumbnail"`
	NutritionsFactList      []NutritionFact `json:"nutritionsFactList"`
}

type apiImage struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// ScrapeResult summarizes a retailer scrape.
type ScrapeResult struct {
	Listed   int
	Written  int
	Failed   int
	Duration time.Duration
}

// RetailerClient scrapes product data from the retailer web shop.
type RetailerClient struct {
	client  *fetch.Client
	config  RetailerConfig
	logger  zerolog.Logger
	metrics *Metrics
}

// NewRetailerClient creates a retailer scraper. metrics may be nil.
func NewRetailerClient(client *fetch.Client, cfg RetailerConfig, logger zerolog.Logger, metrics *Metrics) *RetailerClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &RetailerClient{
		client:  client,
		config:  cfg,
		logger:  logger.With().Str("source", SourceRetailer).Logger(),
		metrics: metrics,
	}
}

// ProductSitemap returns the URL of the product sitemap.
func (c *RetailerClient) ProductSitemap(ctx context.Context) (string, error) {
	body, err := c.client.Get(ctx, c.config.BaseURL+"/sitemap.xml")
	if err != nil {
		return "", fmt.Errorf("fetch sitemap index: %w", err)
	}
	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return "", fmt.Errorf("parse sitemap index: %w", err)
	}
	for _, s := range index.Sitemaps {
		if strings.Contains(s.Loc, productSitemapMarker) {
			return strings.TrimSpace(s.Loc), nil
		}
	}
	return "", ErrNoProductSitemap
}

// ProductURLs lists the product page URLs of a product sitemap.
func (c *RetailerClient) ProductURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := c.client.Get(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch product sitemap: %w", err)
	}
	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parse product sitemap: %w", err)
	}
	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// Product fetches one product by retailer product code.
func (c *RetailerClient) Product(ctx context.Context, code string) (*RetailerProduct, error) {
	var p apiProduct
	if err := c.client.GetJSON(ctx, c.config.BaseURL+"/axfood/rest/p/"+url.PathEscape(code), &p); err != nil {
		return nil, err
	}
	return &RetailerProduct{
		Name:           p.Name,
		Code:           p.Code,
		EAN:            p.EAN,
		Manufacturer:   p.Manufacturer,
		Category:       splitCategory(p.GoogleAnalyticsCategory),
		Breadcrumbs:    p.Breadcrumbs,
		Ingredients:    p.Ingredients,
		Description:    p.Description,
		Price:          p.Price,
		Image:          RetailerImage{URL: p.Image.URL, Alt: p.Image.AltText},
		Thumbnail:      RetailerImage{URL: p.Thumbnail.URL, Alt: p.Thumbnail.AltText},
		NutritionFacts: p.NutritionsFactList,
	}, nil
}

// Scrape walks the product sitemap and writes every product as a JSONL
// record to w. A product that cannot be fetched is logged and skipped.
func (c *RetailerClient) Scrape(ctx context.Context, w io.Writer) (*ScrapeResult, error) {
	start := time.Now()
	result := &ScrapeResult{}

	sitemapURL, err := c.ProductSitemap(ctx)
	if err != nil {
		return result, err
	}
	urls, err := c.ProductURLs(ctx, sitemapURL)
	if err != nil {
		return result, err
	}
	if c.config.Limit > 0 && len(urls) > c.config.Limit {
		urls = urls[:c.config.Limit]
	}
	result.Listed = len(urls)

	c.logger.Info().
		Str("sitemap", sitemapURL).
		Int("products", len(urls)).
		Msg("starting retailer scrape")

	for i, pageURL := range urls {
		if i > 0 {
			if err := sleep(ctx, c.config.Delay); err != nil {
				result.Duration = time.Since(start)
				return result, err
			}
		}

		code := ProductCodeFromURL(pageURL)
		product, err := c.Product(ctx, code)
		if err == nil {
			err = WriteJSONL(w, product)
		}
		if err != nil {
			if ctx.Err() != nil {
				result.Duration = time.Since(start)
				return result, ctx.Err()
			}
			result.Failed++
			c.metrics.Record(ctx, SourceRetailer, OutcomeFailed, 1)
			c.logger.Warn().Err(err).Str("url", pageURL).Str("code", code).Msg("product skipped")
			continue
		}
		result.Written++
		c.metrics.Record(ctx, SourceRetailer, OutcomeWritten, 1)
	}

	result.Duration = time.Since(start)
	c.logger.Info().
		Int("written", result.Written).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("retailer scrape completed")
	return result, nil
}

// ProductCodeFromURL extracts the retailer product code from a product page
// URL. Pages are named "<slug>-<code>", so the code follows the last hyphen
// of the last path segment.
func ProductCodeFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	segment := path.Base(strings.TrimRight(p, "/"))
	if i := strings.LastIndexByte(segment, '-'); i >= 0 {
		return segment[i+1:]
	}
	return segment
}

func splitCategory(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
