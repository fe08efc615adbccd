package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"ris-scraper/logger"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is sent when the configuration does not name one
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyFetcher implements the Fetcher interface using colly
type CollyFetcher struct {
	collector *colly.Collector
	log       logger.Logger
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(userAgent string, timeout time.Duration, log logger.Logger) *CollyFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	// The detail page is requested once for metadata and once for the agenda
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &CollyFetcher{
		collector: c,
		log:       log,
	}
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(ctx context.Context, pageURL string, params url.Values) (string, error) {
	target, err := BuildURL(pageURL, params)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}

	// A clone shares the transport but not the callbacks of earlier fetches
	c := cf.collector.Clone()
	c.Context = ctx

	var body string
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		cf.log.Error("Error fetching page",
			logger.String("url", r.Request.URL.String()),
			logger.Int("status", r.StatusCode),
			logger.Error(err))
	})

	cf.log.Debug("Fetching page", logger.String("url", target))
	if err := c.Visit(target); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", target, err)
	}
	return body, nil
}
