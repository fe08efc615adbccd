// Package freshness decides whether the site changed since the last scrape.
package freshness

import (
	"context"
	"fmt"
	"time"

	"ris-scraper/fetcher"
	"ris-scraper/logger"
	"ris-scraper/parser"
)

// indicatorLayout is the format of the landing page's "last updated" text
const indicatorLayout = "02.01.2006, 15:04"

// ErrIndicatorMissing is returned when the landing page has no freshness indicator
var ErrIndicatorMissing = parser.ErrIndicatorMissing

// Detector compares the site's freshness indicator with the last scrape
type Detector struct {
	fetcher fetcher.Fetcher
	siteURL string
	loc     *time.Location
	log     logger.Logger
}

// NewDetector creates a Detector reading siteURL. Indicator timestamps are
// wall-clock times in loc.
func NewDetector(f fetcher.Fetcher, siteURL string, loc *time.Location, log logger.Logger) *Detector {
	if loc == nil {
		loc = time.Local
	}
	return &Detector{
		fetcher: f,
		siteURL: siteURL,
		loc:     loc,
		log:     log,
	}
}

// LastUpdate returns the timestamp published on the landing page
func (d *Detector) LastUpdate(ctx context.Context) (time.Time, error) {
	html, err := d.fetcher.Fetch(ctx, d.siteURL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch landing page: %w", err)
	}

	text, err := parser.ParseFreshness(html)
	if err != nil {
		return time.Time{}, err
	}

	ts, err := time.ParseInLocation(indicatorLayout, text, d.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse freshness indicator %q: %w", text, err)
	}
	return ts, nil
}

// HasChanged reports whether a rescrape is warranted. The indicator is read
// even without a previous scrape so a changed layout never passes unnoticed.
func (d *Detector) HasChanged(ctx context.Context, since *time.Time) (bool, error) {
	updated, err := d.LastUpdate(ctx)
	if err != nil {
		return false, err
	}
	return d.ChangedSince(updated, since), nil
}

// ChangedSince compares an indicator timestamp with the last scrape. It is
// true without a previous scrape, or when updated lies after since; since is
// only compared to the minute.
func (d *Detector) ChangedSince(updated time.Time, since *time.Time) bool {
	if since == nil {
		return true
	}

	last := since.In(d.loc).Truncate(time.Minute)
	changed := updated.After(last)
	d.log.Debug("Checked site freshness",
		logger.Time("site_updated", updated),
		logger.Time("last_scrape", last),
		logger.Bool("changed", changed))
	return changed
}
