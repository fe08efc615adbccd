// Package finder discovers the meetings of one year on the search page.
package finder

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"time"

	"ris-scraper/fetcher"
	"ris-scraper/logger"
	"ris-scraper/parser"
)

// searchPage is the search endpoint relative to the site's base URL
const searchPage = "recherche.php"

// maxStalledPages is how often the same offset is requested again when a
// page only re-lists known meetings before discovery gives up
const maxStalledPages = 5

// Finder pages through the search results of one year
type Finder struct {
	fetcher fetcher.Fetcher
	baseURL *url.URL
	year    int
	log     logger.Logger
}

// New creates a Finder for meetings held in year
func New(f fetcher.Fetcher, baseURL *url.URL, year int, log logger.Logger) *Finder {
	return &Finder{
		fetcher: f,
		baseURL: baseURL,
		year:    year,
		log:     log,
	}
}

// searchParams builds the query of one search request. The server pages by
// the number of results already shown, so entry is the count of distinct
// meetings collected so far.
func (f *Finder) searchParams(committee string, entry int) url.Values {
	from := time.Date(f.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(f.year, time.December, 31, 0, 0, 0, 0, time.UTC)

	return url.Values{
		"suchbegriffe":   {""},
		"select_gremium": {committee},
		"datum_von":      {from.Format("02.01.2006")},
		"datum_bis":      {to.Format("02.01.2006")},
		"startsuche":     {"Suche+starten"},
		"entry":          {strconv.Itoa(entry)},
	}
}

// Meetings yields the identifier of every meeting of the year, optionally
// restricted to one committee. Each call starts a fresh discovery run.
// The sequence ends after the first result page without any sid. A page
// that only repeats known meetings is requested again at the same offset,
// at most maxStalledPages times in a row. A fetch or layout error is
// yielded as the last element.
func (f *Finder) Meetings(ctx context.Context, committee string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		searchURL := f.baseURL.JoinPath(searchPage).String()
		seen := make(map[string]struct{})
		stalled := 0

		for {
			entry := len(seen)
			html, err := f.fetcher.Fetch(ctx, searchURL, f.searchParams(committee, entry))
			if err != nil {
				yield("", fmt.Errorf("failed to fetch search results at entry %d: %w", entry, err))
				return
			}

			ids, err := parser.ParseMeetingIDs(html)
			if err != nil {
				yield("", fmt.Errorf("search results at entry %d: %w", entry, err))
				return
			}
			if len(ids) == 0 {
				f.log.Debug("Search exhausted", logger.Int("meetings", len(seen)))
				return
			}

			for _, id := range ids {
				if id == "" {
					continue
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				if !yield(id, nil) {
					return
				}
			}

			if len(seen) > entry {
				stalled = 0
				continue
			}
			stalled++
			if stalled >= maxStalledPages {
				f.log.Warn("Search keeps repeating known meetings, stopping",
					logger.Int("entry", entry), logger.Int("attempts", stalled))
				return
			}
			f.log.Debug("Search page brought no new meetings, asking again", logger.Int("entry", entry))
		}
	}
}
