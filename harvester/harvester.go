// Package harvester runs one complete scrape of a council site: change
// detection, meeting discovery, per-meeting extraction, persistence and export.
package harvester

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"time"

	"ris-scraper/db"
	"ris-scraper/export"
	"ris-scraper/fetcher"
	"ris-scraper/finder"
	"ris-scraper/freshness"
	"ris-scraper/logger"
	"ris-scraper/models"
	"ris-scraper/scraper"

	"github.com/google/uuid"
)

// Store is the persistence the harvester writes to
type Store interface {
	export.TableReader
	LastScrapedAt(ctx context.Context) (*time.Time, error)
	RecordUpdate(ctx context.Context, scrapedAt time.Time) error
	SaveSession(ctx context.Context, s models.Session) error
	SaveAgendaItem(ctx context.Context, item models.AgendaItem) error
	SaveAttachment(ctx context.Context, a models.Attachment) error
	SaveMissingAttachment(ctx context.Context, m models.MissingAttachment) error
}

// ChangeDetector gates a run on the site's freshness indicator
type ChangeDetector interface {
	HasChanged(ctx context.Context, since *time.Time) (bool, error)
}

// MeetingFinder discovers meeting identifiers
type MeetingFinder interface {
	Meetings(ctx context.Context, committee string) iter.Seq2[string, error]
}

// Exporter writes the stored tables to files
type Exporter interface {
	Export(ctx context.Context, r export.TableReader) ([]string, error)
}

// TableWriter mirrors a table somewhere else, e.g. a spreadsheet
type TableWriter interface {
	WriteTable(ctx context.Context, table *db.Table) error
}

// Notifier is told about every finished run
type Notifier interface {
	Notify(ctx context.Context, summary models.RunSummary) error
}

// Params selects what a run collects
type Params struct {
	Domain    string
	Year      int
	Committee string
	// Force skips the freshness check
	Force bool
}

// Harvester runs complete scrapes
type Harvester struct {
	store    Store
	fetcher  fetcher.Fetcher
	baseURL  *url.URL
	loc      *time.Location
	params   Params
	detector ChangeDetector
	finder   MeetingFinder
	exporter Exporter
	sheets   TableWriter
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

// Option customizes a Harvester
type Option func(*Harvester)

// WithExporter exports the tables after every run that scraped
func WithExporter(e Exporter) Option {
	return func(h *Harvester) { h.exporter = e }
}

// WithSheets mirrors the exported tables into a spreadsheet
func WithSheets(w TableWriter) Option {
	return func(h *Harvester) { h.sheets = w }
}

// WithNotifier reports each run
func WithNotifier(n Notifier) Option {
	return func(h *Harvester) { h.notifier = n }
}

// WithDetector replaces the freshness detector
func WithDetector(d ChangeDetector) Option {
	return func(h *Harvester) { h.detector = d }
}

// WithFinder replaces the meeting finder
func WithFinder(f MeetingFinder) Option {
	return func(h *Harvester) { h.finder = f }
}

// WithClock sets the source of the recorded scrape time
func WithClock(now func() time.Time) Option {
	return func(h *Harvester) { h.now = now }
}

// New creates a Harvester fetching pages below baseURL
func New(store Store, f fetcher.Fetcher, baseURL *url.URL, loc *time.Location, params Params, log logger.Logger, opts ...Option) *Harvester {
	h := &Harvester{
		store:    store,
		fetcher:  f,
		baseURL:  baseURL,
		loc:      loc,
		params:   params,
		detector: freshness.NewDetector(f, baseURL.String(), loc, log),
		finder:   finder.New(f, baseURL, params.Year, log),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run performs one harvest. The summary is filled in as far as the run got,
// even when an error is returned.
func (h *Harvester) Run(ctx context.Context) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     uuid.NewString(),
		Domain:    h.params.Domain,
		Year:      h.params.Year,
		StartedAt: h.now(),
	}
	log := h.log.With(logger.String("run_id", summary.RunID))

	err := h.run(ctx, log, &summary)
	summary.FinishedAt = h.now()
	summary.Err = err

	if err != nil {
		log.Error("Harvest failed", logger.Error(err))
	} else {
		log.Info("Harvest finished",
			logger.Bool("unchanged", summary.Unchanged),
			logger.Int("sessions", summary.Sessions),
			logger.Int("agenda_items", summary.AgendaItems),
			logger.Int("attachments", summary.Attachments),
			logger.Int("missing", summary.Missing),
			logger.Duration("took", summary.Duration()),
		)
	}

	if h.notifier != nil {
		if nerr := h.notifier.Notify(ctx, summary); nerr != nil {
			log.Warn("Failed to send run summary", logger.Error(nerr))
		}
	}
	return summary, err
}

func (h *Harvester) run(ctx context.Context, log logger.Logger, summary *models.RunSummary) error {
	last, err := h.store.LastScrapedAt(ctx)
	if err != nil {
		return err
	}
	if err := h.store.RecordUpdate(ctx, summary.StartedAt); err != nil {
		return err
	}

	if !h.params.Force {
		changed, err := h.detector.HasChanged(ctx, last)
		if err != nil {
			return fmt.Errorf("failed to check site freshness: %w", err)
		}
		if !changed {
			log.Info("Site has not been updated since the last scrape")
			summary.Unchanged = true
			return nil
		}
	}

	for meetingID, err := range h.finder.Meetings(ctx, h.params.Committee) {
		if err != nil {
			return fmt.Errorf("failed to find meetings: %w", err)
		}
		if err := h.harvestMeeting(ctx, log, meetingID, summary); err != nil {
			return err
		}
	}

	return h.publish(ctx, log, summary)
}

func (h *Harvester) harvestMeeting(ctx context.Context, log logger.Logger, meetingID string, summary *models.RunSummary) error {
	s, err := scraper.New(meetingID, h.fetcher, h.baseURL, h.loc, log)
	if err != nil {
		return err
	}
	log.Info("Scraping meeting", logger.String("sid", meetingID))

	session, err := s.Metadata(ctx)
	if err != nil {
		return err
	}
	if err := h.store.SaveSession(ctx, *session); err != nil {
		return err
	}
	summary.Sessions++

	for item, err := range s.TOC(ctx) {
		if err != nil {
			return err
		}
		if err := h.store.SaveAgendaItem(ctx, item); err != nil {
			return err
		}
		summary.AgendaItems++

		for result, err := range s.Attachments(ctx, item) {
			if err != nil {
				return err
			}
			switch {
			case result.Missing != nil:
				if err := h.store.SaveMissingAttachment(ctx, *result.Missing); err != nil {
					return err
				}
				summary.Missing++
			case result.Attachment != nil:
				if err := h.store.SaveAttachment(ctx, *result.Attachment); err != nil {
					return err
				}
				summary.Attachments++
			}
		}
	}
	return nil
}

// publish exports the stored tables. Spreadsheet failures are logged only.
func (h *Harvester) publish(ctx context.Context, log logger.Logger, summary *models.RunSummary) error {
	if h.exporter != nil {
		written, err := h.exporter.Export(ctx, h.store)
		summary.Exported = written
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
	}

	if h.sheets == nil {
		return nil
	}
	for _, name := range export.Tables {
		table, err := h.store.ReadTable(ctx, name)
		if err != nil {
			return err
		}
		if err := h.sheets.WriteTable(ctx, table); err != nil {
			log.Warn("Failed to write Google Sheets export", logger.String("table", name), logger.Error(err))
		}
	}
	return nil
}
