// Package scraper reads one meeting: its metadata, agenda and attachments.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"time"

	"ris-scraper/fetcher"
	"ris-scraper/logger"
	"ris-scraper/models"
	"ris-scraper/parser"
)

const (
	// detailPage shows metadata and agenda of a meeting
	detailPage = "sitzungen_top.php"
	// searchPage carries the committee selection
	searchPage = "recherche.php"
)

// ErrInvalidMeetingID is returned for an empty meeting identifier
var ErrInvalidMeetingID = errors.New("not a valid meeting ID")

// Scraper extracts everything known about one meeting
type Scraper struct {
	meetingID string
	fetcher   fetcher.Fetcher
	baseURL   *url.URL
	loc       *time.Location
	log       logger.Logger
}

// AttachmentResult is one outcome of an attachments page: either a file or
// the marker for a page that reported its attachments as unavailable.
type AttachmentResult struct {
	Attachment *models.Attachment
	Missing    *models.MissingAttachment
}

// New creates a Scraper for meetingID
func New(meetingID string, f fetcher.Fetcher, baseURL *url.URL, loc *time.Location, log logger.Logger) (*Scraper, error) {
	if meetingID == "" {
		return nil, ErrInvalidMeetingID
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scraper{
		meetingID: meetingID,
		fetcher:   f,
		baseURL:   baseURL,
		loc:       loc,
		log:       log.With(logger.String("sid", meetingID)),
	}, nil
}

// MeetingID returns the identifier this Scraper was created for
func (s *Scraper) MeetingID() string {
	return s.meetingID
}

func (s *Scraper) fetchDetailPage(ctx context.Context) (string, error) {
	pageURL := s.baseURL.JoinPath(detailPage).String()
	html, err := s.fetcher.Fetch(ctx, pageURL, url.Values{"sid": {s.meetingID}})
	if err != nil {
		return "", fmt.Errorf("failed to fetch meeting %s: %w", s.meetingID, err)
	}
	return html, nil
}

// Metadata reads title, schedule, room and body of the meeting. A schedule
// that does not match the expected pattern is logged and left empty.
func (s *Scraper) Metadata(ctx context.Context) (*models.Session, error) {
	html, err := s.fetchDetailPage(ctx)
	if err != nil {
		return nil, err
	}

	md, err := parser.ParseMetadata(html, s.meetingID, s.loc)
	if err != nil {
		return nil, fmt.Errorf("meeting %s: %w", s.meetingID, err)
	}
	if md.UnparsedTermin != "" {
		s.log.Warn("Unparseable date/time info", logger.String("value", md.UnparsedTermin))
	}
	return &md.Session, nil
}

// TOC yields the agenda items of the meeting in table order. Every call
// fetches the detail page again.
func (s *Scraper) TOC(ctx context.Context) iter.Seq2[models.AgendaItem, error] {
	return func(yield func(models.AgendaItem, error) bool) {
		html, err := s.fetchDetailPage(ctx)
		if err != nil {
			yield(models.AgendaItem{}, err)
			return
		}

		rows, err := parser.ParseTOC(html, s.baseURL)
		if err != nil {
			yield(models.AgendaItem{}, fmt.Errorf("meeting %s: %w", s.meetingID, err))
			return
		}

		items, skipped := parser.AgendaItems(s.meetingID, rows)
		for _, i := range skipped {
			s.log.Warn("Skipping incomplete agenda row", logger.Int("row", i), logger.Int("cells", len(rows[i])))
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Attachments yields the files listed on the attachments page of item, in
// page order. Items without an attachments page yield nothing.
func (s *Scraper) Attachments(ctx context.Context, item models.AgendaItem) iter.Seq2[AttachmentResult, error] {
	return func(yield func(AttachmentResult, error) bool) {
		if !item.HasAttachmentPage() {
			return
		}

		pageURL := item.AttachmentLink
		s.log.Debug("Scraping attachments", logger.String("url", pageURL))

		html, err := s.fetcher.Fetch(ctx, pageURL, nil)
		if err != nil {
			yield(AttachmentResult{}, fmt.Errorf("failed to fetch attachments page %s: %w", pageURL, err))
			return
		}

		page, err := parser.ParseAttachmentsPage(html, s.baseURL.String())
		if err != nil {
			yield(AttachmentResult{}, fmt.Errorf("attachments page %s: %w", pageURL, err))
			return
		}

		if page.NotAccessible {
			s.log.Info("Agenda item is missing at least one attachment", logger.String("bill_id", item.BillID))
			yield(AttachmentResult{Missing: &models.MissingAttachment{
				AgendaItemID: item.BillID,
				PageURL:      pageURL,
			}}, nil)
			return
		}

		for _, link := range page.Links {
			result := AttachmentResult{Attachment: &models.Attachment{
				SessionID:    s.meetingID,
				AgendaItemID: item.BillID,
				Title:        link.Title,
				FileURL:      link.URL,
			}}
			if !yield(result, nil) {
				return
			}
		}
	}
}

// Committees lists the committees offered by the search page
func Committees(ctx context.Context, f fetcher.Fetcher, baseURL *url.URL) ([]models.Committee, error) {
	html, err := f.Fetch(ctx, baseURL.JoinPath(searchPage).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page: %w", err)
	}
	return parser.ParseCommittees(html)
}
