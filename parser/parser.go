// Package parser turns pages of the council information system into typed values.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Structural elements whose absence means the site layout changed
var (
	ErrResultsTableMissing = errors.New("search results table not found")
	ErrTitleMissing        = errors.New("meeting title heading not found")
	ErrInfoTableMissing    = errors.New("meeting info table not found")
	ErrTOCTableMissing     = errors.New("agenda table not found")
	ErrIndicatorMissing    = errors.New("freshness indicator not found")
)

func newDocument(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseMeetingIDs returns every sid value listed in the results table, empty ones included
func ParseMeetingIDs(htmlContent string) ([]string, error) {
	doc, err := newDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table[width='100%']").First()
	if table.Length() == 0 {
		return nil, ErrResultsTableMissing
	}

	var ids []string
	table.Find("input[name='sid']").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("value", ""))
	})
	return ids, nil
}

// indicatorPrefix precedes the timestamp inside the freshness indicator
const indicatorPrefix = "Letzte Aktualisierung am:"

// ParseFreshness returns the raw "last updated" text of the landing page
func ParseFreshness(htmlContent string) (string, error) {
	doc, err := newDocument(htmlContent)
	if err != nil {
		return "", err
	}

	div := doc.Find("div.aktualisierung").First()
	if div.Length() == 0 {
		return "", ErrIndicatorMissing
	}

	text := strings.TrimSpace(div.Text())
	text = strings.TrimPrefix(text, indicatorPrefix)
	return strings.TrimSpace(text), nil
}
