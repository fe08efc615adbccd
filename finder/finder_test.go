package finder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"ris-scraper/logger"
	"ris-scraper/parser"
)

// pagedFetcher serves search result pages keyed by the entry parameter
type pagedFetcher struct {
	pages    map[int][]string
	requests []url.Values
	err      error
}

func (f *pagedFetcher) Fetch(_ context.Context, pageURL string, params url.Values) (string, error) {
	if !strings.HasSuffix(pageURL, "/recherche.php") {
		return "", fmt.Errorf("unexpected URL %s", pageURL)
	}
	f.requests = append(f.requests, params)
	if f.err != nil {
		return "", f.err
	}

	entry, _ := strconv.Atoi(params.Get("entry"))
	var sb strings.Builder
	sb.WriteString(`<table width="100%"><tr><td>`)
	for _, sid := range f.pages[entry] {
		fmt.Fprintf(&sb, `<form action="sitzungen_top.php"><input type="hidden" name="sid" value="%s"></form>`, sid)
	}
	sb.WriteString(`</td></tr></table>`)
	return sb.String(), nil
}

func newFinder(f *pagedFetcher) *Finder {
	base, _ := url.Parse("http://darmstadt.more-rubin1.de/")
	return New(f, base, 2020, logger.NewNop())
}

func collect(t *testing.T, fd *Finder, committee string) ([]string, error) {
	t.Helper()
	var ids []string
	for id, err := range fd.Meetings(context.Background(), committee) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func TestMeetings_OffsetFollowsDistinctCount(t *testing.T) {
	f := &pagedFetcher{pages: map[int][]string{
		0: {"a", "b", "c"},
		// The server shifts by one and re-lists c
		3: {"c", "d", "", "e"},
		5: {},
	}}

	ids, err := collect(t, newFinder(f), "")
	if err != nil {
		t.Fatalf("Meetings() error = %v", err)
	}
	if strings.Join(ids, ",") != "a,b,c,d,e" {
		t.Errorf("ids = %v", ids)
	}

	var entries []string
	for _, p := range f.requests {
		entries = append(entries, p.Get("entry"))
	}
	if strings.Join(entries, ",") != "0,3,5" {
		t.Errorf("entries = %v, want 0,3,5", entries)
	}
}

func TestMeetings_SearchParams(t *testing.T) {
	f := &pagedFetcher{pages: map[int][]string{}}
	if _, err := collect(t, newFinder(f), "17"); err != nil {
		t.Fatalf("Meetings() error = %v", err)
	}
	if len(f.requests) != 1 {
		t.Fatalf("expected a single request, got %d", len(f.requests))
	}

	p := f.requests[0]
	checks := map[string]string{
		"select_gremium": "17",
		"datum_von":      "01.01.2020",
		"datum_bis":      "31.12.2020",
		"startsuche":     "Suche+starten",
		"suchbegriffe":   "",
		"entry":          "0",
	}
	for key, want := range checks {
		if got := p.Get(key); got != want {
			t.Errorf("param %s = %q, want %q", key, got, want)
		}
	}
}

// sequenceFetcher serves search result pages in request order
type sequenceFetcher struct {
	pages   [][]string
	entries []string
}

func (f *sequenceFetcher) Fetch(_ context.Context, _ string, params url.Values) (string, error) {
	f.entries = append(f.entries, params.Get("entry"))
	var sids []string
	if n := len(f.entries) - 1; n < len(f.pages) {
		sids = f.pages[n]
	}

	var sb strings.Builder
	sb.WriteString(`<table width="100%"><tr><td>`)
	for _, sid := range sids {
		fmt.Fprintf(&sb, `<input type="hidden" name="sid" value="%s">`, sid)
	}
	sb.WriteString(`</td></tr></table>`)
	return sb.String(), nil
}

func TestMeetings_EmptyValuesIgnored(t *testing.T) {
	f := &sequenceFetcher{pages: [][]string{
		{"", "a", ""},
		{""},
		{"b"},
	}}

	ids, err := collect(t, New(f, mustURL(t), 2020, logger.NewNop()), "")
	if err != nil {
		t.Fatalf("Meetings() error = %v", err)
	}
	if strings.Join(ids, ",") != "a,b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
	// A page holding only an empty sid is not the end of the search
	if strings.Join(f.entries, ",") != "0,1,1,2" {
		t.Errorf("entries = %v, want 0,1,1,2", f.entries)
	}
}

func TestMeetings_RepeatedPageIsAskedAgain(t *testing.T) {
	f := &sequenceFetcher{pages: [][]string{
		{"a", "b"},
		{"a", "b"},
		{"c", "d"},
	}}

	ids, err := collect(t, New(f, mustURL(t), 2020, logger.NewNop()), "")
	if err != nil {
		t.Fatalf("Meetings() error = %v", err)
	}
	if strings.Join(ids, ",") != "a,b,c,d" {
		t.Errorf("ids = %v, want [a b c d]", ids)
	}
	if strings.Join(f.entries, ",") != "0,2,2,4" {
		t.Errorf("entries = %v, want 0,2,2,4", f.entries)
	}
}

func TestMeetings_GivesUpOnEndlessRepeats(t *testing.T) {
	f := &pagedFetcher{pages: map[int][]string{
		0: {"a"},
		1: {"a"},
	}}

	ids, err := collect(t, newFinder(f), "")
	if err != nil {
		t.Fatalf("Meetings() error = %v", err)
	}
	if strings.Join(ids, ",") != "a" {
		t.Errorf("ids = %v, want [a]", ids)
	}
	if len(f.requests) != 1+maxStalledPages {
		t.Errorf("expected %d requests, got %d", 1+maxStalledPages, len(f.requests))
	}
}

func mustURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("http://darmstadt.more-rubin1.de/")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestMeetings_RestartsPerCall(t *testing.T) {
	f := &pagedFetcher{pages: map[int][]string{0: {"a", "b"}}}
	fd := newFinder(f)

	first, _ := collect(t, fd, "")
	second, _ := collect(t, fd, "")
	if strings.Join(first, ",") != "a,b" || strings.Join(second, ",") != "a,b" {
		t.Errorf("first = %v, second = %v", first, second)
	}
}

func TestMeetings_EarlyBreak(t *testing.T) {
	f := &pagedFetcher{pages: map[int][]string{0: {"a", "b", "c"}}}
	for id := range newFinder(f).Meetings(context.Background(), "") {
		if id == "a" {
			break
		}
	}
	if len(f.requests) != 1 {
		t.Errorf("expected 1 request, got %d", len(f.requests))
	}
}

func TestMeetings_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	if _, err := collect(t, newFinder(&pagedFetcher{err: boom}), ""); !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}

	missing := &tableless{}
	base, _ := url.Parse("http://darmstadt.more-rubin1.de/")
	fd := New(missing, base, 2020, logger.NewNop())
	ids, err := collect(t, fd, "")
	if !errors.Is(err, parser.ErrResultsTableMissing) {
		t.Errorf("expected ErrResultsTableMissing, got %v", err)
	}
	if len(ids) != 0 || missing.calls != 1 {
		t.Errorf("expected immediate stop, got ids=%v calls=%d", ids, missing.calls)
	}
}

type tableless struct {
	calls int
}

func (f *tableless) Fetch(context.Context, string, url.Values) (string, error) {
	f.calls++
	return `<html><body><p>Wartungsarbeiten</p></body></html>`, nil
}
