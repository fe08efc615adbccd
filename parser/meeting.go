package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ris-scraper/form"
	"ris-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// terminPattern matches "15.03.2020, 14:00 Uhr - 16:30 Uhr". Separators may
// be non-breaking spaces, which goquery yields for &nbsp;.
var terminPattern = regexp.MustCompile(`(?P<day>\d{2})\.(?P<month>\d{2})\.(?P<year>\d{4}),[\s\x{00a0}](?P<fromH>\d{2}):(?P<fromM>\d{2})[\s\x{00a0}]Uhr[\s\x{00a0}]-[\s\x{00a0}](?P<untilH>\d{2}):(?P<untilM>\d{2})[\s\x{00a0}]Uhr`)

// Metadata is the result of parsing a meeting detail page
type Metadata struct {
	Session models.Session
	// UnparsedTermin holds the raw "Termin:" text when it did not match the date pattern
	UnparsedTermin string
}

// ParseMetadata extracts title, schedule, room and body of a meeting
func ParseMetadata(htmlContent, meetingID string, loc *time.Location) (*Metadata, error) {
	doc, err := newDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	heading := doc.Find("b.Suchueberschrift").First()
	if heading.Length() == 0 {
		return nil, ErrTitleMissing
	}

	table := doc.Find("div.InfoBlock").First().Find("table").First()
	if table.Length() == 0 {
		return nil, ErrInfoTableMissing
	}

	md := &Metadata{Session: models.Session{ID: meetingID, Title: strings.TrimSpace(heading.Text())}}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())

		switch key {
		case "Termin:":
			begin, end, minutes, ok := ParseTermin(value, loc)
			if !ok {
				md.UnparsedTermin = value
				return
			}
			md.Session.Begin = &begin
			md.Session.End = &end
			md.Session.Duration = &minutes
		case "Raum:":
			md.Session.Location = value
		case "Gremien:":
			md.Session.Body = value
		}
	})

	return md, nil
}

// ParseTermin reads begin, end and duration in minutes from a "Termin:" value.
// An end time before the begin time is taken to be on the following day
// for the duration only; End keeps the date printed on the page.
func ParseTermin(value string, loc *time.Location) (begin, end time.Time, minutes int, ok bool) {
	m := terminPattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, time.Time{}, 0, false
	}
	if loc == nil {
		loc = time.Local
	}

	group := func(name string) int {
		n, _ := strconv.Atoi(m[terminPattern.SubexpIndex(name)])
		return n
	}
	year, month, day := group("year"), time.Month(group("month")), group("day")

	begin = time.Date(year, month, day, group("fromH"), group("fromM"), 0, 0, loc)
	end = time.Date(year, month, day, group("untilH"), group("untilM"), 0, 0, loc)

	minutes = int(end.Sub(begin) / time.Minute)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return begin, end, minutes, true
}

// ParseTOC returns the raw agenda table of a meeting detail page. A page
// without agenda container yields no rows and no error.
func ParseTOC(htmlContent string, baseURL *url.URL) ([][]models.Cell, error) {
	doc, err := newDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	container := doc.Find("div#ajax_sitzungsmappe").First()
	if container.Length() == 0 {
		return nil, nil
	}
	table := container.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrTOCTableMissing
	}

	var rows [][]models.Cell
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []models.Cell
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			if td.Find("form").Length() > 0 {
				row = append(row, models.LinkCell{URL: resolve(baseURL, form.FromSelection(td).URL())})
				return
			}
			text := td.Text()
			row = append(row, models.TextCell{Text: strings.TrimSpace(text), Raw: text})
		})
		rows = append(rows, row)
	})
	return rows, nil
}

// resolve joins ref onto base keeping the query exactly as reconstructed
func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	path, query, _ := strings.Cut(ref, "?")
	u, err := base.Parse(path)
	if err != nil {
		return base.String() + ref
	}
	return u.String() + "?" + query
}
