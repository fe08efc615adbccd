package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"ris-scraper/logger"
	"ris-scraper/models"
	"ris-scraper/parser"
)

const base = "http://darmstadt.more-rubin1.de/"

// routeFetcher serves fixed pages keyed by the full request URL
type routeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *routeFetcher) Fetch(_ context.Context, pageURL string, params url.Values) (string, error) {
	key := pageURL
	if len(params) > 0 {
		key += "?" + params.Encode()
	}
	f.calls = append(f.calls, key)
	html, ok := f.pages[key]
	if !ok {
		return "", fmt.Errorf("no page for %s", key)
	}
	return html, nil
}

const meetingPage = `<html><body>
<b class="Suchueberschrift">Sitzung des Bauausschusses</b>
<div class="InfoBlock"><table>
	<tr><td>Termin:</td><td>15.03.2020, 14:00 Uhr - 16:30 Uhr</td></tr>
	<tr><td>Raum:</td><td>Saal 2</td></tr>
	<tr><td>Gremien:</td><td>Bauausschuss</td></tr>
</table></div>
<div id="ajax_sitzungsmappe"><table>
	<tr>
		<td>ö</td><td>1</td><td></td><td>D</td><td>[Vorlage: SV-2020/0012, Neubau]</td><td>Dok</td>
		<td><form action="anlagen.php"><input type="hidden" name="vid" value="12"></form></td>
		<td>B</td><td></td><td></td>
	</tr>
	<tr>
		<td>ö</td><td>2</td><td></td><td>D</td><td>[Vorlage: 2020/0013, Umbau]</td><td>Dok</td>
		<td><form action="anlagen.php"><input type="hidden" name="vid" value="13"></form></td>
		<td>B</td><td></td><td></td>
	</tr>
	<tr><td>ö</td><td>3</td><td></td><td></td><td>Verschiedenes</td><td></td><td></td><td></td><td></td><td></td></tr>
</table></div>
</body></html>`

func newScraper(t *testing.T, f *routeFetcher) *Scraper {
	t.Helper()
	u, _ := url.Parse(base)
	s, err := New("sid-1", f, u, time.UTC, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_RejectsEmptyID(t *testing.T) {
	u, _ := url.Parse(base)
	if _, err := New("", &routeFetcher{}, u, time.UTC, logger.NewNop()); !errors.Is(err, ErrInvalidMeetingID) {
		t.Errorf("expected ErrInvalidMeetingID, got %v", err)
	}
}

func TestMetadata(t *testing.T) {
	f := &routeFetcher{pages: map[string]string{base + "sitzungen_top.php?sid=sid-1": meetingPage}}
	session, err := newScraper(t, f).Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if session.Title != "Sitzung des Bauausschusses" || session.Body != "Bauausschuss" || session.Location != "Saal 2" {
		t.Errorf("unexpected session: %+v", session)
	}
	if session.Duration == nil || *session.Duration != 150 {
		t.Errorf("Duration = %v", session.Duration)
	}
}

func TestMetadata_MissingLayout(t *testing.T) {
	f := &routeFetcher{pages: map[string]string{base + "sitzungen_top.php?sid=sid-1": `<p>Fehler</p>`}}
	if _, err := newScraper(t, f).Metadata(context.Background()); !errors.Is(err, parser.ErrTitleMissing) {
		t.Errorf("expected ErrTitleMissing, got %v", err)
	}
}

func TestTOCAndAttachments(t *testing.T) {
	f := &routeFetcher{pages: map[string]string{
		base + "sitzungen_top.php?sid=sid-1": meetingPage,
		base + "anlagen.php?vid=12": `<html><body>
			<form action="getfile.php"><input type="hidden" name="id" value="1">Plan</form>
			<form action="getfile.php"><input type="hidden" name="id" value="2">Gutachten</form>
		</body></html>`,
		base + "anlagen.php?vid=13": `<p>Auf die Anlage konnte nicht zugegriffen werden oder Sie existiert nicht mehr.</p>
			<form action="getfile.php"><input type="hidden" name="id" value="3">Alt</form>`,
	}}
	s := newScraper(t, f)
	ctx := context.Background()

	var items []models.AgendaItem
	for item, err := range s.TOC(ctx) {
		if err != nil {
			t.Fatalf("TOC() error = %v", err)
		}
		items = append(items, item)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 agenda items, got %d", len(items))
	}
	if items[0].AttachmentLink != base+"anlagen.php?vid=12" || items[0].BillID != "SV-2020/0012" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Year != "2020" || items[1].BillNumber != "0013" || items[1].Position != 2 {
		t.Errorf("unexpected second item: %+v", items[1])
	}

	var files []models.Attachment
	var missing []models.MissingAttachment
	for _, item := range items {
		for res, err := range s.Attachments(ctx, item) {
			if err != nil {
				t.Fatalf("Attachments() error = %v", err)
			}
			if res.Attachment != nil {
				files = append(files, *res.Attachment)
			}
			if res.Missing != nil {
				missing = append(missing, *res.Missing)
			}
		}
	}

	expectedFiles := []models.Attachment{
		{SessionID: "sid-1", AgendaItemID: "SV-2020/0012", Title: "Plan", FileURL: base + "getfile.php?id=1"},
		{SessionID: "sid-1", AgendaItemID: "SV-2020/0012", Title: "Gutachten", FileURL: base + "getfile.php?id=2"},
	}
	if len(files) != len(expectedFiles) {
		t.Fatalf("expected %d attachments, got %d", len(expectedFiles), len(files))
	}
	for i := range files {
		if files[i] != expectedFiles[i] {
			t.Errorf("attachment %d = %+v, want %+v", i, files[i], expectedFiles[i])
		}
	}

	if len(missing) != 1 || missing[0] != (models.MissingAttachment{AgendaItemID: "2020/0013", PageURL: base + "anlagen.php?vid=13"}) {
		t.Errorf("missing = %+v", missing)
	}

	// one detail page and two attachments pages, item 3 has none
	if len(f.calls) != 3 {
		t.Errorf("expected 3 fetches, got %v", f.calls)
	}
}

func TestTOC_NoContainer(t *testing.T) {
	f := &routeFetcher{pages: map[string]string{base + "sitzungen_top.php?sid=sid-1": `<b class="Suchueberschrift">T</b>`}}
	count := 0
	for _, err := range newScraper(t, f).TOC(context.Background()) {
		if err != nil {
			t.Fatalf("TOC() error = %v", err)
		}
		count++
	}
	if count != 0 {
		t.Errorf("expected empty agenda, got %d items", count)
	}
}

func TestTOC_FetchError(t *testing.T) {
	var got error
	for _, err := range newScraper(t, &routeFetcher{}).TOC(context.Background()) {
		got = err
	}
	if got == nil {
		t.Error("expected fetch error")
	}
}

func TestCommittees(t *testing.T) {
	f := &routeFetcher{pages: map[string]string{base + "recherche.php": `<select id="select_gremium">
		<option value="">alle</option><option value="3">Magistrat</option></select>`}}
	u, _ := url.Parse(base)

	got, err := Committees(context.Background(), f, u)
	if err != nil {
		t.Fatalf("Committees() error = %v", err)
	}
	if len(got) != 1 || got[0] != (models.Committee{ID: "3", Name: "Magistrat"}) {
		t.Errorf("Committees() = %+v", got)
	}
}
