package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ris-scraper/db"
	"ris-scraper/logger"

	"github.com/xuri/excelize/v2"
)

type fakeReader struct {
	tables map[string]*db.Table
	err    error
}

func (f fakeReader) ReadTable(_ context.Context, name string) (*db.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[name], nil
}

func sampleTables() fakeReader {
	begin := time.Date(2020, 3, 15, 13, 0, 0, 0, time.UTC)
	return fakeReader{tables: map[string]*db.Table{
		db.TableSessions: {
			Name:    db.TableSessions,
			Columns: []string{"id", "sid", "title", "begin_at", "duration"},
			Rows: [][]any{
				{int64(1), "sid-1", "Sitzung, öffentlich", begin, int64(150)},
				{int64(2), "sid-2", "Sitzung", nil, nil},
			},
		},
		db.TableAgenda: {
			Name:    db.TableAgenda,
			Columns: []string{"id", "sid", "position"},
			Rows:    nil,
		},
	}}
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := New(dir, "da", true, logger.NewNop())

	written, err := e.Export(context.Background(), sampleTables())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := []string{
		"da-sessions.json", "da-sessions.csv", "da-sessions.xlsx",
		"da-agenda.json", "da-agenda.csv", "da-agenda.xlsx",
	}
	if len(written) != len(want) {
		t.Fatalf("written = %v", written)
	}
	for i, name := range want {
		if written[i] != filepath.Join(dir, name) {
			t.Errorf("written[%d] = %q, want %q", i, written[i], name)
		}
	}
}

func TestExport_JSON(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(dir, "da", false, logger.NewNop()).Export(context.Background(), sampleTables()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "da-sessions.json"))
	if err != nil {
		t.Fatalf("failed to read json: %v", err)
	}

	var doc struct {
		Count   int              `json:"count"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc.Count != 2 || len(doc.Results) != 2 {
		t.Fatalf("count = %d, results = %d", doc.Count, len(doc.Results))
	}
	if doc.Results[0]["begin_at"] != "2020-03-15T13:00:00Z" {
		t.Errorf("begin_at = %v", doc.Results[0]["begin_at"])
	}
	if doc.Results[1]["begin_at"] != nil {
		t.Errorf("NULL should be null, got %v", doc.Results[1]["begin_at"])
	}

	// Keys keep column order
	text := string(data)
	id, sid, title := strings.Index(text, `"id"`), strings.Index(text, `"sid"`), strings.Index(text, `"title"`)
	if id < 0 || id > sid || sid > title {
		t.Errorf("unexpected key order in %s", data)
	}

	empty, err := os.ReadFile(filepath.Join(dir, "da-agenda.json"))
	if err != nil {
		t.Fatalf("failed to read json: %v", err)
	}
	if !strings.Contains(string(empty), `"results": []`) {
		t.Errorf("empty table should export an empty list: %s", empty)
	}

	if _, err := os.Stat(filepath.Join(dir, "da-sessions.xlsx")); !os.IsNotExist(err) {
		t.Error("xlsx should not be written when disabled")
	}
}

func TestExport_CSV(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(dir, "bs", false, logger.NewNop()).Export(context.Background(), sampleTables()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "bs-sessions.csv"))
	if err != nil {
		t.Fatalf("failed to open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "id,sid,title,begin_at,duration" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][2] != "Sitzung, öffentlich" || records[1][4] != "150" {
		t.Errorf("row = %v", records[1])
	}
	if records[2][3] != "" {
		t.Errorf("NULL should be empty, got %q", records[2][3])
	}
}

func TestExport_XLSX(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(dir, "da", true, logger.NewNop()).Export(context.Background(), sampleTables()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "da-sessions.xlsx"))
	if err != nil {
		t.Fatalf("failed to open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(db.TableSessions)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "sid" || rows[1][1] != "sid-1" {
		t.Errorf("unexpected rows: %v", rows[:2])
	}
}

func TestExport_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(t.TempDir(), "da", false, logger.NewNop()).Export(context.Background(), fakeReader{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Export() error = %v, want %v", err, boom)
	}
}
