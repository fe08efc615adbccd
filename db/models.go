package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ris-scraper/models"
)

// Tables that can be exported
const (
	TableSessions = "sessions"
	TableAgenda   = "agenda"
)

// RecordUpdate stores the time a scrape run started
func (db *DB) RecordUpdate(ctx context.Context, scrapedAt time.Time) error {
	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO updates (scraped_at) VALUES (:scraped_at)`,
		models.Update{ScrapedAt: scrapedAt.UTC()})
	if err != nil {
		return fmt.Errorf("failed to record update: %w", err)
	}
	return nil
}

// LastScrapedAt returns the latest recorded scrape time, nil if there is none
func (db *DB) LastScrapedAt(ctx context.Context) (*time.Time, error) {
	var ts time.Time
	err := db.conn.GetContext(ctx, &ts, `SELECT scraped_at FROM updates ORDER BY scraped_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last scrape time: %w", err)
	}
	return &ts, nil
}

// SaveSession stores the metadata of one meeting
func (db *DB) SaveSession(ctx context.Context, s models.Session) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO sessions (sid, title, body, location, begin_at, end_at, duration)
		VALUES (:sid, :title, :body, :location, :begin_at, :end_at, :duration)
	`, s)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

// SaveAgendaItem stores one agenda item
func (db *DB) SaveAgendaItem(ctx context.Context, item models.AgendaItem) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO agenda (sid, position, agenda_item_state_of_secrecy, agenda_item_position,
			undocumented_column3, agenda_item_details_link, agenda_item_full_title,
			agenda_item_document_link, agenda_item_attachment_link, decision_link,
			undocumented_column9, undocumented_column10, year, billnumber, billid)
		VALUES (:sid, :position, :agenda_item_state_of_secrecy, :agenda_item_position,
			:undocumented_column3, :agenda_item_details_link, :agenda_item_full_title,
			:agenda_item_document_link, :agenda_item_attachment_link, :decision_link,
			:undocumented_column9, :undocumented_column10, :year, :billnumber, :billid)
	`, item)
	if err != nil {
		return fmt.Errorf("failed to save agenda item %d of %s: %w", item.Position, item.SessionID, err)
	}
	return nil
}

// SaveAttachment stores one attachment link
func (db *DB) SaveAttachment(ctx context.Context, a models.Attachment) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO attachments (sid, agenda_item_id, attachment_title, attachment_file_url)
		VALUES (:sid, :agenda_item_id, :attachment_title, :attachment_file_url)
	`, a)
	if err != nil {
		return fmt.Errorf("failed to save attachment: %w", err)
	}
	return nil
}

// SaveMissingAttachment stores an attachments page that reported missing files
func (db *DB) SaveMissingAttachment(ctx context.Context, m models.MissingAttachment) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO "404attachments" (agenda_item_id, attachments_page_url)
		VALUES (:agenda_item_id, :attachments_page_url)
	`, m)
	if err != nil {
		return fmt.Errorf("failed to save missing attachment: %w", err)
	}
	return nil
}

// Table is a flattened copy of one table in column order
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// ReadTable returns every row of an exportable table, ordered by insertion
func (db *DB) ReadTable(ctx context.Context, name string) (*Table, error) {
	if name != TableSessions && name != TableAgenda {
		return nil, fmt.Errorf("table %q cannot be exported", name)
	}

	rows, err := db.conn.QueryxContext(ctx, `SELECT * FROM `+name+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	table := &Table{Name: name, Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		for i, v := range values {
			// Drivers hand back TEXT columns as []byte
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", name, err)
	}
	return table, nil
}
