package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ris-scraper/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	// DefaultDSN stores everything in a local SQLite file
	DefaultDSN = "sqlite://darmstadt.db"

	pingTimeout = 5 * time.Second
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps the database connection
type DB struct {
	conn *sqlx.DB
	log  logger.Logger
}

// driverFor maps a DSN onto a registered driver name and its connection string
func driverFor(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	case strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="):
		return "postgres", dsn
	default:
		return "sqlite", dsn
	}
}

// NewDB opens the database named by dsn and creates missing tables.
// postgres:// DSNs use lib/pq, anything else is a SQLite file.
func NewDB(ctx context.Context, dsn string, log logger.Logger) (*DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	driver, source := driverFor(dsn)

	conn, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// One writer at a time, the scraper never runs concurrent inserts
		conn.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := New(conn, log)
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// New wraps an open connection without touching the schema
func New(conn *sqlx.DB, log logger.Logger) *DB {
	return &DB{conn: conn, log: log}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.conn.DriverName() == "postgres" {
		idColumn = "id SERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS updates (
			` + idColumn + `,
			scraped_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			` + idColumn + `,
			sid TEXT NOT NULL,
			title TEXT,
			body TEXT,
			location TEXT,
			begin_at TIMESTAMP,
			end_at TIMESTAMP,
			duration INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS agenda (
			` + idColumn + `,
			sid TEXT NOT NULL,
			position INTEGER NOT NULL,
			agenda_item_state_of_secrecy TEXT,
			agenda_item_position TEXT,
			undocumented_column3 TEXT,
			agenda_item_details_link TEXT,
			agenda_item_full_title TEXT,
			agenda_item_document_link TEXT,
			agenda_item_attachment_link TEXT,
			decision_link TEXT,
			undocumented_column9 TEXT,
			undocumented_column10 TEXT,
			year TEXT,
			billnumber TEXT,
			billid TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS "404attachments" (
			` + idColumn + `,
			agenda_item_id TEXT,
			attachments_page_url TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			` + idColumn + `,
			sid TEXT NOT NULL,
			agenda_item_id TEXT,
			attachment_title TEXT,
			attachment_file_url TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_sid ON sessions(sid)`,
		`CREATE INDEX IF NOT EXISTS idx_agenda_sid ON agenda(sid)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_sid ON attachments(sid)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}

	db.log.Debug("Database schema initialized", logger.String("driver", db.conn.DriverName()))
	return nil
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return strings.TrimSpace(line)
}
