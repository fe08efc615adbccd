package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"ris-scraper/db"
	"ris-scraper/logger"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer mirrors exported tables into a Google spreadsheet
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	log           logger.Logger
}

// NewWriter creates a new Google Sheets writer
func NewWriter(ctx context.Context, spreadsheetID string, credentialsPath string, log logger.Logger) (*Writer, error) {
	credsJSON, err := readCredentials(credentialsPath, log)
	if err != nil {
		return nil, err
	}

	// Parse and validate JSON
	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}

	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// readCredentials reads the service account from a file or from GOOGLE_SHEETS_CREDENTIALS
func readCredentials(credentialsPath string, log logger.Logger) ([]byte, error) {
	if credentialsPath != "" {
		credsJSON, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return credsJSON, nil
	}

	// Trim whitespace and newlines that might be in the environment variable
	credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
	if credsEnv == "" {
		return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
	}
	log.Debug("Reading credentials from GOOGLE_SHEETS_CREDENTIALS", logger.Int("bytes", len(credsEnv)))
	return []byte(credsEnv), nil
}

// WriteTable replaces the contents of the sheet named after the table,
// creating the sheet first if the spreadsheet does not have it yet
func (w *Writer) WriteTable(ctx context.Context, table *db.Table) error {
	sheetName := sanitizeSheetName(table.Name)

	if err := w.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	_, err := w.service.Spreadsheets.Values.Clear(w.spreadsheetID, sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		w.log.Warn("Failed to clear existing data", logger.String("sheet", sheetName), logger.Error(err))
	}

	valueRange := &sheets.ValueRange{
		Values: tableValues(table),
	}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, sheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet %s: %w", sheetName, err)
	}

	w.log.Info("Wrote table to Google Sheets",
		logger.String("sheet", sheetName),
		logger.Int("rows", len(table.Rows)),
	)
	return nil
}

func (w *Writer) ensureSheet(ctx context.Context, sheetName string) error {
	spreadsheet, err := w.service.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == sheetName {
			return nil
		}
	}

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				},
			},
		},
	}
	if _, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	w.log.Info("Created sheet", logger.String("sheet", sheetName))
	return nil
}

// tableValues converts a table into sheet rows, header first
func tableValues(table *db.Table) [][]interface{} {
	values := make([][]interface{}, 0, len(table.Rows)+1)

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	values = append(values, header)

	for _, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			switch x := v.(type) {
			case nil:
				cells[i] = ""
			case time.Time:
				cells[i] = x.Format(time.RFC3339)
			default:
				cells[i] = x
			}
		}
		values = append(values, cells)
	}
	return values
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ]
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// Handle various URL formats:
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
