// Package export writes stored tables to files next to the database.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ris-scraper/db"
	"ris-scraper/logger"

	"github.com/xuri/excelize/v2"
)

// Tables are exported in this order
var Tables = []string{db.TableSessions, db.TableAgenda}

// TableReader is the part of the store the exporter needs
type TableReader interface {
	ReadTable(ctx context.Context, name string) (*db.Table, error)
}

// Exporter dumps tables as JSON, CSV and optionally XLSX
type Exporter struct {
	dir    string
	prefix string
	xlsx   bool
	log    logger.Logger
}

// New creates an exporter writing <prefix>-<table>.<ext> files into dir
func New(dir, prefix string, xlsx bool, log logger.Logger) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, prefix: prefix, xlsx: xlsx, log: log}
}

// Export reads every exportable table and writes its files.
// It returns the paths written, in order.
func (e *Exporter) Export(ctx context.Context, r TableReader) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var written []string
	for _, name := range Tables {
		table, err := r.ReadTable(ctx, name)
		if err != nil {
			return written, err
		}

		paths, err := e.WriteTable(table)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
		e.log.Info("Exported table",
			logger.String("table", name),
			logger.Int("rows", len(table.Rows)),
		)
	}
	return written, nil
}

// WriteTable writes the files for a single table
func (e *Exporter) WriteTable(table *db.Table) ([]string, error) {
	base := filepath.Join(e.dir, e.prefix+"-"+table.Name)

	var written []string
	jsonPath := base + ".json"
	if err := writeJSON(jsonPath, table); err != nil {
		return written, err
	}
	written = append(written, jsonPath)

	csvPath := base + ".csv"
	if err := writeCSV(csvPath, table); err != nil {
		return written, err
	}
	written = append(written, csvPath)

	if e.xlsx {
		xlsxPath := base + ".xlsx"
		if err := writeXLSX(xlsxPath, table); err != nil {
			return written, err
		}
		written = append(written, xlsxPath)
	}
	return written, nil
}

// row marshals as a JSON object with keys in column order
type row struct {
	columns []string
	values  []any
}

func (r row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(path string, table *db.Table) error {
	results := make([]row, 0, len(table.Rows))
	for _, values := range table.Rows {
		results = append(results, row{columns: table.Columns, values: values})
	}

	data, err := json.MarshalIndent(struct {
		Count   int   `json:"count"`
		Results []row `json:"results"`
	}{Count: len(results), Results: results}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", table.Name, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, table *db.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, values := range table.Rows {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeXLSX(path string, table *db.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", table.Name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(table.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, values := range table.Rows {
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(table.Name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// formatValue renders a stored value for the text formats
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
