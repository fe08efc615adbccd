package parser

import (
	"regexp"
	"strings"

	"ris-scraper/models"
)

// agendaColumns is the number of cells in a complete agenda row
const agendaColumns = 10

// billMarker introduces a bill reference inside an agenda item title
const billMarker = "[Vorlage: "

// billPattern matches "[Vorlage: SV-2020/0012, ..." as well as "[Vorlage: 2020/0012, ..."
var billPattern = regexp.MustCompile(`\[Vorlage: (?P<id>(?:SV-)?(?P<year>\d{4})/(?P<number>\d{4})[^,\]]*)`)

// ExtractBill derives year, number and full identifier of the bill referenced
// by an agenda item title. Titles without a bill reference yield empty strings.
func ExtractBill(title string) (year, number, id string) {
	if !strings.Contains(title, billMarker) {
		return "", "", ""
	}
	m := billPattern.FindStringSubmatch(title)
	if m == nil {
		return "", "", ""
	}
	return m[billPattern.SubexpIndex("year")], m[billPattern.SubexpIndex("number")], m[billPattern.SubexpIndex("id")]
}

// rawValue returns a cell's text exactly as printed; columns whose meaning
// is unknown are stored that way
func rawValue(c models.Cell) string {
	if tc, ok := c.(models.TextCell); ok && tc.Raw != "" {
		return tc.Raw
	}
	return c.Value()
}

// AgendaItems maps raw agenda rows to items numbered from 1. Rows without
// cells are dropped; rows with fewer than ten cells are dropped and their
// table index is reported in skipped.
func AgendaItems(sessionID string, rows [][]models.Cell) (items []models.AgendaItem, skipped []int) {
	position := 0
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if len(row) < agendaColumns {
			skipped = append(skipped, i)
			continue
		}

		position++
		title := row[4].Value()
		year, number, billID := ExtractBill(title)

		items = append(items, models.AgendaItem{
			SessionID:            sessionID,
			Position:             position,
			StateOfSecrecy:       row[0].Value(),
			ItemPosition:         row[1].Value(),
			UndocumentedColumn3:  rawValue(row[2]),
			DetailsLink:          row[3].Value(),
			FullTitle:            title,
			DocumentLink:         row[5].Value(),
			AttachmentLink:       row[6].Value(),
			DecisionLink:         row[7].Value(),
			UndocumentedColumn9:  rawValue(row[8]),
			UndocumentedColumn10: rawValue(row[9]),
			Year:                 year,
			BillNumber:           number,
			BillID:               billID,
		})
	}
	return items, skipped
}
