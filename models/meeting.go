package models

import (
	"strings"
	"time"
)

// Committee is a council body selectable on the search page
type Committee struct {
	ID   string
	Name string
}

// Session holds the metadata of one meeting
type Session struct {
	ID       string     `db:"sid"`
	Title    string     `db:"title"`
	Body     string     `db:"body"`
	Location string     `db:"location"`
	Begin    *time.Time `db:"begin_at"`
	End      *time.Time `db:"end_at"`
	Duration *int       `db:"duration"` // Minutes
}

// AgendaItem is one row (TOP) of a meeting's table of contents
type AgendaItem struct {
	SessionID            string `db:"sid"`
	Position             int    `db:"position"`
	StateOfSecrecy       string `db:"agenda_item_state_of_secrecy"`
	ItemPosition         string `db:"agenda_item_position"`
	UndocumentedColumn3  string `db:"undocumented_column3"`
	DetailsLink          string `db:"agenda_item_details_link"`
	FullTitle            string `db:"agenda_item_full_title"`
	DocumentLink         string `db:"agenda_item_document_link"`
	AttachmentLink       string `db:"agenda_item_attachment_link"`
	DecisionLink         string `db:"decision_link"`
	UndocumentedColumn9  string `db:"undocumented_column9"`
	UndocumentedColumn10 string `db:"undocumented_column10"`
	Year                 string `db:"year"`
	BillNumber           string `db:"billnumber"`
	BillID               string `db:"billid"`
}

// HasAttachmentPage reports whether the attachment column points to a crawlable page
func (a AgendaItem) HasAttachmentPage() bool {
	return strings.HasPrefix(a.AttachmentLink, "http://") || strings.HasPrefix(a.AttachmentLink, "https://")
}

// Attachment is one file offered on an agenda item's attachments page
type Attachment struct {
	SessionID    string `db:"sid"`
	AgendaItemID string `db:"agenda_item_id"`
	Title        string `db:"attachment_title"`
	FileURL      string `db:"attachment_file_url"`
}

// MissingAttachment records an attachments page that reported its content as unavailable
type MissingAttachment struct {
	AgendaItemID string `db:"agenda_item_id"`
	PageURL      string `db:"attachments_page_url"`
}

// Update marks one scrape run
type Update struct {
	ScrapedAt time.Time `db:"scraped_at"`
}
