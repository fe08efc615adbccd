package models

// Cell is a single TOC table cell: either plain text or a link rebuilt from a form
type Cell interface {
	Value() string
	isCell()
}

// TextCell holds the visible text of a cell, trimmed and as printed
type TextCell struct {
	Text string
	Raw  string
}

// LinkCell holds the URL reconstructed from a form inside a cell
type LinkCell struct {
	URL string
}

func (c TextCell) Value() string { return c.Text }
func (c LinkCell) Value() string { return c.URL }

func (TextCell) isCell() {}
func (LinkCell) isCell() {}
