package models

import "time"

// RunSummary describes one harvest
type RunSummary struct {
	RunID       string
	Domain      string
	Year        int
	StartedAt   time.Time
	FinishedAt  time.Time
	Unchanged   bool // skipped because the site reported no update
	Sessions    int
	AgendaItems int
	Attachments int
	Missing     int
	Exported    []string
	Err         error
}

// Duration is the wall time of the run
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
