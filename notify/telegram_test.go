package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ris-scraper/logger"
	"ris-scraper/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type recordingSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, r.err
}

func summary() models.RunSummary {
	start := time.Date(2020, 3, 15, 6, 0, 0, 0, time.UTC)
	return models.RunSummary{
		RunID:       "run-1",
		Domain:      "darmstadt",
		Year:        2020,
		StartedAt:   start,
		FinishedAt:  start.Add(95 * time.Second),
		Sessions:    3,
		AgendaItems: 41,
		Attachments: 17,
		Missing:     2,
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*models.RunSummary)
		contains []string
		excludes []string
	}{
		{
			name:     "finished",
			modify:   func(*models.RunSummary) {},
			contains: []string{"✅ <b>darmstadt 2020</b>", "Sessions: 3", "Agenda items: 41", "Attachments: 17", "Not accessible: 2", "1m35s", "<code>run-1</code>"},
		},
		{
			name:     "unchanged",
			modify:   func(s *models.RunSummary) { s.Unchanged = true },
			contains: []string{"💤", "no update"},
			excludes: []string{"Sessions:"},
		},
		{
			name:     "failed",
			modify:   func(s *models.RunSummary) { s.Err = errors.New("results table <missing>") },
			contains: []string{"❌", "results table &lt;missing&gt;", "Sessions: 3"},
		},
		{
			name:     "no missing attachments",
			modify:   func(s *models.RunSummary) { s.Missing = 0 },
			excludes: []string{"Not accessible"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := summary()
			tt.modify(&s)
			got := FormatSummary(s)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q in %q", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("unexpected %q in %q", unwanted, got)
				}
			}
		})
	}
}

func TestNotify(t *testing.T) {
	sender := &recordingSender{}
	n := NewTelegramWithSender(sender, 42, logger.NewNop())

	if err := n.Notify(context.Background(), summary()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected message type %T", sender.sent[0])
	}
	if msg.ChatID != 42 || msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("ChatID = %d, ParseMode = %q", msg.ChatID, msg.ParseMode)
	}
}

func TestNotify_Error(t *testing.T) {
	boom := errors.New("boom")
	n := NewTelegramWithSender(&recordingSender{err: boom}, 42, logger.NewNop())

	if err := n.Notify(context.Background(), summary()); !errors.Is(err, boom) {
		t.Errorf("Notify() error = %v, want %v", err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, summary()); !errors.Is(err, context.Canceled) {
		t.Errorf("Notify() with canceled context = %v", err)
	}
}
