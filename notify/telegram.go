// Package notify reports finished harvests to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ris-scraper/logger"
	"ris-scraper/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is satisfied by *tgbotapi.BotAPI
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends run summaries to a single chat
type Telegram struct {
	sender Sender
	chatID int64
	log    logger.Logger
}

// NewTelegram authorizes the bot and returns a notifier for chatID
func NewTelegram(token string, chatID int64, log logger.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	log.Info("Authorized Telegram bot", logger.String("account", bot.Self.UserName))
	return NewTelegramWithSender(bot, chatID, log), nil
}

// NewTelegramWithSender wraps an existing sender
func NewTelegramWithSender(sender Sender, chatID int64, log logger.Logger) *Telegram {
	return &Telegram{sender: sender, chatID: chatID, log: log}
}

// Notify sends the summary of a run
func (t *Telegram) Notify(ctx context.Context, summary models.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(summary))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send run summary: %w", err)
	}

	t.log.Debug("Sent run summary", logger.String("run_id", summary.RunID))
	return nil
}

// FormatSummary renders a summary as a Telegram HTML message
func FormatSummary(s models.RunSummary) string {
	var b strings.Builder

	switch {
	case s.Err != nil:
		fmt.Fprintf(&b, "❌ <b>%s %d</b>: run failed\n\n", escape(s.Domain), s.Year)
		fmt.Fprintf(&b, "%s\n\n", escape(s.Err.Error()))
	case s.Unchanged:
		fmt.Fprintf(&b, "💤 <b>%s %d</b>: no update since the last run\n\n", escape(s.Domain), s.Year)
	default:
		fmt.Fprintf(&b, "✅ <b>%s %d</b>: run finished\n\n", escape(s.Domain), s.Year)
	}

	if s.Err != nil || !s.Unchanged {
		fmt.Fprintf(&b, "📅 Sessions: %d\n", s.Sessions)
		fmt.Fprintf(&b, "📄 Agenda items: %d\n", s.AgendaItems)
		fmt.Fprintf(&b, "📎 Attachments: %d\n", s.Attachments)
		if s.Missing > 0 {
			fmt.Fprintf(&b, "⚠️ Not accessible: %d\n", s.Missing)
		}
		if len(s.Exported) > 0 {
			fmt.Fprintf(&b, "💾 Files: %d\n", len(s.Exported))
		}
	}

	fmt.Fprintf(&b, "⏱ %s\n", s.Duration().Round(time.Second))
	fmt.Fprintf(&b, "<code>%s</code>", escape(s.RunID))
	return b.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
