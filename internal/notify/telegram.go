// Package notify pushes Telegram messages to users who linked a chat id.
// Everything here is best-effort: a failed notification never fails the
// operation that triggered it.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/observability"
)

type Notifier struct {
	bot *tgbotapi.BotAPI
	log *zap.SugaredLogger
}

// New returns a disabled notifier when token is empty.
func New(token string, log *zap.SugaredLogger) (*Notifier, error) {
	if token == "" {
		return &Notifier{log: log}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Notifier{bot: bot, log: log}, nil
}

func (n *Notifier) Enabled() bool { return n != nil && n.bot != nil }

func (n *Notifier) AccessGranted(chatID int64, childName string, rel models.Relationship) {
	n.send(chatID, fmt.Sprintf("You were given access to %s's records (%s).", childName, rel))
}

func (n *Notifier) AccessRevoked(chatID int64, childName string) {
	n.send(chatID, fmt.Sprintf("Your access to %s's records was revoked.", childName))
}

func (n *Notifier) send(chatID int64, text string) {
	if !n.Enabled() || chatID == 0 {
		return
	}
	_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		if isSystemErr(err) {
			observability.CaptureErr(err)
		}
		if n.log != nil {
			n.log.Warnw("telegram send failed", "chat_id", chatID, "err", err)
		}
	}
}

// System errors (5xx, 429, timeouts) go to Sentry; Telegram-side validation
// noise does not.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") || strings.Contains(s, "chat not found") {
		return false
	}
	return strings.Contains(s, "429") || strings.Contains(s, "502") ||
		strings.Contains(s, "503") || strings.Contains(s, "timeout")
}
