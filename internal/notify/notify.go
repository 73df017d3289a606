// Package notify forwards operator-facing messages, such as simulated replies and
// failed posts, to a chat.
package notify

import (
	"context"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageLength is Telegram's limit for a single text message, in characters.
const maxMessageLength = 4096

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return newTelegram(api, chatID, logger), nil
}

// NewTelegramWithEndpoint talks to a Telegram-compatible API at endpoint, which must
// contain the two %s verbs for token and method.
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return newTelegram(api, chatID, logger), nil
}

func newTelegram(api *tgbotapi.BotAPI, chatID int64, logger *zap.Logger) *Telegram {
	logger.Info("Telegram notifications enabled",
		zap.String("bot", api.Self.UserName),
		zap.Int64("chat_id", chatID))
	return &Telegram{api: api, chatID: chatID, logger: logger}
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, clip(text))
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func clip(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxMessageLength-1]) + "…"
}
