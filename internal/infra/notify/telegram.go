package notify

import (
	"mechanic-booking/internal/pkg/config"

	"github.com/go-telegram/bot"
)

// NewTelegramSender returns nil when no bot token is configured.
func NewTelegramSender(cfg config.TelegramConfig) (MessageSender, error) {
	if cfg.BotToken == "" {
		return nil, nil
	}
	// Outbound only, no getMe round trip at startup.
	b, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
	if err != nil {
		return nil, err
	}
	return b, nil
}
