package notificator

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgModels "github.com/go-telegram/bot/models"

	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot
}

// NewTelegramNotificator creates the bot. Extra options are applied after
// the default ones.
func NewTelegramNotificator(logger *logger.Logger, token string, opts ...bot.Option) (*TelegramNotificator, error) {
	provider := &TelegramNotificator{
		logger: logger,
	}
	opts = append([]bot.Option{
		bot.WithDefaultHandler(provider.handler),
	}, opts...)

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	provider.bot = b

	return provider, nil
}

// Start polls for updates until ctx is done so /start can be answered.
func (t *TelegramNotificator) Start(ctx context.Context) {
	t.bot.Start(ctx)
}

func (t *TelegramNotificator) SendNotification(ctx context.Context, chatID, message string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   message,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// handler tells a user which chat ID to configure to receive notifications.
func (t *TelegramNotificator) handler(ctx context.Context, b *bot.Bot, update *tgModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	t.logger.Debug("Telegram update", "username", update.Message.From.Username, "text", update.Message.Text)

	if update.Message.Text != "/start" {
		return
	}
	chatID := fmt.Sprint(update.Message.Chat.ID)
	message := "Set TELEGRAM_CHAT_ID=" + chatID + " to receive billing notifications in this chat."
	if err := t.SendNotification(ctx, chatID, message); err != nil {
		t.logger.Error("Failed to answer /start", "error", err, "chat_id", chatID)
	}
}
