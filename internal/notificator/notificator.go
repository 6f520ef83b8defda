package notificator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rss3-network/gateway-dashboard/internal/config"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

// SendTimeout bounds a single delivery to one channel.
const SendTimeout = 10 * time.Second

// Notificator delivers dashboard events to the log and, when configured,
// to a Telegram chat and an e-mail address.
type Notificator struct {
	logger *logger.Logger

	TelegramNotificator *TelegramNotificator
	TelegramChatID      string
	EmailNotificator    *EmailNotificator
	Email               string
}

var _ models.NotificationService = (*Notificator)(nil)

func NewNotificator(logger *logger.Logger, telNotif *TelegramNotificator, chatID string, emailNotif *EmailNotificator, email string) *Notificator {
	return &Notificator{
		logger:              logger.Named("notificator"),
		TelegramNotificator: telNotif,
		TelegramChatID:      chatID,
		EmailNotificator:    emailNotif,
		Email:               email,
	}
}

// NewFromConfig wires the channels that have settings in cfg. The bot is
// created without a chat ID so it can answer /start; nothing is sent to
// Telegram until TELEGRAM_CHAT_ID is set.
func NewFromConfig(logger *logger.Logger, cfg *config.Config) (*Notificator, error) {
	var telNotif *TelegramNotificator
	if cfg.TelegramBotToken != "" {
		t, err := NewTelegramNotificator(logger.Named("telegram"), cfg.TelegramBotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notificator: %w", err)
		}
		telNotif = t
	}

	var emailNotif *EmailNotificator
	if cfg.SMTPHost != "" && cfg.NotificationEmail != "" {
		emailNotif = NewEmailNotificator(logger.Named("email"), cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender)
	}

	return NewNotificator(logger, telNotif, cfg.TelegramChatID, emailNotif, cfg.NotificationEmail), nil
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func() error, context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		n.logger.Error("Failed to deliver notification", "context", context, "error", err)
	}
}

func (n *Notificator) SendNotification(notification *models.Notification) {
	if notification.Kind == models.NotificationFailed {
		n.logger.Error(notification.Title, "kind", notification.Kind, "message", notification.Message, "tx", notification.TxHash)
	} else {
		n.logger.Info(notification.Title, "kind", notification.Kind, "message", notification.Message, "tx", notification.TxHash)
	}

	message := notification.String()
	if n.TelegramNotificator != nil && n.TelegramChatID != "" {
		n.safeCall(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
			defer cancel()
			return n.TelegramNotificator.SendNotification(ctx, n.TelegramChatID, message)
		}, "telegramNotification")
	}
	if n.EmailNotificator != nil && n.Email != "" {
		n.safeCall(func() error {
			return n.EmailNotificator.SendNotification(n.Email, notification.Title, message)
		}, "emailNotification")
	}
}
