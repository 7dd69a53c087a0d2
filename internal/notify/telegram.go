package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"montafix/internal/models"
)

// Notifier delivers booking events to the assembly team.
type Notifier interface {
	BookingCreated(ctx context.Context, req *models.BookingRequest) error
}

// TelegramNotifier sends booking notifications to a staff chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info().Str("bot_username", bot.Self.UserName).Msg("Telegram notifier ready")
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// BookingCreated posts a summary of the new booking request to the staff chat.
func (n *TelegramNotifier) BookingCreated(ctx context.Context, req *models.BookingRequest) error {
	var b strings.Builder
	b.WriteString("🛠 New assembly booking\n\n")
	fmt.Fprintf(&b, "Reference: %s\n", req.Reference)
	fmt.Fprintf(&b, "Date: %s at %s\n", req.Date, req.Time)
	fmt.Fprintf(&b, "Customer: %s\n", req.Name)
	fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	if req.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", req.Email)
	}
	fmt.Fprintf(&b, "Address: %s\n", req.Address)
	fmt.Fprintf(&b, "Furniture: %s\n", req.FurnitureType)
	fmt.Fprintf(&b, "Estimate: %.2f, %.1fh", req.Cost, req.DurationHours)

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Str("reference", req.Reference).Msg("Failed to send booking notification")
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// NopNotifier discards all notifications. Used when Telegram is not configured.
type NopNotifier struct{}

func (NopNotifier) BookingCreated(ctx context.Context, req *models.BookingRequest) error {
	return nil
}
