package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/models"
	"notification-orchestrator/internal/utils"
)

var (
	// telegramLimiter is shared by every escalation sent through the bot.
	telegramLimiter     *rate.Limiter
	telegramLimiterOnce sync.Once
)

func limiter(ratePerSecond int) *rate.Limiter {
	telegramLimiterOnce.Do(func() {
		telegramLimiter = rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond)
	})
	return telegramLimiter
}

// SendTelegram pushes an escalated notification to the configured chat.
func SendTelegram(ctx context.Context, notif models.Notification, cfg config.Config, logger *logging.Logger) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("missing bot_token in Telegram configuration")
	}
	if cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("missing chat_id in Telegram configuration")
	}

	if err := limiter(cfg.Telegram.RateLimit).Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	text := EscalationText(notif)
	return utils.Retry(ctx, logger, 3, time.Second, func() error {
		b, err := bot.New(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}

		params := &bot.SendMessageParams{
			ChatID:    cfg.Telegram.ChatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeMarkdown,
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", cfg.Telegram.ChatID, err)
		}
		return nil
	})
}
