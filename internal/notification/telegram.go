package notification

import (
	"context"
	"fmt"
	"time"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts order status changes to the operations chat. Sends are
// retried with exponential backoff; the caller only sees the final error.
type Telegram struct {
	bot        sender
	chatID     int64
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegram(bot, chatID), nil
}

func newTelegram(bot sender, chatID int64) *Telegram {
	return &Telegram{
		bot:        bot,
		chatID:     chatID,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 15 * time.Second
			return b
		},
	}
}

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	msg := tgbotapi.NewMessage(t.chatID, opsText(n))

	attempt := 0
	op := func() error {
		attempt++
		_, err := t.bot.Send(msg)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), t.maxRetries), ctx)
	err := backoff.Retry(op, b)

	metrics.NotificationsSent.WithLabelValues("telegram", metrics.Result(err)).Inc()
	if err != nil {
		logger.FromCtx(ctx).Warn("telegram notification failed",
			zap.Int64("order_id", n.OrderID),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return fmt.Errorf("telegram notification: %w", err)
	}
	return nil
}

func opsText(n Notification) string {
	return fmt.Sprintf("%s: order #%d for user %d is now %s (total %d)",
		n.Title(), n.OrderID, n.UserID, n.Status, n.OrderTotal)
}
