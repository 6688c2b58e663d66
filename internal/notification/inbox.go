package notification

import (
	"context"
	"database/sql"
	"fmt"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/metrics"

	"go.uber.org/zap"
)

const typeOrderStatus = "order_status"

// Inbox stores notifications in the notifications table that the
// storefront subscribes to.
type Inbox struct {
	db *sql.DB
}

func NewInbox(db *sql.DB) *Inbox {
	return &Inbox{db: db}
}

func (i *Inbox) Notify(ctx context.Context, n Notification) error {
	_, err := i.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, link)
		VALUES ($1,$2,$3,$4,$5)
	`, n.UserID, n.Title(), n.Message(), typeOrderStatus, n.Link())

	metrics.NotificationsSent.WithLabelValues("inbox", metrics.Result(err)).Inc()
	if err != nil {
		logger.FromCtx(ctx).Error("failed to store notification",
			zap.Int64("user_id", n.UserID),
			zap.Int64("order_id", n.OrderID),
			zap.Error(err),
		)
		return fmt.Errorf("inbox notification: %w", err)
	}
	return nil
}

func (i *Inbox) ListForUser(ctx context.Context, userID int64, limit int) ([]InboxItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, link, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InboxItem
	for rows.Next() {
		var it InboxItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Title, &it.Message, &it.Type, &it.Link, &it.Read, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (i *Inbox) MarkRead(ctx context.Context, userID, id int64) error {
	_, err := i.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}
