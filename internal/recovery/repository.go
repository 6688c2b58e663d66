package recovery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pawmart-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Upsert(ctx context.Context, d Draft) error
	MarkConverted(ctx context.Context, sessionID string, orderID int64) error
	ListOpen(ctx context.Context, limit int) ([]IncompleteOrder, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Upsert keeps one row per checkout session. Converted drafts are never
// reopened by a late write.
func (r *repository) Upsert(ctx context.Context, d Draft) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("encode draft items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkout_drafts (
			session_id, customer_name, customer_phone, shipping_address,
			items, total_amount, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (session_id) DO UPDATE SET
			customer_name = EXCLUDED.customer_name,
			customer_phone = EXCLUDED.customer_phone,
			shipping_address = EXCLUDED.shipping_address,
			items = EXCLUDED.items,
			total_amount = EXCLUDED.total_amount,
			updated_at = EXCLUDED.updated_at
		WHERE checkout_drafts.converted_order_id IS NULL
	`,
		d.SessionID,
		d.CustomerName,
		d.CustomerPhone,
		d.ShippingAddress,
		items,
		d.TotalAmount,
		d.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to upsert checkout draft",
			zap.String("layer", "repository"),
			zap.String("session_id", d.SessionID),
			zap.Error(err),
		)
	}
	return err
}

// MarkConverted stores the conversion even when no draft row exists yet, so
// a draft write that lands afterwards finds the session closed.
func (r *repository) MarkConverted(ctx context.Context, sessionID string, orderID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checkout_drafts (session_id, customer_phone, converted_order_id, updated_at)
		VALUES ($1, '', $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			converted_order_id = EXCLUDED.converted_order_id,
			updated_at = NOW()
	`, sessionID, orderID)
	return err
}

func (r *repository) ListOpen(ctx context.Context, limit int) ([]IncompleteOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, customer_name, customer_phone, shipping_address,
			items, total_amount, updated_at, created_at
		FROM checkout_drafts
		WHERE converted_order_id IS NULL
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IncompleteOrder
	for rows.Next() {
		var (
			draft IncompleteOrder
			items []byte
		)
		if err := rows.Scan(
			&draft.SessionID,
			&draft.CustomerName,
			&draft.CustomerPhone,
			&draft.ShippingAddress,
			&items,
			&draft.TotalAmount,
			&draft.UpdatedAt,
			&draft.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &draft.Items); err != nil {
			return nil, fmt.Errorf("decode draft %s items: %w", draft.SessionID, err)
		}
		out = append(out, draft)
	}
	return out, rows.Err()
}
