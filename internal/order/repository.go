package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawmart-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	historyLimit = 200
)

const orderColumns = `
	o.id, o.user_id, o.customer_name, o.customer_phone, o.shipping_address, o.city,
	o.total_amount, o.status, o.tracking_id, o.consignment_id, o.rejection_reason,
	o.checkout_session_id, o.created_at, o.updated_at, o.trashed_at`

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	History(ctx context.Context, phone, address string, excludeID int64, before time.Time) ([]HistoryEntry, error)
	Transition(ctx context.Context, req TransitionRequest) (*Order, error)
	Trash(ctx context.Context, id int64) (*Order, error)
	Restore(ctx context.Context, id int64) (*Order, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.ShippingAddress,
		&o.City,
		&o.TotalAmount,
		&o.Status,
		&o.TrackingID,
		&o.ConsignmentID,
		&o.RejectionReason,
		&o.CheckoutSessionID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.TrashedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.Int("item_count", len(o.Items)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, customer_name, customer_phone, shipping_address, city,
			total_amount, status, checkout_session_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`,
		o.UserID,
		o.CustomerName,
		o.CustomerPhone,
		o.ShippingAddress,
		o.City,
		o.TotalAmount,
		o.Status,
		o.CheckoutSessionID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, o.ID, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}
	committed = true

	log.Info("order created", zap.Int64("order_id", o.ID))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT`+orderColumns+` FROM orders o WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	return o, rows.Err()
}

// Normalize applies the pagination defaults and caps.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return f
}

func buildWhere(filter ListFilter) (string, []any) {
	var sb strings.Builder
	args := []any{}
	argIndex := 1

	if filter.Trashed {
		sb.WriteString(" WHERE o.trashed_at IS NOT NULL")
	} else {
		sb.WriteString(" WHERE o.trashed_at IS NULL")
	}

	if filter.UserID != nil {
		sb.WriteString(fmt.Sprintf(" AND o.user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		sb.WriteString(fmt.Sprintf(" AND o.status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		sb.WriteString(fmt.Sprintf(
			" AND (o.id::text ILIKE $%d OR o.customer_name ILIKE $%d OR o.customer_phone ILIKE $%d OR o.tracking_id ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex,
		))
		args = append(args, "%"+search+"%")
		argIndex++
	}

	if filter.DateFrom != nil {
		sb.WriteString(fmt.Sprintf(" AND o.created_at >= $%d", argIndex))
		args = append(args, *filter.DateFrom)
		argIndex++
	}

	if filter.DateTo != nil {
		sb.WriteString(fmt.Sprintf(" AND o.created_at <= $%d", argIndex))
		args = append(args, *filter.DateTo)
	}

	return sb.String(), args
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	filter = filter.Normalize()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.Int("limit", filter.Limit),
		zap.Int("page", filter.Page),
	)

	where, args := buildWhere(filter)
	query := `SELECT` + orderColumns + ` FROM orders o` + where + ` ORDER BY o.created_at DESC`
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	log.Debug("executing list orders query", zap.String("query", query))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return orders, nil
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	where, args := buildWhere(filter)

	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total)
	return total, err
}

// History returns orders placed before the given time from the same phone or
// address, newest first. Phones are compared on their digits only. Empty phone
// or address values never match.
func (r *repository) History(ctx context.Context, phone, address string, excludeID int64, before time.Time) ([]HistoryEntry, error) {
	phone = phoneDigits(phone)
	address = strings.TrimSpace(address)
	if phone == "" && address == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, total_amount, created_at
		FROM orders
		WHERE id <> $1
		  AND (regexp_replace(customer_phone, '[^0-9]', '', 'g') = NULLIF($2, '')
		       OR lower(shipping_address) = lower(NULLIF($3, '')))
		  AND created_at < $4
		ORDER BY created_at DESC
		LIMIT $5
	`, excludeID, phone, address, before, historyLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.OrderID, &h.Status, &h.TotalAmount, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}

	return history, rows.Err()
}

func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Transition moves an order from req.From to req.To. The update is
// conditional on the current status so concurrent reviewers cannot both win.
func (r *repository) Transition(ctx context.Context, req TransitionRequest) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Transition"),
		zap.Int64("order_id", req.OrderID),
		zap.String("from", string(req.From)),
		zap.String("to", string(req.To)),
	)

	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		UPDATE orders o SET
			status = $1,
			tracking_id = COALESCE($2, o.tracking_id),
			consignment_id = COALESCE($3, o.consignment_id),
			rejection_reason = COALESCE($4, o.rejection_reason),
			updated_at = NOW()
		WHERE o.id = $5
		  AND o.status = $6
		  AND o.trashed_at IS NULL
		RETURNING`+orderColumns,
		req.To,
		req.TrackingID,
		req.ConsignmentID,
		req.RejectionReason,
		req.OrderID,
		req.From,
	))
	if errors.Is(err, sql.ErrNoRows) {
		missErr := r.explainMiss(ctx, req.OrderID)
		log.Warn("status transition not applied", zap.Error(missErr))
		return nil, missErr
	}
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, err
	}

	return o, nil
}

func (r *repository) Trash(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		UPDATE orders o SET trashed_at = NOW(), updated_at = NOW()
		WHERE o.id = $1
		  AND o.trashed_at IS NULL
		  AND o.status NOT IN ('delivered', 'cancelled')
		RETURNING`+orderColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		missErr := r.explainMiss(ctx, id)
		if errors.Is(missErr, ErrStatusConflict) {
			// delivered and cancelled orders stay out of the trash
			return nil, ErrInvalidTransition
		}
		return nil, missErr
	}
	return o, err
}

func (r *repository) Restore(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		UPDATE orders o SET trashed_at = NULL, updated_at = NOW()
		WHERE o.id = $1
		  AND o.trashed_at IS NOT NULL
		RETURNING`+orderColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		if missErr := r.explainMiss(ctx, id); !errors.Is(missErr, ErrStatusConflict) {
			return nil, missErr
		}
		return nil, ErrOrderNotTrashed
	}
	return o, err
}

// explainMiss works out why a conditional update touched no rows.
func (r *repository) explainMiss(ctx context.Context, id int64) error {
	var (
		status    Status
		trashedAt *time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT status, trashed_at FROM orders WHERE id = $1`, id,
	).Scan(&status, &trashedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if trashedAt != nil {
		return ErrOrderTrashed
	}
	return ErrStatusConflict
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		WHERE trashed_at IS NULL
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int64, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}

	for rows.Next() {
		var (
			status Status
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	return counts, rows.Err()
}
