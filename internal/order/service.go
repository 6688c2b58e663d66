package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"pawmart-be/internal/cache"
	"pawmart-be/internal/fraud"
	"pawmart-be/internal/logger"
	"pawmart-be/internal/metrics"
	"pawmart-be/internal/notification"
	"pawmart-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	AcceptOrder(ctx context.Context, id int64, in AcceptInput) (*Order, error)
	RejectOrder(ctx context.Context, id int64, in RejectInput) (*Order, error)
	AdvanceOrder(ctx context.Context, id int64) (*Order, error)
	TrashOrder(ctx context.Context, id int64) (*Order, error)
	RestoreOrder(ctx context.Context, id int64) (*Order, error)

	GetOrder(ctx context.Context, id int64) (*OrderReview, error)
	AnalyzeOrder(ctx context.Context, id int64) (*fraud.Analysis, error)
	ListOrders(ctx context.Context, filter ListFilter) (*OrderPage, error)
	PendingCounts(ctx context.Context) (map[Status]int64, error)

	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)
}

// ViewStore caches rendered list and badge views. A fill only lands if the
// view's version has not moved since it was read.
type ViewStore interface {
	Get(ctx context.Context, key string, dest any) error
	Version(ctx context.Context, view string) (uint64, error)
	SetIfVersion(ctx context.Context, key, view string, version uint64, value any) (bool, error)
}

// DraftConverter closes the checkout draft an order was placed from.
type DraftConverter interface {
	MarkConverted(ctx context.Context, sessionID string, orderID int64) error
}

type service struct {
	repo     Repository
	notifier notification.Notifier
	views    ViewStore
	inval    cache.Invalidator
	drafts   DraftConverter
}

func NewService(
	repo Repository,
	notifier notification.Notifier,
	views ViewStore,
	inval cache.Invalidator,
	drafts DraftConverter,
) Service {
	if notifier == nil {
		notifier = notification.Noop{}
	}
	if views == nil {
		views = cache.Noop{}
	}
	if inval == nil {
		inval = cache.Noop{}
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		views:    views,
		inval:    inval,
		drafts:   drafts,
	}
}

func (s *service) AcceptOrder(ctx context.Context, id int64, in AcceptInput) (*Order, error) {
	trackingID := strings.TrimSpace(in.TrackingID)
	if trackingID == "" {
		return nil, s.fail(ctx, OpAccept, id, in, ErrTrackingIDRequired)
	}

	return s.transition(ctx, OpAccept, in, TransitionRequest{
		OrderID:       id,
		From:          StatusPending,
		To:            StatusProcessing,
		TrackingID:    &trackingID,
		ConsignmentID: utils.TrimToPtr(in.ConsignmentID),
	})
}

func (s *service) RejectOrder(ctx context.Context, id int64, in RejectInput) (*Order, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, s.fail(ctx, OpReject, id, in, ErrReasonRequired)
	}

	return s.transition(ctx, OpReject, in, TransitionRequest{
		OrderID:         id,
		From:            StatusPending,
		To:              StatusCancelled,
		RejectionReason: &reason,
	})
}

func (s *service) AdvanceOrder(ctx context.Context, id int64) (*Order, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, OpAdvance, id, nil, err)
	}
	if current.Trashed() {
		return nil, s.fail(ctx, OpAdvance, id, nil, ErrOrderTrashed)
	}

	next, ok := current.Status.Next()
	if !ok {
		return nil, s.fail(ctx, OpAdvance, id, nil,
			fmt.Errorf("%w: cannot advance a %s order", ErrInvalidTransition, current.Status))
	}

	return s.transition(ctx, OpAdvance, nil, TransitionRequest{
		OrderID: id,
		From:    current.Status,
		To:      next,
	})
}

// transition persists req and, only once it is stored, notifies the owner
// and marks the affected views stale. Neither follow-up can undo the
// status change.
func (s *service) transition(ctx context.Context, op string, draft any, req TransitionRequest) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", op),
		zap.Int64("order_id", req.OrderID),
		zap.String("from", string(req.From)),
		zap.String("to", string(req.To)),
		zap.String("actor", utils.GetUserEmailFromContext(ctx)),
	)

	updated, err := s.repo.Transition(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, op, req.OrderID, draft, err)
	}
	metrics.OrderTransitions.WithLabelValues(op, "ok").Inc()
	log.Info("order status changed")

	s.notifyOwner(ctx, updated)
	s.invalidate(ctx, updated.UserID)

	return updated, nil
}

func (s *service) TrashOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.Trash(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, OpTrash, id, nil, err)
	}
	metrics.OrderTransitions.WithLabelValues(OpTrash, "ok").Inc()

	logger.FromCtx(ctx).Info("order moved to trash",
		zap.String("layer", "service"),
		zap.Int64("order_id", id),
	)
	s.invalidate(ctx, o.UserID)
	return o, nil
}

func (s *service) RestoreOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.Restore(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, OpRestore, id, nil, err)
	}
	metrics.OrderTransitions.WithLabelValues(OpRestore, "ok").Inc()

	logger.FromCtx(ctx).Info("order restored from trash",
		zap.String("layer", "service"),
		zap.Int64("order_id", id),
	)
	s.invalidate(ctx, o.UserID)
	return o, nil
}

func (s *service) fail(ctx context.Context, op string, id int64, draft any, err error) error {
	metrics.OrderTransitions.WithLabelValues(op, "error").Inc()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", op),
		zap.Int64("order_id", id),
		zap.Error(err),
	)
	switch {
	case IsValidation(err):
		log.Info("order action rejected")
	case errors.Is(err, ErrStatusConflict),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrOrderTrashed),
		errors.Is(err, ErrOrderNotTrashed):
		log.Warn("order action not applied")
	default:
		log.Error("order action failed")
	}

	return &ActionError{Op: op, OrderID: id, Draft: draft, Err: err}
}

func (s *service) notifyOwner(ctx context.Context, o *Order) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "notifyOwner"),
		zap.Int64("order_id", o.ID),
	)

	if o.UserID == nil {
		log.Debug("guest order, no owner to notify")
		return
	}

	err := s.notifier.Notify(ctx, notification.Notification{
		UserID:     *o.UserID,
		OrderID:    o.ID,
		Status:     string(o.Status),
		OrderTotal: o.TotalAmount,
	})
	if err != nil {
		log.Warn("order updated but owner notification failed",
			zap.Int64("user_id", *o.UserID),
			zap.Error(err),
		)
	}
}

func viewKeys(userID *int64) []string {
	keys := []string{cache.ViewAdminOrders, cache.ViewAdminPendingCounts}
	if userID != nil {
		keys = append(keys, cache.UserOrdersKey(*userID))
	}
	return keys
}

func (s *service) invalidate(ctx context.Context, userID *int64) {
	keys := viewKeys(userID)
	if err := s.inval.Invalidate(ctx, keys...); err != nil {
		logger.FromCtx(ctx).Warn("failed to invalidate views",
			zap.String("layer", "service"),
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func (s *service) GetOrder(ctx context.Context, id int64) (*OrderReview, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	risk, err := s.assess(ctx, o)
	if err != nil {
		return nil, err
	}
	return &OrderReview{Order: o, Risk: risk}, nil
}

func (s *service) AnalyzeOrder(ctx context.Context, id int64) (*fraud.Analysis, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assess(ctx, o)
}

// assess scores o against every earlier order sharing its phone or address.
func (s *service) assess(ctx context.Context, o *Order) (*fraud.Analysis, error) {
	history, err := s.repo.History(ctx, o.CustomerPhone, o.ShippingAddress, o.ID, o.CreatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load customer history",
			zap.String("layer", "service"),
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load history: %w", err)
	}

	a := fraud.Analyze(toFraudOrder(o), toFraudHistory(history))
	metrics.FraudAssessments.WithLabelValues(string(a.Level)).Inc()
	return &a, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (*OrderPage, error) {
	filter = filter.Normalize()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListOrders"),
		zap.Int("page", filter.Page),
		zap.Int("limit", filter.Limit),
	)

	view, key := listView(filter), listKey(filter)

	var cached OrderPage
	switch err := s.views.Get(ctx, key, &cached); {
	case err == nil:
		return &cached, nil
	case !errors.Is(err, cache.ErrMiss):
		log.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
	}
	fill := s.beginFill(ctx, view, key)

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{
		Items: make([]OrderReview, 0, len(orders)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, o := range orders {
		review := OrderReview{Order: o}
		if filter.IncludeRisk {
			risk, err := s.assess(ctx, o)
			if err != nil {
				return nil, err
			}
			review.Risk = risk
		}
		page.Items = append(page.Items, review)
	}

	fill.store(ctx, page)
	return page, nil
}

func listView(filter ListFilter) string {
	if filter.UserID != nil {
		return cache.UserOrdersKey(*filter.UserID)
	}
	return cache.ViewAdminOrders
}

// listKey files a filtered page under the view it belongs to so that
// invalidating the view drops every page of it.
func listKey(filter ListFilter) string {
	raw, _ := json.Marshal(filter)
	sum := sha256.Sum256(raw)
	return cache.Key(listView(filter), hex.EncodeToString(sum[:8]))
}

// viewFill carries the view version read before a cache miss is rebuilt
// from the database.
type viewFill struct {
	views   ViewStore
	view    string
	key     string
	version uint64
	ok      bool
}

func (s *service) beginFill(ctx context.Context, view, key string) viewFill {
	version, err := s.views.Version(ctx, view)
	if err != nil {
		logger.FromCtx(ctx).Warn("view version read failed, result not cached",
			zap.String("layer", "service"),
			zap.String("view", view),
			zap.Error(err),
		)
		return viewFill{}
	}
	return viewFill{views: s.views, view: view, key: key, version: version, ok: true}
}

// store caches value unless the view was invalidated while it was built.
func (f viewFill) store(ctx context.Context, value any) {
	if !f.ok {
		return
	}
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("key", f.key),
	)

	stored, err := f.views.SetIfVersion(ctx, f.key, f.view, f.version, value)
	switch {
	case err != nil:
		log.Warn("view cache write failed", zap.Error(err))
	case !stored:
		log.Debug("view changed while rebuilding, result not cached")
	}
}

func (s *service) PendingCounts(ctx context.Context) (map[Status]int64, error) {
	var counts map[Status]int64
	switch err := s.views.Get(ctx, cache.ViewAdminPendingCounts, &counts); {
	case err == nil:
		return counts, nil
	case !errors.Is(err, cache.ErrMiss):
		logger.FromCtx(ctx).Warn("view cache read failed",
			zap.String("layer", "service"),
			zap.String("key", cache.ViewAdminPendingCounts),
			zap.Error(err),
		)
	}
	fill := s.beginFill(ctx, cache.ViewAdminPendingCounts, cache.ViewAdminPendingCounts)

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	fill.store(ctx, counts)
	return counts, nil
}

func (s *service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Int("item_count", len(in.Items)),
	)

	o, err := newOrder(in)
	if err != nil {
		log.Info("order rejected at checkout", zap.Error(err))
		return nil, err
	}
	if userID, ok := utils.GetUserIDFromContext(ctx); ok {
		o.UserID = &userID
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	metrics.OrdersPlaced.Inc()

	log = log.With(zap.Int64("order_id", o.ID), zap.Int64("total_amount", o.TotalAmount))

	if o.CheckoutSessionID != nil && s.drafts != nil {
		if err := s.drafts.MarkConverted(ctx, *o.CheckoutSessionID, o.ID); err != nil {
			log.Warn("failed to close checkout draft", zap.Error(err))
		}
	}

	s.invalidate(ctx, o.UserID)

	if risk, err := s.assess(ctx, o); err == nil {
		log.Info("order placed",
			zap.Int("risk_score", risk.Score),
			zap.String("risk_level", string(risk.Level)),
		)
	}

	return o, nil
}

// newOrder validates checkout input and prices it from the line items.
func newOrder(in PlaceOrderInput) (*Order, error) {
	name := strings.TrimSpace(in.CustomerName)
	phone := strings.TrimSpace(in.CustomerPhone)
	address := strings.TrimSpace(in.ShippingAddress)

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidOrder)
	case phone == "":
		return nil, fmt.Errorf("%w: customer phone is required", ErrInvalidOrder)
	case address == "":
		return nil, fmt.Errorf("%w: shipping address is required", ErrInvalidOrder)
	case len(in.Items) == 0:
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	case in.ShippingFee < 0:
		return nil, fmt.Errorf("%w: shipping fee cannot be negative", ErrInvalidOrder)
	}

	o := &Order{
		CustomerName:      name,
		CustomerPhone:     phone,
		ShippingAddress:   address,
		City:              strings.TrimSpace(in.City),
		Status:            StatusPending,
		CheckoutSessionID: utils.TrimToPtr(in.SessionID),
		Items:             make([]OrderItem, 0, len(in.Items)),
	}

	total := in.ShippingFee
	for i, it := range in.Items {
		if it.Quantity <= 0 || it.Quantity > math.MaxInt32 || it.Price < 0 {
			return nil, fmt.Errorf("%w: item %d has invalid quantity or price", ErrInvalidOrder, i)
		}
		qty := int64(it.Quantity)
		if it.Price > 0 && qty > (math.MaxInt64-total)/it.Price {
			return nil, fmt.Errorf("%w: order total is too large", ErrInvalidOrder)
		}
		total += qty * it.Price
		o.Items = append(o.Items, OrderItem{
			ProductID:   it.ProductID,
			ProductName: strings.TrimSpace(it.ProductName),
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	o.TotalAmount = total

	return o, nil
}
