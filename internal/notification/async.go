package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize       = 64
	DefaultDeliveryTimeout = 20 * time.Second
)

var (
	ErrQueueFull      = errors.New("notification queue is full")
	ErrNotifierClosed = errors.New("notifier is closed")
)

type queued struct {
	ctx context.Context
	n   Notification
}

// Async hands notifications to a background worker so slow channels never
// hold up the request that triggered them. Each delivery gets its own
// timeout, detached from the request's cancellation.
type Async struct {
	next    Notifier
	channel string
	timeout time.Duration
	queue   chan queued
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(channel string, next Notifier, size int, timeout time.Duration) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	a := &Async{
		next:    next,
		channel: channel,
		timeout: timeout,
		queue:   make(chan queued, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Notify queues n and returns at once. A full queue drops n.
func (a *Async) Notify(ctx context.Context, n Notification) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrNotifierClosed
	}

	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), n: n}:
		return nil
	default:
		metrics.NotificationsSent.WithLabelValues(a.channel, "dropped").Inc()
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		ctx, cancel := context.WithTimeout(q.ctx, a.timeout)
		if err := a.next.Notify(ctx, q.n); err != nil {
			logger.FromCtx(ctx).Debug("queued notification not delivered",
				zap.String("channel", a.channel),
				zap.Int64("order_id", q.n.OrderID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Close stops accepting notifications and waits for the queued ones.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	<-a.done
	return nil
}
