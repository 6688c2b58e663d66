package recovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultDebounce = 2 * time.Second
	flushTimeout    = 5 * time.Second
	convertedTTL    = 30 * time.Minute
)

type pendingDraft struct {
	draft Draft
	timer *time.Timer
}

// Tracker records checkout drafts so abandoned carts can be followed up.
// Writes are debounced per session: only the latest draft seen during a
// quiet period is stored.
type Tracker struct {
	repo  Repository
	delay time.Duration
	now   func() time.Time

	mu        sync.Mutex
	pending   map[string]*pendingDraft
	converted map[string]time.Time
	closed    bool
	flushes   sync.WaitGroup
}

func NewTracker(repo Repository, delay time.Duration) *Tracker {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Tracker{
		repo:    repo,
		delay:   delay,
		now:       time.Now,
		pending:   make(map[string]*pendingDraft),
		converted: make(map[string]time.Time),
	}
}

// Track schedules d to be stored once the session goes quiet. It reports
// false when the draft was ignored, including drafts for a session that
// already became an order.
func (t *Tracker) Track(d Draft) bool {
	d.SessionID = strings.TrimSpace(d.SessionID)
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	if !d.Trackable() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	now := t.now()
	t.pruneConverted(now)
	if _, ok := t.converted[d.SessionID]; ok {
		return false
	}
	d.UpdatedAt = now

	if p, ok := t.pending[d.SessionID]; ok {
		p.draft = d
		p.timer.Reset(t.delay)
		return true
	}

	sessionID := d.SessionID
	t.pending[sessionID] = &pendingDraft{
		draft: d,
		timer: time.AfterFunc(t.delay, func() { t.flush(sessionID) }),
	}
	return true
}

func (t *Tracker) flush(sessionID string) {
	t.mu.Lock()
	p, ok := t.pending[sessionID]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.pending, sessionID)
	t.flushes.Add(1)
	t.mu.Unlock()

	defer t.flushes.Done()
	t.write(p.draft)
}

func (t *Tracker) write(d Draft) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	err := t.repo.Upsert(ctx, d)
	metrics.DraftFlushes.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		logger.L().Warn("failed to store checkout draft",
			zap.String("layer", "recovery"),
			zap.String("session_id", d.SessionID),
			zap.Error(err),
		)
	}
}

// pruneConverted forgets converted sessions older than convertedTTL. Callers
// hold t.mu.
func (t *Tracker) pruneConverted(now time.Time) {
	for id, at := range t.converted {
		if now.Sub(at) > convertedTTL {
			delete(t.converted, id)
		}
	}
}

// MarkConverted drops any unsaved draft for the session and records the
// order it became. Drafts tracked for the session afterwards are ignored.
func (t *Tracker) MarkConverted(ctx context.Context, sessionID string, orderID int64) error {
	t.mu.Lock()
	if p, ok := t.pending[sessionID]; ok {
		p.timer.Stop()
		delete(t.pending, sessionID)
	}
	t.converted[sessionID] = t.now()
	t.mu.Unlock()

	if err := t.repo.MarkConverted(ctx, sessionID, orderID); err != nil {
		logger.FromCtx(ctx).Error("failed to mark draft converted",
			zap.String("layer", "recovery"),
			zap.String("session_id", sessionID),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (t *Tracker) ListOpen(ctx context.Context, limit int) ([]IncompleteOrder, error) {
	return t.repo.ListOpen(ctx, limit)
}

// Pending reports how many sessions have an unsaved draft.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close stores every pending draft and waits for in-flight writes. Later
// calls to Track are ignored.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true

	drafts := make([]Draft, 0, len(t.pending))
	for id, p := range t.pending {
		p.timer.Stop()
		drafts = append(drafts, p.draft)
		delete(t.pending, id)
	}
	t.mu.Unlock()

	for _, d := range drafts {
		t.write(d)
	}
	t.flushes.Wait()

	logger.L().Info("checkout draft tracker stopped", zap.Int("flushed", len(drafts)))
}
