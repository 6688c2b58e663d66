package realtime

import (
	"context"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/store"

	"go.uber.org/zap"
)

// State is the version of every view that has been invalidated at least
// once, plus the keys touched by the latest change.
type State struct {
	Seq      uint64            `json:"seq"`
	Versions map[string]uint64 `json:"versions"`
	Stale    []string          `json:"stale"`
}

func (s State) Version(key string) uint64 {
	return s.Versions[key]
}

// Event is what a stream subscriber receives.
type Event struct {
	Seq   uint64   `json:"seq"`
	Stale []string `json:"stale"`
}

const listenBuffer = 16

// Hub tells connected admin screens which views went stale.
type Hub struct {
	store *store.Store[State]
}

func NewHub() *Hub {
	return &Hub{store: store.New(State{Versions: map[string]uint64{}})}
}

func (h *Hub) Snapshot() State {
	return h.store.Snapshot()
}

// Invalidate bumps the version of each key and publishes them as stale.
func (h *Hub) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	next := h.store.Update(bump(keys))

	logger.FromCtx(ctx).Debug("views marked stale",
		zap.String("layer", "realtime"),
		zap.Uint64("seq", next.Seq),
		zap.Strings("keys", keys),
	)
	return nil
}

func bump(keys []string) func(State) State {
	return func(prev State) State {
		versions := make(map[string]uint64, len(prev.Versions)+len(keys))
		for k, v := range prev.Versions {
			versions[k] = v
		}
		for _, k := range keys {
			versions[k]++
		}
		return State{
			Seq:      prev.Seq + 1,
			Versions: versions,
			Stale:    append([]string(nil), keys...),
		}
	}
}

func (h *Hub) Subscribe(fn func(State)) func() {
	return h.store.Subscribe(fn)
}

// Listen streams events until ctx is done. A subscriber that falls more
// than listenBuffer events behind misses events; it should refetch
// everything when Seq jumps.
func (h *Hub) Listen(ctx context.Context) <-chan Event {
	ch := make(chan Event, listenBuffer)

	unsubscribe := h.store.Subscribe(func(s State) {
		select {
		case ch <- Event{Seq: s.Seq, Stale: s.Stale}:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch
}
