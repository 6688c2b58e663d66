package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

type EventSource interface {
	Listen(ctx context.Context) <-chan realtime.Event
}

type StreamHandler struct {
	events EventSource

	done      chan struct{}
	closeOnce sync.Once
}

func NewStreamHandler(events EventSource) *StreamHandler {
	return &StreamHandler{events: events, done: make(chan struct{})}
}

// Close ends every open stream and refuses new ones. Open streams would
// otherwise keep a graceful shutdown waiting until its deadline.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Stream handles GET /admin/stream. Each "stale" event lists view keys the
// admin screen should refetch.
func (h *StreamHandler) Stream(c *gin.Context) {
	select {
	case <-h.done:
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	default:
	}

	ctx := c.Request.Context()
	events := h.events.Listen(ctx)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	logger.FromCtx(ctx).Info("admin stream opened", zap.String("layer", "handler"))

	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case ev := <-events:
			c.SSEvent("stale", ev)
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
		}
		c.Writer.Flush()
	}
}
