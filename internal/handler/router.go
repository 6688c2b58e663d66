package handler

import (
	"context"
	"net/http"
	"time"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	CORSOrigins []string
	Production  bool

	DB      Pinger
	Tokens  middleware.TokenParser
	Limiter *middleware.RateLimiter

	Auth          *AuthHandler
	Orders        *OrderHandler
	Checkout      *CheckoutHandler
	Notifications *NotificationHandler
	Stream        *StreamHandler
}

// NewRouter builds the HTTP API. Request ids and access logs wrap the
// whole engine so every response, including 404s, is logged.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader, "X-Device-ID"},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", health(cfg.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	api.Use(middleware.Auth(cfg.Tokens))
	if cfg.Limiter != nil {
		api.Use(cfg.Limiter.Handler())
	}

	api.POST("/auth/login", cfg.Auth.Login)
	api.POST("/auth/register", cfg.Auth.Register)

	api.POST("/checkout/drafts", cfg.Checkout.SaveDraft)
	api.POST("/checkout/orders", cfg.Checkout.PlaceOrder)

	customer := api.Group("/", middleware.RequireUser())
	customer.GET("/orders", cfg.Orders.Mine)
	customer.GET("/notifications", cfg.Notifications.List)
	customer.POST("/notifications/:id/read", cfg.Notifications.MarkRead)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/orders", cfg.Orders.List)
	admin.GET("/orders/pending-counts", cfg.Orders.PendingCounts)
	admin.GET("/orders/:id", cfg.Orders.Get)
	admin.GET("/orders/:id/fraud", cfg.Orders.Fraud)
	admin.POST("/orders/:id/accept", cfg.Orders.Accept)
	admin.POST("/orders/:id/reject", cfg.Orders.Reject)
	admin.POST("/orders/:id/advance", cfg.Orders.Advance)
	admin.POST("/orders/:id/trash", cfg.Orders.Trash)
	admin.POST("/orders/:id/restore", cfg.Orders.Restore)
	admin.GET("/tracking-id", cfg.Orders.TrackingID)
	admin.GET("/incomplete-orders", cfg.Checkout.Incomplete)
	admin.GET("/stream", cfg.Stream.Stream)

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(r))
}

func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
