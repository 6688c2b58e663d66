package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pawmart-be/internal/cache"
	"pawmart-be/internal/config"
	"pawmart-be/internal/db"
	"pawmart-be/internal/handler"
	"pawmart-be/internal/logger"
	"pawmart-be/internal/middleware"
	"pawmart-be/internal/notification"
	"pawmart-be/internal/order"
	"pawmart-be/internal/realtime"
	"pawmart-be/internal/recovery"
	"pawmart-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	app := newServer(ctx, cfg, database)
	defer app.Close()

	logger.L().Info("server starting",
		zap.String("port", cfg.AppPort),
		zap.String("env", cfg.AppEnv),
	)
	return startServerFunc(ctx, ":"+cfg.AppPort, app.handler, app.stream.Close)
}

type server struct {
	handler http.Handler
	stream  *handler.StreamHandler
	tracker *recovery.Tracker
	closers []func() error
}

// Close flushes pending checkout drafts and releases outside connections.
func (s *server) Close() {
	s.stream.Close()
	s.tracker.Close()
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			logger.L().Warn("close failed", zap.Error(err))
		}
	}
}

// newServer wires every service. Redis and Telegram are optional; the
// server runs without them when they are not configured or unreachable.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) *server {
	log := logger.L()
	s := &server{}

	hub := realtime.NewHub()
	var views order.ViewStore = cache.Noop{}
	invalidators := cache.Chain{hub}

	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, view cache disabled", zap.Error(err))
		} else {
			viewCache := cache.NewViewCache(client, cfg.CacheTTL)
			views = viewCache
			invalidators = append(invalidators, viewCache)
			s.closers = append(s.closers, client.Close)
		}
	}

	notifiers := notification.Multi{notification.NewInbox(database)}
	if cfg.TelegramToken != "" {
		tg, err := notification.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn("telegram unavailable, ops alerts disabled", zap.Error(err))
		} else {
			ops := notification.NewAsync("telegram", tg, notification.DefaultQueueSize, notification.DefaultDeliveryTimeout)
			notifiers = append(notifiers, ops)
			s.closers = append(s.closers, ops.Close)
		}
	}

	s.stream = handler.NewStreamHandler(hub)
	s.tracker = recovery.NewTracker(recovery.NewRepository(database), cfg.DraftDebounce)

	orderSvc := order.NewService(
		order.NewRepository(database),
		notifiers,
		views,
		invalidators,
		s.tracker,
	)

	tokens := user.NewTokenIssuer(cfg.JWTSecret, user.DefaultTokenTTL)
	userSvc := user.NewService(user.NewRepository(database), tokens)

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)
	go limiter.Run(ctx)

	s.handler = handler.NewRouter(handler.RouterConfig{
		CORSOrigins:   cfg.CORSOrigins,
		Production:    cfg.IsProduction(),
		DB:            database,
		Tokens:        tokens,
		Limiter:       limiter,
		Auth:          handler.NewAuthHandler(userSvc, cfg.IsProduction()),
		Orders:        handler.NewOrderHandler(orderSvc),
		Checkout:      handler.NewCheckoutHandler(orderSvc, s.tracker),
		Notifications: handler.NewNotificationHandler(notification.NewInbox(database)),
		Stream:        s.stream,
	})

	return s
}

// startServer serves until ctx is cancelled, then drains in-flight requests.
// onShutdown runs when draining starts so long-lived streams can end.
func startServer(ctx context.Context, addr string, h http.Handler, onShutdown func()) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, h, onShutdown)
}

func serve(ctx context.Context, ln net.Listener, h http.Handler, onShutdown func()) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if onShutdown != nil {
		srv.RegisterOnShutdown(onShutdown)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
