package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/backend"
	"github.com/LytheanSem/emotionwork-sub001/internal/config"
	"github.com/LytheanSem/emotionwork-sub001/internal/handler"
	"github.com/LytheanSem/emotionwork-sub001/internal/middleware"
	"github.com/LytheanSem/emotionwork-sub001/internal/queue"
	"github.com/LytheanSem/emotionwork-sub001/internal/router"
	"github.com/LytheanSem/emotionwork-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, closeLedger, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return err
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return err
	}
	rdb := config.NewRedisClient(ctx, redisCfg)
	if rdb == nil {
		logger.Warn("redis unavailable; using local rate limiting, response cache off")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	mailer := service.NewLogMailer(logger)
	direct := service.DirectNotifier{Mailer: mailer, Log: logger}
	var notify service.Notifier = direct
	if cfg.RabbitMQURL != "" {
		pub, err := service.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq publisher unavailable; mailing in-process", zap.Error(err))
		} else {
			defer func() { _ = pub.Close() }()
			notify = service.FallbackNotifier{Primary: pub, Fallback: direct, Log: logger}
			go func() {
				if err := queue.StartBookingConsumer(ctx, cfg.RabbitMQURL, mailer, logger); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("booking consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	catalog := service.DefaultCatalog
	if cfg.PricingCatalogFile != "" {
		if catalog, err = service.LoadCatalog(cfg.PricingCatalogFile); err != nil {
			return err
		}
	}

	svc := service.NewBookingSvc(l, notify, logger)
	go svc.RunReconciler(ctx, cfg.ReconcileInterval)

	limit := middleware.NewTokenBucket(rlCfg, rdb, logger)
	e := router.New(logger)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, logger), limit)
	router.RegisterBookings(e,
		handler.NewBookingHandler(svc, logger, cfg.RequestTimeout),
		handler.NewQuoteHandler(service.NewCatalogPricing(catalog)),
		limit,
		middleware.NewRedisCache(cacheCfg, rdb, logger))
	router.RegisterAdmin(e, handler.NewAdminHandler(svc, logger, cfg.RequestTimeout), cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("backend", cfg.LedgerBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
