package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
	"github.com/ariefcatur/go-food-delivery.git/internal/config"
	"github.com/ariefcatur/go-food-delivery.git/internal/delivery"
	"github.com/ariefcatur/go-food-delivery.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-food-delivery.git/internal/kafka"
	"github.com/ariefcatur/go-food-delivery.git/internal/metrics"
	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
	"github.com/ariefcatur/go-food-delivery.git/internal/postgres"
	"github.com/ariefcatur/go-food-delivery.git/internal/redisx"
	"github.com/ariefcatur/go-food-delivery.git/internal/ws"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB (runs migrations)
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		sugar.Fatalw("db connect", "error", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic. They outlive the signal context so the
	// shutdown path below can flush them via Close.
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers(), orders.TopicOrderCreated, 1024, logger)
	pCreated.Start(context.Background())
	pChanged := kafkax.NewProducer(cfg.KafkaBrokers(), orders.TopicOrderStatusChanged, 1024, logger)
	pChanged.Start(context.Background())

	m := metrics.New("api", prometheus.DefaultRegisterer)
	verifier := auth.NewVerifier(cfg.AuthSecret)

	hub := ws.NewHub(m, logger)
	notifySvc := &notify.Service{
		Pending: &notify.RedisPending{RDB: rdb},
		Live:    hub,
		Metrics: m,
		Log:     logger,
	}

	repo := &orders.Repo{DB: db}
	orderSvc := &orders.Service{
		Store:       repo,
		Notify:      notifySvc,
		Created:     pCreated,
		Changed:     pChanged,
		Metrics:     m,
		Log:         logger,
		ServiceName: cfg.ServiceName,
	}
	deliverySvc := &delivery.Service{Store: repo, Notify: notifySvc, Log: logger}

	router := httpx.NewRouter()
	router.Handle("/ws", ws.NewHandler(hub, verifier, logger))
	router.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		(&httpx.OrdersHandler{Orders: orderSvc, Delivery: deliverySvc, Redis: rdb, Log: logger}).Register(r)
		(&httpx.NotificationsHandler{Notify: notifySvc, Log: logger}).Register(r)
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("HTTP listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		pCreated.Close()
		pChanged.Close()
		pCreated.WaitClosed()
		pChanged.WaitClosed()
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("terminated with error", "error", err)
	}
	sugar.Info("stopped gracefully")
}
