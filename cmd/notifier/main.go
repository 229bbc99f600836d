package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/config"
	kafkax "github.com/ariefcatur/go-food-delivery.git/internal/kafka"
	"github.com/ariefcatur/go-food-delivery.git/internal/notifier"
	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
	"github.com/ariefcatur/go-food-delivery.git/internal/redisx"
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

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Dedup:   &notifier.RedisDedup{RDB: rdb},
		Pending: &notify.RedisPending{RDB: rdb},
		Log:     logger,
	}

	topics := []string{orders.TopicOrderCreated, orders.TopicOrderStatusChanged}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers(), cfg.NotifierGroup, topics, cfg.NotifierWorkers, logger)

	sugar.Infow("notifier consumer started",
		"group", cfg.NotifierGroup, "topics", topics, "workers", cfg.NotifierWorkers)
	if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
		sugar.Fatalw("consumer exit", "error", err)
	}
	sugar.Info("notifier stopped")
}
