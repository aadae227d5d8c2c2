package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/parking/config"
	"github.com/Domenick1991/parking/internal/email"
	"github.com/Domenick1991/parking/internal/kafka"
	"github.com/Domenick1991/parking/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !cfg.Kafka.Enabled() || cfg.Kafka.NotificationsTopic == "" {
		zlog.Fatal("worker needs kafka.brokers and kafka.notifications_topic")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zlog)
	defer consumer.Close()

	emailSender := email.NewSender(zlog)

	zlog.Info("worker started", zap.String("topic", cfg.Kafka.NotificationsTopic), zap.String("group_id", cfg.Kafka.GroupID))
	err = consumer.Consume(ctx, consumer.EventHandler(emailSender.Send))
	if err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error("consumer stopped", zap.Error(err))
		return
	}
	zlog.Info("worker stopped")
}
