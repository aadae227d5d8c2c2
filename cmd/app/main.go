package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/parking/api"
	"github.com/Domenick1991/parking/config"
	"github.com/Domenick1991/parking/internal/bootstrap"
	"github.com/Domenick1991/parking/internal/cache"
	"github.com/Domenick1991/parking/internal/kafka"
	"github.com/Domenick1991/parking/internal/logger"
	"github.com/Domenick1991/parking/internal/metrics"
	"github.com/Domenick1991/parking/internal/migration"
	"github.com/Domenick1991/parking/internal/repository"
	"github.com/Domenick1991/parking/internal/repository/memory"
	"github.com/Domenick1991/parking/internal/service/auth"
	"github.com/Domenick1991/parking/internal/service/booking"
	"github.com/Domenick1991/parking/internal/service/lots"
	"github.com/Domenick1991/parking/internal/service/reporting"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	checks := map[string]api.HealthCheck{}

	var store repository.Store
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store = memory.NewStore()
	default:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("parse database config: %w", err)
		}
		if cfg.Database.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Database.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if cfg.Storage.RunMigrations {
			db := stdlib.OpenDBFromPool(pool)
			err := migration.RunMigrations(db)
			_ = db.Close()
			if err != nil {
				return err
			}
			log.Info("migrations applied")
		}
		store = repository.NewPGStore(pool)
		checks["postgres"] = pool.Ping
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	lotOpts := []lots.LotServiceOption{lots.WithLogger(log)}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(log),
		booking.WithMetrics(m),
		booking.WithClaimRetries(cfg.Booking.ClaimRetries),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	}
	if cfg.Booking.StrictResize {
		lotOpts = append(lotOpts, lots.WithStrictResize())
	}

	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.LotsCacheTTL())
		defer redisCache.Close()
		lotOpts = append(lotOpts, lots.WithCache(redisCache))
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
		checks["redis"] = redisCache.Ping
	}

	// A nil Producer disables publishing.
	var producer booking.Producer
	if cfg.Kafka.Enabled() {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer kafkaProducer.Close()
		producer = kafkaProducer
		checks["kafka"] = kafkaProducer.CheckConnection
	}

	authService := auth.NewAuthService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(),
		auth.AdminCredentials{Username: cfg.Auth.AdminUsername, Password: cfg.Auth.AdminPassword},
		auth.WithLogger(log))
	lotService := lots.NewLotService(store, lotOpts...)
	bookingService := booking.NewBookingService(store, producer, cfg.Kafka.BookingTopic, bookingOpts...)
	reportingService := reporting.NewReportingService(store)

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Lots:     lotService,
		Bookings: bookingService,
		Reports:  reportingService,
		Metrics:  m,
		Logger:   log,
		Checks:   checks,
	})

	return bootstrap.Run(ctx, cfg.HTTP, router, log)
}
