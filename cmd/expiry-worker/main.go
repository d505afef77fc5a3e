package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/appointment"
	"github.com/healthbridge/appointment-engine/internal/config"
	"github.com/healthbridge/appointment-engine/internal/db"
	"github.com/healthbridge/appointment-engine/internal/events"
	"github.com/healthbridge/appointment-engine/internal/logger"
	"github.com/healthbridge/appointment-engine/internal/pricing"
	redisclient "github.com/healthbridge/appointment-engine/internal/redis"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("expiry-worker starting",
		zap.String("env", cfg.Env),
		zap.Duration("sweep_interval", cfg.SweepInterval))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to postgres")

	var availabilityCache appointment.AvailabilityCache
	rdb, err := redisclient.NewCacheClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, cache invalidation disabled", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		availabilityCache = redisclient.NewSlotCache(rdb, cfg.SlotCacheTTL)
		log.Info("connected to redis")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AmqpURL != "" {
		amqpPub, err := events.NewAmqpPublisher(cfg.AmqpURL, log)
		if err != nil {
			log.Warn("amqp unavailable, events disabled", zap.Error(err))
		} else {
			defer amqpPub.Close()
			publisher = amqpPub
			log.Info("connected to rabbitmq")
		}
	}

	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		slot.NewPgRepository(pgPool),
		pricing.DefaultFeeSchedule(),
		publisher,
		availabilityCache,
		log,
		cfg.ReservationHold,
	)

	reconciler := appointment.NewReconciler(svc, cfg.SweepInterval, log)
	reconciler.Run(rootCtx)

	log.Info("expiry-worker stopped")
}
