package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/api"
	"github.com/healthbridge/appointment-engine/internal/appointment"
	"github.com/healthbridge/appointment-engine/internal/config"
	"github.com/healthbridge/appointment-engine/internal/db"
	"github.com/healthbridge/appointment-engine/internal/events"
	"github.com/healthbridge/appointment-engine/internal/logger"
	"github.com/healthbridge/appointment-engine/internal/pricing"
	redisclient "github.com/healthbridge/appointment-engine/internal/redis"
	"github.com/healthbridge/appointment-engine/internal/schedule"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

const version = "1.0.0"

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

	log.Info("api-server starting",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort))

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

	// Redis backs the availability cache only; the server runs without it.
	var slotCache *redisclient.SlotCache
	rdb, err := redisclient.NewCacheClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
		slotCache = redisclient.NewSlotCache(rdb, cfg.SlotCacheTTL)
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

	appointmentRepo := appointment.NewPgRepository(pgPool)
	slotRepo := slot.NewPgRepository(pgPool)
	ruleRepo := schedule.NewPgRuleRepository(pgPool)
	blockRepo := schedule.NewPgBlockRepository(pgPool)

	var availabilityCache appointment.AvailabilityCache
	var scheduleCache schedule.CacheInvalidator
	if slotCache != nil {
		availabilityCache = slotCache
		scheduleCache = slotCache
	}

	fees := pricing.DefaultFeeSchedule()

	appointmentSvc := appointment.NewService(
		appointmentRepo, slotRepo, fees, publisher, availabilityCache, log, cfg.ReservationHold)
	scheduleSvc := schedule.NewService(
		ruleRepo, blockRepo, slotRepo, scheduleCache, log, cfg.HorizonDays)

	router := api.NewRouter(api.RouterConfig{
		Appointments: appointmentSvc,
		Schedule:     scheduleSvc,
		Slots:        slotRepo,
		SlotCache:    slotCache,
		PgPool:       pgPool,
		Redis:        rdb,
		Log:          log,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
