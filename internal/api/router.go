package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/appointment"
	redisclient "github.com/healthbridge/appointment-engine/internal/redis"
	"github.com/healthbridge/appointment-engine/internal/schedule"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Schedule     *schedule.Service
	Slots        slot.Repository
	SlotCache    *redisclient.SlotCache // optional
	PgPool       *pgxpool.Pool
	Redis        *redis.Client // optional
	Log          *zap.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(100, 1*time.Minute))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/reserve", reserveHandler(cfg.Appointments))
			r.Get("/patient/me", patientAppointmentsHandler(cfg.Appointments))
			r.Get("/doctor/me", doctorAppointmentsHandler(cfg.Appointments))
			r.Get("/{appointmentID}", getAppointmentHandler(cfg.Appointments))
			r.Post("/{appointmentID}/confirm", confirmHandler(cfg.Appointments))
			r.Post("/{appointmentID}/cancel", cancelHandler(cfg.Appointments))
		})

		r.Route("/doctors/me/availability", func(r chi.Router) {
			r.Get("/weekly", listWeeklyScheduleHandler(cfg.Schedule))
			r.Post("/weekly", addWeeklyRuleHandler(cfg.Schedule))
			r.Post("/weekly/bulk", setWeeklyScheduleHandler(cfg.Schedule))
			r.Put("/weekly/{ruleID}", updateWeeklyRuleHandler(cfg.Schedule))
			r.Delete("/weekly/{ruleID}", deleteWeeklyRuleHandler(cfg.Schedule))

			r.Get("/blocks", listBlocksHandler(cfg.Schedule))
			r.Post("/block", blockHandler(cfg.Schedule))
			r.Delete("/block/{blockID}", unblockHandler(cfg.Schedule))

			r.Post("/regenerate", regenerateHandler(cfg.Schedule))
		})

		r.Get("/doctors/{doctorID}/slots", availableSlotsHandler(cfg.Slots, cfg.SlotCache, cfg.Log))
	})

	return r
}
