package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/atomic-crm/internal/auth"
	"github.com/xavierca1/atomic-crm/internal/infra/http/handlers"
	"github.com/xavierca1/atomic-crm/internal/infra/http/middleware"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

// Deps reúne tudo que as rotas precisam; montado no main.
type Deps struct {
	Submit       *usecase.SubmitLeadUseCase
	Confirm      *usecase.ConfirmLeadUseCase
	Resend       *usecase.ResendConfirmationUseCase
	Cleanup      *usecase.CleanupPendingUseCase
	Remind       *usecase.RemindPendingUseCase
	AdminLeads   *usecase.AdminLeadsUseCase
	Health       *handlers.HealthHandler
	Session      *auth.SessionVerifier
	AllowList    *auth.AllowList
	CronSecret   *auth.SharedSecret
	AppURL       string
	CORSOrigins  []string
	Timeout      time.Duration
	AccessLogger bool
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if d.AccessLogger {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Cron-Secret"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if d.Timeout > 0 {
		r.Use(chimw.Timeout(d.Timeout))
	}

	leadHandler := handlers.NewLeadHandler(d.Submit)
	confirmHandler := handlers.NewConfirmHandler(d.Confirm, d.AppURL)
	cronHandler := handlers.NewCronHandler(d.Cleanup, d.Remind)
	adminHandler := handlers.NewAdminHandler(d.AdminLeads)

	if d.Health != nil {
		r.Get("/health", d.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	// Público
	r.Post("/lead", leadHandler.CaptureLead)
	r.Get("/confirm", confirmHandler.HandleGet)
	r.Post("/confirm", confirmHandler.HandlePost)

	// Agendador (segredo compartilhado)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSharedSecret(d.CronSecret))

		r.Get("/resend-confirmation", handlers.Healthcheck("resend-confirmation"))
		r.Post("/resend-confirmation", handlers.NewResendHandler(d.Resend, usecase.OriginCron).Handle)

		r.Get("/cron/cleanup-pending", handlers.Healthcheck("cleanup-pending"))
		r.Post("/cron/cleanup-pending", cronHandler.CleanupPending)
		r.Get("/cron/remind-pending", handlers.Healthcheck("remind-pending"))
		r.Post("/cron/remind-pending", cronHandler.RemindPending)
	})

	// Painel admin (sessão + allow-list)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(d.Session, d.AllowList))

		r.Get("/session", adminHandler.Session)
		r.Get("/leads", adminHandler.List)
		r.Get("/leads/{id}", adminHandler.Get)
		r.Put("/leads/{id}", adminHandler.Update)
		r.Patch("/leads/{id}", adminHandler.Update)
		r.Delete("/leads/{id}", adminHandler.Delete)
		r.Post("/resend-confirmation", handlers.NewResendHandler(d.Resend, usecase.OriginAdmin).Handle)
	})

	return r
}
