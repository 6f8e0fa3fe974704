package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/xavierca1/atomic-crm/internal/auth"
	"github.com/xavierca1/atomic-crm/internal/config"
	"github.com/xavierca1/atomic-crm/internal/infra/database"
	"github.com/xavierca1/atomic-crm/internal/infra/http/handlers"
	"github.com/xavierca1/atomic-crm/internal/infra/http/router"
	"github.com/xavierca1/atomic-crm/internal/infra/integration/kommo"
	"github.com/xavierca1/atomic-crm/internal/infra/mail"
	"github.com/xavierca1/atomic-crm/internal/infra/queue"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuração inválida", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Banco
	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("❌ banco indisponível", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.CreateSchema(ctx, db); err != nil {
			slog.Error("❌ falha ao criar schema", "error", err)
			os.Exit(1)
		}
		slog.Info("schema pronto")
	}

	// 2. Repositórios
	leadRepo := database.NewLeadRepository(db)
	eventRepo := database.NewEmailEventRepository(db)

	// 3. E-mail
	var sender mail.Sender
	switch cfg.MailProvider {
	case config.ProviderSMTP:
		sender = mail.NewSMTPSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass)
	default:
		sender = mail.NewResendSender(cfg.ResendAPIKey, cfg.UpstreamTimeout)
	}
	notifier := mail.NewNotifier(sender, cfg.EmailFrom, cfg.PublicAPIURL, cfg.ConfirmationTTL, !cfg.IsProduction())

	// 4. RabbitMQ + worker do CRM (opcional)
	var publisher usecase.LeadEventPublisher
	var broker handlers.BrokerStatus
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			slog.Error("❌ RabbitMQ indisponível", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()

		publisher = queue.NewProducer(rabbitMQ.Ch)
		broker = rabbitMQ

		if cfg.KommoAPIToken != "" {
			crm := kommo.NewClient(cfg.KommoBaseURL, cfg.KommoAPIToken, cfg.UpstreamTimeout)
			workerCh, err := rabbitMQ.Conn.Channel()
			if err != nil {
				slog.Error("❌ falha ao abrir canal do worker", "error", err)
				os.Exit(1)
			}
			worker := queue.NewWorker(workerCh, crm, cfg.UpstreamTimeout)
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					slog.Error("worker parou", "error", err)
				}
			}()
		}
	}

	// 5. Casos de uso
	tokens := usecase.NewTokenIssuer(cfg.ConfirmationTTL)
	deps := router.Deps{
		Submit:  usecase.NewSubmitLeadUseCase(leadRepo, eventRepo, notifier, tokens, cfg.UpstreamTimeout),
		Confirm: usecase.NewConfirmLeadUseCase(leadRepo, eventRepo, notifier, publisher, cfg.UpstreamTimeout),
		Resend:  usecase.NewResendConfirmationUseCase(leadRepo, eventRepo, notifier, tokens, cfg.UpstreamTimeout),
		Cleanup: usecase.NewCleanupPendingUseCase(leadRepo, cfg.CleanupBatchSize, cfg.UpstreamTimeout),
		Remind: usecase.NewRemindPendingUseCase(leadRepo, eventRepo, notifier,
			cfg.ReminderAfter, cfg.ReminderBatchSize, cfg.UpstreamTimeout),
		AdminLeads:   usecase.NewAdminLeadsUseCase(leadRepo, cfg.UpstreamTimeout),
		Health:       handlers.NewHealthHandler(db, broker, cfg.MailProvider),
		Session:      auth.NewSessionVerifier(cfg.NextAuthSecret),
		AllowList:    auth.NewAllowList(cfg.AdminEmails...),
		CronSecret:   auth.NewSharedSecret(cfg.CronSecret),
		AppURL:       cfg.AppURL,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		Timeout:      cfg.RequestTimeout,
		AccessLogger: !cfg.IsProduction(),
	}

	if len(cfg.AdminEmails) == 0 {
		slog.Warn("⚠️ allow-list de admin vazia: painel fechado para todos")
	}
	if cfg.CronSecret == "" {
		slog.Warn("⚠️ CRON_SECRET vazio: rotas de agendador vão negar tudo")
	}

	// 6. Servidor
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("🔥 atomic-crm rodando", "port", cfg.Port, "env", cfg.AppEnv)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("servidor caiu", "error", err)
		os.Exit(1)
	}
	slog.Info("servidor encerrado")
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
