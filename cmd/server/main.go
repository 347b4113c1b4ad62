package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parallax/audit-backend/internal/config"
	"github.com/parallax/audit-backend/internal/handler"
	"github.com/parallax/audit-backend/internal/logging"
	"github.com/parallax/audit-backend/internal/metrics"
	"github.com/parallax/audit-backend/internal/notify"
	"github.com/parallax/audit-backend/internal/repository"
	"github.com/parallax/audit-backend/internal/service"
	"github.com/parallax/audit-backend/internal/storage"
	"github.com/parallax/audit-backend/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)

	// Primary store. The service runs on the local fallback alone when the
	// database is not configured or not reachable at startup.
	var pool *pgxpool.Pool
	var primary repository.AuditRequestRepository
	switch {
	case cfg.Database.URL == "":
		slog.Warn("DATABASE_URL not set, primary store disabled; using local fallback only")
		primary = repository.NewUnavailableAuditRequestRepository(nil)
	default:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
		pool, err = repository.NewPool(connectCtx, cfg.Database.URL)
		cancel()
		if err != nil {
			slog.Warn("primary store unreachable, using local fallback only", "error", err)
			primary = repository.NewUnavailableAuditRequestRepository(err)
		} else {
			primary = repository.NewPgAuditRequestRepository(pool)
		}
	}

	fallback, err := repository.NewFileAuditRequestRepository(ctx,
		storage.NewLocalStorage(cfg.Fallback.Dir), cfg.Fallback.File)
	if err != nil {
		logging.Fatal("failed to initialise local fallback", "path", cfg.Fallback.Path(), "error", err)
	}

	auditService := service.NewAuditService(primary, fallback,
		service.WithPrimaryTimeout(cfg.Database.Timeout),
		service.WithMetrics(m),
	)

	var mailer notify.Mailer = notify.Disabled{}
	if cfg.Email.Enabled() {
		smtp, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.User,
			Password: cfg.Email.Password,
		})
		if err != nil {
			logging.Fatal("failed to configure mailer", "error", err)
		}
		mailer = smtp
	} else {
		slog.Info("email credentials not configured, notifications disabled")
	}
	dispatcher := notify.NewDispatcher(mailer, notify.Config{
		From:       cfg.Email.Sender(),
		AdminEmail: cfg.Email.AdminEmail,
		Timeout:    cfg.Email.Timeout,
	}, m)

	limiter := handler.NewRateLimiter(cfg.RateLimit.PerMinute)
	defer limiter.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Audit:         handler.NewAuditHandler(auditService, dispatcher),
		Health:        handler.NewHealthHandler(auditService, fallback.Location()),
		AdminGuard:    auth.RequireAdminKey(cfg.Admin.Key),
		SubmitLimiter: limiter,
		Metrics:       promhttp.Handler(),
	})
	if cfg.Admin.Key == "" {
		slog.Warn("ADMIN_KEY not set, audit request listing and mutation are unauthenticated")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second + cfg.Database.Timeout,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "env", cfg.Server.Env, "fallback", fallback.Location())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("notifications still in flight at shutdown", "error", err)
	}
	if pool != nil {
		pool.Close()
	}
}
