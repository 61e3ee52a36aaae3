package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel/internal/config"
	"hotel/internal/database"
	"hotel/internal/modules/audit"
	"hotel/internal/modules/auth"
	"hotel/internal/modules/roomfeed"
	jwtsvc "hotel/internal/pkg/jwt"
	"hotel/internal/repository"
	"hotel/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

const serviceVersion = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("hotel api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var addr string
	var migrateOnly bool

	flagSet := pflag.NewFlagSet("hotel-api", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "hotel",
		ServiceVersion: serviceVersion,
		Environment:    cfg.AppEnv,
		Exporter:       cfg.OTelExporter,
		Insecure:       !cfg.ProdLike(),
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}
	if migrateOnly {
		slog.Info("migrations applied")
		return nil
	}

	auditLogs := repository.NewAuditRepository(db.Gorm)

	var recorder audit.Recorder = audit.NewDirectRecorder()
	if cfg.AuditQueue {
		client, err := audit.SetupQueue(ctx, db, auditLogs, audit.QueueConfig{
			Workers: cfg.AuditWorkers,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		if err := client.Start(ctx); err != nil {
			return fmt.Errorf("starting audit queue: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := client.Stop(stopCtx); err != nil {
				slog.Warn("audit queue stop failed", "error", err)
			}
		}()
		recorder = audit.NewQueueRecorder(client)
	}

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	hub := roomfeed.NewHub()
	defer hub.Close()

	if cfg.AdminEmail != "" {
		if _, err := auth.NewService(db.Gorm, tokens, recorder).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	if cfg.ProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(routerDeps{
		DB:          db,
		Tokens:      tokens,
		Recorder:    recorder,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hotel api listening", "addr", addr, "env", cfg.AppEnv, "audit_queue", cfg.AuditQueue)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
