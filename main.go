package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"complaintdesk/app"
	"complaintdesk/config"
	"complaintdesk/logging"
	"complaintdesk/middleware"
	"complaintdesk/routes"
	"complaintdesk/schema"
	"complaintdesk/service"
	"complaintdesk/worker"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.LoadConfig()
	log := logging.New(cfg.Log)
	if envErr != nil {
		log.Warn().Msg(".env file not found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Msg("database connection established")

	schemaLog := logging.Component(log, "schema")
	if err := schema.InitializeDatabase(ctx, db, schemaLog); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	if err := schema.ValidateRequiredColumns(ctx, db, nil, schemaLog); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	core, err := app.New(db, cfg, reg, log)
	if err != nil {
		return err
	}
	if cfg.Notification.ShadowMode() {
		log.Info().Str("shadow_address", cfg.Notification.ShadowAddress).Msg("email shadow mode enabled")
	}

	var slaWorker *worker.SLAWorker
	if cfg.SLA.WorkerEnabled {
		slaWorker = worker.NewSLAWorker(
			core.Services.Check,
			service.CheckOptions{Notify: cfg.SLA.NotifyOnBreach, Escalate: cfg.SLA.AutoEscalate},
			cfg.SLA.WorkerInterval(),
			log,
		)
		slaWorker.Start()
	} else {
		log.Info().Msg("SLA worker disabled")
	}

	router := routes.SetupRoutes(core.Services, routes.Auth{
		JWTSecret:  cfg.Auth.JWTSecret,
		AdminToken: cfg.Auth.AdminToken,
	}, reg, log)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if slaWorker != nil {
		slaWorker.Stop()
	}
	core.Dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}
