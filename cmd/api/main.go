package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/advisor"
	"github.com/dvloznov/finance-dashboard/internal/api"
	"github.com/dvloznov/finance-dashboard/internal/app"
	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file read before the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	repo, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open state store")
	}
	defer repo.Close()

	dest, closeDest, err := app.OpenBackupDestination(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backup destination")
	}
	defer closeDest()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.QueueConfig{
		BufferSize: cfg.Jobs.QueueSize,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting backup workers")
	if err := jobQueue.Start(workerCtx, app.BackupHandler(repo, dest, time.Now)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start backup workers")
	}

	opts := []dashboard.Option{dashboard.WithBackupDestination(cfg.Backup.Destination)}
	if !cfg.Backup.Automatic {
		log.Info().Msg("Automatic backups disabled")
		opts = append(opts, dashboard.WithoutAutomaticBackups())
	}
	svc := dashboard.NewService(repo, jobQueue, opts...)

	var adv advisor.Advisor
	geminiAdvisor, err := advisor.NewGeminiAdvisor(ctx, advisor.Options{
		Model:       cfg.Gemini.Model,
		Timeout:     cfg.Gemini.Timeout,
		Temperature: cfg.Gemini.Temperature,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Gemini is not configured - advice will be disabled")
	} else {
		adv = geminiAdvisor
	}

	handler := api.NewRouter(api.Options{
		Service:       svc,
		JobStore:      jobStore,
		Advisor:       adv,
		AllowedOrigin: cfg.HTTP.AllowedOrigin,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("port", cfg.HTTP.Port).
			Str("store", cfg.Store.Backend).
			Str("backup_destination", cfg.Backup.Destination).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight backups
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
