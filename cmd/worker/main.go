package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/app"
	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

// The worker takes one backup per listed user and exits, e.g. from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)

	users := flag.String("users", os.Getenv("FINANCE_BACKUP_USERS"), "Comma-separated user ids to back up (or set FINANCE_BACKUP_USERS)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Give up on backups still running after this long")
	flag.Parse()

	userIDs := splitUsers(*users)
	if len(userIDs) == 0 {
		log.Fatal().Msg("Error: --users is required")
	}

	// Create context that cancels on interrupt or timeout
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

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

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.QueueConfig{
		BufferSize: len(userIDs),
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, jobStore)

	log.Info().Int("users", len(userIDs)).Str("destination", cfg.Backup.Destination).Msg("Starting backup worker")

	if err := jobQueue.Start(ctx, app.BackupHandler(repo, dest, time.Now)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	for _, userID := range userIDs {
		job := &jobs.BackupJob{UserID: userID, Destination: cfg.Backup.Destination, Reason: "scheduled"}
		if err := jobQueue.PublishBackup(ctx, job); err != nil {
			log.Fatal().Err(err).Str("user_id", userID).Msg("Failed to enqueue backup")
		}
	}

	failed := waitForJobs(ctx, jobStore, len(userIDs))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	all, _ := jobStore.ListJobs(context.Background(), jobs.JobFilter{})
	for _, job := range all {
		fmt.Printf("%-20s %-10s %s%s\n", job.UserID, job.Status, job.ObjectName, job.Error)
	}

	if failed > 0 || ctx.Err() != nil {
		log.Error().Int("failed", failed).Msg("Some backups did not complete")
		os.Exit(1)
	}
	log.Info().Msg("Worker finished")
}

func splitUsers(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// waitForJobs polls the store until want jobs have finished or ctx ends, and
// returns how many failed.
func waitForJobs(ctx context.Context, store jobs.JobStore, want int) int {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		completed, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
		failed, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
		if len(completed)+len(failed) >= want {
			return len(failed)
		}

		select {
		case <-ctx.Done():
			return len(failed)
		case <-ticker.C:
		}
	}
}
