// Package app wires configuration to concrete backends for the commands.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/backup"
	"github.com/dvloznov/finance-dashboard/internal/config"
	infraBQ "github.com/dvloznov/finance-dashboard/internal/infra/bigquery"
	"github.com/dvloznov/finance-dashboard/internal/infra/inmemory"
	"github.com/dvloznov/finance-dashboard/internal/infra/sqlite"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/store"
)

// OpenStore returns the state repository selected by cfg.Store.Backend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.StateRepository, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return inmemory.NewStore(), nil
	case config.BackendSQLite:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil
	case config.BackendBigQuery:
		r, err := infraBQ.NewBigQueryStateRepository(ctx, cfg.GCPProjectID, cfg.BigQueryDataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown store backend %q", cfg.Store.Backend)
	}
}

// OpenBackupDestination returns the destination selected by
// cfg.Backup.Destination and a function releasing it.
func OpenBackupDestination(ctx context.Context, cfg *config.Config) (backup.Destination, func() error, error) {
	switch cfg.Backup.Destination {
	case config.DestinationLocal:
		d, err := backup.NewLocalDestination(cfg.Backup.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenBackupDestination: %w", err)
		}
		return d, func() error { return nil }, nil
	case config.DestinationGCS:
		d, err := backup.NewGCSDestination(ctx, cfg.Backup.Bucket, cfg.Backup.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenBackupDestination: %w", err)
		}
		return d, d.Close, nil
	default:
		return nil, nil, fmt.Errorf("OpenBackupDestination: unknown backup destination %q", cfg.Backup.Destination)
	}
}

// BackupHandler returns a job handler writing each backup job's user state to dest.
// The archive name is recorded on the job.
func BackupHandler(repo store.StateRepository, dest backup.Destination, now func() time.Time) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		backupJob, ok := job.(*jobs.BackupJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log := logger.FromContext(ctx).With().
			Str("job_id", backupJob.JobID).
			Str("user_id", backupJob.UserID).
			Logger()
		log.Info().Str("reason", backupJob.Reason).Msg("Processing backup job")

		name, err := backup.Backup(ctx, repo, dest, backupJob.UserID, now())
		if err != nil {
			log.Error().Err(err).Msg("Backup failed")
			return err
		}
		backupJob.ObjectName = name

		log.Info().Str("object", name).Msg("Backup completed")
		return nil
	}
}
