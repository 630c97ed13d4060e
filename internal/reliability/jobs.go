package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/appa/internal/database"
	"github.com/rs/zerolog"
)

// BackupJob uploads a fresh backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       10 * time.Minute,
		log:           log.With().Str("job", "database_backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run executes the backup job. A failed rotation is logged and does not fail the job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// VacuumJob rebuilds databases whose rows churn (analytics cache, positions)
type VacuumJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewVacuumJob creates a new vacuum job
func NewVacuumJob(log zerolog.Logger, databases ...*database.DB) *VacuumJob {
	return &VacuumJob{
		databases: databases,
		log:       log.With().Str("job", "vacuum_databases").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *VacuumJob) Name() string {
	return "vacuum_databases"
}

// Run vacuums every database, continuing past failures
func (j *VacuumJob) Run() error {
	ctx := context.Background()
	var failed []string

	for _, db := range j.databases {
		before, after, err := db.Vacuum(ctx)
		if err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
			failed = append(failed, db.Name())
			continue
		}
		j.log.Info().
			Str("database", db.Name()).
			Int64("size_before_bytes", before).
			Int64("size_after_bytes", after).
			Int64("reclaimed_bytes", before-after).
			Msg("VACUUM completed")
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to vacuum %v", failed)
	}
	return nil
}
