package di

import (
	"fmt"

	"github.com/aristath/appa/internal/cache"
	"github.com/aristath/appa/internal/config"
	"github.com/aristath/appa/internal/reliability"
	"github.com/aristath/appa/internal/scheduler"
	"github.com/rs/zerolog"
)

// Maintenance schedules for the database jobs
const (
	checkCoreDatabasesSchedule  = "0 30 3 * * *" // daily at 03:30
	checkWALCheckpointsSchedule = "@every 1h"
	vacuumDatabasesSchedule     = "0 0 3 * * 0" // Sundays at 03:00
)

// RegisterJobs creates the background jobs and registers them with the scheduler
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		CacheCleanup:        cache.NewCleanupJob(container.CacheStore, log),
		CheckCoreDatabases:  scheduler.NewCheckCoreDatabasesJob(log, container.Databases()...),
		CheckWALCheckpoints: scheduler.NewCheckWALCheckpointsJob(log, container.Databases()...),
		VacuumDatabases:     reliability.NewVacuumJob(log, container.PortfolioDB, container.CacheDB),
	}
	if container.BackupService != nil {
		jobs.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	if sched == nil {
		return jobs, nil
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Cache.CleanupSchedule, jobs.CacheCleanup},
		{checkCoreDatabasesSchedule, jobs.CheckCoreDatabases},
		{checkWALCheckpointsSchedule, jobs.CheckWALCheckpoints},
		{vacuumDatabasesSchedule, jobs.VacuumDatabases},
	}
	if jobs.Backup != nil {
		registrations = append(registrations, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Schedule, jobs.Backup})
	}
	for _, reg := range registrations {
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", reg.job.Name(), err)
		}
	}

	log.Info().Int("jobs", len(registrations)).Msg("Jobs registered")
	return jobs, nil
}
