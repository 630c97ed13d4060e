package di

import (
	"testing"
	"time"

	"github.com/aristath/appa/internal/config"
	"github.com/aristath/appa/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Port:    8080,
		Actor:   "tester",
		AlphaVantage: config.AlphaVantageConfig{
			APIKey:            "test-key",
			BaseURL:           "http://127.0.0.1:0/query",
			DailyLimit:        25,
			RequestsPerMinute: 5,
			Timeout:           time.Second,
		},
		Cache: config.CacheConfig{
			TTL:             time.Hour,
			CleanupSchedule: "@every 30m",
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()

	container, jobs, err := Wire(cfg, log, scheduler.New(log))
	require.NoError(t, err)
	require.NotNil(t, container)
	require.NotNil(t, jobs)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.AlphaVantageClient)
	assert.NotNil(t, container.Accessor)
	assert.NotNil(t, container.UniverseService)
	assert.NotNil(t, container.PortfolioService)
	assert.NotNil(t, container.AllocationEngine)
	assert.NotNil(t, container.AnalyticsService)
	assert.NotNil(t, container.Planner)
	assert.NotNil(t, container.Executor)
	assert.NotNil(t, container.EventBus)

	assert.Equal(t, "analytics_cache_cleanup", jobs.CacheCleanup.Name())
	assert.NoError(t, jobs.CheckCoreDatabases.Run())
	assert.NoError(t, jobs.CheckWALCheckpoints.Run())
	assert.NoError(t, jobs.VacuumDatabases.Run())
	assert.Nil(t, jobs.Backup)
	assert.Nil(t, container.BackupService)
}

func TestWire_WithBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup = config.BackupConfig{
		Bucket:          "appa",
		Endpoint:        "http://127.0.0.1:9000",
		Region:          "auto",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		Prefix:          "appa-backup-",
		Schedule:        "@daily",
		RetentionDays:   7,
	}
	log := zerolog.Nop()

	container, jobs, err := Wire(cfg, log, scheduler.New(log))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.BackupService)
	require.NotNil(t, jobs.Backup)
	assert.Equal(t, "database_backup", jobs.Backup.Name())
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.CleanupSchedule = "whenever"
	log := zerolog.Nop()

	_, _, err := Wire(cfg, log, scheduler.New(log))
	assert.Error(t, err)
}
