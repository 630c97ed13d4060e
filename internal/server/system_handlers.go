package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/aristath/appa/internal/database"
	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/reliability"
	"github.com/aristath/appa/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles status and maintenance endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	databases   []*database.DB
	backups     *reliability.BackupService
	scheduler   *scheduler.Scheduler
	marketData  RequestBudget
	startupTime time.Time
}

// RequestBudget reports how many upstream market-data requests are left today
type RequestBudget interface {
	GetRemainingRequests() int
}

// NewSystemHandlers creates a new system handlers instance.
// backups, sched and marketData may be nil. Without a scheduler jobs run
// directly and no statuses are reported.
func NewSystemHandlers(
	log zerolog.Logger,
	databases []*database.DB,
	backups *reliability.BackupService,
	sched *scheduler.Scheduler,
	marketData RequestBudget,
	startupTime time.Time,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		databases:   databases,
		backups:     backups,
		scheduler:   sched,
		marketData:  marketData,
		startupTime: startupTime,
	}
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status      string          `json:"status"`
	UptimeHours float64         `json:"uptime_hours"`
	CPUPercent  float64         `json:"cpu_percent"`
	RAMPercent  float64         `json:"ram_percent"`
	Goroutines  int             `json:"goroutines"`
	Databases   []DatabaseStats `json:"databases"`

	// Upstream requests left in today's market-data budget
	MarketDataRequestsLeft *int `json:"marketdata_requests_left,omitempty"`
}

// DatabaseStats describes one database file
type DatabaseStats struct {
	Name      string `json:"name"`
	Profile   string `json:"profile"`
	SizeBytes int64  `json:"size_bytes"`
	WALBytes  int64  `json:"wal_bytes"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
}

// HandleSystemStatus reports process, host and database health
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	dbStats := h.databaseStats(r.Context())

	status := "healthy"
	for _, db := range dbStats {
		if !db.Healthy {
			status = "degraded"
			break
		}
	}

	cpuPercent, ramPercent := h.getSystemStats()
	resp := SystemStatusResponse{
		Status:      status,
		UptimeHours: time.Since(h.startupTime).Hours(),
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
		Goroutines:  runtime.NumGoroutine(),
		Databases:   dbStats,
	}
	if h.marketData != nil {
		left := h.marketData.GetRemainingRequests()
		resp.MarketDataRequestsLeft = &left
	}
	httputil.WriteData(w, h.log, http.StatusOK, resp)
}

// HandleDatabaseStats reports file sizes and integrity for every database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, h.log, http.StatusOK, h.databaseStats(r.Context()))
}

// HandleListBackups lists stored database backups, newest first
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		httputil.WriteJSON(w, h.log, http.StatusServiceUnavailable, map[string]string{
			"error": "backups not configured",
		})
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, backups)
}

// HandleListJobs returns the scheduled jobs and their last outcome
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	statuses := []scheduler.JobStatus{}
	if h.scheduler != nil {
		statuses = h.scheduler.Statuses()
	}
	httputil.WriteData(w, h.log, http.StatusOK, statuses)
}

// HandleTriggerJob runs a maintenance job synchronously
func (h *SystemHandlers) HandleTriggerJob(job scheduler.Job) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if job == nil {
			httputil.WriteJSON(w, h.log, http.StatusServiceUnavailable, map[string]string{
				"error": "job not configured",
			})
			return
		}

		start := time.Now()
		run := job.Run
		if h.scheduler != nil {
			run = func() error { return h.scheduler.RunNow(job) }
		}
		if err := run(); err != nil {
			httputil.WriteError(w, h.log, err)
			return
		}

		h.log.Info().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("Job triggered manually")
		httputil.WriteData(w, h.log, http.StatusOK, map[string]interface{}{
			"job":         job.Name(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

func (h *SystemHandlers) databaseStats(ctx context.Context) []DatabaseStats {
	stats := make([]DatabaseStats, 0, len(h.databases))
	for _, db := range h.databases {
		st := DatabaseStats{
			Name:      db.Name(),
			Profile:   string(db.Profile()),
			SizeBytes: fileSize(db.Path()),
			WALBytes:  fileSize(db.Path() + "-wal"),
			Healthy:   true,
		}
		if err := db.QuickCheck(ctx); err != nil {
			st.Healthy = false
			st.Error = err.Error()
		}
		stats = append(stats, st)
	}
	return stats
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return -1
		}
		return 0
	}
	return info.Size()
}

// getSystemStats calculates CPU and RAM usage percentages.
// The CPU sample window is kept short so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}
