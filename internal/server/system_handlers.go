package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/taxfolio/internal/database"
	"github.com/aristath/taxfolio/internal/reliability"
	"github.com/aristath/taxfolio/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves system monitoring and operations endpoints
type SystemHandlers struct {
	log     zerolog.Logger
	dataDir string
	dbs     []*database.DB
	backup  *reliability.BackupService
	jobs    map[string]scheduler.Job
	started time.Time
}

// NewSystemHandlers creates system handlers over the given databases
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	configDB, cacheDB *database.DB,
	backup *reliability.BackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:     log.With().Str("handler", "system").Logger(),
		dataDir: dataDir,
		dbs:     []*database.DB{configDB, cacheDB},
		backup:  backup,
		jobs:    make(map[string]scheduler.Job),
		started: time.Now(),
	}
}

// SetJobs registers jobs for manual triggering via the API
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	for _, job := range jobs {
		h.jobs[job.Name()] = job
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	databases := make([]map[string]interface{}, 0, len(h.dbs))
	for _, db := range h.dbs {
		if db == nil {
			continue
		}
		entry := map[string]interface{}{"name": db.Name()}
		if err := db.HealthCheck(r.Context()); err != nil {
			entry["healthy"] = false
			entry["error"] = err.Error()
		} else {
			entry["healthy"] = true
		}
		if stats, err := db.GetStats(); err == nil {
			entry["stats"] = stats
		}
		databases = append(databases, entry)
	}

	h.writeJSON(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"cpu_percent":    cpuPct,
		"memory_percent": memPct,
		"goroutines":     runtime.NumGoroutine(),
		"databases":      databases,
		"backup_enabled": h.backup != nil && h.backup.Enabled(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil || !h.backup.Enabled() {
		h.writeJSON(w, map[string]interface{}{
			"data":     []interface{}{},
			"metadata": map[string]interface{}{"enabled": false},
		})
		return
	}

	backups, err := h.backup.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"data": backups,
		"metadata": map[string]interface{}{
			"enabled": true,
			"count":   len(backups),
		},
	})
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manually triggered job")
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Job failed")
		h.writeJSON(w, map[string]interface{}{
			"status": "error",
			"job":    name,
			"error":  err.Error(),
		})
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status": "ok",
		"job":    name,
	})
}

// systemStats returns CPU and RAM usage percentages. The short 100ms
// sample keeps the status endpoint responsive.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
