package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"

	"staticfund-api/internal/advice"
	"staticfund-api/internal/cache"
	"staticfund-api/pkg/logging/logging"
)

type Pinger interface {
	// Ping returns the database's idea of the current time.
	Ping(ctx context.Context) (string, error)
}

type CacheStatser interface {
	CacheStats() map[advice.Category]cache.Stats
}

// Counters reports request totals since start.
type Counters interface {
	Start() time.Time
	Requests() int64
	Errors() int64
}

// SystemHandler serves the liveness and stats endpoints.
type SystemHandler struct {
	db       Pinger
	caches   CacheStatser
	counters Counters
	now      func() time.Time
}

func NewSystemHandler(db Pinger, caches CacheStatser, counters Counters) *SystemHandler {
	return &SystemHandler{db: db, caches: caches, counters: counters, now: time.Now}
}

// Test handles GET /api/test.
func (h *SystemHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working"})
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbTime, err := h.db.Ping(r.Context())
	if err != nil {
		logging.L(r.Context()).Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "database unavailable",
		})
		return
	}

	mem := readMem()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   dbTime,
		"uptime": h.uptime(),
		"memory": map[string]string{
			"heapUsed": strconv.FormatUint(mem.HeapAlloc>>20, 10) + "MB",
			"sys":      strconv.FormatUint(mem.Sys>>20, 10) + "MB",
		},
	})
}

// Stats handles GET /api/stats. Memory figures are in MB.
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	mem := readMem()

	cacheStats := make(map[string]cache.Stats)
	for category, s := range h.caches.CacheStats() {
		cacheStats[string(category)] = s
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":   h.uptime(),
		"requests": h.counters.Requests(),
		"errors":   h.counters.Errors(),
		"memory": map[string]uint64{
			"heapUsed":  mem.HeapAlloc >> 20,
			"heapTotal": mem.HeapSys >> 20,
			"sys":       mem.Sys >> 20,
		},
		"goroutines": runtime.NumGoroutine(),
		"cache":      cacheStats,
	})
}

func (h *SystemHandler) uptime() int64 {
	return int64(h.now().Sub(h.counters.Start()) / time.Second)
}

func readMem() runtime.MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}
