package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jzx17/pinpool/pkg/pool"
)

// statsResponse is the body served on /stats
type statsResponse struct {
	RunID   string        `json:"run_id"`
	Pool    poolStats     `json:"pool"`
	Workers []workerStats `json:"workers"`
}

type poolStats struct {
	Size          int   `json:"size"`
	FreeWorkers   int   `json:"free_workers"`
	PendingTasks  int   `json:"pending_tasks"`
	Submitted     int64 `json:"submitted"`
	Completed     int64 `json:"completed"`
	Panicked      int64 `json:"panicked"`
	AverageTaskNs int64 `json:"average_task_ns"`
	Idle          bool  `json:"idle"`
}

type workerStats struct {
	ID            int    `json:"id"`
	CPU           int    `json:"cpu"`
	Pinned        bool   `json:"pinned"`
	State         string `json:"state"`
	TasksExecuted int64  `json:"tasks_executed"`
	Panics        int64  `json:"panics"`
	BusyNs        int64  `json:"busy_ns"`
}

// newRouter exposes the pool's metrics and statistics over HTTP
func newRouter(p *pool.Pool, gatherer prometheus.Gatherer, runID string, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, buildStats(p, runID))
	}).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, map[string]string{
			"status": "healthy",
			"run_id": runID,
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	return r
}

func buildStats(p *pool.Pool, runID string) statsResponse {
	ps := p.Stats()
	resp := statsResponse{
		RunID: runID,
		Pool: poolStats{
			Size:          ps.PoolSize,
			FreeWorkers:   ps.FreeWorkers,
			PendingTasks:  ps.PendingTasks,
			Submitted:     ps.Submitted,
			Completed:     ps.Completed,
			Panicked:      ps.Panicked,
			AverageTaskNs: ps.AverageExecutionTime.Nanoseconds(),
			Idle:          ps.IsIdle(),
		},
	}
	for _, ws := range p.WorkerStats() {
		resp.Workers = append(resp.Workers, workerStats{
			ID:            ws.ID,
			CPU:           ws.CPU,
			Pinned:        ws.Pinned,
			State:         ws.State.String(),
			TasksExecuted: ws.TasksExecuted,
			Panics:        ws.Panics,
			BusyNs:        ws.BusyTime.Nanoseconds(),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request received",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			next.ServeHTTP(w, r)
		})
	}
}
