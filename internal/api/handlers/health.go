package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
)

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Store     string                 `json:"store"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Pinger is the store probe. Both stores implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker probes the store, and for PostgreSQL also the schema
// migrations and the River job table.
type HealthChecker struct {
	store       Pinger
	storeName   string
	pool        *pgxpool.Pool
	riverClient *river.Client[pgx.Tx]
	version     string
	gitCommit   string
}

// NewHealthChecker builds a checker. pool and riverClient may be nil, in
// which case the migration and job queue checks are not run.
func NewHealthChecker(store Pinger, storeName string, pool *pgxpool.Pool, riverClient *river.Client[pgx.Tx], version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:       store,
		storeName:   storeName,
		pool:        pool,
		riverClient: riverClient,
		version:     version,
		gitCommit:   gitCommit,
	}
}

// Health returns a comprehensive health check handler
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database": h.checkDatabase(ctx),
		}
		if h.pool != nil {
			checks["migrations"] = h.checkMigrations(ctx)
			checks["job_queue"] = h.checkJobQueue(ctx)
		}

		overallStatus := "healthy"
		statusCode := http.StatusOK
		for name, check := range checks {
			metrics.HealthCheckStatus.WithLabelValues(name).Set(checkValue(check.Status))
			metrics.HealthCheckLatency.WithLabelValues(name).Set(float64(check.LatencyMs))
			if check.Status == checkFail {
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			} else if check.Status == checkWarn && overallStatus == "healthy" {
				overallStatus = "degraded"
			}
		}
		metrics.HealthStatus.Set(overallValue(overallStatus))

		response := HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Store:     h.storeName,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func checkValue(status string) float64 {
	switch status {
	case checkPass:
		return 2
	case checkWarn:
		return 1
	}
	return 0
}

func overallValue(status string) float64 {
	switch status {
	case "healthy":
		return 2
	case "degraded":
		return 1
	}
	return 0
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()

	if h.store == nil {
		return CheckResult{
			Status:  checkFail,
			Message: "Store not initialized",
			Details: map[string]any{
				"remediation": "Check STORE and DATABASE_URL settings",
			},
		}
	}

	// One slow check must not starve the others.
	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.store.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		message := "Store ping failed"
		details := map[string]any{"error": err.Error()}

		switch {
		case dbCtx.Err() == context.DeadlineExceeded:
			message = "Store ping timed out after 2 seconds"
			details["remediation"] = "Check PostgreSQL performance or network latency"
		case strings.Contains(err.Error(), "connection refused"):
			message = "Database connection refused"
			details["remediation"] = "Verify PostgreSQL is running and DATABASE_URL host/port are correct"
		case strings.Contains(err.Error(), "authentication failed") || strings.Contains(err.Error(), "password"):
			message = "Database authentication failed"
			details["remediation"] = "Verify DATABASE_URL username and password are correct"
		default:
			details["remediation"] = "Check DATABASE_URL environment variable and PostgreSQL service status"
		}

		return CheckResult{Status: checkFail, Message: message, LatencyMs: latency, Details: details}
	}

	result := CheckResult{
		Status:    checkPass,
		Message:   fmt.Sprintf("%s store reachable", h.storeName),
		LatencyMs: latency,
	}
	if h.pool != nil {
		stats := h.pool.Stat()
		result.Details = map[string]any{
			"max_connections":      stats.MaxConns(),
			"total_connections":    stats.TotalConns(),
			"idle_connections":     stats.IdleConns(),
			"acquired_connections": stats.AcquiredConns(),
		}
	}
	return result
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	start := time.Now()

	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := h.pool.QueryRow(migCtx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		message := "Failed to query migration version"
		details := map[string]any{"error": err.Error()}
		if strings.Contains(err.Error(), "does not exist") {
			message = "Migrations table not found"
			details["remediation"] = "Run database migrations first: server migrate up"
		} else {
			details["remediation"] = "Verify migrations have been applied and schema_migrations table exists"
		}
		return CheckResult{Status: checkFail, Message: message, LatencyMs: latency, Details: details}
	}

	if dirty {
		return CheckResult{
			Status:    checkFail,
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details: map[string]any{
				"version": version,
				"dirty":   dirty,
				"action":  "Do NOT run new migrations until this is resolved",
			},
		}
	}

	return CheckResult{
		Status:    checkPass,
		Message:   fmt.Sprintf("Migrations applied successfully (version %d)", version),
		LatencyMs: latency,
		Details: map[string]any{
			"version": version,
			"dirty":   false,
		},
	}
}

func (h *HealthChecker) checkJobQueue(ctx context.Context) CheckResult {
	start := time.Now()

	if h.riverClient == nil {
		return CheckResult{
			Status:  checkWarn,
			Message: "Job queue disabled; hits and notifications are not retried",
		}
	}

	jobCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var activeJobs int64
	err := h.pool.QueryRow(jobCtx, `SELECT COUNT(*) FROM river_job WHERE state = ANY($1)`,
		[]string{"available", "running", "retryable"}).Scan(&activeJobs)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		details := map[string]any{"error": err.Error()}
		if strings.Contains(err.Error(), "does not exist") {
			details["remediation"] = "River migrations have not run; restart the server to apply them"
		} else {
			details["remediation"] = "Check database connectivity and river_job table permissions"
		}
		return CheckResult{Status: checkFail, Message: "Failed to query job queue", LatencyMs: latency, Details: details}
	}

	return CheckResult{
		Status:    checkPass,
		Message:   "River job queue operational",
		LatencyMs: latency,
		Details:   map[string]any{"pending_jobs": activeJobs},
	}
}

// Healthz is the liveness probe.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz reports ready once the store answers a ping.
func Readyz(store Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				respondHealth(w, http.StatusServiceUnavailable, "not_ready")
				return
			}
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
