package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/meetups/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthCheck {
	t.Helper()
	var response HealthCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	return response
}

func TestHealthCheck_MemoryStoreHealthy(t *testing.T) {
	checker := NewHealthChecker(memory.New(), "memory", nil, nil, "0.1.0", "abc123")

	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	response := decodeHealth(t, rec)
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "0.1.0", response.Version)
	assert.Equal(t, "abc123", response.GitCommit)
	assert.Equal(t, "memory", response.Store)
	require.Contains(t, response.Checks, "database")
	assert.Equal(t, checkPass, response.Checks["database"].Status)
	assert.NotContains(t, response.Checks, "migrations")

	_, err := time.Parse(time.RFC3339, response.Timestamp)
	assert.NoError(t, err)
}

func TestHealthCheck_StoreFailure(t *testing.T) {
	checker := NewHealthChecker(pingerFunc(func(context.Context) error {
		return errors.New("dial tcp 127.0.0.1:5432: connection refused")
	}), "postgres", nil, nil, "0.1.0", "abc123")

	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	response := decodeHealth(t, rec)
	assert.Equal(t, "unhealthy", response.Status)
	assert.Equal(t, checkFail, response.Checks["database"].Status)
	assert.Equal(t, "Database connection refused", response.Checks["database"].Message)
}

func TestHealthCheck_NilStore(t *testing.T) {
	checker := NewHealthChecker(nil, "", nil, nil, "dev", "")

	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck_CanceledRequest(t *testing.T) {
	checker := NewHealthChecker(memory.New(), "memory", nil, nil, "dev", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting_down")
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	rec := httptest.NewRecorder()
	Readyz(memory.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	down := pingerFunc(func(context.Context) error { return errors.New("down") })
	Readyz(down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
