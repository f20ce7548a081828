package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if s, ok := body.(string); ok {
			fmt.Fprint(w, s)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       any
		wantStatus string
		wantErr    bool
	}{
		{
			name:       "healthy server",
			statusCode: http.StatusOK,
			body: HealthResponse{
				Status: "healthy",
				Store:  "memory",
				Checks: map[string]CheckResult{"database": {Status: "pass"}},
			},
			wantStatus: "healthy",
		},
		{
			name:       "degraded server",
			statusCode: http.StatusOK,
			body: HealthResponse{
				Status: "degraded",
				Checks: map[string]CheckResult{"job_queue": {Status: "warn"}},
			},
			wantStatus: "degraded",
		},
		{
			name:       "unhealthy server (503)",
			statusCode: http.StatusServiceUnavailable,
			body:       HealthResponse{Status: "unhealthy"},
			wantStatus: "unhealthy",
		},
		{
			name:       "503 without body",
			statusCode: http.StatusServiceUnavailable,
			body:       "",
			wantErr:    true,
		},
		{
			name:       "invalid response",
			statusCode: http.StatusOK,
			body:       "not json",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := healthServer(t, tt.statusCode, tt.body)

			resp, err := checkHealth(context.Background(), srv.Client(), srv.URL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestHealthcheckCommand(t *testing.T) {
	healthy := healthServer(t, http.StatusOK, HealthResponse{Status: "healthy"})
	output, err := execute(t, "healthcheck", "--url", healthy.URL)
	require.NoError(t, err)
	assert.Contains(t, output, "healthy")

	degraded := healthServer(t, http.StatusOK, HealthResponse{Status: "degraded"})
	_, err = execute(t, "healthcheck", "--url", degraded.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=degraded")
}

func TestHealthcheckCommandUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := execute(t, "healthcheck", "--url", url, "--timeout", "1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}
