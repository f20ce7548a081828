package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestCorrelationID_GeneratesID(t *testing.T) {
	var ctxID string
	handler := CorrelationID(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.NotEmpty(t, ctxID)
	assert.Equal(t, ctxID, rec.Header().Get("X-Request-ID"))
}

func TestCorrelationID_KeepsIncomingID(t *testing.T) {
	var buf bytes.Buffer
	handler := CorrelationID(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line["request_id"])
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	handler := CorrelationID(zerolog.New(&buf))(RequestLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("{}"))
	})))

	req := httptest.NewRequest(http.MethodPatch, "/users/1/events/2", nil)
	req.Header.Set("X-Request-ID", "log-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["message"])
	assert.Equal(t, "PATCH", line["method"])
	assert.Equal(t, "/users/1/events/2", line["path"])
	assert.EqualValues(t, http.StatusConflict, line["status"])
	assert.EqualValues(t, 2, line["bytes"])
	assert.Equal(t, "log-1", line["request_id"])
}

func TestCorrelationID_ReplacesUnsafeIncomingID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"newline", "abc\nforged=1"},
		{"spaces", "a b"},
		{"too long", strings.Repeat("x", 65)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID string
			handler := CorrelationID(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			req.Header.Set("X-Request-ID", tt.id)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEqual(t, tt.id, ctxID)
			_, err := uuid.Parse(ctxID)
			assert.NoError(t, err)
			assert.Equal(t, ctxID, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRequestID_Empty(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}
