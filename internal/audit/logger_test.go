package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestLoggerLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	l.Log(Entry{
		Action:       "category.create",
		Actor:        "admin-1",
		ResourceType: "category",
		ResourceID:   "4",
		IPAddress:    "10.0.0.1",
		Status:       StatusSuccess,
		Details:      map[string]string{"name": "Music"},
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "category.create", entry["action"])
	assert.Equal(t, "admin-1", entry["actor"])
	assert.Equal(t, "4", entry["resource_id"])
	assert.Equal(t, map[string]any{"name": "Music"}, entry["details"])
	assert.NotEmpty(t, entry["at"])
}

func TestLogFromRequestFailure(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest("DELETE", "/admin/users/3", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	l.LogFromRequest(req, "", "user.delete", "user", "3", errors.New("still referenced"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, StatusFailure, lines[0]["status"])
	assert.Equal(t, "unknown", lines[0]["actor"])
	assert.Equal(t, "203.0.113.5", lines[0]["ip_address"])
	assert.Equal(t, map[string]any{"error": "still referenced"}, lines[0]["details"])
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.1:5000", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "10.0.0.1:5000", "5.6.7.8"},
		{"remote addr", nil, "10.0.0.1:5000", "10.0.0.1"},
		{"prefers forwarded", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "10.0.0.1:5000", "1.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Log(Entry{Action: "x"}) })
}
