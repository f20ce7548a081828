// Package audit records admin mutations as structured log entries.
package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp    time.Time
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string
	Details      map[string]string
}

// Logger writes audit entries through a zerolog sub-logger tagged component=audit.
type Logger struct {
	logger zerolog.Logger
}

func NewLogger(base zerolog.Logger) *Logger {
	return &Logger{logger: base.With().Str("component", "audit").Logger()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.logger.Info()
	if entry.Status == StatusFailure {
		event = l.logger.Warn()
	}
	event = event.
		Time("at", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("status", entry.Status).
		Str("ip_address", entry.IPAddress)
	if entry.ResourceType != "" {
		event = event.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		event = event.Str("resource_id", entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		dict := zerolog.Dict()
		for k, v := range entry.Details {
			dict = dict.Str(k, v)
		}
		event = event.Dict("details", dict)
	}
	event.Msg("admin action")
}

// LogFromRequest records an admin action performed through r. err decides
// the status; its message is kept in the details.
func (l *Logger) LogFromRequest(r *http.Request, actor, action, resourceType, resourceID string, err error) {
	entry := Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    extractClientIP(r),
		Status:       StatusSuccess,
	}
	if actor == "" {
		entry.Actor = "unknown"
	}
	if err != nil {
		entry.Status = StatusFailure
		entry.Details = map[string]string{"error": err.Error()}
	}
	l.Log(entry)
}

// extractClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the
// remote host, in that order.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
