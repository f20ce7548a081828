// Package notify delivers participation status messages to external sinks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/requests"
	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/rs/zerolog"
)

// Message is the payload published for a committed request status change.
type Message struct {
	RequestID   int64     `json:"requestId"`
	RequesterID int64     `json:"requesterId"`
	EventID     int64     `json:"eventId"`
	EventTitle  string    `json:"eventTitle"`
	Status      string    `json:"status"`
	ChangedAt   time.Time `json:"changedAt"`
}

func FromChange(c requests.Change, at time.Time) Message {
	return Message{
		RequestID:   c.RequestID,
		RequesterID: c.RequesterID,
		EventID:     c.EventID,
		EventTitle:  c.EventTitle,
		Status:      string(c.Status),
		ChangedAt:   at.UTC(),
	}
}

// RoutingKey is the topic key for a message, e.g. request.confirmed.
func (m Message) RoutingKey() string {
	return "request." + strings.ToLower(m.Status)
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

type sink struct {
	name      string
	publisher Publisher
}

// Fanout publishes every message to all registered sinks and joins their errors.
type Fanout struct {
	sinks []sink
}

func NewFanout() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Add(name string, p Publisher) *Fanout {
	f.sinks = append(f.sinks, sink{name: name, publisher: p})
	return f
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Publish(ctx context.Context, msg Message) error {
	var errList []error
	for _, s := range f.sinks {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			metrics.NotificationsPublished.WithLabelValues(s.name, "failed").Inc()
			errList = append(errList, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		metrics.NotificationsPublished.WithLabelValues(s.name, "sent").Inc()
	}
	return errors.Join(errList...)
}

// LogPublisher writes messages to the context logger. It is the sink used
// when neither a broker nor email is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, msg Message) error {
	zerolog.Ctx(ctx).Info().
		Int64("request_id", msg.RequestID).
		Int64("requester_id", msg.RequesterID).
		Int64("event_id", msg.EventID).
		Str("status", msg.Status).
		Msg("participation status changed")
	return nil
}
