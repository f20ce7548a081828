// Package requests implements admission control for event participation.
//
// Every operation that reads or writes an event's confirmed counter runs in a
// single transaction that first locks the event row, so concurrent submits and
// moderation batches on one event are serialized and the counter never exceeds
// the participant limit.
package requests

import (
	"context"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCanceled  Status = "CANCELED"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusRejected
}

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusCanceled:
		return StatusCanceled, nil
	}
	return "", errs.Validation("Unknown request status: %s", raw)
}

type Request struct {
	ID          int64
	RequesterID int64
	EventID     int64
	Status      Status
	Created     time.Time
}

type StatusUpdate struct {
	RequestIDs []int64
	Status     Status
}

type StatusUpdateResult struct {
	Confirmed []Request
	Rejected  []Request
}

// Change is a committed status transition, announced to the Notifier.
type Change struct {
	RequestID   int64
	RequesterID int64
	EventID     int64
	EventTitle  string
	Status      Status
}

// Notifier receives status changes after they are committed.
type Notifier interface {
	Notify(ctx context.Context, changes []Change) error
}

// Repository is the request store. LockEvent must be called inside WithTx and
// holds the event row lock until the transaction ends.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

	UserExists(ctx context.Context, id int64) (bool, error)
	GetEvent(ctx context.Context, id int64) (*events.Event, error)
	LockEvent(ctx context.Context, id int64) (*events.Event, error)
	SetConfirmedRequests(ctx context.Context, eventID int64, confirmed int) error

	Create(ctx context.Context, requesterID, eventID int64, status Status, created time.Time) (*Request, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	// GetByIDs returns the requests that exist, in unspecified order.
	GetByIDs(ctx context.Context, ids []int64) ([]Request, error)
	// HasActive reports whether the requester has a request for the event that is not canceled.
	HasActive(ctx context.Context, requesterID, eventID int64) (bool, error)
	UpdateStatus(ctx context.Context, ids []int64, status Status) error

	ListByRequester(ctx context.Context, requesterID int64) ([]Request, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Request, error)
	// EventsWithPendingBefore lists events dated before cutoff that still have pending requests.
	EventsWithPendingBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}
