package events

import (
	"context"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
)

type State string

const (
	StatePending   State = "PENDING"
	StatePublished State = "PUBLISHED"
	StateCanceled  State = "CANCELED"
)

// ParseState accepts a state token case-insensitively.
func ParseState(raw string) (State, error) {
	switch State(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatePending:
		return StatePending, nil
	case StatePublished:
		return StatePublished, nil
	case StateCanceled:
		return StateCanceled, nil
	}
	return "", errs.Validation("Unknown event state: %s", raw)
}

func ParseStates(raw []string) ([]State, error) {
	states := make([]State, 0, len(raw))
	for _, token := range raw {
		state, err := ParseState(token)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublish      StateAction = "PUBLISH_EVENT"
	ActionReject       StateAction = "REJECT_EVENT"
)

type Location struct {
	Lat float64
	Lon float64
}

type Event struct {
	ID                int64
	InitiatorID       int64
	InitiatorName     string
	CategoryID        int64
	CategoryName      string
	Title             string
	Annotation        string
	Description       string
	Location          Location
	Paid              bool
	State             State
	EventDate         time.Time
	CreatedOn         time.Time
	PublishedOn       *time.Time
	ParticipantLimit  int
	RequestModeration bool
	ConfirmedRequests int
	CommentsDisabled  bool
	Views             int64
}

// HasCapacity reports whether one more participant can be confirmed.
func (e *Event) HasCapacity() bool {
	return e.ParticipantLimit == 0 || e.ConfirmedRequests < e.ParticipantLimit
}

// NeedsModeration reports whether new requests wait for the initiator's decision.
func (e *Event) NeedsModeration() bool {
	return e.RequestModeration && e.ParticipantLimit != 0
}

type NewEvent struct {
	CategoryID        int64
	Title             string
	Annotation        string
	Description       string
	Location          Location
	Paid              bool
	EventDate         time.Time
	ParticipantLimit  int
	RequestModeration bool
	CommentsDisabled  bool
}

// Patch carries a partial update. Only fields that are set are applied.
type Patch struct {
	CategoryID        optional.Value[int64]
	Title             optional.Value[string]
	Annotation        optional.Value[string]
	Description       optional.Value[string]
	Location          optional.Value[Location]
	Paid              optional.Value[bool]
	EventDate         optional.Value[time.Time]
	ParticipantLimit  optional.Value[int]
	RequestModeration optional.Value[bool]
	CommentsDisabled  optional.Value[bool]
	StateAction       optional.Value[StateAction]
}

type AdminFilters struct {
	Users      []int64
	States     []State
	Categories []int64
	RangeStart optional.Value[time.Time]
	RangeEnd   optional.Value[time.Time]
}

type Sort string

const (
	SortEventDate Sort = "EVENT_DATE"
	SortViews     Sort = "VIEWS"
)

func ParseSort(raw string) (Sort, error) {
	switch Sort(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", SortEventDate:
		return SortEventDate, nil
	case SortViews:
		return SortViews, nil
	}
	return "", errs.Validation("Unknown sort: %s", raw)
}

type PublicFilters struct {
	Text          string
	Categories    []int64
	Paid          optional.Value[bool]
	RangeStart    optional.Value[time.Time]
	RangeEnd      optional.Value[time.Time]
	OnlyAvailable bool
	Sort          Sort
}

// Repository is the event store. GetByIDForUpdate must be called inside
// WithTx and holds the row lock until the transaction ends.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

	UserExists(ctx context.Context, id int64) (bool, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)

	Create(ctx context.Context, initiatorID int64, params NewEvent, createdOn time.Time) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Event, error)
	// Update persists the editable fields and the state of e.
	Update(ctx context.Context, e *Event) (*Event, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)

	ListByInitiator(ctx context.Context, initiatorID int64, page paging.Page) ([]Event, error)
	ListAdmin(ctx context.Context, filters AdminFilters, page paging.Page) ([]Event, error)
	ListPublic(ctx context.Context, filters PublicFilters, page paging.Page) ([]Event, error)
}

type options struct {
	now   func() time.Time
	leads LeadTimes
}

type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLeadTimes(leads LeadTimes) Option {
	return func(o *options) { o.leads = leads }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, leads: DefaultLeadTimes()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func notFoundEvent(id int64) error {
	return errs.NotFound("Event with id=%d was not found", id)
}

func notFoundUser(id int64) error {
	return errs.NotFound("User with id=%d was not found", id)
}
