package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
)

type EventRepository struct {
	view
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo events.Repository) error) error {
	return r.inTx(func(tx view) error {
		return fn(ctx, &EventRepository{tx})
	})
}

func (r *EventRepository) UserExists(_ context.Context, id int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		_, ok = st.users[id]
		return nil
	})
	return ok, err
}

func (r *EventRepository) CategoryExists(_ context.Context, id int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		_, ok = st.categories[id]
		return nil
	})
	return ok, err
}

func (r *EventRepository) Create(_ context.Context, initiatorID int64, params events.NewEvent, createdOn time.Time) (*events.Event, error) {
	var out *events.Event
	err := r.write(func(st *state) error {
		if _, ok := st.users[initiatorID]; !ok {
			return errs.NotFound("User with id=%d was not found", initiatorID)
		}
		if _, ok := st.categories[params.CategoryID]; !ok {
			return errs.NotFound("Category with id=%d was not found", params.CategoryID)
		}
		e := events.Event{
			ID:                st.nextID("events"),
			InitiatorID:       initiatorID,
			CategoryID:        params.CategoryID,
			Title:             params.Title,
			Annotation:        params.Annotation,
			Description:       params.Description,
			Location:          params.Location,
			Paid:              params.Paid,
			State:             events.StatePending,
			EventDate:         params.EventDate,
			CreatedOn:         createdOn,
			ParticipantLimit:  params.ParticipantLimit,
			RequestModeration: params.RequestModeration,
			CommentsDisabled:  params.CommentsDisabled,
		}
		st.events[e.ID] = e
		out = st.eventOut(e)
		return nil
	})
	return out, err
}

func (r *EventRepository) GetByID(_ context.Context, id int64) (*events.Event, error) {
	var out *events.Event
	err := r.read(func(st *state) (err error) {
		out, err = st.getEvent(id)
		return err
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: transactions are already serialized.
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*events.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *EventRepository) Update(_ context.Context, e *events.Event) (*events.Event, error) {
	var out *events.Event
	err := r.write(func(st *state) error {
		cur, ok := st.events[e.ID]
		if !ok {
			return errs.NotFound("Event with id=%d was not found", e.ID)
		}
		if _, ok := st.categories[e.CategoryID]; !ok {
			return errs.NotFound("Category with id=%d was not found", e.CategoryID)
		}
		cur.CategoryID = e.CategoryID
		cur.Title = e.Title
		cur.Annotation = e.Annotation
		cur.Description = e.Description
		cur.Location = e.Location
		cur.Paid = e.Paid
		cur.State = e.State
		cur.EventDate = e.EventDate
		cur.PublishedOn = e.PublishedOn
		cur.ParticipantLimit = e.ParticipantLimit
		cur.RequestModeration = e.RequestModeration
		cur.CommentsDisabled = e.CommentsDisabled
		st.events[cur.ID] = cur
		out = st.eventOut(cur)
		return nil
	})
	return out, err
}

func (r *EventRepository) IncrementViews(_ context.Context, id int64) (int64, error) {
	var views int64
	err := r.write(func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return errs.NotFound("Event with id=%d was not found", id)
		}
		e.Views++
		st.events[id] = e
		views = e.Views
		return nil
	})
	return views, err
}

func (r *EventRepository) ListByInitiator(_ context.Context, initiatorID int64, page paging.Page) ([]events.Event, error) {
	return r.list(page, byID, func(e events.Event) bool {
		return e.InitiatorID == initiatorID
	})
}

func (r *EventRepository) ListAdmin(_ context.Context, f events.AdminFilters, page paging.Page) ([]events.Event, error) {
	return r.list(page, byID, func(e events.Event) bool {
		if len(f.Users) > 0 && !containsID(f.Users, e.InitiatorID) {
			return false
		}
		if len(f.Categories) > 0 && !containsID(f.Categories, e.CategoryID) {
			return false
		}
		if len(f.States) > 0 && !containsState(f.States, e.State) {
			return false
		}
		return inRange(e.EventDate, f.RangeStart.Get, f.RangeEnd.Get)
	})
}

func (r *EventRepository) ListPublic(_ context.Context, f events.PublicFilters, page paging.Page) ([]events.Event, error) {
	less := byEventDate
	if f.Sort == events.SortViews {
		less = byViews
	}
	text := strings.ToLower(strings.TrimSpace(f.Text))
	return r.list(page, less, func(e events.Event) bool {
		if e.State != events.StatePublished {
			return false
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(e.Annotation), text) &&
			!strings.Contains(strings.ToLower(e.Title), text) &&
			!strings.Contains(strings.ToLower(e.Description), text) {
			return false
		}
		if len(f.Categories) > 0 && !containsID(f.Categories, e.CategoryID) {
			return false
		}
		if paid, ok := f.Paid.Get(); ok && e.Paid != paid {
			return false
		}
		if f.OnlyAvailable && !e.HasCapacity() {
			return false
		}
		return inRange(e.EventDate, f.RangeStart.Get, f.RangeEnd.Get)
	})
}

func (r *EventRepository) list(page paging.Page, less func(a, b events.Event) bool, keep func(events.Event) bool) ([]events.Event, error) {
	var out []events.Event
	err := r.read(func(st *state) error {
		matched := make([]events.Event, 0)
		for _, e := range st.events {
			if keep(e) {
				matched = append(matched, e)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
		window := paging.Slice(matched, page)
		out = make([]events.Event, 0, len(window))
		for _, e := range window {
			out = append(out, *st.eventOut(e))
		}
		return nil
	})
	return out, err
}

func byID(a, b events.Event) bool { return a.ID < b.ID }

func byEventDate(a, b events.Event) bool {
	if !a.EventDate.Equal(b.EventDate) {
		return a.EventDate.Before(b.EventDate)
	}
	return a.ID < b.ID
}

func byViews(a, b events.Event) bool {
	if a.Views != b.Views {
		return a.Views > b.Views
	}
	return a.ID < b.ID
}

func inRange(t time.Time, start, end func() (time.Time, bool)) bool {
	if s, ok := start(); ok && t.Before(s) {
		return false
	}
	if e, ok := end(); ok && t.After(e) {
		return false
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsState(states []events.State, s events.State) bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}
	return false
}

func (st *state) getEvent(id int64) (*events.Event, error) {
	e, ok := st.events[id]
	if !ok {
		return nil, errs.NotFound("Event with id=%d was not found", id)
	}
	return st.eventOut(e), nil
}

// eventOut returns a copy of e with the joined names filled in.
func (st *state) eventOut(e events.Event) *events.Event {
	e.InitiatorName = st.users[e.InitiatorID].Name
	e.CategoryName = st.categories[e.CategoryID].Name
	if e.PublishedOn != nil {
		published := *e.PublishedOn
		e.PublishedOn = &published
	}
	return &e
}

func (st *state) userExists(id int64) bool {
	_, ok := st.users[id]
	return ok
}
