package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
)

type RequestRepository struct {
	view
}

func (r *RequestRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo requests.Repository) error) error {
	return r.inTx(func(tx view) error {
		return fn(ctx, &RequestRepository{tx})
	})
}

func (r *RequestRepository) UserExists(_ context.Context, id int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.userExists(id)
		return nil
	})
	return ok, err
}

func (r *RequestRepository) GetEvent(_ context.Context, id int64) (*events.Event, error) {
	var out *events.Event
	err := r.read(func(st *state) (err error) {
		out, err = st.getEvent(id)
		return err
	})
	return out, err
}

func (r *RequestRepository) LockEvent(ctx context.Context, id int64) (*events.Event, error) {
	return r.GetEvent(ctx, id)
}

func (r *RequestRepository) SetConfirmedRequests(_ context.Context, eventID int64, confirmed int) error {
	return r.write(func(st *state) error {
		e, ok := st.events[eventID]
		if !ok {
			return errs.NotFound("Event with id=%d was not found", eventID)
		}
		e.ConfirmedRequests = confirmed
		st.events[eventID] = e
		return nil
	})
}

func (r *RequestRepository) Create(_ context.Context, requesterID, eventID int64, status requests.Status, created time.Time) (*requests.Request, error) {
	var out *requests.Request
	err := r.write(func(st *state) error {
		if st.hasActive(requesterID, eventID) {
			return errs.Conflict("Event id=%d already has a request from user id=%d", eventID, requesterID)
		}
		req := requests.Request{
			ID:          st.nextID("requests"),
			RequesterID: requesterID,
			EventID:     eventID,
			Status:      status,
			Created:     created,
		}
		st.requests[req.ID] = req
		out = &req
		return nil
	})
	return out, err
}

func (r *RequestRepository) GetByID(_ context.Context, id int64) (*requests.Request, error) {
	var out *requests.Request
	err := r.read(func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return errs.NotFound("Request with id=%d was not found", id)
		}
		out = &req
		return nil
	})
	return out, err
}

func (r *RequestRepository) GetByIDs(_ context.Context, ids []int64) ([]requests.Request, error) {
	out := make([]requests.Request, 0, len(ids))
	err := r.read(func(st *state) error {
		for _, id := range ids {
			if req, ok := st.requests[id]; ok {
				out = append(out, req)
			}
		}
		return nil
	})
	return out, err
}

func (r *RequestRepository) HasActive(_ context.Context, requesterID, eventID int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.hasActive(requesterID, eventID)
		return nil
	})
	return ok, err
}

func (r *RequestRepository) UpdateStatus(_ context.Context, ids []int64, status requests.Status) error {
	if len(ids) == 0 {
		return nil
	}
	return r.write(func(st *state) error {
		for _, id := range ids {
			req, ok := st.requests[id]
			if !ok {
				return errs.NotFound("Request with id=%d was not found", id)
			}
			req.Status = status
			st.requests[id] = req
		}
		return nil
	})
}

func (r *RequestRepository) ListByRequester(_ context.Context, requesterID int64) ([]requests.Request, error) {
	return r.filter(func(req requests.Request) bool { return req.RequesterID == requesterID })
}

func (r *RequestRepository) ListByEvent(_ context.Context, eventID int64) ([]requests.Request, error) {
	return r.filter(func(req requests.Request) bool { return req.EventID == eventID })
}

func (r *RequestRepository) EventsWithPendingBefore(_ context.Context, cutoff time.Time) ([]int64, error) {
	out := []int64{}
	err := r.read(func(st *state) error {
		seen := map[int64]bool{}
		for _, req := range st.requests {
			if req.Status != requests.StatusPending || seen[req.EventID] {
				continue
			}
			if e, ok := st.events[req.EventID]; ok && e.EventDate.Before(cutoff) {
				seen[req.EventID] = true
				out = append(out, req.EventID)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

func (r *RequestRepository) filter(keep func(requests.Request) bool) ([]requests.Request, error) {
	out := []requests.Request{}
	err := r.read(func(st *state) error {
		for _, req := range st.requests {
			if keep(req) {
				out = append(out, req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (st *state) hasActive(requesterID, eventID int64) bool {
	for _, req := range st.requests {
		if req.RequesterID == requesterID && req.EventID == eventID && req.Status != requests.StatusCanceled {
			return true
		}
	}
	return false
}
