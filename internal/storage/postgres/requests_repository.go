package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
)

var _ requests.Repository = (*RequestRepository)(nil)

type RequestRepository struct {
	conn
}

const requestSelect = `SELECT id, requester_id, event_id, status, created FROM participation_requests`

func scanRequest(row scanner) (requests.Request, error) {
	var (
		req    requests.Request
		status string
	)
	if err := row.Scan(&req.ID, &req.RequesterID, &req.EventID, &status, &req.Created); err != nil {
		return requests.Request{}, err
	}
	req.Status = requests.Status(status)
	req.Created = req.Created.UTC()
	return req, nil
}

func (r *RequestRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo requests.Repository) error) error {
	return r.inTx(ctx, func(tx conn) error {
		return fn(ctx, &RequestRepository{tx})
	})
}

func (r *RequestRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	return r.userExists(ctx, id)
}

func (r *RequestRepository) GetEvent(ctx context.Context, id int64) (*events.Event, error) {
	return r.getEvent(ctx, id, false)
}

func (r *RequestRepository) LockEvent(ctx context.Context, id int64) (*events.Event, error) {
	return r.getEvent(ctx, id, true)
}

func (r *RequestRepository) SetConfirmedRequests(ctx context.Context, eventID int64, confirmed int) error {
	tag, err := r.queryer().Exec(ctx, `UPDATE events SET confirmed_requests = $2 WHERE id = $1`, eventID, confirmed)
	if err != nil {
		return fmt.Errorf("set confirmed requests: %w", translate(err, "Participant limit exceeded"))
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("Event with id=%d was not found", eventID)
	}
	return nil
}

func (r *RequestRepository) Create(ctx context.Context, requesterID, eventID int64, status requests.Status, created time.Time) (*requests.Request, error) {
	req, err := scanRequest(r.queryer().QueryRow(ctx, `
INSERT INTO participation_requests (requester_id, event_id, status, created)
VALUES ($1, $2, $3, $4)
RETURNING id, requester_id, event_id, status, created
`, requesterID, eventID, string(status), created))
	if err != nil {
		return nil, fmt.Errorf("create request: %w",
			translate(err, "Event id=%d already has a request from user id=%d", eventID, requesterID))
	}
	return &req, nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*requests.Request, error) {
	req, err := scanRequest(r.queryer().QueryRow(ctx, requestSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "Request with id=%d was not found", id)
	}
	return &req, nil
}

func (r *RequestRepository) GetByIDs(ctx context.Context, ids []int64) ([]requests.Request, error) {
	return r.list(ctx, requestSelect+` WHERE id = ANY($1) ORDER BY id`, ids)
}

func (r *RequestRepository) HasActive(ctx context.Context, requesterID, eventID int64) (bool, error) {
	return r.exists(ctx, `
SELECT EXISTS (
  SELECT 1 FROM participation_requests
   WHERE requester_id = $1 AND event_id = $2 AND status <> 'CANCELED'
)`, requesterID, eventID)
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, ids []int64, status requests.Status) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := r.queryer().Exec(ctx, `UPDATE participation_requests SET status = $2 WHERE id = ANY($1)`, ids, string(status))
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return errs.NotFound("Some of the requests %v were not found", ids)
	}
	return nil
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]requests.Request, error) {
	return r.list(ctx, requestSelect+` WHERE requester_id = $1 ORDER BY id`, requesterID)
}

func (r *RequestRepository) ListByEvent(ctx context.Context, eventID int64) ([]requests.Request, error) {
	return r.list(ctx, requestSelect+` WHERE event_id = $1 ORDER BY id`, eventID)
}

func (r *RequestRepository) EventsWithPendingBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT DISTINCT e.id
  FROM events e
  JOIN participation_requests pr ON pr.event_id = e.id
 WHERE pr.status = 'PENDING'
   AND e.event_date < $1
 ORDER BY e.id
`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale events: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale events: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale events: %w", err)
	}
	return ids, nil
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...any) ([]requests.Request, error) {
	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	items := []requests.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requests: %w", err)
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return items, nil
}
