package requests

import (
	"context"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/rs/zerolog"
)

type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a participation request. Requests to events without
// moderation, or without a participant limit, are confirmed immediately.
func (s *Service) Submit(ctx context.Context, userID, eventID int64) (*Request, error) {
	var (
		created *Request
		title   string
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := requireUser(ctx, repo, userID); err != nil {
			return err
		}
		event, err := repo.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		title = event.Title

		active, err := repo.HasActive(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if active {
			return errs.Conflict("Event id=%d already has a request from user id=%d", eventID, userID)
		}
		if event.InitiatorID == userID {
			return errs.Conflict("Initiator cannot request participation in own event")
		}
		if event.State != events.StatePublished {
			return errs.Conflict("Event is not published")
		}
		if !event.HasCapacity() {
			return errs.Conflict("Participant limit exceeded")
		}

		status := StatusPending
		if !event.NeedsModeration() {
			status = StatusConfirmed
		}
		created, err = repo.Create(ctx, userID, eventID, status, s.now().UTC())
		if err != nil {
			return err
		}
		if status == StatusConfirmed {
			return repo.SetConfirmedRequests(ctx, eventID, event.ConfirmedRequests+1)
		}
		return nil
	})
	if err != nil {
		metrics.AdmissionOutcomes.WithLabelValues("submit", outcome(err)).Inc()
		return nil, err
	}

	metrics.AdmissionOutcomes.WithLabelValues("submit", string(created.Status)).Inc()
	zerolog.Ctx(ctx).Info().
		Int64("request_id", created.ID).
		Int64("event_id", eventID).
		Str("status", string(created.Status)).
		Msg("participation request submitted")
	s.notify(ctx, title, *created)
	return created, nil
}

// BatchUpdateStatus confirms or rejects pending requests of one event. When
// confirming, requests are admitted in input order while capacity remains
// and the remainder is rejected.
func (s *Service) BatchUpdateStatus(ctx context.Context, initiatorID, eventID int64, update StatusUpdate) (*StatusUpdateResult, error) {
	if update.Status != StatusConfirmed && update.Status != StatusRejected {
		return nil, errs.Validation("Status must be CONFIRMED or REJECTED")
	}
	ids := dedupe(update.RequestIDs)
	if len(ids) == 0 {
		return nil, errs.Validation("requestIds must not be empty")
	}

	result := &StatusUpdateResult{Confirmed: []Request{}, Rejected: []Request{}}
	var title string
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := requireUser(ctx, repo, initiatorID); err != nil {
			return err
		}
		event, err := repo.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		title = event.Title
		if event.InitiatorID != initiatorID {
			return errs.Forbidden("User with id=%d is not the initiator of event id=%d", initiatorID, eventID)
		}
		if !event.NeedsModeration() {
			return errs.Conflict("Request moderation is off or the event has no participant limit; confirmation is not required")
		}
		if event.ConfirmedRequests >= event.ParticipantLimit {
			return errs.Conflict("Participant limit exceeded")
		}

		found, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]Request, len(found))
		for _, r := range found {
			byID[r.ID] = r
		}
		ordered := make([]Request, 0, len(ids))
		for _, id := range ids {
			r, ok := byID[id]
			if !ok || r.EventID != eventID {
				return errs.NotFound("Request with id=%d was not found for event id=%d", id, eventID)
			}
			ordered = append(ordered, r)
		}
		for _, r := range ordered {
			if r.Status != StatusPending {
				return errs.Conflict("All requests must have status PENDING")
			}
		}

		confirmed := event.ConfirmedRequests
		for _, r := range ordered {
			if update.Status == StatusConfirmed && confirmed < event.ParticipantLimit {
				r.Status = StatusConfirmed
				result.Confirmed = append(result.Confirmed, r)
				confirmed++
				continue
			}
			r.Status = StatusRejected
			result.Rejected = append(result.Rejected, r)
		}

		if err := repo.UpdateStatus(ctx, requestIDs(result.Confirmed), StatusConfirmed); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, requestIDs(result.Rejected), StatusRejected); err != nil {
			return err
		}
		if confirmed != event.ConfirmedRequests {
			return repo.SetConfirmedRequests(ctx, eventID, confirmed)
		}
		return nil
	})
	if err != nil {
		metrics.AdmissionOutcomes.WithLabelValues("batch", outcome(err)).Inc()
		return nil, err
	}

	metrics.AdmissionOutcomes.WithLabelValues("batch", string(StatusConfirmed)).Add(float64(len(result.Confirmed)))
	metrics.AdmissionOutcomes.WithLabelValues("batch", string(StatusRejected)).Add(float64(len(result.Rejected)))
	zerolog.Ctx(ctx).Info().
		Int64("event_id", eventID).
		Int("confirmed", len(result.Confirmed)).
		Int("rejected", len(result.Rejected)).
		Msg("participation requests moderated")
	s.notify(ctx, title, append(append([]Request{}, result.Confirmed...), result.Rejected...)...)
	return result, nil
}

// Cancel withdraws the caller's request. Canceling a confirmed request frees its slot.
func (s *Service) Cancel(ctx context.Context, userID, requestID int64) (*Request, error) {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if current.RequesterID != userID {
		return nil, errs.Forbidden("User with id=%d cannot cancel request id=%d", userID, requestID)
	}

	var (
		canceled *Request
		title    string
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.LockEvent(ctx, current.EventID)
		if err != nil {
			return err
		}
		title = event.Title

		// The status may have moved while we waited for the lock.
		req, err := repo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status.Terminal() {
			return errs.Conflict("Request with id=%d is already %s", requestID, req.Status)
		}
		if req.Status == StatusConfirmed {
			if err := repo.SetConfirmedRequests(ctx, event.ID, max(event.ConfirmedRequests-1, 0)); err != nil {
				return err
			}
		}
		if err := repo.UpdateStatus(ctx, []int64{requestID}, StatusCanceled); err != nil {
			return err
		}
		req.Status = StatusCanceled
		canceled = req
		return nil
	})
	if err != nil {
		metrics.AdmissionOutcomes.WithLabelValues("cancel", outcome(err)).Inc()
		return nil, err
	}

	metrics.AdmissionOutcomes.WithLabelValues("cancel", string(StatusCanceled)).Inc()
	zerolog.Ctx(ctx).Info().Int64("request_id", requestID).Msg("participation request canceled")
	s.notify(ctx, title, *canceled)
	return canceled, nil
}

func (s *Service) ListOwn(ctx context.Context, userID int64) ([]Request, error) {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByRequester(ctx, userID)
}

func (s *Service) ListForEvent(ctx context.Context, initiatorID, eventID int64) ([]Request, error) {
	if err := requireUser(ctx, s.repo, initiatorID); err != nil {
		return nil, err
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.InitiatorID != initiatorID {
		return nil, errs.Forbidden("User with id=%d is not the initiator of event id=%d", initiatorID, eventID)
	}
	return s.repo.ListByEvent(ctx, eventID)
}

// ExpireStale rejects pending requests of events that have already started.
// Each event is handled in its own transaction. It returns the number of
// requests rejected.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	eventIDs, err := s.repo.EventsWithPendingBefore(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	total := 0
	for _, eventID := range eventIDs {
		var (
			expired []Request
			title   string
		)
		err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			event, err := repo.LockEvent(ctx, eventID)
			if err != nil {
				return err
			}
			title = event.Title
			all, err := repo.ListByEvent(ctx, eventID)
			if err != nil {
				return err
			}
			for _, r := range all {
				if r.Status == StatusPending {
					r.Status = StatusRejected
					expired = append(expired, r)
				}
			}
			return repo.UpdateStatus(ctx, requestIDs(expired), StatusRejected)
		})
		if err != nil {
			return total, err
		}
		total += len(expired)
		metrics.AdmissionOutcomes.WithLabelValues("expire", string(StatusRejected)).Add(float64(len(expired)))
		s.notify(ctx, title, expired...)
	}

	if total > 0 {
		zerolog.Ctx(ctx).Info().Int("rejected", total).Int("events", len(eventIDs)).Msg("stale participation requests expired")
	}
	return total, nil
}

func (s *Service) notify(ctx context.Context, title string, reqs ...Request) {
	if s.notifier == nil || len(reqs) == 0 {
		return
	}
	changes := make([]Change, 0, len(reqs))
	for _, r := range reqs {
		changes = append(changes, Change{
			RequestID:   r.ID,
			RequesterID: r.RequesterID,
			EventID:     r.EventID,
			EventTitle:  title,
			Status:      r.Status,
		})
	}
	if err := s.notifier.Notify(ctx, changes); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("changes", len(changes)).Msg("failed to enqueue participation notifications")
	}
}

func requireUser(ctx context.Context, repo Repository, id int64) error {
	ok, err := repo.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("User with id=%d was not found", id)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requestIDs(reqs []Request) []int64 {
	ids := make([]int64, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	return ids
}

func outcome(err error) string {
	switch errs.Kind(err) {
	case errs.ErrNotFound:
		return "not_found"
	case errs.ErrForbidden:
		return "forbidden"
	case errs.ErrConflict:
		return "conflict"
	case errs.ErrValidation:
		return "invalid"
	}
	return "error"
}
