package events

import (
	"context"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/sanitize"
	"github.com/rs/zerolog"
)

// LeadTimes are the minimum gaps between "now" and an event's date.
type LeadTimes struct {
	// Initiator applies to creation and to initiator patches: the date must be strictly later than now+Initiator.
	Initiator time.Duration
	// Admin applies to admin patches: the date must not be earlier than now+Admin.
	Admin time.Duration
}

func DefaultLeadTimes() LeadTimes {
	return LeadTimes{Initiator: 2 * time.Hour, Admin: time.Hour}
}

// LifecycleService owns the event state machine:
//
//	PENDING --CANCEL_REVIEW/REJECT_EVENT--> CANCELED --SEND_TO_REVIEW--> PENDING
//	PENDING --PUBLISH_EVENT--> PUBLISHED
type LifecycleService struct {
	repo  Repository
	now   func() time.Time
	leads LeadTimes
}

func NewLifecycleService(repo Repository, opts ...Option) *LifecycleService {
	o := buildOptions(opts)
	return &LifecycleService{repo: repo, now: o.now, leads: o.leads}
}

func (s *LifecycleService) Create(ctx context.Context, initiatorID int64, params NewEvent) (*Event, error) {
	if err := s.requireUser(ctx, s.repo, initiatorID); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, s.repo, params.CategoryID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !params.EventDate.After(now.Add(s.leads.Initiator)) {
		return nil, errs.Validation("Event date must be at least %s in the future", s.leads.Initiator)
	}
	if params.ParticipantLimit < 0 {
		return nil, errs.Validation("Participant limit must not be negative")
	}

	params.Title = sanitize.Text(params.Title)
	params.Annotation = sanitize.Text(params.Annotation)
	params.Description = sanitize.Rich(params.Description)

	event, err := s.repo.Create(ctx, initiatorID, params, now)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Int64("event_id", event.ID).
		Int64("initiator_id", initiatorID).
		Msg("event created")
	return event, nil
}

func (s *LifecycleService) Get(ctx context.Context, userID, eventID int64) (*Event, error) {
	if err := s.requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, eventID)
}

func (s *LifecycleService) ListByInitiator(ctx context.Context, initiatorID int64, page paging.Page) ([]Event, error) {
	if err := s.requireUser(ctx, s.repo, initiatorID); err != nil {
		return nil, err
	}
	return s.repo.ListByInitiator(ctx, initiatorID, page.Normalize())
}

func (s *LifecycleService) UpdateByInitiator(ctx context.Context, eventID, initiatorID int64, patch Patch) (*Event, error) {
	var updated *Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := s.requireUser(ctx, repo, initiatorID); err != nil {
			return err
		}
		event, err := repo.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.InitiatorID != initiatorID {
			return errs.Forbidden("User with id=%d is not the initiator of event id=%d", initiatorID, eventID)
		}
		if event.State != StatePending && event.State != StateCanceled {
			return errs.Conflict("Only pending or canceled events can be changed")
		}
		if date, ok := patch.EventDate.Get(); ok {
			if !date.After(s.now().UTC().Add(s.leads.Initiator)) {
				return errs.Conflict("Event date must be at least %s in the future", s.leads.Initiator)
			}
		}
		if err := s.applyFields(ctx, repo, event, patch); err != nil {
			return err
		}

		if action, ok := patch.StateAction.Get(); ok {
			switch action {
			case ActionSendToReview:
				event.State = StatePending
			case ActionCancelReview:
				event.State = StateCanceled
			default:
				return errs.Conflict("User cannot perform action: %s", action)
			}
		}

		updated, err = repo.Update(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Int64("event_id", eventID).
		Str("state", string(updated.State)).
		Msg("event updated by initiator")
	return updated, nil
}

func (s *LifecycleService) UpdateByAdmin(ctx context.Context, eventID int64, patch Patch) (*Event, error) {
	var updated *Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if date, ok := patch.EventDate.Get(); ok {
			if date.Before(now.Add(s.leads.Admin)) {
				return errs.Conflict("Event date must be at least %s in the future", s.leads.Admin)
			}
		}
		if err := s.applyFields(ctx, repo, event, patch); err != nil {
			return err
		}

		if action, ok := patch.StateAction.Get(); ok {
			switch action {
			case ActionPublish:
				if event.State != StatePending {
					return errs.Conflict("Cannot publish the event because it's not in the right state: %s", event.State)
				}
				event.State = StatePublished
				event.PublishedOn = &now
			case ActionReject:
				if event.State != StatePending {
					return errs.Conflict("Cannot reject the event because it's not in the right state: %s", event.State)
				}
				event.State = StateCanceled
			default:
				return errs.Conflict("Admin cannot perform action: %s", action)
			}
		}

		updated, err = repo.Update(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Int64("event_id", eventID).
		Str("state", string(updated.State)).
		Msg("event updated by admin")
	return updated, nil
}

func (s *LifecycleService) ListAdmin(ctx context.Context, filters AdminFilters, page paging.Page) ([]Event, error) {
	if start, ok := filters.RangeStart.Get(); ok {
		if end, ok := filters.RangeEnd.Get(); ok && end.Before(start) {
			return nil, errs.Validation("rangeEnd must not be before rangeStart")
		}
	}
	return s.repo.ListAdmin(ctx, filters, page.Normalize())
}

// applyFields copies the present patch fields onto event. State actions are handled by the caller.
func (s *LifecycleService) applyFields(ctx context.Context, repo Repository, event *Event, patch Patch) error {
	if categoryID, ok := patch.CategoryID.Get(); ok && categoryID != event.CategoryID {
		if err := s.requireCategory(ctx, repo, categoryID); err != nil {
			return err
		}
		event.CategoryID = categoryID
	}
	if limit, ok := patch.ParticipantLimit.Get(); ok {
		if limit < 0 {
			return errs.Validation("Participant limit must not be negative")
		}
		if limit != 0 && limit < event.ConfirmedRequests {
			return errs.Conflict("Participant limit %d is below the %d confirmed requests", limit, event.ConfirmedRequests)
		}
		event.ParticipantLimit = limit
	}
	if title, ok := patch.Title.Get(); ok {
		event.Title = sanitize.Text(title)
	}
	if annotation, ok := patch.Annotation.Get(); ok {
		event.Annotation = sanitize.Text(annotation)
	}
	if description, ok := patch.Description.Get(); ok {
		event.Description = sanitize.Rich(description)
	}
	patch.Location.Apply(&event.Location)
	patch.Paid.Apply(&event.Paid)
	patch.EventDate.Apply(&event.EventDate)
	patch.RequestModeration.Apply(&event.RequestModeration)
	patch.CommentsDisabled.Apply(&event.CommentsDisabled)
	return nil
}

func (s *LifecycleService) requireUser(ctx context.Context, repo Repository, id int64) error {
	ok, err := repo.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundUser(id)
	}
	return nil
}

func (s *LifecycleService) requireCategory(ctx context.Context, repo Repository, id int64) error {
	ok, err := repo.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("Category with id=%d was not found", id)
	}
	return nil
}
