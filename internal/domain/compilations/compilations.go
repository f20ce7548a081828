// Package compilations manages curated, optionally pinned, lists of events.
package compilations

import (
	"context"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/sanitize"
	"github.com/rs/zerolog"
)

type Compilation struct {
	ID     int64
	Title  string
	Pinned bool
	// Events keeps the order the compilation was saved with.
	Events []events.Event
}

type NewCompilation struct {
	Title    string
	Pinned   bool
	EventIDs []int64
}

type Patch struct {
	Title    optional.Value[string]
	Pinned   optional.Value[bool]
	EventIDs optional.Value[[]int64]
}

// Record is the persisted shape of a compilation.
type Record struct {
	ID       int64
	Title    string
	Pinned   bool
	EventIDs []int64
}

type Repository interface {
	Create(ctx context.Context, rec Record) (*Compilation, error)
	Update(ctx context.Context, rec Record) (*Compilation, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Compilation, error)
	List(ctx context.Context, pinned optional.Value[bool], page paging.Page) ([]Compilation, error)
	TitleTaken(ctx context.Context, title string, exceptID int64) (bool, error)
	// ExistingEventIDs returns the subset of ids that refer to stored events.
	ExistingEventIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, params NewCompilation) (*Compilation, error) {
	title := sanitize.Text(params.Title)
	if title == "" {
		return nil, errs.Validation("Compilation title must not be blank")
	}
	if err := s.requireFreeTitle(ctx, title, 0); err != nil {
		return nil, err
	}
	eventIDs, err := s.resolveEvents(ctx, params.EventIDs)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, Record{Title: title, Pinned: params.Pinned, EventIDs: eventIDs})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("compilation_id", created.ID).Int("events", len(eventIDs)).Msg("compilation created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Compilation, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := Record{ID: id, Title: existing.Title, Pinned: existing.Pinned, EventIDs: make([]int64, 0, len(existing.Events))}
	for _, e := range existing.Events {
		rec.EventIDs = append(rec.EventIDs, e.ID)
	}

	if title, ok := patch.Title.Get(); ok {
		title = sanitize.Text(title)
		if title == "" {
			return nil, errs.Validation("Compilation title must not be blank")
		}
		if title != existing.Title {
			if err := s.requireFreeTitle(ctx, title, id); err != nil {
				return nil, err
			}
		}
		rec.Title = title
	}
	patch.Pinned.Apply(&rec.Pinned)
	if ids, ok := patch.EventIDs.Get(); ok {
		if rec.EventIDs, err = s.resolveEvents(ctx, ids); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, rec)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Compilation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, pinned optional.Value[bool], page paging.Page) ([]Compilation, error) {
	return s.repo.List(ctx, pinned, page.Normalize())
}

func (s *Service) requireFreeTitle(ctx context.Context, title string, exceptID int64) error {
	taken, err := s.repo.TitleTaken(ctx, title, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return errs.Conflict("Compilation with title=%s already exists", title)
	}
	return nil
}

// resolveEvents keeps the requested order, drops duplicates, and skips ids
// that do not refer to an event.
func (s *Service) resolveEvents(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	existing, err := s.repo.ExistingEventIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !known[id] {
			zerolog.Ctx(ctx).Warn().Int64("event_id", id).Msg("skipping unknown event in compilation")
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
