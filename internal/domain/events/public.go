package events

import (
	"context"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/stats"
	"github.com/rs/zerolog"
)

// Visit describes the HTTP request behind a public read.
type Visit struct {
	URI string
	IP  string
}

// PublicService serves published events to anonymous readers and reports
// every read to the statistics service.
type PublicService struct {
	repo Repository
	hits stats.Recorder
	app  string
	now  func() time.Time
}

// NewPublicService builds the read side. hits may be nil to disable hit reporting.
func NewPublicService(repo Repository, hits stats.Recorder, app string, opts ...Option) *PublicService {
	o := buildOptions(opts)
	return &PublicService{repo: repo, hits: hits, app: app, now: o.now}
}

func (s *PublicService) Search(ctx context.Context, filters PublicFilters, page paging.Page) ([]Event, error) {
	now := s.now().UTC()
	start := filters.RangeStart.OrElse(now)
	if end, ok := filters.RangeEnd.Get(); ok && end.Before(start) {
		return nil, errs.Validation("rangeEnd must not be before rangeStart")
	}
	filters.RangeStart = optional.Of(start)
	if filters.Sort == "" {
		filters.Sort = SortEventDate
	}
	return s.repo.ListPublic(ctx, filters, page.Normalize())
}

// GetPublished returns a published event and counts the view.
// Events in any other state are reported as missing.
func (s *PublicService) GetPublished(ctx context.Context, eventID int64, visit Visit) (*Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.State != StatePublished {
		return nil, notFoundEvent(eventID)
	}

	views, err := s.repo.IncrementViews(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event.Views = views

	s.RecordVisit(ctx, visit)
	return event, nil
}

// RecordVisit forwards an anonymized hit. Failures are logged and swallowed.
func (s *PublicService) RecordVisit(ctx context.Context, visit Visit) {
	if s.hits == nil {
		return
	}
	hit := stats.Hit{
		App:       s.app,
		URI:       visit.URI,
		IP:        stats.AnonymizeIP(visit.IP),
		Timestamp: s.now().UTC(),
	}
	if err := s.hits.Record(ctx, hit); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uri", visit.URI).Msg("failed to record hit")
	}
}
