package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/Togather-Foundation/meetups/internal/notify"
	"github.com/Togather-Foundation/meetups/internal/stats"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// RecordHitArgs carries one anonymized hit for the statistics service.
type RecordHitArgs struct {
	App       string    `json:"app"`
	URI       string    `json:"uri"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

func (RecordHitArgs) Kind() string { return JobKindRecordHit }

type ParticipationStatusArgs struct {
	Message notify.Message `json:"message"`
}

func (ParticipationStatusArgs) Kind() string { return JobKindParticipationStatus }

type ExpireStaleRequestsArgs struct{}

func (ExpireStaleRequestsArgs) Kind() string { return JobKindExpireStaleRequests }

// StaleExpirer rejects pending requests of events that already started.
type StaleExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

type RecordHitWorker struct {
	river.WorkerDefaults[RecordHitArgs]
	Sender stats.Sender
}

func (RecordHitWorker) Kind() string { return JobKindRecordHit }

func (RecordHitWorker) Timeout(*river.Job[RecordHitArgs]) time.Duration { return stats.DefaultTimeout }

func (w RecordHitWorker) Work(ctx context.Context, job *river.Job[RecordHitArgs]) error {
	if job == nil {
		return fmt.Errorf("record hit job missing")
	}
	if w.Sender == nil {
		return river.JobCancel(fmt.Errorf("stats sender not configured"))
	}

	hit := stats.Hit{
		App:       job.Args.App,
		URI:       job.Args.URI,
		IP:        job.Args.IP,
		Timestamp: job.Args.Timestamp,
	}
	if err := w.Sender.Send(ctx, hit); err != nil {
		metrics.StatsHits.WithLabelValues("failed").Inc()
		return fmt.Errorf("send hit %s: %w", hit.URI, err)
	}
	metrics.StatsHits.WithLabelValues("sent").Inc()
	return nil
}

type ParticipationStatusWorker struct {
	river.WorkerDefaults[ParticipationStatusArgs]
	Publisher notify.Publisher
}

func (ParticipationStatusWorker) Kind() string { return JobKindParticipationStatus }

func (w ParticipationStatusWorker) Work(ctx context.Context, job *river.Job[ParticipationStatusArgs]) error {
	if job == nil {
		return fmt.Errorf("participation status job missing")
	}
	if w.Publisher == nil {
		return river.JobCancel(fmt.Errorf("notification publisher not configured"))
	}
	if err := w.Publisher.Publish(ctx, job.Args.Message); err != nil {
		return fmt.Errorf("publish status of request %d: %w", job.Args.Message.RequestID, err)
	}
	return nil
}

type ExpireStaleRequestsWorker struct {
	river.WorkerDefaults[ExpireStaleRequestsArgs]
	Requests StaleExpirer
	Logger   zerolog.Logger
}

func (ExpireStaleRequestsWorker) Kind() string { return JobKindExpireStaleRequests }

func (w ExpireStaleRequestsWorker) Work(ctx context.Context, job *river.Job[ExpireStaleRequestsArgs]) error {
	if w.Requests == nil {
		return fmt.Errorf("request service not configured")
	}
	logger := w.Logger.With().Str("job", JobKindExpireStaleRequests).Logger()
	ctx = logger.WithContext(ctx)

	n, err := w.Requests.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire stale requests: %w", err)
	}
	logger.Debug().Int("rejected", n).Msg("stale request sweep finished")
	return nil
}

// Dependencies are the collaborators the workers call into.
type Dependencies struct {
	Stats     stats.Sender
	Publisher notify.Publisher
	Requests  StaleExpirer
	Logger    zerolog.Logger
}

func NewWorkers(deps Dependencies) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[RecordHitArgs](workers, RecordHitWorker{Sender: deps.Stats})
	river.AddWorker[ParticipationStatusArgs](workers, ParticipationStatusWorker{Publisher: deps.Publisher})
	river.AddWorker[ExpireStaleRequestsArgs](workers, ExpireStaleRequestsWorker{Requests: deps.Requests, Logger: deps.Logger})
	return workers
}
