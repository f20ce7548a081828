package jobs

import (
	"log/slog"
	"math"
	"time"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const (
	JobKindRecordHit           = "record_hit"
	JobKindParticipationStatus = "participation_status"
	JobKindExpireStaleRequests = "expire_stale_requests"
)

const (
	QueueStats         = "stats"
	QueueNotifications = "notifications"
)

const (
	RecordHitMaxAttempts           = 3
	ParticipationStatusMaxAttempts = 5
	ExpireStaleMaxAttempts         = 1
	DefaultMaxAttempts             = 5
)

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

// NewRetryPolicy returns the retry policy, taking attempt limits from cfg
// where they are set.
func NewRetryPolicy(cfg config.JobsConfig) *RetryPolicy {
	hitAttempts := cfg.HitMaxAttempts
	if hitAttempts <= 0 {
		hitAttempts = RecordHitMaxAttempts
	}
	notifyAttempts := cfg.NotifyAttempts
	if notifyAttempts <= 0 {
		notifyAttempts = ParticipationStatusMaxAttempts
	}

	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			BaseDelay:   30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
		ByKind: map[string]RetryConfig{
			JobKindRecordHit: {
				MaxAttempts: hitAttempts,
				BaseDelay:   5 * time.Second,
				MaxDelay:    time.Minute,
			},
			JobKindParticipationStatus: {
				MaxAttempts: notifyAttempts,
				BaseDelay:   30 * time.Second,
				MaxDelay:    15 * time.Minute,
			},
			// The sweep is periodic; the next tick is its retry.
			JobKindExpireStaleRequests: {
				MaxAttempts: ExpireStaleMaxAttempts,
			},
		},
	}
}

// NextRetry determines the next retry time for a failed job.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	config := p.configFor(job.Kind)
	if config.BaseDelay == 0 {
		return time.Now()
	}

	attempt := job.Attempt
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(config.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}
	return time.Now().Add(delay)
}

// InsertOpts returns the insert options for a job kind.
func (p *RetryPolicy) InsertOpts(kind string) *river.InsertOpts {
	opts := &river.InsertOpts{MaxAttempts: p.configFor(kind).MaxAttempts}
	switch kind {
	case JobKindRecordHit:
		opts.Queue = QueueStats
	case JobKindParticipationStatus:
		opts.Queue = QueueNotifications
	}
	return opts
}

// NewClientConfig builds a River client configuration with retry policy.
func NewClientConfig(cfg config.JobsConfig, workers *river.Workers, logger *slog.Logger, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) *river.Config {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	policy := NewRetryPolicy(cfg)
	config := &river.Config{
		Workers:      workers,
		RetryPolicy:  policy,
		MaxAttempts:  policy.Default.MaxAttempts,
		PeriodicJobs: periodicJobs,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
			QueueStats:         {MaxWorkers: maxWorkers},
			QueueNotifications: {MaxWorkers: maxWorkers},
		},
		Hooks: hooks,
	}
	if logger != nil {
		config.Logger = logger
		config.ErrorHandler = NewAlertingErrorHandler(logger, nil)
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, cfg config.JobsConfig, workers *river.Workers, logger *slog.Logger, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(cfg, workers, logger, hooks, periodicJobs))
}

// NewPeriodicJobs schedules the stale request sweep every interval
// (hourly when unset). The first sweep runs on start.
func NewPeriodicJobs(interval time.Duration) []*river.PeriodicJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return ExpireStaleRequestsArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: DefaultMaxAttempts, BaseDelay: time.Minute, MaxDelay: time.Hour}
	}
	if config, ok := p.ByKind[kind]; ok {
		return config
	}
	return p.Default
}
