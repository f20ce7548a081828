package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/requests"
	"github.com/Togather-Foundation/meetups/internal/notify"
	"github.com/Togather-Foundation/meetups/internal/stats"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// Inserter is the part of the River client used to enqueue jobs.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

var (
	_ stats.Recorder    = (*HitEnqueuer)(nil)
	_ requests.Notifier = (*NotificationEnqueuer)(nil)
)

// HitEnqueuer records hits as record_hit jobs.
type HitEnqueuer struct {
	inserter Inserter
	policy   *RetryPolicy
}

func NewHitEnqueuer(inserter Inserter, policy *RetryPolicy) *HitEnqueuer {
	return &HitEnqueuer{inserter: inserter, policy: policy}
}

func (e *HitEnqueuer) Record(ctx context.Context, hit stats.Hit) error {
	args := RecordHitArgs{
		App:       hit.App,
		URI:       hit.URI,
		IP:        hit.IP,
		Timestamp: hit.Timestamp,
	}
	if _, err := e.inserter.Insert(ctx, args, e.policy.InsertOpts(JobKindRecordHit)); err != nil {
		return fmt.Errorf("enqueue hit: %w", err)
	}
	return nil
}

// NotificationEnqueuer turns committed request status changes into
// participation_status jobs, one per request.
type NotificationEnqueuer struct {
	inserter Inserter
	policy   *RetryPolicy
	now      func() time.Time
}

func NewNotificationEnqueuer(inserter Inserter, policy *RetryPolicy) *NotificationEnqueuer {
	return &NotificationEnqueuer{inserter: inserter, policy: policy, now: time.Now}
}

func (e *NotificationEnqueuer) Notify(ctx context.Context, changes []requests.Change) error {
	at := e.now()
	var errList []error
	for _, c := range changes {
		args := ParticipationStatusArgs{Message: notify.FromChange(c, at)}
		if _, err := e.inserter.Insert(ctx, args, e.policy.InsertOpts(JobKindParticipationStatus)); err != nil {
			errList = append(errList, fmt.Errorf("enqueue notification for request %d: %w", c.RequestID, err))
		}
	}
	return errors.Join(errList...)
}
