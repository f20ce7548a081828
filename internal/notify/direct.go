package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/requests"
)

var _ requests.Notifier = (*Direct)(nil)

// Direct publishes status changes inline, without a job queue. It is used
// with the in-memory store where no River client exists.
type Direct struct {
	publisher Publisher
	now       func() time.Time
}

func NewDirect(p Publisher) *Direct {
	return &Direct{publisher: p, now: time.Now}
}

func (d *Direct) Notify(ctx context.Context, changes []requests.Change) error {
	at := d.now()
	var errList []error
	for _, c := range changes {
		if err := d.publisher.Publish(ctx, FromChange(c, at)); err != nil {
			errList = append(errList, fmt.Errorf("notify request %d: %w", c.RequestID, err))
		}
	}
	return errors.Join(errList...)
}
