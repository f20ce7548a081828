package stats

import (
	"context"
	"sync"
	"time"

	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/rs/zerolog"
)

// Sender delivers a hit synchronously.
type Sender interface {
	Send(ctx context.Context, hit Hit) error
}

// AsyncRecorder buffers hits in memory and delivers them from a single
// goroutine. Hits are dropped when the buffer is full.
type AsyncRecorder struct {
	sender  Sender
	logger  zerolog.Logger
	queue   chan Hit
	timeout time.Duration

	once sync.Once
	done chan struct{}
}

func NewAsyncRecorder(sender Sender, buffer int, logger zerolog.Logger) *AsyncRecorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncRecorder{
		sender:  sender,
		logger:  logger.With().Str("component", "stats").Logger(),
		queue:   make(chan Hit, buffer),
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
	}
}

func (r *AsyncRecorder) Record(_ context.Context, hit Hit) error {
	select {
	case r.queue <- hit:
	default:
		metrics.StatsHits.WithLabelValues("dropped").Inc()
		r.logger.Warn().Str("uri", hit.URI).Msg("stats buffer full, dropping hit")
	}
	return nil
}

// Run delivers queued hits until ctx is canceled, then drains what is left.
func (r *AsyncRecorder) Run(ctx context.Context) error {
	defer r.once.Do(func() { close(r.done) })
	for {
		select {
		case hit := <-r.queue:
			r.deliver(hit)
		case <-ctx.Done():
			for {
				select {
				case hit := <-r.queue:
					r.deliver(hit)
				default:
					return nil
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (r *AsyncRecorder) Done() <-chan struct{} {
	return r.done
}

func (r *AsyncRecorder) deliver(hit Hit) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.sender.Send(ctx, hit); err != nil {
		metrics.StatsHits.WithLabelValues("failed").Inc()
		r.logger.Warn().Err(err).Str("uri", hit.URI).Msg("failed to send hit")
		return
	}
	metrics.StatsHits.WithLabelValues("sent").Inc()
}
