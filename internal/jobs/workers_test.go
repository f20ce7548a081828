package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
	"github.com/Togather-Foundation/meetups/internal/notify"
	"github.com/Togather-Foundation/meetups/internal/stats"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	hits []stats.Hit
	err  error
}

func (s *fakeSender) Send(_ context.Context, hit stats.Hit) error {
	s.hits = append(s.hits, hit)
	return s.err
}

type fakePublisher struct {
	msgs []notify.Message
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msg notify.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fakeExpirer struct {
	calls int
	err   error
}

func (e *fakeExpirer) ExpireStale(context.Context) (int, error) {
	e.calls++
	return 2, e.err
}

type insertCall struct {
	args river.JobArgs
	opts *river.InsertOpts
}

type fakeInserter struct {
	calls []insertCall
	err   error
}

func (f *fakeInserter) Insert(_ context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	f.calls = append(f.calls, insertCall{args: args, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: int64(len(f.calls))}}, nil
}

func makeJob[T river.JobArgs](args T) *river.Job[T] {
	return &river.Job[T]{JobRow: &rivertype.JobRow{}, Args: args}
}

func TestRecordHitWorkerSendsHit(t *testing.T) {
	sender := &fakeSender{}
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	worker := RecordHitWorker{Sender: sender}

	err := worker.Work(context.Background(), makeJob(RecordHitArgs{App: "meetups", URI: "/events/1", IP: "10.0.0.0", Timestamp: ts}))
	require.NoError(t, err)
	require.Len(t, sender.hits, 1)
	assert.Equal(t, stats.Hit{App: "meetups", URI: "/events/1", IP: "10.0.0.0", Timestamp: ts}, sender.hits[0])
}

func TestRecordHitWorkerReturnsSendError(t *testing.T) {
	worker := RecordHitWorker{Sender: &fakeSender{err: errors.New("503")}}
	err := worker.Work(context.Background(), makeJob(RecordHitArgs{URI: "/events"}))
	assert.ErrorContains(t, err, "503")
}

func TestRecordHitWorkerWithoutSender(t *testing.T) {
	err := RecordHitWorker{}.Work(context.Background(), makeJob(RecordHitArgs{}))
	assert.Error(t, err)
}

func TestParticipationStatusWorkerPublishes(t *testing.T) {
	pub := &fakePublisher{}
	msg := notify.Message{RequestID: 5, Status: "CONFIRMED"}

	require.NoError(t, ParticipationStatusWorker{Publisher: pub}.Work(context.Background(), makeJob(ParticipationStatusArgs{Message: msg})))
	assert.Equal(t, []notify.Message{msg}, pub.msgs)
}

func TestParticipationStatusWorkerRetriesOnError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	err := ParticipationStatusWorker{Publisher: pub}.Work(context.Background(), makeJob(ParticipationStatusArgs{}))
	assert.ErrorContains(t, err, "broker down")
}

func TestExpireStaleRequestsWorker(t *testing.T) {
	expirer := &fakeExpirer{}
	worker := ExpireStaleRequestsWorker{Requests: expirer, Logger: zerolog.Nop()}

	require.NoError(t, worker.Work(context.Background(), makeJob(ExpireStaleRequestsArgs{})))
	assert.Equal(t, 1, expirer.calls)

	expirer.err = errors.New("db down")
	assert.Error(t, worker.Work(context.Background(), makeJob(ExpireStaleRequestsArgs{})))
}

func TestNewWorkers(t *testing.T) {
	assert.NotNil(t, NewWorkers(Dependencies{Logger: zerolog.Nop()}))
}

func TestHitEnqueuerInsertsJob(t *testing.T) {
	inserter := &fakeInserter{}
	enq := NewHitEnqueuer(inserter, NewRetryPolicy(config.JobsConfig{}))

	require.NoError(t, enq.Record(context.Background(), stats.Hit{App: "meetups", URI: "/events/3"}))
	require.Len(t, inserter.calls, 1)
	args, ok := inserter.calls[0].args.(RecordHitArgs)
	require.True(t, ok)
	assert.Equal(t, "/events/3", args.URI)
	assert.Equal(t, QueueStats, inserter.calls[0].opts.Queue)
}

func TestHitEnqueuerPropagatesError(t *testing.T) {
	enq := NewHitEnqueuer(&fakeInserter{err: errors.New("pool closed")}, NewRetryPolicy(config.JobsConfig{}))
	assert.ErrorContains(t, enq.Record(context.Background(), stats.Hit{}), "pool closed")
}

func TestNotificationEnqueuerOneJobPerChange(t *testing.T) {
	inserter := &fakeInserter{}
	enq := NewNotificationEnqueuer(inserter, NewRetryPolicy(config.JobsConfig{}))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	enq.now = func() time.Time { return fixed }

	err := enq.Notify(context.Background(), []requests.Change{
		{RequestID: 1, RequesterID: 10, EventID: 3, EventTitle: "Go", Status: requests.StatusConfirmed},
		{RequestID: 2, RequesterID: 11, EventID: 3, EventTitle: "Go", Status: requests.StatusRejected},
	})
	require.NoError(t, err)
	require.Len(t, inserter.calls, 2)

	second := inserter.calls[1].args.(ParticipationStatusArgs)
	assert.Equal(t, int64(2), second.Message.RequestID)
	assert.Equal(t, "REJECTED", second.Message.Status)
	assert.Equal(t, fixed, second.Message.ChangedAt)
	assert.Equal(t, QueueNotifications, inserter.calls[1].opts.Queue)
}

func TestNotificationEnqueuerJoinsErrors(t *testing.T) {
	enq := NewNotificationEnqueuer(&fakeInserter{err: errors.New("boom")}, NewRetryPolicy(config.JobsConfig{}))
	err := enq.Notify(context.Background(), []requests.Change{{RequestID: 1}, {RequestID: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request 1")
	assert.Contains(t, err.Error(), "request 2")
}
