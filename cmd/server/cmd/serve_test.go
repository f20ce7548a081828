package cmd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/Togather-Foundation/meetups/internal/notify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestServeCommandHelp(t *testing.T) {
	output, err := execute(t, "serve", "--help")
	require.NoError(t, err)
	for _, want := range []string{"Start the Meetups HTTP server", "--host", "--port", "STORE=memory"} {
		assert.Contains(t, output, want)
	}
}

func TestServeCommandFlags(t *testing.T) {
	cmd := newServeCmd()
	for _, flag := range []string{"host", "port"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q", flag)
	}
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9090"}))
	assert.Equal(t, 9090, serverPort)
	serverPort = 0
}

func memoryConfig() config.Config {
	return config.Config{
		Store: config.StoreMemory,
		Jobs:  config.JobsConfig{StatsBufferSize: 8},
		Stats: config.StatsConfig{URL: "http://stats.invalid", App: "meetups-test", Timeout: time.Second, RatePerSecond: 10},
	}
}

func TestBuildRuntimeMemory(t *testing.T) {
	rt, err := buildRuntime(context.Background(), memoryConfig(), zerolog.Nop(), nil)
	require.NoError(t, err)
	defer rt.close()

	assert.Nil(t, rt.pool)
	assert.Nil(t, rt.river)
	assert.NotNil(t, rt.store)
	require.NotNil(t, rt.async)
	assert.Same(t, rt.async, rt.collab.Hits)
	assert.IsType(t, &notify.Direct{}, rt.collab.Notifier)
}

func TestBuildRuntimeMemoryWithoutStats(t *testing.T) {
	cfg := memoryConfig()
	cfg.Stats.URL = ""

	rt, err := buildRuntime(context.Background(), cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	defer rt.close()

	assert.Nil(t, rt.async)
	assert.Nil(t, rt.collab.Hits)
}

func TestBuildPublisherFallsBackToLog(t *testing.T) {
	set, err := buildPublisher(config.Config{}, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, set.fanout.Len())
	assert.Nil(t, set.amqp)
}

func TestBuildPublisherRejectsBadSender(t *testing.T) {
	cfg := config.Config{Notifications: config.NotificationsConfig{
		Email: config.EmailConfig{Enabled: true, From: "not-an-address", ResendAPIKey: "re_test"},
	}}
	_, err := buildPublisher(cfg, zerolog.Nop(), nil)
	require.Error(t, err)
}

type countingExpirer struct{ calls int }

func (c *countingExpirer) ExpireStale(context.Context) (int, error) {
	c.calls++
	return 2, nil
}

func TestStaleSweeper(t *testing.T) {
	s := &staleSweeper{}
	_, err := s.ExpireStale(context.Background())
	require.Error(t, err)

	exp := &countingExpirer{}
	s.requests = exp
	n, err := s.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, exp.calls)
}

type fakeRunner struct {
	startErr error
	stopped  atomic.Bool
}

func (f *fakeRunner) Start(context.Context) error { return f.startErr }

func (f *fakeRunner) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func TestStartJobsFailureLeavesGroupEmpty(t *testing.T) {
	g, gctx := errgroup.WithContext(context.Background())
	runner := &fakeRunner{startErr: errors.New("river: schema missing")}

	err := startJobs(gctx, g, runner, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "river workers failed to start")

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("a failed start must not leave goroutines in the group")
	}
	assert.False(t, runner.stopped.Load())
}

func TestStartJobsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	runner := &fakeRunner{}

	require.NoError(t, startJobs(gctx, g, runner, zerolog.Nop()))
	cancel()
	require.NoError(t, g.Wait())
	assert.True(t, runner.stopped.Load())
}
