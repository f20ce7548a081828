package stats

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	hits []Hit
}

func (s *recordingSender) Send(_ context.Context, hit Hit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = append(s.hits, hit)
	return nil
}

func TestAsyncRecorderDrainsOnShutdown(t *testing.T) {
	sender := &recordingSender{}
	rec := NewAsyncRecorder(sender, 4, zerolog.Nop())

	for _, uri := range []string{"/events", "/events/1", "/events/2"} {
		require.NoError(t, rec.Record(context.Background(), Hit{URI: uri}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))
	<-rec.Done()

	require.Len(t, sender.hits, 3)
}

func TestAsyncRecorderDropsWhenFull(t *testing.T) {
	sender := &recordingSender{}
	rec := NewAsyncRecorder(sender, 1, zerolog.Nop())

	require.NoError(t, rec.Record(context.Background(), Hit{URI: "/a"}))
	require.NoError(t, rec.Record(context.Background(), Hit{URI: "/b"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))
	require.Len(t, sender.hits, 1)
	require.Equal(t, "/a", sender.hits[0].URI)
}
