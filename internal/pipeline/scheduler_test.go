package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestNewSchedulerValidatesExpression(t *testing.T) {
	noop := func(ctx context.Context) error { return nil }

	_, err := NewScheduler("not a cron", noop, arbor.NewLogger())
	assert.Error(t, err)

	_, err = NewScheduler("*/5 * * * *", noop, arbor.NewLogger())
	assert.Error(t, err, "more than one run per hour is rejected")

	s, err := NewScheduler("30 18 * * 1-5", noop, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	s.Stop()
	s.Stop()
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	s, err := NewScheduler("0 6 * * *", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return nil
	}, arbor.NewLogger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.tick()
	}()
	<-started

	s.tick()
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	s, err := NewScheduler("0 6 * * *", func(ctx context.Context) error {
		panic("boom")
	}, arbor.NewLogger())
	require.NoError(t, err)

	assert.NotPanics(t, s.tick)
	assert.False(t, s.busy)
}
