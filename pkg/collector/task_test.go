package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCollector counts cycles and can be told to fail or panic.
type fakeCollector struct {
	name     string
	interval time.Duration

	mu        sync.Mutex
	cycles    int
	fail      bool
	panicOnce bool
}

func (f *fakeCollector) Name() string            { return f.name }
func (f *fakeCollector) Interval() time.Duration { return f.interval }

func (f *fakeCollector) RunCycle(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cycles++

	if f.panicOnce {
		f.panicOnce = false
		panic("collector exploded")
	}

	if f.fail {
		return errors.New("cycle failed")
	}

	return nil
}

func (f *fakeCollector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cycles
}

func TestTaskStartIsIdempotent(t *testing.T) {
	// A long interval means each loop runs exactly one immediate cycle.
	fake := &fakeCollector{name: "fake", interval: time.Hour}
	task := NewTask(fake, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task.Start(ctx)
	task.Start(ctx)

	require.Eventually(t, func() bool {
		return fake.count() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, fake.count(), "second Start must not spawn a second loop")
	assert.Equal(t, StateRunning, task.State())

	require.NoError(t, task.Stop(context.Background()))
}

func TestTaskRetriesAfterFailure(t *testing.T) {
	fake := &fakeCollector{name: "fake", interval: time.Hour, fail: true}
	task := NewTask(fake, zerolog.Nop())
	task.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task.Start(ctx)

	// With an hour-long interval, repeat cycles can only come from the
	// failure backoff path.
	require.Eventually(t, func() bool {
		return fake.count() >= 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, task.Stop(context.Background()))
}

func TestTaskRecoversFromPanic(t *testing.T) {
	fake := &fakeCollector{name: "fake", interval: time.Hour, panicOnce: true}
	task := NewTask(fake, zerolog.Nop())
	task.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task.Start(ctx)

	require.Eventually(t, func() bool {
		return fake.count() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, task.Stop(context.Background()))
}

func TestTaskStopWaitsForLoopExit(t *testing.T) {
	fake := &fakeCollector{name: "fake", interval: time.Hour}
	task := NewTask(fake, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task.Start(ctx)

	require.Eventually(t, func() bool {
		return fake.count() == 1
	}, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()

	require.NoError(t, task.Stop(stopCtx))
	assert.Equal(t, StateStopped, task.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fake.count(), "no cycles may run after Stop returns")
}

func TestTaskStopWhenIdle(t *testing.T) {
	task := NewTask(&fakeCollector{name: "fake", interval: time.Hour}, zerolog.Nop())

	assert.NoError(t, task.Stop(context.Background()))
	assert.Equal(t, StateIdle, task.State())
}

func TestTaskRestartAfterStop(t *testing.T) {
	fake := &fakeCollector{name: "fake", interval: time.Hour}
	task := NewTask(fake, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task.Start(ctx)

	require.Eventually(t, func() bool {
		return fake.count() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, task.Stop(context.Background()))

	task.Start(ctx)

	require.Eventually(t, func() bool {
		return fake.count() == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, task.Stop(context.Background()))
}
