// Package collector pkg/collector/task.go
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State tracks a task's position in its lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// defaultBackoff is the wait after a failed cycle, deliberately shorter
// than any collection interval so a transient fault retries quickly.
const defaultBackoff = 5 * time.Second

var errCyclePanic = fmt.Errorf("cycle panicked")

// Task supervises one collector's run loop. Start spawns at most one loop
// per instance; a cycle failure is logged and followed by a short backoff,
// never loop termination. Stop lets the in-flight cycle finish, then
// awaits the loop's acknowledged exit.
type Task struct {
	collector Collector
	backoff   time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	state   State
	done    chan struct{}
	stopped chan struct{}
}

// NewTask wraps a collector in a supervised run loop.
func NewTask(c Collector, log zerolog.Logger) *Task {
	return &Task{
		collector: c,
		backoff:   defaultBackoff,
		log:       log.With().Str("collector", c.Name()).Logger(),
		state:     StateIdle,
	}
}

// Start launches the run loop. Calling Start while the loop is running is
// a no-op, so at most one loop exists per task.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateRunning || t.state == StateStopping {
		t.log.Debug().Msg("Start ignored, loop already active")
		return
	}

	t.state = StateRunning
	t.done = make(chan struct{})
	t.stopped = make(chan struct{})

	t.log.Info().Dur("interval", t.collector.Interval()).Msg("Starting collector")

	go t.run(ctx, t.done, t.stopped)
}

// Stop requests a graceful exit and waits for the loop to acknowledge.
// The current cycle, if any, completes normally first.
func (t *Task) Stop(ctx context.Context) error {
	t.mu.Lock()

	if t.state != StateRunning {
		t.mu.Unlock()
		return nil
	}

	t.state = StateStopping
	done := t.done
	stopped := t.stopped
	t.mu.Unlock()

	close(done)

	t.log.Info().Msg("Stopping collector")

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s to stop: %w", t.collector.Name(), ctx.Err())
	}
}

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

func (t *Task) run(ctx context.Context, done, stopped chan struct{}) {
	defer func() {
		t.mu.Lock()
		t.state = StateStopped
		t.mu.Unlock()

		close(stopped)
		t.log.Info().Msg("Collector stopped")
	}()

	for {
		wait := t.collector.Interval()

		if err := t.runCycle(ctx); err != nil {
			t.log.Error().Err(err).Msg("Collection cycle failed")

			wait = t.backoff
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-done:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle isolates one cycle: a panic inside the collector is converted
// to an error so the supervising loop survives it.
func (t *Task) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errCyclePanic, r)
		}
	}()

	return t.collector.RunCycle(ctx)
}
