// Package collector pkg/collector/manager.go
package collector

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Manager owns a set of collector tasks and drives their shared
// lifecycle. Each task keeps its own loop; a failing collector never
// affects its siblings.
type Manager struct {
	mu      sync.Mutex
	tasks   []*Task
	running bool
	log     zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("component", "manager").Logger(),
	}
}

// Register wraps the collector in a task. Registering after StartAll is
// allowed; the new task starts on the next StartAll.
func (m *Manager) Register(c Collector) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = append(m.tasks, NewTask(c, m.log))
}

// StartAll launches every registered task and returns immediately.
// Calling it while already running is a no-op.
func (m *Manager) StartAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	for _, task := range m.tasks {
		task.Start(ctx)
	}

	m.running = true

	m.log.Info().Int("collectors", len(m.tasks)).Msg("Started collectors")
}

// StopAll requests every task to stop and waits for each loop to exit
// or the context to expire. Errors are joined so one slow task does not
// hide another.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	var errs []error

	for _, task := range m.tasks {
		if err := task.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	m.running = false

	m.log.Info().Msg("Stopped collectors")

	return errors.Join(errs...)
}
