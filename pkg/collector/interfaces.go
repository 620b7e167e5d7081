// Package collector pkg/collector/interfaces.go
package collector

import (
	"context"
	"time"

	"github.com/netpulse/netpulse/pkg/models"
)

//go:generate mockgen -destination=mock_collector.go -package=collector github.com/netpulse/netpulse/pkg/collector Collector,Sink,DeviceRegistry

// Collector is one sampling unit driven by a supervised Task loop.
// RunCycle executes a single collection cycle; the task runner owns the
// loop, the interval sleep and the failure backoff.
type Collector interface {
	// Name identifies the collector in logs.
	Name() string
	// Interval is the sleep between successful cycles.
	Interval() time.Duration
	// RunCycle performs one sampling pass. An error marks the whole
	// cycle as failed; per-target probe failures are handled inside
	// the cycle and never surface here.
	RunCycle(ctx context.Context) error
}

// Sink receives each cycle's metric batch. The sink owns durability; a
// failed store is logged by the collector and dropped, never retried
// within the same cycle.
type Sink interface {
	StoreMetrics(ctx context.Context, batch []models.MetricSample) error
}

// DeviceRegistry persists discovered devices. Upsert semantics: a known
// device_id has status/last_seen updated in place, an unseen one is
// inserted.
type DeviceRegistry interface {
	UpsertDevice(ctx context.Context, record *models.DeviceRecord) error
}
