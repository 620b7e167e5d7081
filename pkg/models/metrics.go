// Package models pkg/models/metrics.go
package models

import (
	"time"
)

// MetricSample is a single timestamped measurement produced by a collector
// cycle. Samples are ephemeral: each cycle builds a batch and hands it to
// the sink, nothing is retained by the collector.
type MetricSample struct {
	DeviceID   string            `json:"device_id"`
	MetricName string            `json:"metric_name"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// InterfaceCounters is a snapshot of one interface's cumulative counters.
// Exactly one snapshot per interface is retained between bandwidth cycles
// and overwritten every cycle.
type InterfaceCounters struct {
	Name        string    `json:"name"`
	BytesSent   uint64    `json:"bytes_sent"`
	BytesRecv   uint64    `json:"bytes_recv"`
	PacketsSent uint64    `json:"packets_sent"`
	PacketsRecv uint64    `json:"packets_recv"`
	CapturedAt  time.Time `json:"captured_at"`
}
