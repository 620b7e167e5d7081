// Package models pkg/models/probe.go
package models

import "time"

// ProbeState tags the outcome of a single network probe. Probe failures
// are values, not errors: an unreachable or timed-out target is consumed
// by the caller without propagating.
type ProbeState string

const (
	ProbeReachable   ProbeState = "reachable"
	ProbeUnreachable ProbeState = "unreachable"
	ProbeTimeout     ProbeState = "timeout"
)

// ProbeOutcome is the result of one reachability or port probe.
// Latency is only meaningful when State is ProbeReachable.
type ProbeOutcome struct {
	Host    string
	Port    int // 0 for host reachability probes
	State   ProbeState
	Latency time.Duration
}

// Reachable reports whether the probe found the target responsive.
func (o ProbeOutcome) Reachable() bool {
	return o.State == ProbeReachable
}
