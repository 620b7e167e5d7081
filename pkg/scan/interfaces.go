// Package scan pkg/scan/interfaces.go
package scan

import (
	"context"

	"github.com/netpulse/netpulse/pkg/models"
)

//go:generate mockgen -destination=mock_scan.go -package=scan github.com/netpulse/netpulse/pkg/scan Prober,PortProber

// Prober performs a single host reachability probe. Failures are reported
// as tagged outcomes, never as errors.
type Prober interface {
	// Probe checks whether the host answers a reachability probe.
	Probe(ctx context.Context, host string) models.ProbeOutcome
	// Stop releases any resources held by the prober.
	Stop() error
}

// PortProber checks whether a single TCP port accepts connections.
type PortProber interface {
	ProbePort(ctx context.Context, host string, port int) models.ProbeOutcome
}
