// Package scan pkg/scan/tcp.go
package scan

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/netpulse/netpulse/pkg/models"
)

// TCPProber checks TCP port reachability with a per-connect timeout.
type TCPProber struct {
	timeout time.Duration
}

func NewTCPProber(timeout time.Duration) *TCPProber {
	return &TCPProber{timeout: timeout}
}

// ProbePort attempts a single TCP connect to host:port. A refused or
// unroutable connection yields ProbeUnreachable; an expired deadline
// yields ProbeTimeout.
func (p *TCPProber) ProbePort(ctx context.Context, host string, port int) models.ProbeOutcome {
	start := time.Now()
	outcome := models.ProbeOutcome{
		Host: host,
		Port: port,
	}

	connCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var d net.Dialer

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := d.DialContext(connCtx, "tcp", addr)
	outcome.Latency = time.Since(start)

	if err != nil {
		outcome.State = models.ProbeUnreachable
		if isTimeout(err) {
			outcome.State = models.ProbeTimeout
		}

		return outcome
	}

	_ = conn.Close()
	outcome.State = models.ProbeReachable

	return outcome
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
