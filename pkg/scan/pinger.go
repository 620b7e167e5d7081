// Package scan pkg/scan/pinger.go
package scan

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/netpulse/netpulse/pkg/models"
)

// Known ping output variants:
//
//	Linux/macOS: "64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=12.3 ms"
//	Windows:     "Reply from 8.8.8.8: bytes=32 time=12ms TTL=117" (or "time<1ms")
var (
	unixLatencyRe    = regexp.MustCompile(`time=(\d+(?:\.\d+)?)\s*ms`)
	windowsLatencyRe = regexp.MustCompile(`time[=<](\d+(?:\.\d+)?)ms`)
)

// ExecPinger probes hosts via the system ping binary. It needs no
// privileges and parses the textual output for the round-trip time.
type ExecPinger struct {
	timeout time.Duration
}

func NewExecPinger(timeout time.Duration) *ExecPinger {
	return &ExecPinger{timeout: timeout}
}

// Probe runs a single ping against host. Output that matches no known
// latency pattern yields ProbeUnreachable rather than an error.
func (p *ExecPinger) Probe(ctx context.Context, host string) models.ProbeOutcome {
	outcome := models.ProbeOutcome{Host: host}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, "ping", p.args(host)...).CombinedOutput()

	if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
		outcome.State = models.ProbeTimeout
		return outcome
	}

	if err != nil {
		outcome.State = models.ProbeUnreachable
		return outcome
	}

	latency, ok := ParseLatency(string(out))
	if !ok {
		outcome.State = models.ProbeUnreachable
		return outcome
	}

	outcome.State = models.ProbeReachable
	outcome.Latency = latency

	return outcome
}

// Stop implements Prober; the exec pinger holds no resources.
func (*ExecPinger) Stop() error {
	return nil
}

func (p *ExecPinger) args(host string) []string {
	if runtime.GOOS == "windows" {
		waitMs := int(p.timeout / time.Millisecond)
		return []string{"-n", "1", "-w", strconv.Itoa(waitMs), host}
	}

	waitSecs := int(math.Ceil(p.timeout.Seconds()))
	if waitSecs < 1 {
		waitSecs = 1
	}

	return []string{"-c", "1", "-W", strconv.Itoa(waitSecs), host}
}

// ParseLatency extracts the round-trip time from ping output, trying each
// known format in turn.
func ParseLatency(output string) (time.Duration, bool) {
	for _, re := range []*regexp.Regexp{unixLatencyRe, windowsLatencyRe} {
		m := re.FindStringSubmatch(output)
		if m == nil {
			continue
		}

		ms, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		return time.Duration(ms * float64(time.Millisecond)), true
	}

	return 0, false
}
