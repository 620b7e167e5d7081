// Package collector pkg/collector/bandwidth.go
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/netpulse/netpulse/pkg/models"
)

const bandwidthCollectorName = "bandwidth"

// BandwidthCollector computes per-interface throughput from successive
// counter snapshots. The elapsed time used for the rate is the configured
// interval, not a measured wall-clock delta; a delayed cycle skews the
// reported rate accordingly.
type BandwidthCollector struct {
	deviceID        string
	interval        time.Duration
	excludePrefixes []string
	sink            Sink
	log             zerolog.Logger

	// previous holds exactly one baseline snapshot per interface, owned
	// by this instance and touched only within its own cycle.
	previous map[string]models.InterfaceCounters

	ioCounters func(ctx context.Context) ([]psnet.IOCountersStat, error)
}

func NewBandwidthCollector(deviceID string, interval time.Duration, excludePrefixes []string, sink Sink, log zerolog.Logger) *BandwidthCollector {
	return &BandwidthCollector{
		deviceID:        deviceID,
		interval:        interval,
		excludePrefixes: excludePrefixes,
		sink:            sink,
		log:             log.With().Str("collector", bandwidthCollectorName).Logger(),
		previous:        make(map[string]models.InterfaceCounters),
		ioCounters: func(ctx context.Context) ([]psnet.IOCountersStat, error) {
			return psnet.IOCountersWithContext(ctx, true)
		},
	}
}

func (b *BandwidthCollector) Name() string {
	return bandwidthCollectorName
}

func (b *BandwidthCollector) Interval() time.Duration {
	return b.interval
}

// RunCycle reads current counters, emits rates for every interface with a
// baseline and stores the new snapshots. A first-seen interface only
// records its baseline.
func (b *BandwidthCollector) RunCycle(ctx context.Context) error {
	counters, err := b.ioCounters(ctx)
	if err != nil {
		return fmt.Errorf("failed to read interface counters: %w", err)
	}

	timestamp := time.Now().UTC()
	intervalSecs := b.interval.Seconds()

	var samples []models.MetricSample

	for _, c := range counters {
		if b.excluded(c.Name) {
			continue
		}

		current := models.InterfaceCounters{
			Name:        c.Name,
			BytesSent:   c.BytesSent,
			BytesRecv:   c.BytesRecv,
			PacketsSent: c.PacketsSent,
			PacketsRecv: c.PacketsRecv,
			CapturedAt:  timestamp,
		}

		if prev, ok := b.previous[c.Name]; ok {
			outMbps := rateMbps(current.BytesSent, prev.BytesSent, intervalSecs)
			inMbps := rateMbps(current.BytesRecv, prev.BytesRecv, intervalSecs)

			metadata := map[string]string{"interface": c.Name}

			samples = append(samples,
				models.MetricSample{
					DeviceID:   b.deviceID,
					MetricName: "bandwidth_out",
					Value:      outMbps,
					Unit:       "Mbps",
					Timestamp:  timestamp,
					Metadata:   metadata,
				},
				models.MetricSample{
					DeviceID:   b.deviceID,
					MetricName: "bandwidth_in",
					Value:      inMbps,
					Unit:       "Mbps",
					Timestamp:  timestamp,
					Metadata:   metadata,
				},
				models.MetricSample{
					DeviceID:   b.deviceID,
					MetricName: "bandwidth_total",
					Value:      outMbps + inMbps,
					Unit:       "Mbps",
					Timestamp:  timestamp,
					Metadata:   metadata,
				},
			)
		}

		b.previous[c.Name] = current
	}

	if len(samples) == 0 {
		return nil
	}

	if err := b.sink.StoreMetrics(ctx, samples); err != nil {
		b.log.Error().Err(err).Int("samples", len(samples)).Msg("Failed to store bandwidth metrics")
	}

	return nil
}

func (b *BandwidthCollector) excluded(name string) bool {
	for _, prefix := range b.excludePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// rateMbps converts a counter delta over the interval to megabits per
// second. A counter decrease (reboot or wrap) clamps the rate to zero;
// the caller re-baselines with the new reading.
func rateMbps(current, previous uint64, intervalSecs float64) float64 {
	if current < previous || intervalSecs <= 0 {
		return 0
	}

	bytesPerSec := float64(current-previous) / intervalSecs

	return bytesPerSec * 8 / (1024 * 1024)
}
