// Package collector pkg/collector/ping.go
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/netpulse/netpulse/pkg/models"
	"github.com/netpulse/netpulse/pkg/scan"
)

const pingCollectorName = "ping"

// PingCollector fans out one latency probe per configured target each
// cycle. An unreachable or timed-out target yields no sample and never
// affects the other targets.
type PingCollector struct {
	deviceID string
	interval time.Duration
	targets  []string
	prober   scan.Prober
	sink     Sink
	log      zerolog.Logger
}

func NewPingCollector(deviceID string, interval time.Duration, targets []string, prober scan.Prober, sink Sink, log zerolog.Logger) *PingCollector {
	return &PingCollector{
		deviceID: deviceID,
		interval: interval,
		targets:  targets,
		prober:   prober,
		sink:     sink,
		log:      log.With().Str("collector", pingCollectorName).Logger(),
	}
}

func (p *PingCollector) Name() string {
	return pingCollectorName
}

func (p *PingCollector) Interval() time.Duration {
	return p.interval
}

// RunCycle probes all targets concurrently and stores whatever latencies
// came back.
func (p *PingCollector) RunCycle(ctx context.Context) error {
	timestamp := time.Now().UTC()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		samples []models.MetricSample
	)

	for _, target := range p.targets {
		wg.Add(1)

		go func(target string) {
			defer wg.Done()

			outcome := p.prober.Probe(ctx, target)
			if !outcome.Reachable() {
				p.log.Debug().
					Str("target", target).
					Str("state", string(outcome.State)).
					Msg("Ping probe yielded no sample")

				return
			}

			sample := models.MetricSample{
				DeviceID:   p.deviceID,
				MetricName: "latency",
				Value:      float64(outcome.Latency) / float64(time.Millisecond),
				Unit:       "ms",
				Timestamp:  timestamp,
				Metadata:   map[string]string{"target": target},
			}

			mu.Lock()
			samples = append(samples, sample)
			mu.Unlock()
		}(target)
	}

	wg.Wait()

	if len(samples) == 0 {
		p.log.Debug().Int("targets", len(p.targets)).Msg("No targets answered this cycle")
		return nil
	}

	if err := p.sink.StoreMetrics(ctx, samples); err != nil {
		p.log.Error().Err(err).Int("samples", len(samples)).Msg("Failed to store ping metrics")
	}

	return nil
}
