// Package collector pkg/collector/system.go
package collector

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/netpulse/netpulse/pkg/models"
)

const (
	cpuSampleWindow = time.Second

	systemCollectorName = "system_metrics"
)

// SystemMetricsCollector samples local host network, CPU and memory
// counters each cycle. An unavailable source omits its metric from the
// batch; the rest of the batch is still emitted.
type SystemMetricsCollector struct {
	deviceID string
	interval time.Duration
	sink     Sink
	log      zerolog.Logger

	// sampler funcs are swappable for testing
	netCounters   func(ctx context.Context) ([]psnet.IOCountersStat, error)
	cpuPercent    func(ctx context.Context, interval time.Duration) ([]float64, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	connections   func(ctx context.Context) ([]psnet.ConnectionStat, error)
}

func NewSystemMetricsCollector(deviceID string, interval time.Duration, sink Sink, log zerolog.Logger) *SystemMetricsCollector {
	return &SystemMetricsCollector{
		deviceID: deviceID,
		interval: interval,
		sink:     sink,
		log:      log.With().Str("collector", systemCollectorName).Logger(),
		netCounters: func(ctx context.Context) ([]psnet.IOCountersStat, error) {
			return psnet.IOCountersWithContext(ctx, false)
		},
		cpuPercent: func(ctx context.Context, interval time.Duration) ([]float64, error) {
			return cpu.PercentWithContext(ctx, interval, false)
		},
		virtualMemory: mem.VirtualMemoryWithContext,
		connections: func(ctx context.Context) ([]psnet.ConnectionStat, error) {
			return psnet.ConnectionsWithContext(ctx, "all")
		},
	}
}

func (s *SystemMetricsCollector) Name() string {
	return systemCollectorName
}

func (s *SystemMetricsCollector) Interval() time.Duration {
	return s.interval
}

// RunCycle emits the fixed host metric set. Each source failure is logged
// and its metrics omitted; partial batches are still stored.
func (s *SystemMetricsCollector) RunCycle(ctx context.Context) error {
	timestamp := time.Now().UTC()

	samples := make([]models.MetricSample, 0, 8)

	samples = s.appendNetworkMetrics(ctx, samples, timestamp)
	samples = s.appendCPUMetric(ctx, samples, timestamp)
	samples = s.appendMemoryMetric(ctx, samples, timestamp)
	samples = s.appendConnectionsMetric(ctx, samples, timestamp)

	if len(samples) == 0 {
		s.log.Warn().Msg("No system metrics available this cycle")
		return nil
	}

	if err := s.sink.StoreMetrics(ctx, samples); err != nil {
		s.log.Error().Err(err).Int("samples", len(samples)).Msg("Failed to store system metrics")
	}

	return nil
}

func (s *SystemMetricsCollector) appendNetworkMetrics(ctx context.Context, samples []models.MetricSample, ts time.Time) []models.MetricSample {
	counters, err := s.netCounters(ctx)
	if err != nil || len(counters) == 0 {
		s.log.Warn().Err(err).Msg("Network counters unavailable, omitting")
		return samples
	}

	total := counters[0]

	samples = s.appendSample(samples, "bytes_sent", float64(total.BytesSent), "bytes", ts, nil)
	samples = s.appendSample(samples, "bytes_recv", float64(total.BytesRecv), "bytes", ts, nil)
	samples = s.appendSample(samples, "packets_sent", float64(total.PacketsSent), "packets", ts, nil)
	samples = s.appendSample(samples, "packets_recv", float64(total.PacketsRecv), "packets", ts, nil)
	samples = s.appendSample(samples, "packet_loss", float64(total.Dropin+total.Dropout), "packets", ts, nil)

	return samples
}

func (s *SystemMetricsCollector) appendCPUMetric(ctx context.Context, samples []models.MetricSample, ts time.Time) []models.MetricSample {
	// Blocks for the sampling window; acceptable within a cycle.
	percents, err := s.cpuPercent(ctx, cpuSampleWindow)
	if err != nil || len(percents) == 0 {
		s.log.Warn().Err(err).Msg("CPU usage unavailable, omitting")
		return samples
	}

	return s.appendSample(samples, "cpu_usage", percents[0], "%", ts, nil)
}

func (s *SystemMetricsCollector) appendMemoryMetric(ctx context.Context, samples []models.MetricSample, ts time.Time) []models.MetricSample {
	vm, err := s.virtualMemory(ctx)
	if err != nil || vm == nil {
		s.log.Warn().Err(err).Msg("Memory usage unavailable, omitting")
		return samples
	}

	return s.appendSample(samples, "memory_usage", vm.UsedPercent, "%", ts, nil)
}

func (s *SystemMetricsCollector) appendConnectionsMetric(ctx context.Context, samples []models.MetricSample, ts time.Time) []models.MetricSample {
	conns, err := s.connections(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Connection count unavailable, omitting")
		return samples
	}

	return s.appendSample(samples, "active_connections", float64(len(conns)), "connections", ts, nil)
}

// appendSample drops non-finite values so the batch invariant holds.
func (s *SystemMetricsCollector) appendSample(samples []models.MetricSample, name string, value float64, unit string, ts time.Time, metadata map[string]string) []models.MetricSample {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		s.log.Warn().Str("metric", name).Msg("Dropping non-finite sample")
		return samples
	}

	return append(samples, models.MetricSample{
		DeviceID:   s.deviceID,
		MetricName: name,
		Value:      value,
		Unit:       unit,
		Timestamp:  ts,
		Metadata:   metadata,
	})
}
