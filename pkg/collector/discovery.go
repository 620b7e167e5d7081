// Package collector pkg/collector/discovery.go
package collector

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/netpulse/netpulse/pkg/models"
	"github.com/netpulse/netpulse/pkg/scan"
)

const (
	discoveryCollectorName = "network_discovery"

	// maxUsableHosts guards against unbounded scans; larger subnets are
	// rejected with a warning and an empty result.
	maxUsableHosts = 256

	// defaultSubnet is the fallback when no subnet is configured and
	// auto-detection fails.
	defaultSubnet = "192.168.1.0/24"

	snmpClassifierPort = 161
)

// portClass binds a well-known port to the device type it implies.
type portClass struct {
	Port int
	Type models.DeviceType
}

// classifierPorts is checked in this fixed order; the first open port
// decides the device type.
var classifierPorts = []portClass{
	{Port: 22, Type: models.DeviceTypeServer},   // SSH
	{Port: 23, Type: models.DeviceTypeRouter},   // Telnet
	{Port: 80, Type: models.DeviceTypeServer},   // HTTP
	{Port: 161, Type: models.DeviceTypeRouter},  // SNMP
	{Port: 443, Type: models.DeviceTypeServer},  // HTTPS
	{Port: 8080, Type: models.DeviceTypeServer}, // HTTP alt
}

// IdentitySource enriches a discovered device with identity metadata.
// scan.SNMPIdentifier implements it.
type IdentitySource interface {
	Identify(host string) (map[string]string, error)
}

// DiscoveryOptions configures a NetworkDiscoveryCollector.
type DiscoveryOptions struct {
	Interval    time.Duration
	Subnet      string // CIDR; auto-detected from the default route when empty
	Concurrency int
}

// NetworkDiscoveryCollector enumerates a subnet, probes reachability
// through a bounded worker pool, classifies devices by open ports and
// upserts them into the registry.
type NetworkDiscoveryCollector struct {
	interval    time.Duration
	subnet      string
	concurrency int
	reach       scan.Prober
	ports       scan.PortProber
	snmp        IdentitySource // nil disables SNMP enrichment
	registry    DeviceRegistry
	log         zerolog.Logger
}

func NewNetworkDiscoveryCollector(
	opts DiscoveryOptions,
	reach scan.Prober,
	ports scan.PortProber,
	snmp IdentitySource,
	registry DeviceRegistry,
	log zerolog.Logger,
) *NetworkDiscoveryCollector {
	dlog := log.With().Str("collector", discoveryCollectorName).Logger()

	subnet := opts.Subnet
	if subnet == "" {
		detected, err := detectLocalSubnet()
		if err != nil {
			dlog.Warn().Err(err).Str("fallback", defaultSubnet).Msg("Subnet auto-detection failed")

			detected = defaultSubnet
		}

		subnet = detected
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 20
	}

	return &NetworkDiscoveryCollector{
		interval:    opts.Interval,
		subnet:      subnet,
		concurrency: concurrency,
		reach:       reach,
		ports:       ports,
		snmp:        snmp,
		registry:    registry,
		log:         dlog,
	}
}

func (d *NetworkDiscoveryCollector) Name() string {
	return discoveryCollectorName
}

func (d *NetworkDiscoveryCollector) Interval() time.Duration {
	return d.interval
}

// Subnet returns the effective subnet being scanned.
func (d *NetworkDiscoveryCollector) Subnet() string {
	return d.subnet
}

// RunCycle sweeps the subnet. All probes in the cycle are admitted
// through a fixed pool of concurrency workers, so the number of in-flight
// probes never exceeds the cap.
func (d *NetworkDiscoveryCollector) RunCycle(ctx context.Context) error {
	count, err := scan.UsableHostCount(d.subnet)
	if err != nil {
		return fmt.Errorf("failed to size subnet %s: %w", d.subnet, err)
	}

	if count > maxUsableHosts {
		d.log.Warn().
			Str("subnet", d.subnet).
			Int("usable_hosts", count).
			Msg("Subnet too large, skipping discovery")

		return nil
	}

	hosts, err := scan.ExpandCIDR(d.subnet)
	if err != nil {
		return fmt.Errorf("failed to expand subnet %s: %w", d.subnet, err)
	}

	start := time.Now()

	hostChan := make(chan string, d.concurrency)
	records := make(chan *models.DeviceRecord, len(hosts))

	var wg sync.WaitGroup

	for i := 0; i < d.concurrency; i++ {
		wg.Add(1)

		go d.worker(ctx, &wg, hostChan, records)
	}

	go func() {
		defer close(hostChan)

		for _, host := range hosts {
			select {
			case <-ctx.Done():
				return
			case hostChan <- host:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(records)
	}()

	discovered := 0

	for record := range records {
		if err := d.registry.UpsertDevice(ctx, record); err != nil {
			d.log.Error().Err(err).Str("ip", record.IPAddress).Msg("Failed to upsert device")
			continue
		}

		discovered++
	}

	d.log.Info().
		Str("subnet", d.subnet).
		Int("hosts", len(hosts)).
		Int("discovered", discovered).
		Dur("elapsed", time.Since(start)).
		Msg("Discovery cycle completed")

	return nil
}

func (d *NetworkDiscoveryCollector) worker(ctx context.Context, wg *sync.WaitGroup, hosts <-chan string, records chan<- *models.DeviceRecord) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case host, ok := <-hosts:
			if !ok {
				return
			}

			record := d.checkHost(ctx, host)
			if record == nil {
				continue
			}

			select {
			case records <- record:
			case <-ctx.Done():
				return
			}
		}
	}
}

// checkHost probes one address and builds its device record. Unreachable
// hosts yield nil and are skipped silently.
func (d *NetworkDiscoveryCollector) checkHost(ctx context.Context, host string) *models.DeviceRecord {
	outcome := d.reach.Probe(ctx, host)
	if !outcome.Reachable() {
		return nil
	}

	deviceType, openPort := d.classify(ctx, host)

	record := &models.DeviceRecord{
		DeviceID:   models.DeviceIDForIP(host),
		IPAddress:  host,
		DeviceType: deviceType,
		Status:     models.DeviceStatusOnline,
		LastSeen:   time.Now().UTC(),
	}

	if openPort == snmpClassifierPort && d.snmp != nil {
		info, err := d.snmp.Identify(host)
		if err != nil {
			d.log.Debug().Err(err).Str("ip", host).Msg("SNMP identification failed")
		} else if len(info) > 0 {
			record.Metadata = info
		}
	}

	return record
}

// classify walks the well-known port list in order; the first open port
// determines the type.
func (d *NetworkDiscoveryCollector) classify(ctx context.Context, host string) (models.DeviceType, int) {
	for _, pc := range classifierPorts {
		if d.ports.ProbePort(ctx, host, pc.Port).Reachable() {
			return pc.Type, pc.Port
		}
	}

	return models.DeviceTypeUnknown, 0
}

// detectLocalSubnet derives the subnet of the interface holding the
// default route.
func detectLocalSubnet() (string, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("failed to resolve outbound interface: %w", err)
	}

	local := conn.LocalAddr().(*net.UDPAddr).IP

	_ = conn.Close()

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || !ipnet.Contains(local) {
				continue
			}

			network := &net.IPNet{
				IP:   local.Mask(ipnet.Mask),
				Mask: ipnet.Mask,
			}

			return network.String(), nil
		}
	}

	return "", fmt.Errorf("no interface owns address %s", local)
}
