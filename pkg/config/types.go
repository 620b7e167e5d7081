// Package config pkg/config/types.go
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/netpulse/netpulse/pkg/logger"
)

// Duration is a time.Duration that unmarshals from either a duration
// string ("30s") or a numeric nanosecond count.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SystemConfig configures the local host metrics collector.
type SystemConfig struct {
	Interval Duration `json:"interval"`
}

// PingConfig configures the latency probe collector.
type PingConfig struct {
	Interval Duration `json:"interval"`
	Targets  []string `json:"targets"`
	Timeout  Duration `json:"timeout"`
}

// BandwidthConfig configures the interface rate collector.
type BandwidthConfig struct {
	Interval        Duration `json:"interval"`
	ExcludePrefixes []string `json:"exclude_prefixes"`
}

// DiscoveryConfig configures the subnet discovery collector.
type DiscoveryConfig struct {
	Interval      Duration `json:"interval"`
	Subnet        string   `json:"subnet,omitempty"` // CIDR; auto-detected when empty
	Concurrency   int      `json:"concurrency"`
	ProbeTimeout  Duration `json:"probe_timeout"`
	PortTimeout   Duration `json:"port_timeout"`
	SNMPCommunity string   `json:"snmp_community,omitempty"`
}

// AgentConfig is the top-level configuration for a netpulse instance.
type AgentConfig struct {
	DeviceID  string          `json:"device_id,omitempty"` // defaults to hostname
	DBPath    string          `json:"db_path"`
	Logger    logger.Config   `json:"logger"`
	System    SystemConfig    `json:"system"`
	Ping      PingConfig      `json:"ping"`
	Bandwidth BandwidthConfig `json:"bandwidth"`
	Discovery DiscoveryConfig `json:"discovery"`
}

const (
	defaultSystemInterval    = 30 * time.Second
	defaultPingInterval      = 60 * time.Second
	defaultPingTimeout       = 5 * time.Second
	defaultBandwidthInterval = 30 * time.Second
	defaultDiscoveryInterval = 5 * time.Minute
	defaultProbeTimeout      = time.Second
	defaultPortTimeout       = time.Second
	defaultConcurrency       = 20
	defaultDBPath            = "/var/lib/netpulse/netpulse.db"
)

// Validate fills in defaults and rejects malformed settings.
func (c *AgentConfig) Validate() error {
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}

	if c.System.Interval == 0 {
		c.System.Interval = Duration(defaultSystemInterval)
	}

	if c.Ping.Interval == 0 {
		c.Ping.Interval = Duration(defaultPingInterval)
	}

	if c.Ping.Timeout == 0 {
		c.Ping.Timeout = Duration(defaultPingTimeout)
	}

	if len(c.Ping.Targets) == 0 {
		c.Ping.Targets = []string{"8.8.8.8", "1.1.1.1"}
	}

	if c.Bandwidth.Interval == 0 {
		c.Bandwidth.Interval = Duration(defaultBandwidthInterval)
	}

	if len(c.Bandwidth.ExcludePrefixes) == 0 {
		c.Bandwidth.ExcludePrefixes = []string{"lo", "docker", "veth"}
	}

	if c.Discovery.Interval == 0 {
		c.Discovery.Interval = Duration(defaultDiscoveryInterval)
	}

	if c.Discovery.Concurrency <= 0 {
		c.Discovery.Concurrency = defaultConcurrency
	}

	if c.Discovery.ProbeTimeout == 0 {
		c.Discovery.ProbeTimeout = Duration(defaultProbeTimeout)
	}

	if c.Discovery.PortTimeout == 0 {
		c.Discovery.PortTimeout = Duration(defaultPortTimeout)
	}

	if c.Discovery.Subnet != "" {
		if _, _, err := net.ParseCIDR(c.Discovery.Subnet); err != nil {
			return fmt.Errorf("invalid discovery subnet %q: %w", c.Discovery.Subnet, err)
		}
	}

	return nil
}
