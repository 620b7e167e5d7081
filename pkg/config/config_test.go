package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "duration string",
			input: `"30s"`,
			want:  30 * time.Second,
		},
		{
			name:  "numeric nanoseconds",
			input: `5000000000`,
			want:  5 * time.Second,
		},
		{
			name:    "bad string",
			input:   `"not-a-duration"`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			input:   `true`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestAgentConfigDefaults(t *testing.T) {
	cfg := &AgentConfig{}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, time.Duration(cfg.System.Interval))
	assert.Equal(t, 60*time.Second, time.Duration(cfg.Ping.Interval))
	assert.Equal(t, []string{"8.8.8.8", "1.1.1.1"}, cfg.Ping.Targets)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Bandwidth.Interval))
	assert.Equal(t, []string{"lo", "docker", "veth"}, cfg.Bandwidth.ExcludePrefixes)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Discovery.Interval))
	assert.Equal(t, 20, cfg.Discovery.Concurrency)
	assert.Equal(t, time.Second, time.Duration(cfg.Discovery.ProbeTimeout))
	assert.Equal(t, time.Second, time.Duration(cfg.Discovery.PortTimeout))
}

func TestAgentConfigInvalidSubnet(t *testing.T) {
	cfg := &AgentConfig{
		Discovery: DiscoveryConfig{Subnet: "not-a-cidr"},
	}

	require.Error(t, cfg.Validate())
}

func TestLoadAndValidate(t *testing.T) {
	content := `{
		"device_id": "test-host",
		"db_path": "/tmp/netpulse-test.db",
		"ping": {
			"interval": "15s",
			"targets": ["192.0.2.1"]
		},
		"discovery": {
			"subnet": "10.0.0.0/24",
			"concurrency": 5
		}
	}`

	path := filepath.Join(t.TempDir(), "netpulse.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var cfg AgentConfig

	require.NoError(t, LoadAndValidate(path, &cfg))

	assert.Equal(t, "test-host", cfg.DeviceID)
	assert.Equal(t, 15*time.Second, time.Duration(cfg.Ping.Interval))
	assert.Equal(t, []string{"192.0.2.1"}, cfg.Ping.Targets)
	assert.Equal(t, "10.0.0.0/24", cfg.Discovery.Subnet)
	assert.Equal(t, 5, cfg.Discovery.Concurrency)

	// Unset sections still get defaults.
	assert.Equal(t, 30*time.Second, time.Duration(cfg.System.Interval))
}

func TestLoadFileMissing(t *testing.T) {
	var cfg AgentConfig

	err := LoadAndValidate("/nonexistent/netpulse.json", &cfg)
	require.Error(t, err)
}
