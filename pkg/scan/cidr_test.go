package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandCIDR(t *testing.T) {
	tests := []struct {
		name    string
		cidr    string
		want    []string
		wantLen int
		wantErr bool
	}{
		{
			name: "slash 30 yields two usable hosts",
			cidr: "10.0.0.0/30",
			want: []string{"10.0.0.1", "10.0.0.2"},
		},
		{
			name:    "slash 24 skips network and broadcast",
			cidr:    "192.168.1.0/24",
			wantLen: 254,
		},
		{
			name: "slash 32 yields the single address",
			cidr: "10.0.3.42/32",
			want: []string{"10.0.3.42"},
		},
		{
			name:    "invalid CIDR",
			cidr:    "not-a-network",
			wantErr: true,
		},
		{
			name:    "IPv6 rejected",
			cidr:    "2001:db8::/120",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ips, err := ExpandCIDR(tt.cidr)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			if tt.want != nil {
				assert.Equal(t, tt.want, ips)
			} else {
				assert.Len(t, ips, tt.wantLen)
			}
		})
	}
}

func TestExpandCIDRSkipsBoundaries(t *testing.T) {
	ips, err := ExpandCIDR("192.168.1.0/24")
	require.NoError(t, err)

	assert.NotContains(t, ips, "192.168.1.0")
	assert.NotContains(t, ips, "192.168.1.255")
	assert.Contains(t, ips, "192.168.1.1")
	assert.Contains(t, ips, "192.168.1.254")
}

func TestUsableHostCount(t *testing.T) {
	tests := []struct {
		cidr string
		want int
	}{
		{"10.0.0.0/30", 2},
		{"192.168.1.0/24", 254},
		{"10.0.0.0/22", 1022},
		{"10.0.3.42/32", 1},
		{"10.0.0.0/31", 0},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			count, err := UsableHostCount(tt.cidr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestUsableHostCountMatchesExpansion(t *testing.T) {
	for _, cidr := range []string{"10.0.0.0/30", "10.1.2.0/28", "172.16.0.0/26"} {
		count, err := UsableHostCount(cidr)
		require.NoError(t, err)

		ips, err := ExpandCIDR(cidr)
		require.NoError(t, err)

		assert.Len(t, ips, count, "count mismatch for %s", cidr)
	}
}
