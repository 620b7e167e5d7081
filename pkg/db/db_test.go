package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpulse/netpulse/pkg/models"
)

func newTestDB(t *testing.T) Service {
	t.Helper()

	svc, err := New(filepath.Join(t.TempDir(), "netpulse.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	return svc
}

func TestStoreAndGetMetrics(t *testing.T) {
	svc := newTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)

	batch := []models.MetricSample{
		{
			DeviceID:   "host-1",
			MetricName: "latency",
			Value:      20.5,
			Unit:       "ms",
			Timestamp:  now,
			Metadata:   map[string]string{"target": "8.8.8.8"},
		},
		{
			DeviceID:   "host-1",
			MetricName: "latency",
			Value:      23.1,
			Unit:       "ms",
			Timestamp:  now.Add(time.Minute),
			Metadata:   map[string]string{"target": "1.1.1.1"},
		},
		{
			DeviceID:   "host-1",
			MetricName: "cpu_usage",
			Value:      12.5,
			Unit:       "%",
			Timestamp:  now,
		},
	}

	require.NoError(t, svc.StoreMetrics(ctx, batch))

	samples, err := svc.GetMetrics(ctx, "host-1", "latency", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, 20.5, samples[0].Value)
	assert.Equal(t, "8.8.8.8", samples[0].Metadata["target"])
	assert.Equal(t, "ms", samples[0].Unit)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp), "samples must come back time-ordered")
}

func TestStoreMetricsEmptyBatch(t *testing.T) {
	svc := newTestDB(t)

	assert.NoError(t, svc.StoreMetrics(context.Background(), nil))
}

func TestUpsertDeviceInsertThenUpdate(t *testing.T) {
	svc := newTestDB(t)
	ctx := context.Background()

	deviceID := models.DeviceIDForIP("192.168.1.10")
	firstSeen := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, svc.UpsertDevice(ctx, &models.DeviceRecord{
		DeviceID:   deviceID,
		IPAddress:  "192.168.1.10",
		DeviceType: models.DeviceTypeUnknown,
		Status:     models.DeviceStatusOnline,
		LastSeen:   firstSeen,
	}))

	// Second sighting with a refined classification.
	require.NoError(t, svc.UpsertDevice(ctx, &models.DeviceRecord{
		DeviceID:   deviceID,
		IPAddress:  "192.168.1.10",
		DeviceType: models.DeviceTypeServer,
		Status:     models.DeviceStatusOnline,
		LastSeen:   firstSeen.Add(5 * time.Minute),
		Metadata:   map[string]string{"snmp_sys_name": "web-1"},
	}))

	devices, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1, "re-discovery must update the existing row")

	device := devices[0]
	assert.Equal(t, models.DeviceTypeServer, device.DeviceType)
	assert.Equal(t, "web-1", device.Metadata["snmp_sys_name"])
	assert.True(t, device.LastSeen.After(device.FirstSeen), "last_seen advances, first_seen does not")
}

func TestUpsertDeviceKeepsMetadataWhenAbsent(t *testing.T) {
	svc := newTestDB(t)
	ctx := context.Background()

	deviceID := models.DeviceIDForIP("192.168.1.20")

	require.NoError(t, svc.UpsertDevice(ctx, &models.DeviceRecord{
		DeviceID:  deviceID,
		IPAddress: "192.168.1.20",
		Status:    models.DeviceStatusOnline,
		LastSeen:  time.Now().UTC(),
		Metadata:  map[string]string{"snmp_sys_name": "core-sw1"},
	}))

	// A later cycle without SNMP data must not wipe the stored identity.
	require.NoError(t, svc.UpsertDevice(ctx, &models.DeviceRecord{
		DeviceID:  deviceID,
		IPAddress: "192.168.1.20",
		Status:    models.DeviceStatusOnline,
		LastSeen:  time.Now().UTC(),
	}))

	device, err := svc.GetDevice(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, "core-sw1", device.Metadata["snmp_sys_name"])
}

func TestGetDeviceNotFound(t *testing.T) {
	svc := newTestDB(t)

	_, err := svc.GetDevice(context.Background(), "no-such-device")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestCleanOldData(t *testing.T) {
	svc := newTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := now.Add(-48 * time.Hour)

	require.NoError(t, svc.StoreMetrics(ctx, []models.MetricSample{
		{DeviceID: "host-1", MetricName: "latency", Value: 20, Unit: "ms", Timestamp: stale},
		{DeviceID: "host-1", MetricName: "latency", Value: 21, Unit: "ms", Timestamp: now},
	}))

	require.NoError(t, svc.UpsertDevice(ctx, &models.DeviceRecord{
		DeviceID:  models.DeviceIDForIP("192.168.1.30"),
		IPAddress: "192.168.1.30",
		Status:    models.DeviceStatusOnline,
		LastSeen:  stale,
	}))

	require.NoError(t, svc.CleanOldData(ctx, 24*time.Hour))

	samples, err := svc.GetMetrics(ctx, "host-1", "latency", now.Add(-72*time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 1, "only the recent sample survives the prune")
	assert.Equal(t, float64(21), samples[0].Value)

	devices, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, models.DeviceStatusOffline, devices[0].Status, "stale devices are marked offline, not deleted")
}
