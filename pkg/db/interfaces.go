// Package db pkg/db/interfaces.go
package db

import (
	"context"
	"time"

	"github.com/netpulse/netpulse/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/netpulse/netpulse/pkg/db Service

// Service represents all database operations. It satisfies both the
// collector.Sink and collector.DeviceRegistry contracts.
type Service interface {
	// Metric operations.

	StoreMetrics(ctx context.Context, batch []models.MetricSample) error
	GetMetrics(ctx context.Context, deviceID, metricName string, start, end time.Time) ([]models.MetricSample, error)

	// Device operations.

	UpsertDevice(ctx context.Context, record *models.DeviceRecord) error
	GetDevice(ctx context.Context, deviceID string) (*models.DeviceRecord, error)
	ListDevices(ctx context.Context) ([]models.DeviceRecord, error)

	// Maintenance operations.

	CleanOldData(ctx context.Context, retentionPeriod time.Duration) error
	Close() error
}
