// Package db pkg/db/db.go provides SQLite persistence for collected
// metrics and discovered devices.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/netpulse/netpulse/pkg/models"
)

var (
	ErrDeviceNotFound = errors.New("device not found")

	errFailedOpenDB      = errors.New("failed to open database")
	errFailedToEnableWAL = errors.New("failed to enable WAL mode")
	errFailedToInit      = errors.New("failed to initialize schema")
	errFailedToBeginTx   = errors.New("failed to begin transaction")
	errFailedToInsert    = errors.New("failed to insert")
	errFailedToQuery     = errors.New("failed to query")
	errFailedToScan      = errors.New("failed to scan")
	errFailedToClean     = errors.New("failed to clean")
)

const createTablesSQL = `
	-- Discovered and self-reported devices
	CREATE TABLE IF NOT EXISTS devices (
		device_id TEXT PRIMARY KEY,
		ip_address TEXT NOT NULL,
		device_type TEXT NOT NULL DEFAULT 'unknown',
		status TEXT NOT NULL DEFAULT 'unknown',
		first_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		metadata TEXT
	);

	-- Timeseries metric samples
	CREATE TABLE IF NOT EXISTS network_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		metric_name TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT,
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		metadata TEXT
	);

	-- Indexes for the common query shapes
	CREATE INDEX IF NOT EXISTS idx_network_metrics_device_time
		ON network_metrics(device_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_network_metrics_name_time
		ON network_metrics(metric_name, timestamp);
	CREATE INDEX IF NOT EXISTS idx_devices_ip
		ON devices(ip_address);

	PRAGMA foreign_keys=ON;
	`

// DB wraps the SQLite connection and implements Service.
type DB struct {
	*sql.DB
}

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (Service, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedOpenDB, err)
	}

	// WAL lets collector writes and ad-hoc reads proceed concurrently.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToEnableWAL, err)
	}

	db := &DB{sqlDB}
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	return db, nil
}

func (db *DB) initSchema() error {
	_, err := db.Exec(createTablesSQL)

	return err
}

// StoreMetrics inserts the batch in a single transaction so a cycle's
// samples land together or not at all.
func (db *DB) StoreMetrics(ctx context.Context, batch []models.MetricSample) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToBeginTx, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO network_metrics (device_id, metric_name, value, unit, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w metric statement: %w", errFailedToInsert, err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i := range batch {
		sample := &batch[i]

		metadata, err := marshalMetadata(sample.Metadata)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx,
			sample.DeviceID,
			sample.MetricName,
			sample.Value,
			sample.Unit,
			sample.Timestamp,
			metadata,
		); err != nil {
			return fmt.Errorf("%w metric %s: %w", errFailedToInsert, sample.MetricName, err)
		}
	}

	return tx.Commit()
}

// UpsertDevice updates a known device in place or inserts an unseen one.
// first_seen is only ever written on insert.
func (db *DB) UpsertDevice(ctx context.Context, record *models.DeviceRecord) error {
	metadata, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToBeginTx, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	err = updateExistingDevice(ctx, tx, record, metadata)
	if errors.Is(err, sql.ErrNoRows) {
		err = insertNewDevice(ctx, tx, record, metadata)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}

func updateExistingDevice(ctx context.Context, tx *sql.Tx, record *models.DeviceRecord, metadata any) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE devices
		SET ip_address = ?,
			device_type = ?,
			status = ?,
			last_seen = ?,
			metadata = COALESCE(?, metadata)
		WHERE device_id = ?
	`, record.IPAddress, record.DeviceType, record.Status, record.LastSeen, metadata, record.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func insertNewDevice(ctx context.Context, tx *sql.Tx, record *models.DeviceRecord, metadata any) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO devices (device_id, ip_address, device_type, status, first_seen, last_seen, metadata)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, ?, ?)
	`, record.DeviceID, record.IPAddress, record.DeviceType, record.Status, record.LastSeen, metadata)
	if err != nil {
		return fmt.Errorf("%w device: %w", errFailedToInsert, err)
	}

	return nil
}

// GetDevice fetches one device by its stable identifier.
func (db *DB) GetDevice(ctx context.Context, deviceID string) (*models.DeviceRecord, error) {
	const query = `
		SELECT device_id, ip_address, device_type, status, first_seen, last_seen, metadata
		FROM devices
		WHERE device_id = ?
	`

	record, err := scanDevice(db.QueryRowContext(ctx, query, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}

	if err != nil {
		return nil, fmt.Errorf("%w device: %w", errFailedToQuery, err)
	}

	return record, nil
}

// ListDevices returns all known devices ordered by last activity.
func (db *DB) ListDevices(ctx context.Context) ([]models.DeviceRecord, error) {
	const query = `
		SELECT device_id, ip_address, device_type, status, first_seen, last_seen, metadata
		FROM devices
		ORDER BY last_seen DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w devices: %w", errFailedToQuery, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var devices []models.DeviceRecord

	for rows.Next() {
		record, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("%w device row: %w", errFailedToScan, err)
		}

		devices = append(devices, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w devices: %w", errFailedToQuery, err)
	}

	return devices, nil
}

// GetMetrics returns samples for one device and metric within [start, end].
func (db *DB) GetMetrics(ctx context.Context, deviceID, metricName string, start, end time.Time) ([]models.MetricSample, error) {
	const query = `
		SELECT device_id, metric_name, value, unit, timestamp, metadata
		FROM network_metrics
		WHERE device_id = ? AND metric_name = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp
	`

	rows, err := db.QueryContext(ctx, query, deviceID, metricName, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w metrics: %w", errFailedToQuery, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var samples []models.MetricSample

	for rows.Next() {
		var (
			sample   models.MetricSample
			metadata sql.NullString
		)

		if err := rows.Scan(
			&sample.DeviceID,
			&sample.MetricName,
			&sample.Value,
			&sample.Unit,
			&sample.Timestamp,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("%w metric row: %w", errFailedToScan, err)
		}

		if sample.Metadata, err = unmarshalMetadata(metadata); err != nil {
			return nil, err
		}

		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w metrics: %w", errFailedToQuery, err)
	}

	return samples, nil
}

// CleanOldData drops metric samples older than the retention period and
// marks devices unseen for that long as offline.
func (db *DB) CleanOldData(ctx context.Context, retentionPeriod time.Duration) error {
	cutoff := time.Now().Add(-retentionPeriod)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToBeginTx, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM network_metrics WHERE timestamp < ?", cutoff,
	); err != nil {
		return fmt.Errorf("%w metrics: %w", errFailedToClean, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE devices SET status = ? WHERE last_seen < ? AND status != ?",
		models.DeviceStatusOffline, cutoff, models.DeviceStatusOffline,
	); err != nil {
		return fmt.Errorf("%w stale devices: %w", errFailedToClean, err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*models.DeviceRecord, error) {
	var (
		record   models.DeviceRecord
		metadata sql.NullString
	)

	err := row.Scan(
		&record.DeviceID,
		&record.IPAddress,
		&record.DeviceType,
		&record.Status,
		&record.FirstSeen,
		&record.LastSeen,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	if record.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, err
	}

	return &record, nil
}

// marshalMetadata encodes a metadata map as JSON, mapping empty to NULL.
func marshalMetadata(metadata map[string]string) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	return string(encoded), nil
}

func unmarshalMetadata(metadata sql.NullString) (map[string]string, error) {
	if !metadata.Valid || metadata.String == "" {
		return nil, nil
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(metadata.String), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return decoded, nil
}
