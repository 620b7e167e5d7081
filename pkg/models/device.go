// Package models pkg/models/device.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceType classifies a discovered host by its open services.
type DeviceType string

const (
	DeviceTypeServer  DeviceType = "server"
	DeviceTypeRouter  DeviceType = "router"
	DeviceTypeUnknown DeviceType = "unknown"
)

// DeviceStatus represents the last observed reachability of a device.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	DeviceStatusUnknown DeviceStatus = "unknown"
)

// DeviceRecord describes a discovered network host. Records persist across
// discovery cycles; re-discovery updates status/last_seen in place, keyed
// by DeviceID.
type DeviceRecord struct {
	DeviceID   string            `json:"device_id"`
	IPAddress  string            `json:"ip_address"`
	DeviceType DeviceType        `json:"device_type"`
	Status     DeviceStatus      `json:"status"`
	FirstSeen  time.Time         `json:"first_seen"`
	LastSeen   time.Time         `json:"last_seen"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// DeviceIDForIP derives the device identifier for an address. The mapping
// is deterministic, so repeated discovery cycles against the same host
// always address the same record.
func DeviceIDForIP(ip string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(ip)).String()
}
