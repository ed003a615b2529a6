package tscmodels

import (
	"strings"
	"time"
)

// Sensor represents a peripheral paired to exactly one hub.
// A sensor is soft-deleted by flipping Active to false; the row and its
// readings are preserved and incoming data frames for it are dropped.
type Sensor struct {
	ID       int64     `json:"id" db:"id"`
	DeviceID int64     `json:"device_id" db:"device_id"`
	MAC      string    `json:"mac" db:"mac"`
	Name     string    `json:"name" db:"name"`
	Active   bool      `json:"active" db:"active"`
	PairedAt time.Time `json:"paired_at" db:"paired_at"`
}

// SensorWithHub is the joined row returned by the sensor listing endpoint.
type SensorWithHub struct {
	Sensor
	HubMAC  string         `json:"hub_mac"`
	HubName NullableString `json:"hub_name"`
}

// SensorSummary is the (mac, name) pair pushed to a hub in a sync reply.
type SensorSummary struct {
	MAC  string `json:"mac"`
	Name string `json:"name"`
}

// DefaultSensorName derives the factory display name from a normalised MAC,
// e.g. "11:22:33:44:55:66" -> "TempSens-445566".
func DefaultSensorName(mac string) string {
	compact := strings.ReplaceAll(mac, ":", "")
	if len(compact) > 6 {
		compact = compact[len(compact)-6:]
	}
	return "TempSens-" + compact
}
