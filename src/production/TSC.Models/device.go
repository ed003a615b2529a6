package tscmodels

import "time"

// Device represents a registered hub that relays sensor telemetry
type Device struct {
	ID           int64          `json:"id" db:"id"`
	MAC          string         `json:"mac" db:"mac"`
	Name         NullableString `json:"name" db:"name"`
	APIKey       string         `json:"api_key,omitempty" db:"api_key"`
	RegisteredAt time.Time      `json:"registered_at" db:"registered_at"`
}
