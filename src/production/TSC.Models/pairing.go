package tscmodels

import (
	"time"
)

// Pairing request lifecycle. A request is created pending by an inbound
// pairing announcement and resolved exactly once by the administrator.
const (
	PairingStatusPending  = "pending"
	PairingStatusApproved = "approved"
	PairingStatusRejected = "rejected"
)

// ValidPairingStatus reports whether s is one of the three known states.
func ValidPairingStatus(s string) bool {
	return s == PairingStatusPending || s == PairingStatusApproved || s == PairingStatusRejected
}

// PairingRequest records a hub's announcement of an unpaired sensor awaiting
// an administrator decision.
type PairingRequest struct {
	ID          int64          `json:"id" db:"id"`
	DeviceID    int64          `json:"device_id" db:"device_id"`
	SlaveMAC    string         `json:"slave_mac" db:"slave_mac"`
	Status      string         `json:"status" db:"status"`
	RequestedAt time.Time      `json:"requested_at" db:"requested_at"`
	ResolvedAt  NullableTime   `json:"resolved_at" db:"resolved_at"`
	ResolvedBy  NullableString `json:"resolved_by" db:"resolved_by"`
}

// PairingRequestWithHub is the joined row returned by the listing endpoint.
type PairingRequestWithHub struct {
	PairingRequest
	HubMAC  string         `json:"hub_mac"`
	HubName NullableString `json:"hub_name"`
}
