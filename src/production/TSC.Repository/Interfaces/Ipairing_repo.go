package interfaces

import (
	"context"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

type PairingRepository interface {
	// HasPendingRequest reports whether a pending request already exists for
	// this (device, sensor mac) pair. Hubs retransmit announcements until
	// acknowledged; duplicates while pending must be dropped.
	HasPendingRequest(ctx context.Context, deviceID int64, sensorMAC string) (bool, error)

	// CreateRequest inserts a new pending request and returns its id.
	CreateRequest(ctx context.Context, deviceID int64, sensorMAC string) (int64, error)

	// ListRequests returns requests joined with their hub, newest first.
	// status filters when non-empty.
	ListRequests(ctx context.Context, status string) ([]tscmodels.PairingRequestWithHub, error)

	// ResolveRequest transitions a pending request to approved or rejected.
	// Returns (nil, nil) when no pending request matched; a request is never
	// re-opened or resolved twice.
	ResolveRequest(ctx context.Context, id int64, approved bool, resolvedBy string) (*tscmodels.PairingRequest, error)
}
