package interfaces

import (
	"context"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

type SensorRepository interface {
	// UpsertActiveSensor inserts the sensor on first contact or reactivates
	// it only while it is still active. Returns ok=false when the row exists
	// but is soft-deleted; callers must then drop the telemetry frame.
	// The conditional update is a single atomic statement.
	UpsertActiveSensor(ctx context.Context, deviceID int64, mac, defaultName string) (sensorID int64, ok bool, err error)

	// SoftDeleteSensor marks the sensor inactive if it is currently active.
	// Returns false when nothing matched (already inactive or unknown).
	SoftDeleteSensor(ctx context.Context, deviceID int64, mac string) (bool, error)

	// ListActiveSensors returns the authoritative (mac, name) list for a sync reply.
	ListActiveSensors(ctx context.Context, deviceID int64) ([]tscmodels.SensorSummary, error)

	// Admin surface
	ListSensors(ctx context.Context) ([]tscmodels.SensorWithHub, error)
	GetSensorWithHub(ctx context.Context, id int64) (*tscmodels.SensorWithHub, error)
	RenameSensor(ctx context.Context, id int64, name string) (*tscmodels.Sensor, error)
	DeleteSensor(ctx context.Context, id int64) error
}
