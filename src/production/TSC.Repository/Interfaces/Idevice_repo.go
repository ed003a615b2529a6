package interfaces

import (
	"context"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

type DeviceRepository interface {
	// Register device (idempotent upsert; re-provisioning rotates the api key)
	RegisterDevice(ctx context.Context, mac string, name *string, apiKey string) (*tscmodels.Device, error)

	// Read devices. GetDeviceByMAC returns (nil, nil) when the hub is not
	// registered; a routine referential miss is not an error.
	GetDeviceByMAC(ctx context.Context, mac string) (*tscmodels.Device, error)
	GetDeviceByID(ctx context.Context, id int64) (*tscmodels.Device, error)
	ListDevices(ctx context.Context) ([]tscmodels.Device, error)
}
