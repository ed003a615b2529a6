package implementation

import (
	"context"
	"database/sql"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

// RegisterDevice registers a hub (idempotent upsert). On re-provisioning the
// api key is rotated so the old credential is invalidated; an explicit name
// wins over the stored one, a missing name keeps it.
func (r *PostgresDeviceRepository) RegisterDevice(ctx context.Context, mac string, name *string, apiKey string) (*tscmodels.Device, error) {
	query := `
		INSERT INTO devices (mac, name, api_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (mac) DO UPDATE
			SET name    = COALESCE(EXCLUDED.name, devices.name),
			    api_key = EXCLUDED.api_key
		RETURNING id, mac, name, api_key, registered_at
	`

	var device tscmodels.Device
	err := r.db.QueryRowContext(ctx, query, tscmodels.NormalizeMAC(mac), name, apiKey).
		Scan(&device.ID, &device.MAC, &device.Name, &device.APIKey, &device.RegisteredAt)
	if err != nil {
		return nil, err
	}

	return &device, nil
}

// GetDeviceByMAC looks up a hub by its normalised hardware address.
// Returns (nil, nil) when the hub is not registered.
func (r *PostgresDeviceRepository) GetDeviceByMAC(ctx context.Context, mac string) (*tscmodels.Device, error) {
	query := `SELECT id, mac, name, api_key, registered_at FROM devices WHERE mac = $1`

	var device tscmodels.Device
	err := r.db.QueryRowContext(ctx, query, tscmodels.NormalizeMAC(mac)).
		Scan(&device.ID, &device.MAC, &device.Name, &device.APIKey, &device.RegisteredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &device, nil
}

func (r *PostgresDeviceRepository) GetDeviceByID(ctx context.Context, id int64) (*tscmodels.Device, error) {
	query := `SELECT id, mac, name, api_key, registered_at FROM devices WHERE id = $1`

	var device tscmodels.Device
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&device.ID, &device.MAC, &device.Name, &device.APIKey, &device.RegisteredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &device, nil
}

func (r *PostgresDeviceRepository) ListDevices(ctx context.Context) ([]tscmodels.Device, error) {
	query := `SELECT id, mac, name, registered_at FROM devices ORDER BY registered_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []tscmodels.Device
	for rows.Next() {
		var device tscmodels.Device
		if err := rows.Scan(&device.ID, &device.MAC, &device.Name, &device.RegisteredAt); err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}

	return devices, rows.Err()
}
