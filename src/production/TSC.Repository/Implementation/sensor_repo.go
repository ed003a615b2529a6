package implementation

import (
	"context"
	"database/sql"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

type PostgresSensorRepository struct {
	db *sql.DB
}

func NewPostgresSensorRepository(db *sql.DB) *PostgresSensorRepository {
	return &PostgresSensorRepository{db: db}
}

// UpsertActiveSensor auto-creates the sensor on first telemetry, preserving a
// custom name on conflict. The WHERE clause on the conflict update is the
// guard that keeps a soft-deleted sensor dead: the update matches only rows
// still active, so the statement returns zero rows for an inactive sensor and
// the caller drops the frame. Postgres runs the whole arbiter atomically, so
// this stays safe against a concurrent soft-delete even with several server
// processes sharing the store.
func (r *PostgresSensorRepository) UpsertActiveSensor(ctx context.Context, deviceID int64, mac, defaultName string) (int64, bool, error) {
	query := `
		INSERT INTO sensors (device_id, mac, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id, mac) DO UPDATE
			SET active = TRUE
			WHERE sensors.active = TRUE
		RETURNING id
	`

	var sensorID int64
	err := r.db.QueryRowContext(ctx, query, deviceID, tscmodels.NormalizeMAC(mac), defaultName).Scan(&sensorID)
	if err != nil {
		if err == sql.ErrNoRows {
			// sensor exists but is soft-deleted
			return 0, false, nil
		}
		return 0, false, err
	}

	return sensorID, true, nil
}

// SoftDeleteSensor marks a sensor inactive after a hub reported removing it
// locally. Matching nothing (unknown mac or already inactive) is a no-op.
func (r *PostgresSensorRepository) SoftDeleteSensor(ctx context.Context, deviceID int64, mac string) (bool, error) {
	query := `
		UPDATE sensors SET active = FALSE
		WHERE device_id = $1 AND mac = $2 AND active = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, deviceID, tscmodels.NormalizeMAC(mac))
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// ListActiveSensors returns the authoritative sensor membership pushed to a
// hub on sync. Soft-deleted sensors are excluded so the hub drops them.
func (r *PostgresSensorRepository) ListActiveSensors(ctx context.Context, deviceID int64) ([]tscmodels.SensorSummary, error) {
	query := `SELECT mac, name FROM sensors WHERE device_id = $1 AND active = TRUE`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sensors := make([]tscmodels.SensorSummary, 0)
	for rows.Next() {
		var s tscmodels.SensorSummary
		if err := rows.Scan(&s.MAC, &s.Name); err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}

	return sensors, rows.Err()
}

func (r *PostgresSensorRepository) ListSensors(ctx context.Context) ([]tscmodels.SensorWithHub, error) {
	query := `
		SELECT s.id, s.device_id, s.mac, s.name, s.active, s.paired_at,
		       d.mac AS hub_mac, d.name AS hub_name
		FROM sensors s
		JOIN devices d ON d.id = s.device_id
		ORDER BY s.paired_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []tscmodels.SensorWithHub
	for rows.Next() {
		var s tscmodels.SensorWithHub
		if err := rows.Scan(&s.ID, &s.DeviceID, &s.MAC, &s.Name, &s.Active, &s.PairedAt, &s.HubMAC, &s.HubName); err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}

	return sensors, rows.Err()
}

func (r *PostgresSensorRepository) GetSensorWithHub(ctx context.Context, id int64) (*tscmodels.SensorWithHub, error) {
	query := `
		SELECT s.id, s.device_id, s.mac, s.name, s.active, s.paired_at,
		       d.mac AS hub_mac, d.name AS hub_name
		FROM sensors s
		JOIN devices d ON d.id = s.device_id
		WHERE s.id = $1
	`

	var s tscmodels.SensorWithHub
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.DeviceID, &s.MAC, &s.Name, &s.Active, &s.PairedAt, &s.HubMAC, &s.HubName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

func (r *PostgresSensorRepository) RenameSensor(ctx context.Context, id int64, name string) (*tscmodels.Sensor, error) {
	query := `UPDATE sensors SET name = $1 WHERE id = $2 RETURNING id, device_id, mac, name, active, paired_at`

	var s tscmodels.Sensor
	err := r.db.QueryRowContext(ctx, query, name, id).
		Scan(&s.ID, &s.DeviceID, &s.MAC, &s.Name, &s.Active, &s.PairedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

// DeleteSensor removes the row and, through ON DELETE CASCADE, its readings.
// This is the administrator-initiated hard delete.
func (r *PostgresSensorRepository) DeleteSensor(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sensors WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
