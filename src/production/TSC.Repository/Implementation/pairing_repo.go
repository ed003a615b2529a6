package implementation

import (
	"context"
	"database/sql"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

type PostgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) *PostgresPairingRepository {
	return &PostgresPairingRepository{db: db}
}

func (r *PostgresPairingRepository) HasPendingRequest(ctx context.Context, deviceID int64, sensorMAC string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM pairing_requests
			WHERE device_id = $1 AND slave_mac = $2 AND status = 'pending'
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, deviceID, tscmodels.NormalizeMAC(sensorMAC)).Scan(&exists)
	return exists, err
}

func (r *PostgresPairingRepository) CreateRequest(ctx context.Context, deviceID int64, sensorMAC string) (int64, error) {
	query := `INSERT INTO pairing_requests (device_id, slave_mac) VALUES ($1, $2) RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, deviceID, tscmodels.NormalizeMAC(sensorMAC)).Scan(&id)
	return id, err
}

func (r *PostgresPairingRepository) ListRequests(ctx context.Context, status string) ([]tscmodels.PairingRequestWithHub, error) {
	query := `
		SELECT pr.id, pr.device_id, pr.slave_mac, pr.status,
		       pr.requested_at, pr.resolved_at, pr.resolved_by,
		       d.mac AS hub_mac, d.name AS hub_name
		FROM pairing_requests pr
		JOIN devices d ON d.id = pr.device_id
	`

	var args []interface{}
	if status != "" {
		query += ` WHERE pr.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY pr.requested_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]tscmodels.PairingRequestWithHub, 0)
	for rows.Next() {
		var pr tscmodels.PairingRequestWithHub
		if err := rows.Scan(&pr.ID, &pr.DeviceID, &pr.SlaveMAC, &pr.Status,
			&pr.RequestedAt, &pr.ResolvedAt, &pr.ResolvedBy, &pr.HubMAC, &pr.HubName); err != nil {
			return nil, err
		}
		requests = append(requests, pr)
	}

	return requests, rows.Err()
}

// ResolveRequest flips a pending request to approved or rejected. The status
// guard in the WHERE clause makes the transition single-shot: a resolved
// request never matches again, so (nil, nil) comes back for replays.
func (r *PostgresPairingRepository) ResolveRequest(ctx context.Context, id int64, approved bool, resolvedBy string) (*tscmodels.PairingRequest, error) {
	status := tscmodels.PairingStatusRejected
	if approved {
		status = tscmodels.PairingStatusApproved
	}

	query := `
		UPDATE pairing_requests
		SET status = $1, resolved_at = now(), resolved_by = $2
		WHERE id = $3 AND status = 'pending'
		RETURNING id, device_id, slave_mac, status, requested_at, resolved_at, resolved_by
	`

	var pr tscmodels.PairingRequest
	err := r.db.QueryRowContext(ctx, query, status, resolvedBy, id).
		Scan(&pr.ID, &pr.DeviceID, &pr.SlaveMAC, &pr.Status, &pr.RequestedAt, &pr.ResolvedAt, &pr.ResolvedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &pr, nil
}
