package implementation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

const (
	defaultReadingLimit = 500
	maxReadingLimit     = 5000
)

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

// InsertReading appends one row. The recorded timestamp is server-assigned
// by the column default, never taken from the frame.
func (r *PostgresReadingRepository) InsertReading(ctx context.Context, reading tscmodels.Reading) error {
	query := `INSERT INTO readings (sensor_id, temp, hum, battery, rssi) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		reading.SensorID, reading.Temp, reading.Hum, reading.Battery, reading.RSSI)
	return err
}

// buildReadingsQuery assembles the filtered listing query. Bounds are added
// as parameters only when present; limit is clamped to [1, 5000].
func buildReadingsQuery(sensorID int64, filter interfaces.ReadingFilter) (string, []interface{}) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultReadingLimit
	}
	if limit > maxReadingLimit {
		limit = maxReadingLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, sensor_id, temp, hum, battery, rssi, recorded_at FROM readings WHERE sensor_id = $1`)
	args := []interface{}{sensorID}

	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, " AND recorded_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, " AND recorded_at <= $%d", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY recorded_at DESC LIMIT $%d", len(args))

	return sb.String(), args
}

func (r *PostgresReadingRepository) ListReadings(ctx context.Context, sensorID int64, filter interfaces.ReadingFilter) ([]tscmodels.Reading, error) {
	query, args := buildReadingsQuery(sensorID, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]tscmodels.Reading, 0)
	for rows.Next() {
		var reading tscmodels.Reading
		if err := rows.Scan(&reading.ID, &reading.SensorID, &reading.Temp, &reading.Hum,
			&reading.Battery, &reading.RSSI, &reading.RecordedAt); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

func (r *PostgresReadingRepository) LatestReading(ctx context.Context, sensorID int64) (*tscmodels.Reading, error) {
	query := `
		SELECT id, sensor_id, temp, hum, battery, rssi, recorded_at
		FROM readings
		WHERE sensor_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var reading tscmodels.Reading
	err := r.db.QueryRowContext(ctx, query, sensorID).
		Scan(&reading.ID, &reading.SensorID, &reading.Temp, &reading.Hum,
			&reading.Battery, &reading.RSSI, &reading.RecordedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &reading, nil
}
