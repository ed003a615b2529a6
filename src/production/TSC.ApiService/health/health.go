package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db *sql.DB
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// PingPostgres checks if the PostgreSQL connection is healthy
func (h *HealthChecker) PingPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// CheckDatabaseHealth performs a comprehensive database health check
func (h *HealthChecker) CheckDatabaseHealth(ctx context.Context) error {
	if err := h.PingPostgres(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// GetHealthStatus returns the current health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    make(map[string]interface{}),
	}

	dbStatus := "ok"
	if err := h.CheckDatabaseHealth(ctx); err != nil {
		dbStatus = "error"
		status["checks"].(map[string]interface{})["postgres"] = map[string]interface{}{
			"status": dbStatus,
			"error":  err.Error(),
		}
	} else {
		status["checks"].(map[string]interface{})["postgres"] = map[string]interface{}{
			"status": dbStatus,
		}
	}

	overallStatus := "ok"
	if dbStatus != "ok" {
		overallStatus = "degraded"
	}
	status["status"] = overallStatus

	return status
}

// DatabaseManager handles schema bootstrap
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a timeout context
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			id            BIGSERIAL PRIMARY KEY,
			mac           TEXT NOT NULL UNIQUE,
			name          TEXT,
			api_key       TEXT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS sensors (
			id         BIGSERIAL PRIMARY KEY,
			device_id  BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			mac        TEXT NOT NULL,
			name       TEXT NOT NULL,
			active     BOOLEAN NOT NULL DEFAULT true,
			paired_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (device_id, mac)
		);`,
		`CREATE TABLE IF NOT EXISTS readings (
			id          BIGSERIAL PRIMARY KEY,
			sensor_id   BIGINT NOT NULL REFERENCES sensors(id) ON DELETE CASCADE,
			temp        DOUBLE PRECISION,
			hum         DOUBLE PRECISION,
			battery     INTEGER,
			rssi        INTEGER,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS pairing_requests (
			id           BIGSERIAL PRIMARY KEY,
			device_id    BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			slave_mac    TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending',
			requested_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			resolved_at  TIMESTAMPTZ,
			resolved_by  TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_readings_sensor_recorded_desc ON readings (sensor_id, recorded_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_pairing_requests_status ON pairing_requests (status);`,
		`CREATE INDEX IF NOT EXISTS idx_sensors_device ON sensors (device_id);`,
	}

	for _, stmt := range statements {
		if _, err := dm.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}
