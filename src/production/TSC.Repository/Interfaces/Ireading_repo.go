package interfaces

import (
	"context"
	"time"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

// ReadingFilter bounds a readings query. Zero-value From/To mean unbounded.
type ReadingFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

type ReadingRepository interface {
	// InsertReading appends one server-stamped row.
	InsertReading(ctx context.Context, reading tscmodels.Reading) error

	ListReadings(ctx context.Context, sensorID int64, filter ReadingFilter) ([]tscmodels.Reading, error)
	LatestReading(ctx context.Context, sensorID int64) (*tscmodels.Reading, error)
}
