package tscmodels

import "time"

// SentinelNoValue is sent by sensor firmware when a measurement could not be
// taken. It must be stored as NULL, never as a literal -999.
const SentinelNoValue = -999

// Reading is one append-only telemetry row.
type Reading struct {
	ID         int64         `json:"id" db:"id"`
	SensorID   int64         `json:"sensor_id" db:"sensor_id"`
	Temp       NullableFloat `json:"temp" db:"temp"`
	Hum        NullableFloat `json:"hum" db:"hum"`
	Battery    NullableInt   `json:"battery" db:"battery"`
	RSSI       NullableInt   `json:"rssi" db:"rssi"`
	RecordedAt time.Time     `json:"recorded_at" db:"recorded_at"`
}

// NormalizeMeasure maps an absent value or the -999 firmware sentinel to
// NULL and keeps every other value (including 0) exactly as sent.
func NormalizeMeasure(v *float64) NullableFloat {
	var out NullableFloat
	if v == nil || *v == SentinelNoValue {
		return out
	}
	out.Valid = true
	out.Float64 = *v
	return out
}

// NullableIntFrom wraps an optional integer field from a telemetry frame.
func NullableIntFrom(v *int64) NullableInt {
	var out NullableInt
	if v == nil {
		return out
	}
	out.Valid = true
	out.Int64 = *v
	return out
}
