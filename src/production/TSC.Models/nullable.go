package tscmodels

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullableString is a sql.NullString that marshals to a plain JSON string
// or null instead of the {String, Valid} struct form.
type NullableString struct {
	sql.NullString
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		n.Valid = false
		n.String = ""
		return nil
	}
	n.Valid = true
	n.String = *s
	return nil
}

// NullableFloat is the float counterpart of NullableString.
type NullableFloat struct {
	sql.NullFloat64
}

func (n NullableFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullableFloat) UnmarshalJSON(data []byte) error {
	var f *float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f == nil {
		n.Valid = false
		n.Float64 = 0
		return nil
	}
	n.Valid = true
	n.Float64 = *f
	return nil
}

// NullableTime is the timestamp counterpart of NullableString.
type NullableTime struct {
	sql.NullTime
}

func (n NullableTime) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Time)
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t == nil {
		n.Valid = false
		n.Time = time.Time{}
		return nil
	}
	n.Valid = true
	n.Time = *t
	return nil
}

// NullableInt is the integer counterpart of NullableString.
type NullableInt struct {
	sql.NullInt64
}

func (n NullableInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	var i *int64
	if err := json.Unmarshal(data, &i); err != nil {
		return err
	}
	if i == nil {
		n.Valid = false
		n.Int64 = 0
		return nil
	}
	n.Valid = true
	n.Int64 = *i
	return nil
}
