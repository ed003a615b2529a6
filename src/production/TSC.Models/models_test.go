package tscmodels

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"
)

func TestValidMAC(t *testing.T) {
	valid := []string{"AA:BB:CC:DD:EE:01", "aa:bb:cc:dd:ee:ff", "00:11:22:33:44:55"}
	for _, mac := range valid {
		if !ValidMAC(mac) {
			t.Errorf("expected %q to be valid", mac)
		}
	}

	invalid := []string{"", "AA:BB:CC:DD:EE", "AA:BB:CC:DD:EE:01:02", "AABBCCDDEE01", "GG:BB:CC:DD:EE:01", "AA-BB-CC-DD-EE-01"}
	for _, mac := range invalid {
		if ValidMAC(mac) {
			t.Errorf("expected %q to be invalid", mac)
		}
	}
}

func TestNormalizeMAC(t *testing.T) {
	if got := NormalizeMAC("aa:bb:cc:dd:ee:01"); got != "AA:BB:CC:DD:EE:01" {
		t.Fatalf("unexpected normalised mac %q", got)
	}
}

func TestDefaultSensorName(t *testing.T) {
	if got := DefaultSensorName("11:22:33:44:55:66"); got != "TempSens-445566" {
		t.Fatalf("unexpected default name %q", got)
	}
}

func TestNormalizeMeasure(t *testing.T) {
	if got := NormalizeMeasure(nil); got.Valid {
		t.Fatal("nil measure should map to NULL")
	}

	sentinel := float64(SentinelNoValue)
	if got := NormalizeMeasure(&sentinel); got.Valid {
		t.Fatal("-999 sentinel should map to NULL")
	}

	zero := 0.0
	if got := NormalizeMeasure(&zero); !got.Valid || got.Float64 != 0 {
		t.Fatalf("zero must be preserved exactly, got %+v", got)
	}

	temp := 21.5
	if got := NormalizeMeasure(&temp); !got.Valid || got.Float64 != 21.5 {
		t.Fatalf("value must be preserved exactly, got %+v", got)
	}
}

func TestNullableFloatJSON(t *testing.T) {
	var absent NullableFloat
	data, err := absent.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "null" {
		t.Fatalf("expected null, got %s", data)
	}

	present := NormalizeMeasure(ptr(47.0))
	data, err = present.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "47" {
		t.Fatalf("expected 47, got %s", data)
	}
}

func ptr(f float64) *float64 { return &f }

func TestPairingRequestJSONCarriesResolution(t *testing.T) {
	resolvedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	resolved := PairingRequest{
		ID:          5,
		DeviceID:    1,
		SlaveMAC:    "66:55:44:33:22:11",
		Status:      PairingStatusApproved,
		RequestedAt: resolvedAt.Add(-time.Minute),
		ResolvedAt:  NullableTime{sql.NullTime{Time: resolvedAt, Valid: true}},
		ResolvedBy:  NullableString{sql.NullString{String: "admin", Valid: true}},
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	raw, ok := fields["resolved_at"]
	if !ok {
		t.Fatalf("resolved_at missing from %s", data)
	}
	if string(raw) != `"2026-08-30T12:00:00Z"` {
		t.Fatalf("unexpected resolved_at %s", raw)
	}

	pending := PairingRequest{ID: 6, Status: PairingStatusPending}
	data, err = json.Marshal(pending)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if string(fields["resolved_at"]) != "null" {
		t.Fatalf("expected null resolved_at for pending request, got %s", fields["resolved_at"])
	}
}
