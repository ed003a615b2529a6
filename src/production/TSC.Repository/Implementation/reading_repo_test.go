package implementation

import (
	"strings"
	"testing"
	"time"

	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

func TestBuildReadingsQueryDefaults(t *testing.T) {
	query, args := buildReadingsQuery(7, interfaces.ReadingFilter{})

	if strings.Contains(query, "recorded_at >=") || strings.Contains(query, "recorded_at <=") {
		t.Fatalf("unbounded filter must not add range clauses: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected sensor id and limit, got %v", args)
	}
	if args[0] != int64(7) {
		t.Fatalf("expected sensor id 7, got %v", args[0])
	}
	if args[1] != defaultReadingLimit {
		t.Fatalf("expected default limit %d, got %v", defaultReadingLimit, args[1])
	}
}

func TestBuildReadingsQueryClampsLimit(t *testing.T) {
	_, args := buildReadingsQuery(1, interfaces.ReadingFilter{Limit: 999999})
	if args[len(args)-1] != maxReadingLimit {
		t.Fatalf("expected limit clamped to %d, got %v", maxReadingLimit, args[len(args)-1])
	}
}

func TestBuildReadingsQueryRange(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	query, args := buildReadingsQuery(3, interfaces.ReadingFilter{From: &from, To: &to, Limit: 10})

	if !strings.Contains(query, "recorded_at >= $2") || !strings.Contains(query, "recorded_at <= $3") {
		t.Fatalf("expected both range clauses with ordinal params: %s", query)
	}
	if !strings.Contains(query, "LIMIT $4") {
		t.Fatalf("expected limit as the fourth param: %s", query)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %v", args)
	}
}
