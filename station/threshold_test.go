package station_test

import (
	"context"
	"strings"
	"testing"

	"github.com/warp/station-engine/station"
)

// =============================================================================
// THRESHOLD WATCH TESTS
// =============================================================================

func TestCheckThresholds_AlertsAtOrBelowThreshold(t *testing.T) {
	// GIVEN: A 10000L tank with a 20% threshold at 1500L (15%) today
	// WHEN: Running the watcher
	// THEN: A medium low_level alert is created and persisted

	ctx := context.Background()
	st := newTestStore()
	addReservoir(t, st, "r1", day("2025-06-01"))
	addLevel(t, st, "r1", day("2025-06-10"), 1500, 0)

	watcher := station.NewThresholdWatcher(st, fixedClock("2025-06-10"))
	created, err := watcher.CheckThresholds(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(created))
	}

	alert := created[0]
	if alert.Type != station.AlertLowLevel {
		t.Errorf("expected low_level alert, got %s", alert.Type)
	}
	if alert.Severity != station.SeverityMedium {
		t.Errorf("expected medium severity, got %s", alert.Severity)
	}
	if !strings.Contains(alert.Message, "15.0%") {
		t.Errorf("expected level percentage in message, got %q", alert.Message)
	}

	unread, err := st.UnreadAlerts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unread) != 1 {
		t.Errorf("expected alert persisted, got %d unread", len(unread))
	}
}

func TestCheckThresholds_ExactThresholdStillAlerts(t *testing.T) {
	// GIVEN: A tank sitting exactly at its 20% threshold
	// WHEN: Running the watcher
	// THEN: An alert is created (the bound is inclusive)

	ctx := context.Background()
	st := newTestStore()
	addReservoir(t, st, "r1", day("2025-06-01"))
	addLevel(t, st, "r1", day("2025-06-10"), 2000, 0)

	watcher := station.NewThresholdWatcher(st, fixedClock("2025-06-10"))
	created, err := watcher.CheckThresholds(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 alert at the exact threshold, got %d", len(created))
	}
}

func TestCheckThresholds_HealthyAndUnrecordedSkipped(t *testing.T) {
	// GIVEN: One healthy tank (50%) and one without a record for today
	// WHEN: Running the watcher
	// THEN: No alerts are created

	ctx := context.Background()
	st := newTestStore()
	addReservoir(t, st, "r1", day("2025-06-01"))
	addReservoir(t, st, "r2", day("2025-06-01"))
	addLevel(t, st, "r1", day("2025-06-10"), 5000, 0)
	addLevel(t, st, "r2", day("2025-06-09"), 100, 0) // yesterday only

	watcher := station.NewThresholdWatcher(st, fixedClock("2025-06-10"))
	created, err := watcher.CheckThresholds(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no alerts, got %d", len(created))
	}
}

func TestCheckThresholds_InboundCountsTowardLevel(t *testing.T) {
	// GIVEN: A low opening topped up by a delivery past the threshold
	// WHEN: Running the watcher
	// THEN: No alert, since opening + inbound is what matters

	ctx := context.Background()
	st := newTestStore()
	addReservoir(t, st, "r1", day("2025-06-01"))
	addLevel(t, st, "r1", day("2025-06-10"), 1000, 4000)

	watcher := station.NewThresholdWatcher(st, fixedClock("2025-06-10"))
	created, err := watcher.CheckThresholds(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no alerts after delivery, got %d", len(created))
	}
}
