package station

import (
	"context"
	"fmt"
)

// =============================================================================
// THRESHOLD WATCH - Low-level alerts independent of loss reconciliation
// =============================================================================

// ThresholdWatcher raises a low_level alert for any reservoir whose
// current level, as a percent of capacity, is at or below its alert
// threshold. Reservoirs without a record for today are skipped.
type ThresholdWatcher struct {
	Store Store
	Clock Clock
}

func NewThresholdWatcher(store Store, clock Clock) *ThresholdWatcher {
	return &ThresholdWatcher{Store: store, Clock: clock}
}

// CheckThresholds inspects every reservoir for today and returns the
// alerts it created.
func (tw *ThresholdWatcher) CheckThresholds(ctx context.Context) ([]LossAlert, error) {
	reservoirs, err := tw.Store.ListReservoirs(ctx)
	if err != nil {
		return nil, err
	}

	today := tw.Clock.Today()
	var created []LossAlert

	for _, reservoir := range reservoirs {
		rec, err := tw.Store.GetDailyLevel(ctx, reservoir.ID, today)
		if err != nil {
			return created, err
		}
		if rec == nil || !reservoir.MaxCapacity.IsPositive() {
			continue
		}

		pct := rec.Total().Div(reservoir.MaxCapacity).Mul(hundred)
		if pct.GreaterThan(reservoir.AlertThreshold) {
			continue
		}

		alert := &LossAlert{
			ReservoirID: reservoir.ID,
			Type:        AlertLowLevel,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("Low level for %s: %s%%", reservoir.Name, pct.StringFixed(1)),
			Status:      AlertUnread,
			CreatedAt:   tw.Clock.Now(),
		}
		if err := tw.Store.CreateAlert(ctx, alert); err != nil {
			return created, fmt.Errorf("create low level alert: %w", err)
		}
		created = append(created, *alert)
	}

	return created, nil
}
