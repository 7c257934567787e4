/*
reconcile.go - Daily loss reconciliation for one reservoir

PURPOSE:
  Compares the theoretical end-of-day level (opening + inbound - sales)
  against the measured level to quantify physical fuel loss, price it,
  and classify the day.

MEASUREMENT:
  The dip reading taken at close of day is recorded as the NEXT day's
  explicit opening quantity, so that is where the actual remaining
  level comes from. When no next-day record exists the day is
  unmeasured: actual falls back to theoretical and LossVolume is zero
  by construction, but Measured=false keeps that state distinguishable
  from a verified zero loss.

STATUS TIERS (first match wins):
  pct < 1  excellent
  pct < 2  good
  pct < 5  attention
  else     critical

ALERTING:
  pct > 2 raises a LossAlert: severity high above 5, medium otherwise.
  The message carries the loss volume (2 decimals) and percentage
  (1 decimal).

SEE ALSO:
  - balance.go: supplies the opening quantity
  - report.go: runs this engine across reservoirs and date ranges
*/
package station

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECONCILIATION RESULT
// =============================================================================

type ReconciliationStatus string

const (
	StatusExcellent ReconciliationStatus = "excellent"
	StatusGood      ReconciliationStatus = "good"
	StatusAttention ReconciliationStatus = "attention"
	StatusCritical  ReconciliationStatus = "critical"
)

// Reconciliation is the computed result for one reservoir on one date.
type Reconciliation struct {
	ReservoirID ReservoirID
	Date        Date

	QuantityStart        decimal.Decimal // opening + inbound
	QuantitySold         decimal.Decimal
	TheoreticalRemaining decimal.Decimal
	ActualRemaining      decimal.Decimal

	// Measured is false when no next-day record existed and the actual
	// level was assumed equal to the theoretical one.
	Measured bool

	AverageUnitPrice decimal.Decimal // mean of amount/volume over the day's sales
	LossVolume       decimal.Decimal // >= 0 always
	LossValue        decimal.Decimal
	PctLoss          decimal.Decimal // 0 when QuantityStart <= 0

	Status ReconciliationStatus

	// Alert is non-nil when the loss crossed the alerting threshold.
	Alert *LossAlert
}

// =============================================================================
// RECONCILIATION ENGINE
// =============================================================================

// Thresholds for status tiers and alerting, in percent.
var (
	pctExcellent = decimal.NewFromInt(1)
	pctGood      = decimal.NewFromInt(2)
	pctAttention = decimal.NewFromInt(5)
)

type ReconciliationEngine struct {
	Store    Store
	Resolver *BalanceResolver
	Clock    Clock

	// Logger for seed-data recovery notices. nil uses the stdlib default.
	Logger *log.Logger
}

func NewReconciliationEngine(store Store, clock Clock) *ReconciliationEngine {
	return &ReconciliationEngine{
		Store:    store,
		Resolver: NewBalanceResolver(store),
		Clock:    clock,
	}
}

// Reconcile computes the loss figures for one reservoir on one date and
// persists a LossAlert when the loss is significant.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, reservoirID ReservoirID, date Date) (*Reconciliation, error) {
	reservoir, err := e.Store.GetReservoir(ctx, reservoirID)
	if err != nil {
		return nil, err
	}
	if reservoir == nil {
		return nil, ErrReservoirNotFound
	}

	opening, err := e.Resolver.ResolveOpening(ctx, reservoirID, date)
	if err != nil {
		if !errors.Is(err, ErrMissingSeedData) {
			return nil, err
		}
		e.logf("reconcile %s/%s: %v, using zero opening", reservoirID, date, err)
		opening = decimal.Zero
	}

	inbound := decimal.Zero
	if rec, err := e.Store.GetDailyLevel(ctx, reservoirID, date); err != nil {
		return nil, err
	} else if rec != nil {
		inbound = rec.InboundQuantity
	}

	sales, err := e.Store.SalesByReservoirDate(ctx, reservoirID, date)
	if err != nil {
		return nil, err
	}

	sold := decimal.Zero
	priceSum := decimal.Zero
	for _, s := range sales {
		sold = sold.Add(s.VolumeSold)
		priceSum = priceSum.Add(s.UnitPrice())
	}
	avgPrice := decimal.Zero
	if len(sales) > 0 {
		priceCount := decimal.NewFromInt(int64(len(sales)))
		avgPrice = priceSum.Div(priceCount)
	}

	start := opening.Add(inbound)
	theoretical := start.Sub(sold)

	// End-of-day dip reading enters the ledger as the next day's
	// explicit opening.
	actual := theoretical
	measured := false
	if next, err := e.Store.GetDailyLevel(ctx, reservoirID, date.AddDays(1)); err != nil {
		return nil, err
	} else if next != nil {
		actual = next.OpeningQuantity
		measured = true
	}

	lossVolume := maxZero(theoretical.Sub(actual))
	lossValue := lossVolume.Mul(avgPrice)

	pctLoss := decimal.Zero
	if start.IsPositive() {
		pctLoss = lossVolume.Div(start).Mul(hundred)
	}

	result := &Reconciliation{
		ReservoirID:          reservoirID,
		Date:                 date,
		QuantityStart:        start,
		QuantitySold:         sold,
		TheoreticalRemaining: theoretical,
		ActualRemaining:      actual,
		Measured:             measured,
		AverageUnitPrice:     avgPrice,
		LossVolume:           lossVolume,
		LossValue:            lossValue,
		PctLoss:              pctLoss,
		Status:               statusFor(pctLoss),
	}

	if pctLoss.GreaterThan(pctGood) {
		alert := e.buildAlert(reservoir, result)
		if err := e.Store.CreateAlert(ctx, alert); err != nil {
			return nil, fmt.Errorf("create loss alert: %w", err)
		}
		result.Alert = alert
	}

	return result, nil
}

func statusFor(pct decimal.Decimal) ReconciliationStatus {
	switch {
	case pct.LessThan(pctExcellent):
		return StatusExcellent
	case pct.LessThan(pctGood):
		return StatusGood
	case pct.LessThan(pctAttention):
		return StatusAttention
	default:
		return StatusCritical
	}
}

func (e *ReconciliationEngine) buildAlert(reservoir *Reservoir, r *Reconciliation) *LossAlert {
	severity := SeverityMedium
	if r.PctLoss.GreaterThan(pctAttention) {
		severity = SeverityHigh
	}
	return &LossAlert{
		ReservoirID: reservoir.ID,
		Type:        AlertLossDetected,
		Severity:    severity,
		Message: fmt.Sprintf("Loss of %sL (%s%%) on %s for %s",
			r.LossVolume.StringFixed(2), r.PctLoss.StringFixed(1), r.Date, reservoir.Name),
		Status:    AlertUnread,
		CreatedAt: e.Clock.Now(),
	}
}

func (e *ReconciliationEngine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
