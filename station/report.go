/*
report.go - Aggregation across reservoirs and date ranges

PURPOSE:
  Runs the reconciliation engine over every reservoir for a day, and
  over every calendar day of a range for periodic reports. Period
  aggregation is a full recomputation each call: identical ledger data
  always yields identical totals.

FAILURE MODEL:
  Best-effort accumulation. A failure on one reservoir/date is recorded
  in Failures and the remaining units still run; only store-level
  failures that prevent enumerating reservoirs abort the report.
  Context cancellation is honored at day boundaries.

SEE ALSO:
  - reconcile.go: the per-unit computation
  - forecast.go, performance.go: the other report surfaces
*/
package station

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// ReservoirLoss is one reservoir's line in a daily report.
type ReservoirLoss struct {
	ReservoirID ReservoirID
	Name        string
	FuelType    FuelType
	LossVolume  decimal.Decimal
	LossValue   decimal.Decimal
	PctLoss     decimal.Decimal
	Measured    bool
	ActualLevel decimal.Decimal
	Status      ReconciliationStatus
}

// ReportFailure notes a unit that was skipped.
type ReportFailure struct {
	ReservoirID ReservoirID
	Date        Date
	Err         error
}

// DailyLossReport aggregates one date across all reservoirs.
type DailyLossReport struct {
	Date            Date
	Reservoirs      []ReservoirLoss
	TotalLossVolume decimal.Decimal
	TotalLossValue  decimal.Decimal
	Alerts          []LossAlert
	Failures        []ReportFailure
}

// DayTotals is one day's contribution to a period report.
type DayTotals struct {
	Date       Date
	LossVolume decimal.Decimal
	LossValue  decimal.Decimal
}

// PeriodLossReport aggregates an inclusive date range.
type PeriodLossReport struct {
	From            Date
	To              Date
	Days            []DayTotals
	TotalLossVolume decimal.Decimal
	TotalLossValue  decimal.Decimal
	Failures        []ReportFailure
}

// =============================================================================
// AGGREGATOR
// =============================================================================

type Aggregator struct {
	Store  Store
	Engine *ReconciliationEngine
	Clock  Clock
}

func NewAggregator(store Store, clock Clock) *Aggregator {
	return &Aggregator{
		Store:  store,
		Engine: NewReconciliationEngine(store, clock),
		Clock:  clock,
	}
}

// DailyReport reconciles every reservoir for one date.
func (a *Aggregator) DailyReport(ctx context.Context, date Date) (*DailyLossReport, error) {
	reservoirs, err := a.Store.ListReservoirs(ctx)
	if err != nil {
		return nil, err
	}

	report := &DailyLossReport{
		Date:            date,
		TotalLossVolume: decimal.Zero,
		TotalLossValue:  decimal.Zero,
	}

	for _, reservoir := range reservoirs {
		rec, err := a.Engine.Reconcile(ctx, reservoir.ID, date)
		if err != nil {
			report.Failures = append(report.Failures, ReportFailure{
				ReservoirID: reservoir.ID,
				Date:        date,
				Err:         err,
			})
			continue
		}

		report.Reservoirs = append(report.Reservoirs, ReservoirLoss{
			ReservoirID: reservoir.ID,
			Name:        reservoir.Name,
			FuelType:    reservoir.FuelType,
			LossVolume:  rec.LossVolume,
			LossValue:   rec.LossValue,
			PctLoss:     rec.PctLoss,
			Measured:    rec.Measured,
			ActualLevel: rec.ActualRemaining,
			Status:      rec.Status,
		})
		report.TotalLossVolume = report.TotalLossVolume.Add(rec.LossVolume)
		report.TotalLossValue = report.TotalLossValue.Add(rec.LossValue)
		if rec.Alert != nil {
			report.Alerts = append(report.Alerts, *rec.Alert)
		}
	}

	return report, nil
}

// PeriodReport reconciles every calendar day in [from, to] inclusive.
// O(days x reservoirs); recomputed in full on every call.
func (a *Aggregator) PeriodReport(ctx context.Context, from, to Date) (*PeriodLossReport, error) {
	if to.Before(from) {
		return nil, ErrInvalidPeriod
	}

	report := &PeriodLossReport{
		From:            from,
		To:              to,
		TotalLossVolume: decimal.Zero,
		TotalLossValue:  decimal.Zero,
	}

	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		daily, err := a.DailyReport(ctx, d)
		if err != nil {
			report.Failures = append(report.Failures, ReportFailure{Date: d, Err: err})
			continue
		}

		report.Days = append(report.Days, DayTotals{
			Date:       d,
			LossVolume: daily.TotalLossVolume,
			LossValue:  daily.TotalLossValue,
		})
		report.TotalLossVolume = report.TotalLossVolume.Add(daily.TotalLossVolume)
		report.TotalLossValue = report.TotalLossValue.Add(daily.TotalLossValue)
		report.Failures = append(report.Failures, daily.Failures...)
	}

	return report, nil
}

// =============================================================================
// WEEKLY SUMMARY
// =============================================================================

// FuelTypeSales is the week's sales for one fuel type.
type FuelTypeSales struct {
	FuelType FuelType
	Volume   decimal.Decimal
	Amount   decimal.Decimal
}

// DaySales is one day's sales total across all reservoirs.
type DaySales struct {
	Date   Date
	Amount decimal.Decimal
}

// WeeklySummary is the automatic weekly report: sales totals, the
// per-fuel breakdown, the best day, and the week's losses.
type WeeklySummary struct {
	From             Date
	To               Date
	TransactionCount int
	TotalVolume      decimal.Decimal
	TotalAmount      decimal.Decimal
	ByFuelType       []FuelTypeSales
	BestDay          *DaySales
	LossVolume       decimal.Decimal
	LossValue        decimal.Decimal
	Failures         []ReportFailure
}

// WeeklyReport summarizes the current week (Monday through Sunday,
// relative to the injected clock).
func (a *Aggregator) WeeklyReport(ctx context.Context) (*WeeklySummary, error) {
	from := StartOfWeek(a.Clock.Today())
	to := from.AddDays(6)
	return a.WeekReport(ctx, from, to)
}

// WeekReport summarizes an arbitrary 7-day-or-other range.
func (a *Aggregator) WeekReport(ctx context.Context, from, to Date) (*WeeklySummary, error) {
	if to.Before(from) {
		return nil, ErrInvalidPeriod
	}

	sales, err := a.Store.SalesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	reservoirs, err := a.Store.ListReservoirs(ctx)
	if err != nil {
		return nil, err
	}
	fuelOf := make(map[ReservoirID]FuelType, len(reservoirs))
	for _, r := range reservoirs {
		fuelOf[r.ID] = r.FuelType
	}

	summary := &WeeklySummary{
		From:        from,
		To:          to,
		TotalVolume: decimal.Zero,
		TotalAmount: decimal.Zero,
	}

	byFuel := make(map[FuelType]*FuelTypeSales)
	byDay := make(map[Date]decimal.Decimal)

	for _, s := range sales {
		summary.TransactionCount++
		summary.TotalVolume = summary.TotalVolume.Add(s.VolumeSold)
		summary.TotalAmount = summary.TotalAmount.Add(s.Amount)

		fuel := fuelOf[s.ReservoirID]
		entry, ok := byFuel[fuel]
		if !ok {
			entry = &FuelTypeSales{FuelType: fuel, Volume: decimal.Zero, Amount: decimal.Zero}
			byFuel[fuel] = entry
		}
		entry.Volume = entry.Volume.Add(s.VolumeSold)
		entry.Amount = entry.Amount.Add(s.Amount)

		day := s.Date
		byDay[day] = byDay[day].Add(s.Amount)
	}

	for _, fuel := range []FuelType{FuelRegular, FuelDiesel, FuelPremium} {
		if entry, ok := byFuel[fuel]; ok {
			summary.ByFuelType = append(summary.ByFuelType, *entry)
		}
	}

	for day, amount := range byDay {
		switch {
		case summary.BestDay == nil,
			amount.GreaterThan(summary.BestDay.Amount),
			amount.Equal(summary.BestDay.Amount) && day.Before(summary.BestDay.Date):
			summary.BestDay = &DaySales{Date: day, Amount: amount}
		}
	}

	losses, err := a.PeriodReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.LossVolume = losses.TotalLossVolume
	summary.LossValue = losses.TotalLossValue
	summary.Failures = losses.Failures

	return summary, nil
}
