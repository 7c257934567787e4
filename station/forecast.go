/*
forecast.go - Stock depletion forecasting

PURPOSE:
  Projects a reservoir's future level from its trailing mean daily
  sales, estimates the depletion date, and emits an ordering
  recommendation.

WINDOW AND DIVISOR:
  The mean is taken over the trailing 30 days of sales, dividing the
  summed volume by the count of days that had at least one sale (not
  the calendar span). At least 3 such days are required; fewer is a
  typed InsufficientHistoryError.

PROJECTION:
  level(day n) = current - n * mean, clamped at 0 for display. The
  first day the level reaches 0 is the depletion date. DaysRemaining is
  ceil(current / mean); a zero mean means the stock never depletes and
  is reported as unlimited rather than divided.

RECOMMENDATION TIERS:
  < 3 days   order now
  < 7 days   order this week
  < 14 days  plan soon
  else       stock sufficient

SEE ALSO:
  - balance.go: supplies the current level
*/
package station

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG
// =============================================================================

// ForecastConfig bounds the history window and horizon.
type ForecastConfig struct {
	WindowDays         int // trailing sales window
	MinHistoryDays     int // distinct sales days required
	DefaultHorizonDays int
}

func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		WindowDays:         30,
		MinHistoryDays:     3,
		DefaultHorizonDays: 7,
	}
}

// =============================================================================
// RESULT TYPES
// =============================================================================

type Recommendation string

const (
	RecommendOrderNow        Recommendation = "urgent_order_now"
	RecommendOrderThisWeek   Recommendation = "order_this_week"
	RecommendPlanSoon        Recommendation = "plan_order_soon"
	RecommendStockSufficient Recommendation = "stock_sufficient"
)

// Projection is one future day's expected level.
type Projection struct {
	Date           Date
	ProjectedLevel decimal.Decimal // clamped at 0
	PctOfCapacity  decimal.Decimal
}

// Forecast is the full projection result for one reservoir.
type Forecast struct {
	ReservoirID   ReservoirID
	ReservoirName string
	CurrentLevel  decimal.Decimal
	Capacity      decimal.Decimal
	MeanDailySold decimal.Decimal

	// DaysRemaining is ceil(current/mean). Unlimited is set instead
	// when the mean is zero.
	DaysRemaining int
	Unlimited     bool

	// DepletionDate is the first projected day at or below zero, nil
	// when the horizon never reaches it.
	DepletionDate *Date

	Projections    []Projection
	Recommendation Recommendation
}

// =============================================================================
// FORECASTER
// =============================================================================

type Forecaster struct {
	Store    Store
	Resolver *BalanceResolver
	Clock    Clock
	Config   ForecastConfig

	// Logger for seed-data recovery notices. nil uses the stdlib default.
	Logger *log.Logger
}

func NewForecaster(store Store, clock Clock) *Forecaster {
	return &Forecaster{
		Store:    store,
		Resolver: NewBalanceResolver(store),
		Clock:    clock,
		Config:   DefaultForecastConfig(),
	}
}

// Forecast projects the reservoir's level over horizonDays (the
// configured default when <= 0).
func (f *Forecaster) Forecast(ctx context.Context, reservoirID ReservoirID, horizonDays int) (*Forecast, error) {
	if horizonDays <= 0 {
		horizonDays = f.Config.DefaultHorizonDays
	}

	reservoir, err := f.Store.GetReservoir(ctx, reservoirID)
	if err != nil {
		return nil, err
	}
	if reservoir == nil {
		return nil, ErrReservoirNotFound
	}

	today := f.Clock.Today()
	from := today.AddDays(-f.Config.WindowDays)

	totals, err := f.Store.DailySalesTotals(ctx, reservoirID, from, today)
	if err != nil {
		return nil, err
	}
	if len(totals) < f.Config.MinHistoryDays {
		return nil, &InsufficientHistoryError{
			ReservoirID:  reservoirID,
			DaysFound:    len(totals),
			DaysRequired: f.Config.MinHistoryDays,
		}
	}

	// Mean over days with data, not the calendar span.
	totalVolume := decimal.Zero
	for _, t := range totals {
		totalVolume = totalVolume.Add(t.Volume)
	}
	mean := totalVolume.Div(decimal.NewFromInt(int64(len(totals))))

	current, err := f.currentLevel(ctx, reservoirID, today)
	if err != nil {
		return nil, err
	}

	forecast := &Forecast{
		ReservoirID:   reservoirID,
		ReservoirName: reservoir.Name,
		CurrentLevel:  current,
		Capacity:      reservoir.MaxCapacity,
		MeanDailySold: mean,
	}

	level := current
	for day := 1; day <= horizonDays; day++ {
		date := today.AddDays(day)
		level = level.Sub(mean)
		projected := maxZero(level)

		pct := decimal.Zero
		if reservoir.MaxCapacity.IsPositive() {
			pct = maxZero(level.Div(reservoir.MaxCapacity).Mul(hundred))
		}

		forecast.Projections = append(forecast.Projections, Projection{
			Date:           date,
			ProjectedLevel: projected,
			PctOfCapacity:  pct,
		})

		if !level.IsPositive() && forecast.DepletionDate == nil {
			d := date
			forecast.DepletionDate = &d
		}
	}

	if mean.IsPositive() {
		forecast.DaysRemaining = int(current.Div(mean).Ceil().IntPart())
	} else {
		forecast.Unlimited = true
	}
	forecast.Recommendation = recommendationFor(forecast.DaysRemaining, forecast.Unlimited)

	return forecast, nil
}

// currentLevel is today's opening plus any recorded inbound. A missing
// carry-forward seed is recovered to zero and logged.
func (f *Forecaster) currentLevel(ctx context.Context, reservoirID ReservoirID, today Date) (decimal.Decimal, error) {
	opening, err := f.Resolver.ResolveOpening(ctx, reservoirID, today)
	if err != nil {
		if !errors.Is(err, ErrMissingSeedData) {
			return decimal.Zero, err
		}
		f.logf("forecast %s: %v, using zero level", reservoirID, err)
		opening = decimal.Zero
	}

	rec, err := f.Store.GetDailyLevel(ctx, reservoirID, today)
	if err != nil {
		return decimal.Zero, err
	}
	if rec != nil {
		return opening.Add(rec.InboundQuantity), nil
	}
	return opening, nil
}

func recommendationFor(daysRemaining int, unlimited bool) Recommendation {
	switch {
	case unlimited:
		return RecommendStockSufficient
	case daysRemaining < 3:
		return RecommendOrderNow
	case daysRemaining < 7:
		return RecommendOrderThisWeek
	case daysRemaining < 14:
		return RecommendPlanSoon
	default:
		return RecommendStockSufficient
	}
}

func (f *Forecaster) logf(format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
