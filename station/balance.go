/*
balance.go - Daily balance resolver (opening-quantity carry-forward)

PURPOSE:
  Determines a reservoir's opening quantity for any date. When no
  explicit DailyLevelRecord exists, the opening defaults to the prior
  day's computed closing balance, resolved from the nearest prior
  explicit record.

CARRY-FORWARD RULE:
  opening(date), if not explicitly recorded, equals
    max(0, total(date-1) - sold(date-1))
  where total(d) = opening(d) + inbound(d). Days without an explicit
  record have inbound 0, so the walk only needs the nearest prior
  explicit record as a seed and rolls sales forward from there.

BOUNDS:
  The lookback is iterative, never recursive, and stops at the
  reservoir's creation date (with an absolute cap for bad data). An
  unreachable seed is a typed MissingSeedDataError, which callers that
  need a number recover to zero and log.

MATERIALIZATION:
  MaterializeDay persists the resolved opening as an explicit record
  with inbound 0. The store upserts on the (reservoir, date) unique
  key, so concurrent materialization of the same day is race-safe.

SEE ALSO:
  - reconcile.go: consumes the resolved opening
  - forecast.go: uses the resolver for the current level
*/
package station

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// DefaultMaxLookbackDays caps the walk for reservoirs whose creation
// date is missing or corrupt. Ten years of daily records.
const DefaultMaxLookbackDays = 3660

// BalanceResolver computes opening quantities from the store.
type BalanceResolver struct {
	Store Store

	// MaxLookbackDays overrides DefaultMaxLookbackDays when > 0.
	MaxLookbackDays int

	// Logger for seed-data recovery notices. nil uses the stdlib default.
	Logger *log.Logger
}

func NewBalanceResolver(store Store) *BalanceResolver {
	return &BalanceResolver{Store: store}
}

// ResolveOpening returns the opening quantity for (reservoirID, date).
// An explicit record wins; otherwise the prior day's closing balance is
// carried forward. Returns a *MissingSeedDataError when no explicit
// record is reachable within the bound.
func (br *BalanceResolver) ResolveOpening(ctx context.Context, reservoirID ReservoirID, date Date) (decimal.Decimal, error) {
	reservoir, err := br.Store.GetReservoir(ctx, reservoirID)
	if err != nil {
		return decimal.Zero, err
	}
	if reservoir == nil {
		return decimal.Zero, ErrReservoirNotFound
	}

	rec, err := br.Store.GetDailyLevel(ctx, reservoirID, date)
	if err != nil {
		return decimal.Zero, err
	}
	if rec != nil {
		return rec.OpeningQuantity, nil
	}

	// Walk back to the nearest prior explicit record, bounded by the
	// reservoir's creation date.
	floor := reservoir.CreatedAt
	if floor.IsZero() || DaysBetween(floor, date) > br.maxLookback() {
		floor = date.AddDays(-br.maxLookback())
	}

	var (
		seed     *DailyLevelRecord
		seedDate Date
	)
	for cursor := date.AddDays(-1); cursor.AfterOrEqual(floor); cursor = cursor.AddDays(-1) {
		prev, err := br.Store.GetDailyLevel(ctx, reservoirID, cursor)
		if err != nil {
			return decimal.Zero, err
		}
		if prev != nil {
			seed = prev
			seedDate = cursor
			break
		}
	}

	if seed == nil {
		return decimal.Zero, &MissingSeedDataError{
			ReservoirID: reservoirID,
			Date:        date,
			WalkedTo:    floor,
		}
	}

	// Roll the seed day's balance forward, subtracting each day's sales.
	// Days between the seed and the target have no explicit records, so
	// their inbound is zero.
	level := seed.Total()
	for d := seedDate; d.Before(date); d = d.AddDays(1) {
		sold, err := br.soldOn(ctx, reservoirID, d)
		if err != nil {
			return decimal.Zero, err
		}
		level = maxZero(level.Sub(sold))
	}

	return level, nil
}

// MaterializeDay ensures an explicit record exists for (reservoirID,
// date), resolving the opening when needed. A missing seed is recovered
// to a zero opening and logged; the record is still created.
func (br *BalanceResolver) MaterializeDay(ctx context.Context, reservoirID ReservoirID, date Date) (DailyLevelRecord, error) {
	existing, err := br.Store.GetDailyLevel(ctx, reservoirID, date)
	if err != nil {
		return DailyLevelRecord{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	opening, err := br.ResolveOpening(ctx, reservoirID, date)
	if err != nil {
		if !errors.Is(err, ErrMissingSeedData) {
			return DailyLevelRecord{}, err
		}
		br.logf("carry-forward seed missing, starting reservoir %s at zero: %v", reservoirID, err)
		opening = decimal.Zero
	}

	rec := DailyLevelRecord{
		ReservoirID:     reservoirID,
		Date:            date,
		OpeningQuantity: opening,
		InboundQuantity: decimal.Zero,
	}
	if err := br.Store.UpsertDailyLevel(ctx, rec); err != nil {
		return DailyLevelRecord{}, fmt.Errorf("materialize daily level: %w", err)
	}
	return rec, nil
}

func (br *BalanceResolver) soldOn(ctx context.Context, reservoirID ReservoirID, date Date) (decimal.Decimal, error) {
	sales, err := br.Store.SalesByReservoirDate(ctx, reservoirID, date)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.VolumeSold)
	}
	return total, nil
}

func (br *BalanceResolver) maxLookback() int {
	if br.MaxLookbackDays > 0 {
		return br.MaxLookbackDays
	}
	return DefaultMaxLookbackDays
}

func (br *BalanceResolver) logf(format string, args ...any) {
	if br.Logger != nil {
		br.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
