/*
performance.go - Monthly attendant ranking

PURPOSE:
  Aggregates each active attendant's sales for a month, computes a
  capped efficiency score, ranks by total amount, and assigns badges.

SCORING:
  score = min(countPoints,  saleCount   / countTarget  * countPoints)
        + min(amountPoints, totalAmount / amountTarget * amountPoints)
        + min(avgPoints,    avgAmount   / avgTarget    * avgPoints)
  rounded to 1 decimal. Targets and point caps are injected through
  ScoringConfig so the formula is currency- and scale-agnostic; the
  defaults (30 sales, 1,000,000 total, 50,000 average) yield a perfect
  100 when every target is met.

BADGES:
  rank 1 gold, 2 silver, 3 bronze, rank <= ceil(0.25*N) star, else
  thumbs-up.
*/
package station

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG
// =============================================================================

// ScoringConfig holds the targets and point caps for the score formula.
type ScoringConfig struct {
	SaleCountTarget decimal.Decimal
	SaleCountPoints decimal.Decimal

	AmountTarget decimal.Decimal
	AmountPoints decimal.Decimal

	AvgAmountTarget decimal.Decimal
	AvgAmountPoints decimal.Decimal
}

// DefaultScoringConfig returns the standard monthly targets.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SaleCountTarget: decimal.NewFromInt(30),
		SaleCountPoints: decimal.NewFromInt(40),
		AmountTarget:    decimal.NewFromInt(1_000_000),
		AmountPoints:    decimal.NewFromInt(40),
		AvgAmountTarget: decimal.NewFromInt(50_000),
		AvgAmountPoints: decimal.NewFromInt(20),
	}
}

// =============================================================================
// RESULT TYPES
// =============================================================================

type Badge string

const (
	BadgeGold     Badge = "gold"
	BadgeSilver   Badge = "silver"
	BadgeBronze   Badge = "bronze"
	BadgeStar     Badge = "star"
	BadgeThumbsUp Badge = "thumbs_up"
)

// AttendantPerformance is one attendant's monthly record, ranked.
type AttendantPerformance struct {
	Attendant   Attendant
	SaleCount   int
	TotalVolume decimal.Decimal
	TotalAmount decimal.Decimal
	AvgAmount   decimal.Decimal
	Score       decimal.Decimal // 0..100, 1 decimal
	Rank        int
	Badge       Badge
}

// =============================================================================
// SCORER
// =============================================================================

type PerformanceScorer struct {
	Store  Store
	Config ScoringConfig
}

func NewPerformanceScorer(store Store) *PerformanceScorer {
	return &PerformanceScorer{Store: store, Config: DefaultScoringConfig()}
}

// RankAttendants aggregates every active attendant's sales in
// [year-month-01, next-month-01), ordered by total amount descending.
// Attendants without sales in the month are omitted.
func (ps *PerformanceScorer) RankAttendants(ctx context.Context, year int, month time.Month) ([]AttendantPerformance, error) {
	attendants, err := ps.Store.ListAttendants(ctx, StatusActive)
	if err != nil {
		return nil, err
	}

	var ranked []AttendantPerformance
	for _, attendant := range attendants {
		sales, err := ps.Store.SalesByAttendantMonth(ctx, attendant.ID, year, month)
		if err != nil {
			return nil, err
		}
		if len(sales) == 0 {
			continue
		}

		volume := decimal.Zero
		amount := decimal.Zero
		for _, s := range sales {
			volume = volume.Add(s.VolumeSold)
			amount = amount.Add(s.Amount)
		}
		count := len(sales)
		avg := amount.Div(decimal.NewFromInt(int64(count)))

		ranked = append(ranked, AttendantPerformance{
			Attendant:   attendant,
			SaleCount:   count,
			TotalVolume: volume,
			TotalAmount: amount,
			AvgAmount:   avg,
			Score:       ps.score(count, amount, avg),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalAmount.GreaterThan(ranked[j].TotalAmount)
	})

	total := len(ranked)
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Badge = badgeFor(i+1, total)
	}

	return ranked, nil
}

func (ps *PerformanceScorer) score(count int, amount, avg decimal.Decimal) decimal.Decimal {
	cfg := ps.Config

	score := cappedPoints(decimal.NewFromInt(int64(count)), cfg.SaleCountTarget, cfg.SaleCountPoints)
	score = score.Add(cappedPoints(amount, cfg.AmountTarget, cfg.AmountPoints))
	score = score.Add(cappedPoints(avg, cfg.AvgAmountTarget, cfg.AvgAmountPoints))

	return score.Round(1)
}

// cappedPoints returns min(points, value/target*points), 0 for a zero
// target.
func cappedPoints(value, target, points decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	earned := value.Div(target).Mul(points)
	if earned.GreaterThan(points) {
		return points
	}
	return earned
}

func badgeFor(rank, total int) Badge {
	switch {
	case rank == 1:
		return BadgeGold
	case rank == 2:
		return BadgeSilver
	case rank == 3:
		return BadgeBronze
	case rank <= (total+3)/4: // ceil(0.25 * total)
		return BadgeStar
	default:
		return BadgeThumbsUp
	}
}
