/*
Package station provides the core fuel-station reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms that reconcile
  recorded tank levels against recorded sales to detect physical fuel
  loss, forecast depletion, and score attendant performance. It is an
  in-process library: persistence is behind the Store interface, and
  presentation (rendering, exports, access control) lives elsewhere.

KEY CONCEPTS IN THIS FILE (types.go):
  - Reservoir: a fuel tank with capacity and an alert threshold
  - DailyLevelRecord: opening + inbound quantity for one reservoir/date
  - SaleRecord: an immutable, append-only sale transaction
  - Attendant: a pump attendant, ranked monthly by the scorer
  - LossAlert: raised by the reconciliation engine on significant loss

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all volumes and money, no floats
  2. Validation at construction: quantities and enums checked up front
  3. Type safety: distinct ID types for reservoirs and attendants
  4. Immutability: sales are append-only, never updated

SEE ALSO:
  - balance.go: opening-quantity carry-forward
  - reconcile.go: loss computation and alerting
  - store.go: persistence interface
*/
package station

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ReservoirID string
type AttendantID string
type SaleID string
type AlertID string

// =============================================================================
// ENUMS
// =============================================================================

// FuelType is the closed set of fuels a reservoir can hold.
type FuelType string

const (
	FuelRegular FuelType = "regular"
	FuelDiesel  FuelType = "diesel"
	FuelPremium FuelType = "premium"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelRegular, FuelDiesel, FuelPremium:
		return true
	}
	return false
}

// SalePeriod is the shift during which a sale was recorded.
type SalePeriod string

const (
	PeriodMorning SalePeriod = "morning"
	PeriodEvening SalePeriod = "evening"
	PeriodNight   SalePeriod = "night"
)

func (p SalePeriod) Valid() bool {
	switch p {
	case PeriodMorning, PeriodEvening, PeriodNight:
		return true
	}
	return false
}

// AttendantStatus marks whether an attendant is currently employed.
type AttendantStatus string

const (
	StatusActive   AttendantStatus = "active"
	StatusInactive AttendantStatus = "inactive"
)

// Alert classification.
type AlertType string

const (
	AlertLossDetected AlertType = "loss_detected"
	AlertLowLevel     AlertType = "low_level"
)

type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
)

type AlertStatus string

const (
	AlertUnread AlertStatus = "unread"
	AlertRead   AlertStatus = "read"
)

// =============================================================================
// RESERVOIR
// =============================================================================

// Reservoir is a fuel storage tank. Capacity and threshold are fixed at
// creation; levels and movements live in DailyLevelRecord.
type Reservoir struct {
	ID             ReservoirID
	Name           string
	FuelType       FuelType
	MaxCapacity    decimal.Decimal // litres, > 0
	AlertThreshold decimal.Decimal // percent of capacity, 0..100
	CreatedAt      Date
}

// NewReservoir validates the capacity/threshold invariants at construction.
func NewReservoir(id ReservoirID, name string, fuel FuelType, capacity, threshold decimal.Decimal, createdAt Date) (Reservoir, error) {
	if !fuel.Valid() {
		return Reservoir{}, &InvalidRecordError{Kind: "reservoir", Field: "fuel_type", Detail: string(fuel)}
	}
	if !capacity.IsPositive() {
		return Reservoir{}, &InvalidRecordError{Kind: "reservoir", Field: "max_capacity", Detail: "must be > 0"}
	}
	if threshold.IsNegative() || threshold.GreaterThan(decimal.NewFromInt(100)) {
		return Reservoir{}, &InvalidRecordError{Kind: "reservoir", Field: "alert_threshold", Detail: "must be in [0,100]"}
	}
	return Reservoir{
		ID:             id,
		Name:           name,
		FuelType:       fuel,
		MaxCapacity:    capacity,
		AlertThreshold: threshold,
		CreatedAt:      createdAt,
	}, nil
}

// =============================================================================
// DAILY LEVEL RECORD
// =============================================================================

// DailyLevelRecord holds the opening and inbound quantity for one
// reservoir on one date. (ReservoirID, Date) is the unique key; the
// store upserts on it so concurrent auto-creation cannot duplicate rows.
type DailyLevelRecord struct {
	ReservoirID     ReservoirID
	Date            Date
	OpeningQuantity decimal.Decimal // litres at start of day, >= 0
	InboundQuantity decimal.Decimal // litres delivered during the day, >= 0
}

func NewDailyLevelRecord(id ReservoirID, date Date, opening, inbound decimal.Decimal) (DailyLevelRecord, error) {
	if opening.IsNegative() {
		return DailyLevelRecord{}, &InvalidRecordError{Kind: "daily_level", Field: "opening_quantity", Detail: "must be >= 0"}
	}
	if inbound.IsNegative() {
		return DailyLevelRecord{}, &InvalidRecordError{Kind: "daily_level", Field: "inbound_quantity", Detail: "must be >= 0"}
	}
	return DailyLevelRecord{ReservoirID: id, Date: date, OpeningQuantity: opening, InboundQuantity: inbound}, nil
}

// Total returns opening + inbound, the quantity available for the day.
func (r DailyLevelRecord) Total() decimal.Decimal {
	return r.OpeningQuantity.Add(r.InboundQuantity)
}

// =============================================================================
// SALE RECORD
// =============================================================================

// SaleRecord is one sale transaction. Append-only: corrections are new
// records, never edits.
type SaleRecord struct {
	ID          SaleID
	ReservoirID ReservoirID
	AttendantID AttendantID
	Date        Date
	Period      SalePeriod
	VolumeSold  decimal.Decimal // litres, > 0
	Amount      decimal.Decimal // money, > 0
	StartTime   string          // HH:MM, optional
	EndTime     string          // HH:MM, optional
}

func NewSaleRecord(id SaleID, reservoirID ReservoirID, attendantID AttendantID, date Date, period SalePeriod, volume, amount decimal.Decimal) (SaleRecord, error) {
	if !period.Valid() {
		return SaleRecord{}, &InvalidRecordError{Kind: "sale", Field: "period", Detail: string(period)}
	}
	if !volume.IsPositive() {
		return SaleRecord{}, &InvalidRecordError{Kind: "sale", Field: "volume_sold", Detail: "must be > 0"}
	}
	if !amount.IsPositive() {
		return SaleRecord{}, &InvalidRecordError{Kind: "sale", Field: "amount", Detail: "must be > 0"}
	}
	return SaleRecord{
		ID:          id,
		ReservoirID: reservoirID,
		AttendantID: attendantID,
		Date:        date,
		Period:      period,
		VolumeSold:  volume,
		Amount:      amount,
	}, nil
}

// UnitPrice returns amount/volume, or zero for a zero volume.
func (s SaleRecord) UnitPrice() decimal.Decimal {
	if s.VolumeSold.IsZero() {
		return decimal.Zero
	}
	return s.Amount.Div(s.VolumeSold)
}

// =============================================================================
// ATTENDANT
// =============================================================================

type Attendant struct {
	ID     AttendantID
	Name   string
	Phone  string
	Email  string
	Status AttendantStatus
}

func (a Attendant) IsActive() bool { return a.Status == StatusActive }

// =============================================================================
// LOSS ALERT
// =============================================================================

// LossAlert is created by the reconciliation engine (and the threshold
// watcher); its read/unread status transitions externally.
type LossAlert struct {
	ID          AlertID
	ReservoirID ReservoirID
	Type        AlertType
	Severity    AlertSeverity
	Message     string
	Status      AlertStatus
	CreatedAt   time.Time
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	hundred = decimal.NewFromInt(100)
)

// MustParseDecimal parses s, returning zero on failure.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// maxZero clamps negative quantities to zero.
func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
