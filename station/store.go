/*
store.go - Persistence interface between the engine and the ledger store

PURPOSE:
  Defines the operations the core consumes from the relational store.
  Different implementations can use SQLite or in-memory storage.

CONTRACT NOTES:
  - GetReservoir/GetDailyLevel return (nil, nil) when absent; a missing
    row is not an error at this layer.
  - UpsertDailyLevel is insert-or-update on the (reservoir_id, date)
    unique key. Combined with that constraint it makes the lazy
    auto-creation of "today" race-safe without explicit locking.
  - Sales are append-only: there is no update or delete operation.
  - DailySalesTotals returns only days that had at least one sale,
    ascending by date. The forecaster's divisor depends on this.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - station/store: in-memory for tests
*/
package station

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DailySalesTotal is one day's summed sales for a reservoir.
type DailySalesTotal struct {
	Date   Date
	Volume decimal.Decimal
	Amount decimal.Decimal
}

// Store is the ledger-store collaborator the engine reads from and
// writes alerts and materialized level records to.
type Store interface {
	// ListReservoirs returns all reservoirs.
	ListReservoirs(ctx context.Context) ([]Reservoir, error)

	// GetReservoir returns a reservoir by ID, or (nil, nil) when absent.
	GetReservoir(ctx context.Context, id ReservoirID) (*Reservoir, error)

	// GetDailyLevel returns the explicit record for (reservoir, date),
	// or (nil, nil) when no record exists for that date.
	GetDailyLevel(ctx context.Context, id ReservoirID, date Date) (*DailyLevelRecord, error)

	// UpsertDailyLevel inserts or updates the record for its
	// (reservoir, date) key.
	UpsertDailyLevel(ctx context.Context, rec DailyLevelRecord) error

	// SalesByReservoirDate returns all sales for one reservoir on one date.
	SalesByReservoirDate(ctx context.Context, id ReservoirID, date Date) ([]SaleRecord, error)

	// SalesInRange returns all sales (any reservoir) with date in [from, to].
	SalesInRange(ctx context.Context, from, to Date) ([]SaleRecord, error)

	// DailySalesTotals returns per-day sales sums for a reservoir over
	// [from, to], ascending, omitting days without sales.
	DailySalesTotals(ctx context.Context, id ReservoirID, from, to Date) ([]DailySalesTotal, error)

	// SalesByAttendantMonth returns an attendant's sales with date in
	// [year-month-01, next-month-01).
	SalesByAttendantMonth(ctx context.Context, id AttendantID, year int, month time.Month) ([]SaleRecord, error)

	// ListAttendants returns attendants with the given status.
	ListAttendants(ctx context.Context, status AttendantStatus) ([]Attendant, error)

	// CreateAlert persists a new alert; the store assigns the ID.
	CreateAlert(ctx context.Context, alert *LossAlert) error

	// UnreadAlerts returns all unread alerts, newest first.
	UnreadAlerts(ctx context.Context) ([]LossAlert, error)
}
