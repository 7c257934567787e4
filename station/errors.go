/*
errors.go - Centralized error types for the station engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Seed errors - carry-forward walked back without finding a record
  2. History errors - forecasting lacks enough sales days
  3. Validation errors - entity invariants violated at construction
  4. Not-found errors - referenced entities missing from the store

RECOVERY CONTRACT:
  - ErrMissingSeedData is non-fatal: callers recover to a zero opening
    and log. It is still typed so direct callers can detect it.
  - ErrInsufficientHistory is surfaced to the caller, never defaulted.
  - Store/persistence errors propagate unwrapped; they are fatal.

USAGE:
    if errors.Is(err, station.ErrInsufficientHistory) {
        var ih *station.InsufficientHistoryError
        errors.As(err, &ih)
        ...
    }
*/
package station

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingSeedData is returned by the balance resolver when no
	// explicit level record is reachable within the lookback bound.
	ErrMissingSeedData = errors.New("no reachable daily level record")

	// ErrInsufficientHistory is returned by the forecaster when fewer
	// than the required number of sales days exist in the window.
	ErrInsufficientHistory = errors.New("insufficient sales history")

	// ErrReservoirNotFound is returned when a referenced reservoir doesn't exist.
	ErrReservoirNotFound = errors.New("reservoir not found")

	// ErrAttendantNotFound is returned when a referenced attendant doesn't exist.
	ErrAttendantNotFound = errors.New("attendant not found")

	// ErrInvalidRecord is returned when an entity fails construction validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidPeriod is returned when a date range ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingSeedDataError reports how far back the resolver walked.
type MissingSeedDataError struct {
	ReservoirID ReservoirID
	Date        Date // the date being resolved
	WalkedTo    Date // the oldest date inspected
}

func (e *MissingSeedDataError) Error() string {
	return fmt.Sprintf("no reachable daily level record for reservoir %s resolving %s (walked back to %s)",
		e.ReservoirID, e.Date, e.WalkedTo)
}

func (e *MissingSeedDataError) Unwrap() error { return ErrMissingSeedData }

// InsufficientHistoryError reports how much history was found.
type InsufficientHistoryError struct {
	ReservoirID  ReservoirID
	DaysFound    int
	DaysRequired int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient sales history for reservoir %s: %d days found, %d required",
		e.ReservoirID, e.DaysFound, e.DaysRequired)
}

func (e *InsufficientHistoryError) Unwrap() error { return ErrInsufficientHistory }

// InvalidRecordError reports which field failed construction validation.
type InvalidRecordError struct {
	Kind   string // "reservoir", "daily_level", "sale"
	Field  string
	Detail string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Kind, e.Field, e.Detail)
}

func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReservoirNotFound) ||
		errors.Is(err, ErrAttendantNotFound)
}

// IsClientError returns true if the error is due to invalid input rather
// than a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInsufficientHistory)
}
