/*
Package sqlite provides a SQLite-backed implementation of the station
storage interface.

PURPOSE:
  Implements station.Store plus the administrative write paths the API
  uses (reservoir creation, sale entry, attendant management, alert
  read-marking). In production, the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  reservoirs:    tank definitions (capacity/threshold fixed at creation)
  daily_levels:  one row per (reservoir, date); UNIQUE key + upsert
  sales:         append-only sale transactions
  attendants:    pump attendants with active/inactive status
  alerts:        loss and low-level alerts with read status

UPSERT CONTRACT:
  daily_levels carries PRIMARY KEY (reservoir_id, date) and is written
  with INSERT ... ON CONFLICT DO UPDATE, which makes the lazy
  materialization of "today" race-safe under concurrent calls.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the sales table. A mistaken
  entry is corrected by recording a compensating sale.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/station.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - station/store.go: interface definition
  - station/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/station-engine/station"
)

// Store implements station.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ station.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reservoirs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		fuel_type TEXT NOT NULL,
		max_capacity REAL NOT NULL,
		alert_threshold REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_levels (
		reservoir_id TEXT NOT NULL REFERENCES reservoirs(id),
		date TEXT NOT NULL,
		opening_quantity REAL NOT NULL,
		inbound_quantity REAL NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (reservoir_id, date)
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		reservoir_id TEXT NOT NULL REFERENCES reservoirs(id),
		attendant_id TEXT NOT NULL,
		date TEXT NOT NULL,
		period TEXT NOT NULL,
		volume_sold REAL NOT NULL,
		amount REAL NOT NULL,
		start_time TEXT,
		end_time TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_reservoir_date
		ON sales(reservoir_id, date);
	CREATE INDEX IF NOT EXISTS idx_sales_attendant_date
		ON sales(attendant_id, date);
	CREATE INDEX IF NOT EXISTS idx_sales_date
		ON sales(date);

	CREATE TABLE IF NOT EXISTS attendants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_attendants_status
		ON attendants(status);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reservoir_id TEXT NOT NULL REFERENCES reservoirs(id),
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT 'medium',
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unread',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_status
		ON alerts(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RESERVOIRS
// =============================================================================

// AddReservoir saves a reservoir definition. Capacity and threshold are
// fixed at creation; only the display name may change on conflict.
func (s *Store) AddReservoir(ctx context.Context, r station.Reservoir) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO reservoirs (id, name, fuel_type, max_capacity, alert_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name
	`

	_, err := s.db.ExecContext(ctx, query,
		string(r.ID),
		r.Name,
		string(r.FuelType),
		r.MaxCapacity.InexactFloat64(),
		r.AlertThreshold.InexactFloat64(),
		r.CreatedAt.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save reservoir: %w", err)
	}
	return nil
}

func (s *Store) ListReservoirs(ctx context.Context) ([]station.Reservoir, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, fuel_type, max_capacity, alert_threshold, created_at FROM reservoirs ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservoirs: %w", err)
	}
	defer rows.Close()

	var reservoirs []station.Reservoir
	for rows.Next() {
		r, err := scanReservoir(rows)
		if err != nil {
			return nil, err
		}
		reservoirs = append(reservoirs, r)
	}
	return reservoirs, rows.Err()
}

func (s *Store) GetReservoir(ctx context.Context, id station.ReservoirID) (*station.Reservoir, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, fuel_type, max_capacity, alert_threshold, created_at FROM reservoirs WHERE id = ?",
		string(id),
	)

	var (
		r         station.Reservoir
		capacity  float64
		threshold float64
		createdAt string
	)
	err := row.Scan(&r.ID, &r.Name, &r.FuelType, &capacity, &threshold, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reservoir: %w", err)
	}

	r.MaxCapacity = decimal.NewFromFloat(capacity)
	r.AlertThreshold = decimal.NewFromFloat(threshold)
	r.CreatedAt, err = station.ParseDate(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reservoir date: %w", err)
	}
	return &r, nil
}

func scanReservoir(rows *sql.Rows) (station.Reservoir, error) {
	var (
		r         station.Reservoir
		capacity  float64
		threshold float64
		createdAt string
	)
	if err := rows.Scan(&r.ID, &r.Name, &r.FuelType, &capacity, &threshold, &createdAt); err != nil {
		return r, fmt.Errorf("failed to scan reservoir: %w", err)
	}
	r.MaxCapacity = decimal.NewFromFloat(capacity)
	r.AlertThreshold = decimal.NewFromFloat(threshold)

	date, err := station.ParseDate(createdAt)
	if err != nil {
		return r, fmt.Errorf("failed to parse reservoir date: %w", err)
	}
	r.CreatedAt = date
	return r, nil
}

// =============================================================================
// DAILY LEVELS
// =============================================================================

func (s *Store) GetDailyLevel(ctx context.Context, id station.ReservoirID, date station.Date) (*station.DailyLevelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT reservoir_id, date, opening_quantity, inbound_quantity FROM daily_levels WHERE reservoir_id = ? AND date = ?",
		string(id), date.String(),
	)

	var (
		rec     station.DailyLevelRecord
		dateStr string
		opening float64
		inbound float64
	)
	err := row.Scan(&rec.ReservoirID, &dateStr, &opening, &inbound)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily level: %w", err)
	}

	rec.Date, err = station.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse level date: %w", err)
	}
	rec.OpeningQuantity = decimal.NewFromFloat(opening)
	rec.InboundQuantity = decimal.NewFromFloat(inbound)
	return &rec, nil
}

func (s *Store) UpsertDailyLevel(ctx context.Context, rec station.DailyLevelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO daily_levels (reservoir_id, date, opening_quantity, inbound_quantity, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(reservoir_id, date) DO UPDATE SET
			opening_quantity = excluded.opening_quantity,
			inbound_quantity = excluded.inbound_quantity,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		string(rec.ReservoirID),
		rec.Date.String(),
		rec.OpeningQuantity.InexactFloat64(),
		rec.InboundQuantity.InexactFloat64(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily level: %w", err)
	}
	return nil
}

// =============================================================================
// SALES
// =============================================================================

// RecordSale appends a sale transaction.
func (s *Store) RecordSale(ctx context.Context, sale station.SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sales (id, reservoir_id, attendant_id, date, period, volume_sold, amount, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(sale.ID),
		string(sale.ReservoirID),
		string(sale.AttendantID),
		sale.Date.String(),
		string(sale.Period),
		sale.VolumeSold.InexactFloat64(),
		sale.Amount.InexactFloat64(),
		sale.StartTime,
		sale.EndTime,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

func (s *Store) SalesByReservoirDate(ctx context.Context, id station.ReservoirID, date station.Date) ([]station.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, reservoir_id, attendant_id, date, period, volume_sold, amount, start_time, end_time
		FROM sales
		WHERE reservoir_id = ? AND date = ?
		ORDER BY created_at ASC, id ASC
	`
	return s.querySales(ctx, query, string(id), date.String())
}

func (s *Store) SalesInRange(ctx context.Context, from, to station.Date) ([]station.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, reservoir_id, attendant_id, date, period, volume_sold, amount, start_time, end_time
		FROM sales
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC, id ASC
	`
	return s.querySales(ctx, query, from.String(), to.String())
}

func (s *Store) DailySalesTotals(ctx context.Context, id station.ReservoirID, from, to station.Date) ([]station.DailySalesTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT date, SUM(volume_sold), SUM(amount)
		FROM sales
		WHERE reservoir_id = ? AND date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(id), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query sales totals: %w", err)
	}
	defer rows.Close()

	var totals []station.DailySalesTotal
	for rows.Next() {
		var (
			dateStr string
			volume  float64
			amount  float64
		)
		if err := rows.Scan(&dateStr, &volume, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan sales total: %w", err)
		}
		date, err := station.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sales date: %w", err)
		}
		totals = append(totals, station.DailySalesTotal{
			Date:   date,
			Volume: decimal.NewFromFloat(volume),
			Amount: decimal.NewFromFloat(amount),
		})
	}
	return totals, rows.Err()
}

func (s *Store) SalesByAttendantMonth(ctx context.Context, id station.AttendantID, year int, month time.Month) ([]station.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := station.MonthBounds(year, month)

	query := `
		SELECT id, reservoir_id, attendant_id, date, period, volume_sold, amount, start_time, end_time
		FROM sales
		WHERE attendant_id = ? AND date >= ? AND date < ?
		ORDER BY date ASC, created_at ASC, id ASC
	`
	return s.querySales(ctx, query, string(id), start.String(), end.String())
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]station.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []station.SaleRecord
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func scanSale(rows *sql.Rows) (station.SaleRecord, error) {
	var (
		sale      station.SaleRecord
		dateStr   string
		volume    float64
		amount    float64
		startTime sql.NullString
		endTime   sql.NullString
	)

	err := rows.Scan(
		&sale.ID, &sale.ReservoirID, &sale.AttendantID, &dateStr, &sale.Period,
		&volume, &amount, &startTime, &endTime,
	)
	if err != nil {
		return sale, fmt.Errorf("failed to scan sale: %w", err)
	}

	sale.Date, err = station.ParseDate(dateStr)
	if err != nil {
		return sale, fmt.Errorf("failed to parse sale date: %w", err)
	}
	sale.VolumeSold = decimal.NewFromFloat(volume)
	sale.Amount = decimal.NewFromFloat(amount)
	sale.StartTime = startTime.String
	sale.EndTime = endTime.String
	return sale, nil
}

// =============================================================================
// ATTENDANTS
// =============================================================================

// AddAttendant saves an attendant. Re-adding an existing id updates the
// contact details and status.
func (s *Store) AddAttendant(ctx context.Context, a station.Attendant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := a.Status
	if status == "" {
		status = station.StatusActive
	}

	query := `
		INSERT INTO attendants (id, name, phone, email, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		string(a.ID), a.Name, a.Phone, a.Email, string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to save attendant: %w", err)
	}
	return nil
}

func (s *Store) ListAttendants(ctx context.Context, status station.AttendantStatus) ([]station.Attendant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, phone, email, status FROM attendants WHERE status = ? ORDER BY id",
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendants: %w", err)
	}
	defer rows.Close()

	var attendants []station.Attendant
	for rows.Next() {
		var (
			a     station.Attendant
			phone sql.NullString
			email sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &phone, &email, &a.Status); err != nil {
			return nil, fmt.Errorf("failed to scan attendant: %w", err)
		}
		a.Phone = phone.String
		a.Email = email.String
		attendants = append(attendants, a)
	}
	return attendants, rows.Err()
}

// =============================================================================
// ALERTS
// =============================================================================

// CreateAlert persists the alert and fills in its assigned id.
func (s *Store) CreateAlert(ctx context.Context, alert *station.LossAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := alert.Status
	if status == "" {
		status = station.AlertUnread
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO alerts (reservoir_id, alert_type, severity, message, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		string(alert.ReservoirID),
		string(alert.Type),
		string(alert.Severity),
		alert.Message,
		string(status),
		alert.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read alert id: %w", err)
	}
	alert.ID = station.AlertID(fmt.Sprintf("%d", id))
	alert.Status = status
	return nil
}

func (s *Store) UnreadAlerts(ctx context.Context) ([]station.LossAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, reservoir_id, alert_type, severity, message, status, created_at
		FROM alerts
		WHERE status = 'unread'
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []station.LossAlert
	for rows.Next() {
		var (
			a         station.LossAlert
			id        int64
			createdAt string
		)
		if err := rows.Scan(&id, &a.ReservoirID, &a.Type, &a.Severity, &a.Message, &a.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.ID = station.AlertID(fmt.Sprintf("%d", id))
		a.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse alert time: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead transitions an alert to read.
func (s *Store) MarkAlertRead(ctx context.Context, id station.AlertID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET status = 'read' WHERE id = ?",
		string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"alerts", "sales", "daily_levels", "attendants", "reservoirs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}
