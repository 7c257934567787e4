// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/station-engine/station"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	reservoirs  map[station.ReservoirID]station.Reservoir
	levels      map[levelKey]station.DailyLevelRecord
	sales       []station.SaleRecord
	attendants  map[station.AttendantID]station.Attendant
	alerts      []station.LossAlert
	nextAlertID int
}

type levelKey struct {
	ReservoirID station.ReservoirID
	Date        string
}

func NewMemory() *Memory {
	return &Memory{
		reservoirs: make(map[station.ReservoirID]station.Reservoir),
		levels:     make(map[levelKey]station.DailyLevelRecord),
		attendants: make(map[station.AttendantID]station.Attendant),
	}
}

var _ station.Store = (*Memory)(nil)

// =============================================================================
// WRITE HELPERS (admin paths used by tests and the API)
// =============================================================================

func (m *Memory) AddReservoir(_ context.Context, r station.Reservoir) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservoirs[r.ID] = r
	return nil
}

func (m *Memory) AddAttendant(_ context.Context, a station.Attendant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Status == "" {
		a.Status = station.StatusActive
	}
	m.attendants[a.ID] = a
	return nil
}

// RecordSale appends a sale. Append-only: no update path exists.
func (m *Memory) RecordSale(_ context.Context, s station.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, s)
	return nil
}

func (m *Memory) MarkAlertRead(_ context.Context, id station.AlertID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Status = station.AlertRead
			return nil
		}
	}
	return fmt.Errorf("alert %s not found", id)
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

func (m *Memory) ListReservoirs(_ context.Context) ([]station.Reservoir, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]station.Reservoir, 0, len(m.reservoirs))
	for _, r := range m.reservoirs {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetReservoir(_ context.Context, id station.ReservoirID) (*station.Reservoir, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reservoirs[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) GetDailyLevel(_ context.Context, id station.ReservoirID, date station.Date) (*station.DailyLevelRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.levels[levelKey{ReservoirID: id, Date: date.String()}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) UpsertDailyLevel(_ context.Context, rec station.DailyLevelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.levels[levelKey{ReservoirID: rec.ReservoirID, Date: rec.Date.String()}] = rec
	return nil
}

func (m *Memory) SalesByReservoirDate(_ context.Context, id station.ReservoirID, date station.Date) ([]station.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []station.SaleRecord
	for _, s := range m.sales {
		if s.ReservoirID == id && s.Date.Equal(date) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) SalesInRange(_ context.Context, from, to station.Date) ([]station.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []station.SaleRecord
	for _, s := range m.sales {
		if s.Date.AfterOrEqual(from) && s.Date.BeforeOrEqual(to) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) DailySalesTotals(_ context.Context, id station.ReservoirID, from, to station.Date) ([]station.DailySalesTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDate := make(map[string]*station.DailySalesTotal)
	for _, s := range m.sales {
		if s.ReservoirID != id || s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		key := s.Date.String()
		entry, ok := byDate[key]
		if !ok {
			entry = &station.DailySalesTotal{Date: s.Date, Volume: decimal.Zero, Amount: decimal.Zero}
			byDate[key] = entry
		}
		entry.Volume = entry.Volume.Add(s.VolumeSold)
		entry.Amount = entry.Amount.Add(s.Amount)
	}

	result := make([]station.DailySalesTotal, 0, len(byDate))
	for _, entry := range byDate {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) SalesByAttendantMonth(_ context.Context, id station.AttendantID, year int, month time.Month) ([]station.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start, end := station.MonthBounds(year, month)
	var result []station.SaleRecord
	for _, s := range m.sales {
		if s.AttendantID == id && s.Date.AfterOrEqual(start) && s.Date.Before(end) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) ListAttendants(_ context.Context, status station.AttendantStatus) ([]station.Attendant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []station.Attendant
	for _, a := range m.attendants {
		if a.Status == status {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) CreateAlert(_ context.Context, alert *station.LossAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAlertID++
	alert.ID = station.AlertID(fmt.Sprintf("%d", m.nextAlertID))
	if alert.Status == "" {
		alert.Status = station.AlertUnread
	}
	m.alerts = append(m.alerts, *alert)
	return nil
}

func (m *Memory) UnreadAlerts(_ context.Context) ([]station.LossAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []station.LossAlert
	for _, a := range m.alerts {
		if a.Status == station.AlertUnread {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}
