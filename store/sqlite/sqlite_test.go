package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/station-engine/station"
	"github.com/warp/station-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustDate(t *testing.T, s string) station.Date {
	d, err := station.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testReservoir(id string) station.Reservoir {
	return station.Reservoir{
		ID:             station.ReservoirID(id),
		Name:           "Tank " + id,
		FuelType:       station.FuelRegular,
		MaxCapacity:    decimal.NewFromInt(10000),
		AlertThreshold: decimal.NewFromInt(20),
		CreatedAt:      station.NewDate(2025, time.January, 1),
	}
}

func testSale(id, reservoirID, attendantID, date string, volume, amount int64) station.SaleRecord {
	d, _ := station.ParseDate(date)
	return station.SaleRecord{
		ID:          station.SaleID(id),
		ReservoirID: station.ReservoirID(reservoirID),
		AttendantID: station.AttendantID(attendantID),
		Date:        d,
		Period:      station.PeriodMorning,
		VolumeSold:  decimal.NewFromInt(volume),
		Amount:      decimal.NewFromInt(amount),
	}
}

// =============================================================================
// RESERVOIR PERSISTENCE
// =============================================================================

func TestSQLite_ReservoirRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := testReservoir("r1")
	require.NoError(t, store.AddReservoir(ctx, r))

	got, err := store.GetReservoir(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, r.FuelType, got.FuelType)
	assert.True(t, got.MaxCapacity.Equal(r.MaxCapacity), "capacity mismatch: %v", got.MaxCapacity)
	assert.True(t, got.AlertThreshold.Equal(r.AlertThreshold))
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt))
}

func TestSQLite_GetReservoir_AbsentIsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetReservoir(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListReservoirs_Ordered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddReservoir(ctx, testReservoir("r2")))
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	list, err := store.ListReservoirs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, station.ReservoirID("r1"), list[0].ID)
	assert.Equal(t, station.ReservoirID("r2"), list[1].ID)
}

// =============================================================================
// DAILY LEVEL UPSERT
// =============================================================================

func TestSQLite_DailyLevel_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	date := mustDate(t, "2025-03-10")
	rec := station.DailyLevelRecord{
		ReservoirID:     "r1",
		Date:            date,
		OpeningQuantity: decimal.NewFromInt(5000),
		InboundQuantity: decimal.Zero,
	}
	require.NoError(t, store.UpsertDailyLevel(ctx, rec))

	// Correcting the same day must update in place, not duplicate.
	rec.OpeningQuantity = decimal.NewFromInt(5200)
	rec.InboundQuantity = decimal.NewFromInt(1000)
	require.NoError(t, store.UpsertDailyLevel(ctx, rec))

	got, err := store.GetDailyLevel(ctx, "r1", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.OpeningQuantity.Equal(decimal.NewFromInt(5200)))
	assert.True(t, got.InboundQuantity.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.Total().Equal(decimal.NewFromInt(6200)))
}

func TestSQLite_DailyLevel_AbsentIsNilNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	got, err := store.GetDailyLevel(ctx, "r1", mustDate(t, "2025-03-10"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// SALES QUERIES
// =============================================================================

func TestSQLite_SalesByReservoirDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r2")))

	require.NoError(t, store.RecordSale(ctx, testSale("s1", "r1", "a1", "2025-03-10", 100, 50000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s2", "r1", "a1", "2025-03-11", 200, 100000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s3", "r2", "a1", "2025-03-10", 300, 150000)))

	sales, err := store.SalesByReservoirDate(ctx, "r1", mustDate(t, "2025-03-10"))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, station.SaleID("s1"), sales[0].ID)
	assert.True(t, sales[0].VolumeSold.Equal(decimal.NewFromInt(100)))
}

func TestSQLite_DailySalesTotals_GroupsAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	require.NoError(t, store.RecordSale(ctx, testSale("s1", "r1", "a1", "2025-03-11", 50, 25000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s2", "r1", "a1", "2025-03-10", 100, 50000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s3", "r1", "a2", "2025-03-10", 150, 75000)))

	totals, err := store.DailySalesTotals(ctx, "r1", mustDate(t, "2025-03-01"), mustDate(t, "2025-03-31"))
	require.NoError(t, err)
	require.Len(t, totals, 2, "days without sales must be omitted")

	assert.True(t, totals[0].Date.Equal(mustDate(t, "2025-03-10")))
	assert.True(t, totals[0].Volume.Equal(decimal.NewFromInt(250)))
	assert.True(t, totals[0].Amount.Equal(decimal.NewFromInt(125000)))
	assert.True(t, totals[1].Date.Equal(mustDate(t, "2025-03-11")))
	assert.True(t, totals[1].Volume.Equal(decimal.NewFromInt(50)))
}

func TestSQLite_SalesInRange_Inclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	require.NoError(t, store.RecordSale(ctx, testSale("s1", "r1", "a1", "2025-03-09", 10, 5000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s2", "r1", "a1", "2025-03-10", 20, 10000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s3", "r1", "a1", "2025-03-12", 30, 15000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s4", "r1", "a1", "2025-03-13", 40, 20000)))

	sales, err := store.SalesInRange(ctx, mustDate(t, "2025-03-10"), mustDate(t, "2025-03-12"))
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, station.SaleID("s2"), sales[0].ID)
	assert.Equal(t, station.SaleID("s3"), sales[1].ID)
}

func TestSQLite_SalesByAttendantMonth_HalfOpenBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	require.NoError(t, store.RecordSale(ctx, testSale("s1", "r1", "a1", "2025-03-01", 10, 5000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s2", "r1", "a1", "2025-03-31", 20, 10000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s3", "r1", "a1", "2025-04-01", 30, 15000)))
	require.NoError(t, store.RecordSale(ctx, testSale("s4", "r1", "a2", "2025-03-15", 40, 20000)))

	sales, err := store.SalesByAttendantMonth(ctx, "a1", 2025, time.March)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, station.SaleID("s1"), sales[0].ID)
	assert.Equal(t, station.SaleID("s2"), sales[1].ID)
}

// =============================================================================
// ATTENDANTS
// =============================================================================

func TestSQLite_ListAttendants_FiltersByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddAttendant(ctx, station.Attendant{ID: "a1", Name: "Ana", Status: station.StatusActive}))
	require.NoError(t, store.AddAttendant(ctx, station.Attendant{ID: "a2", Name: "Ben", Status: station.StatusInactive}))
	require.NoError(t, store.AddAttendant(ctx, station.Attendant{ID: "a3", Name: "Cy", Phone: "555-1234"}))

	active, err := store.ListAttendants(ctx, station.StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 2, "empty status defaults to active")
	assert.Equal(t, station.AttendantID("a1"), active[0].ID)
	assert.Equal(t, "555-1234", active[1].Phone)

	inactive, err := store.ListAttendants(ctx, station.StatusInactive)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, station.AttendantID("a2"), inactive[0].ID)
}

// =============================================================================
// ALERTS
// =============================================================================

func TestSQLite_Alerts_CreateAssignsID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	alert := &station.LossAlert{
		ReservoirID: "r1",
		Type:        station.AlertLossDetected,
		Severity:    station.SeverityHigh,
		Message:     "Loss of 100.00L (2.0%) on 2025-03-10 for Tank r1",
		CreatedAt:   time.Date(2025, time.March, 11, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateAlert(ctx, alert))

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, station.AlertUnread, alert.Status)
}

func TestSQLite_Alerts_UnreadLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddReservoir(ctx, testReservoir("r1")))

	var ids []station.AlertID
	for i := 0; i < 3; i++ {
		alert := &station.LossAlert{
			ReservoirID: "r1",
			Type:        station.AlertLowLevel,
			Severity:    station.SeverityMedium,
			Message:     fmt.Sprintf("alert %d", i),
			CreatedAt:   time.Date(2025, time.March, 11, 8+i, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.CreateAlert(ctx, alert))
		ids = append(ids, alert.ID)
	}

	unread, err := store.UnreadAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 3)
	assert.Equal(t, "alert 2", unread[0].Message, "newest first")

	require.NoError(t, store.MarkAlertRead(ctx, ids[2]))

	unread, err = store.UnreadAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	for _, a := range unread {
		assert.NotEqual(t, ids[2], a.ID)
	}
}

func TestSQLite_MarkAlertRead_UnknownID(t *testing.T) {
	store := newTestStore(t)
	err := store.MarkAlertRead(context.Background(), "999")
	assert.Error(t, err)
}
