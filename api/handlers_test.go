package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/station-engine/api"
	"github.com/warp/station-engine/station"
	"github.com/warp/station-engine/station/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T, today string) (*httptest.Server, *store.Memory) {
	t.Helper()
	date, err := station.ParseDate(today)
	require.NoError(t, err)

	st := store.NewMemory()
	handler := api.NewHandler(st, station.FixedClock{Date: date})
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func seedReservoir(t *testing.T, st *store.Memory, id string, fuel station.FuelType) {
	t.Helper()
	created, _ := station.ParseDate("2025-01-01")
	r, err := station.NewReservoir(
		station.ReservoirID(id), "Tank "+id, fuel,
		decimal.NewFromInt(10000), decimal.NewFromInt(20), created,
	)
	require.NoError(t, err)
	require.NoError(t, st.AddReservoir(context.Background(), r))
}

// =============================================================================
// RESERVOIR ENDPOINTS
// =============================================================================

func TestAPI_CreateAndListReservoirs(t *testing.T) {
	server, _ := newTestServer(t, "2025-06-10")

	resp := postJSON(t, server.URL+"/api/reservoirs", map[string]any{
		"id": "r1", "name": "North Tank", "fuel_type": "diesel",
		"max_capacity": 10000, "alert_threshold": 20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var list []map[string]any
	getResp := getJSON(t, server.URL+"/api/reservoirs", &list)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "North Tank", list[0]["name"])
	assert.Equal(t, "diesel", list[0]["fuel_type"])
}

func TestAPI_CreateReservoir_RejectsBadFuelType(t *testing.T) {
	server, _ := newTestServer(t, "2025-06-10")

	resp := postJSON(t, server.URL+"/api/reservoirs", map[string]any{
		"id": "r1", "name": "North Tank", "fuel_type": "plutonium",
		"max_capacity": 10000, "alert_threshold": 20,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetReservoir_NotFound(t *testing.T) {
	server, _ := newTestServer(t, "2025-06-10")

	resp := getJSON(t, server.URL+"/api/reservoirs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GetReservoir_MaterializesToday(t *testing.T) {
	server, st := newTestServer(t, "2025-06-10")
	seedReservoir(t, st, "r1", station.FuelRegular)

	var body struct {
		ID    string `json:"id"`
		Today struct {
			Date            string  `json:"date"`
			OpeningQuantity float64 `json:"opening_quantity"`
		} `json:"today"`
	}
	resp := getJSON(t, server.URL+"/api/reservoirs/r1", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "r1", body.ID)
	assert.Equal(t, "2025-06-10", body.Today.Date)
	assert.Equal(t, 0.0, body.Today.OpeningQuantity)
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

func TestAPI_RecordLevelAndSale(t *testing.T) {
	server, st := newTestServer(t, "2025-06-10")
	seedReservoir(t, st, "r1", station.FuelRegular)

	resp := postJSON(t, server.URL+"/api/levels", map[string]any{
		"reservoir_id": "r1", "date": "2025-06-10",
		"opening_quantity": 5000, "inbound_quantity": 1000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, server.URL+"/api/sales", map[string]any{
		"id": "s1", "reservoir_id": "r1", "attendant_id": "a1",
		"date": "2025-06-10", "period": "morning",
		"volume_sold": 200, "amount": 100000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	rec, err := st.GetDailyLevel(context.Background(), "r1", mustDay(t, "2025-06-10"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Total().Equal(decimal.NewFromInt(6000)))

	sales, err := st.SalesByReservoirDate(context.Background(), "r1", mustDay(t, "2025-06-10"))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].VolumeSold.Equal(decimal.NewFromInt(200)))
}

func TestAPI_RecordLevel_UnknownReservoir(t *testing.T) {
	server, _ := newTestServer(t, "2025-06-10")

	resp := postJSON(t, server.URL+"/api/levels", map[string]any{
		"reservoir_id": "ghost", "date": "2025-06-10", "opening_quantity": 5000,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_RecordSale_RejectsNonPositiveVolume(t *testing.T) {
	server, st := newTestServer(t, "2025-06-10")
	seedReservoir(t, st, "r1", station.FuelRegular)

	resp := postJSON(t, server.URL+"/api/sales", map[string]any{
		"id": "s1", "reservoir_id": "r1", "attendant_id": "a1",
		"date": "2025-06-10", "period": "morning",
		"volume_sold": 0, "amount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

func TestAPI_DailyReport(t *testing.T) {
	server, st := newTestServer(t, "2025-06-12")
	seedReservoir(t, st, "r1", station.FuelRegular)
	addLevelRecord(t, st, "r1", "2025-06-10", 10000, 0)
	addLevelRecord(t, st, "r1", "2025-06-11", 9900, 0)

	var report struct {
		Date            string  `json:"date"`
		TotalLossVolume float64 `json:"total_loss_volume"`
		Reservoirs      []struct {
			Status   string `json:"status"`
			Measured bool   `json:"measured"`
		} `json:"reservoirs"`
	}
	resp := getJSON(t, server.URL+"/api/reports/daily?date=2025-06-10", &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "2025-06-10", report.Date)
	assert.Equal(t, 100.0, report.TotalLossVolume)
	require.Len(t, report.Reservoirs, 1)
	assert.Equal(t, "good", report.Reservoirs[0].Status)
	assert.True(t, report.Reservoirs[0].Measured)
}

func TestAPI_PeriodReport_RejectsInvertedRange(t *testing.T) {
	server, _ := newTestServer(t, "2025-06-12")

	resp := getJSON(t, server.URL+"/api/reports/period?from=2025-06-11&to=2025-06-10", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_WeeklyReport(t *testing.T) {
	server, st := newTestServer(t, "2025-06-11") // Wednesday
	seedReservoir(t, st, "r1", station.FuelRegular)
	addSaleRecord(t, st, "s1", "r1", "a1", "2025-06-09", 100, 50000)
	addSaleRecord(t, st, "s2", "r1", "a1", "2025-06-10", 200, 100000)

	var report struct {
		From             string  `json:"from"`
		To               string  `json:"to"`
		TransactionCount int     `json:"transaction_count"`
		TotalAmount      float64 `json:"total_amount"`
		BestDay          *struct {
			Date string `json:"date"`
		} `json:"best_day"`
	}
	resp := getJSON(t, server.URL+"/api/reports/weekly", &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "2025-06-09", report.From)
	assert.Equal(t, "2025-06-15", report.To)
	assert.Equal(t, 2, report.TransactionCount)
	assert.Equal(t, 150000.0, report.TotalAmount)
	require.NotNil(t, report.BestDay)
	assert.Equal(t, "2025-06-10", report.BestDay.Date)
}

// =============================================================================
// FORECAST ENDPOINT
// =============================================================================

func TestAPI_Forecast(t *testing.T) {
	server, st := newTestServer(t, "2025-06-10")
	seedReservoir(t, st, "r1", station.FuelRegular)
	addLevelRecord(t, st, "r1", "2025-06-10", 250, 0)
	addSaleRecord(t, st, "s1", "r1", "a1", "2025-06-07", 100, 50000)
	addSaleRecord(t, st, "s2", "r1", "a1", "2025-06-08", 100, 50000)
	addSaleRecord(t, st, "s3", "r1", "a1", "2025-06-09", 100, 50000)

	var forecast struct {
		DaysRemaining  int     `json:"days_remaining"`
		MeanDailySold  float64 `json:"mean_daily_sold"`
		DepletionDate  *string `json:"depletion_date"`
		Recommendation string  `json:"recommendation"`
	}
	resp := getJSON(t, server.URL+"/api/reservoirs/r1/forecast?days=7", &forecast)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3, forecast.DaysRemaining)
	assert.Equal(t, 100.0, forecast.MeanDailySold)
	require.NotNil(t, forecast.DepletionDate)
	assert.Equal(t, "2025-06-13", *forecast.DepletionDate)
	assert.Equal(t, "order_this_week", forecast.Recommendation)
}

func TestAPI_Forecast_InsufficientHistory_422(t *testing.T) {
	server, st := newTestServer(t, "2025-06-10")
	seedReservoir(t, st, "r1", station.FuelRegular)
	addLevelRecord(t, st, "r1", "2025-06-10", 250, 0)

	resp := getJSON(t, server.URL+"/api/reservoirs/r1/forecast", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// =============================================================================
// PERFORMANCE AND ALERT ENDPOINTS
// =============================================================================

func TestAPI_Performance(t *testing.T) {
	server, st := newTestServer(t, "2025-03-20")
	seedReservoir(t, st, "r1", station.FuelRegular)
	ctx := context.Background()
	require.NoError(t, st.AddAttendant(ctx, station.Attendant{ID: "a1", Name: "Ana", Status: station.StatusActive}))
	require.NoError(t, st.AddAttendant(ctx, station.Attendant{ID: "a2", Name: "Ben", Status: station.StatusActive}))
	addSaleRecord(t, st, "s1", "r1", "a1", "2025-03-05", 100, 4000)
	addSaleRecord(t, st, "s2", "r1", "a2", "2025-03-05", 100, 9000)

	var ranked []struct {
		AttendantID string `json:"attendant_id"`
		Rank        int    `json:"rank"`
		Badge       string `json:"badge"`
	}
	resp := getJSON(t, server.URL+"/api/performance", &ranked)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, ranked, 2)
	assert.Equal(t, "a2", ranked[0].AttendantID)
	assert.Equal(t, "gold", ranked[0].Badge)
	assert.Equal(t, "a1", ranked[1].AttendantID)
	assert.Equal(t, "silver", ranked[1].Badge)
}

func TestAPI_AlertLifecycle(t *testing.T) {
	server, st := newTestServer(t, "2025-06-10")
	seedReservoir(t, st, "r1", station.FuelRegular)
	addLevelRecord(t, st, "r1", "2025-06-10", 1500, 0) // 15% of capacity

	// The watcher raises a low-level alert.
	resp := postJSON(t, server.URL+"/api/alerts/check", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	getResp := getJSON(t, server.URL+"/api/alerts", &alerts)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	require.Len(t, alerts, 1)
	assert.Equal(t, "low_level", alerts[0].Type)

	// Acknowledge it.
	ack := postJSON(t, fmt.Sprintf("%s/api/alerts/%s/read", server.URL, alerts[0].ID), nil)
	require.Equal(t, http.StatusOK, ack.StatusCode)

	var remaining []any
	getJSON(t, server.URL+"/api/alerts", &remaining)
	assert.Empty(t, remaining)
}

// =============================================================================
// FIXTURE HELPERS
// =============================================================================

func mustDay(t *testing.T, s string) station.Date {
	t.Helper()
	d, err := station.ParseDate(s)
	require.NoError(t, err)
	return d
}

func addLevelRecord(t *testing.T, st *store.Memory, id, date string, opening, inbound int64) {
	t.Helper()
	rec, err := station.NewDailyLevelRecord(
		station.ReservoirID(id), mustDay(t, date),
		decimal.NewFromInt(opening), decimal.NewFromInt(inbound),
	)
	require.NoError(t, err)
	require.NoError(t, st.UpsertDailyLevel(context.Background(), rec))
}

func addSaleRecord(t *testing.T, st *store.Memory, saleID, reservoirID, attendantID, date string, volume, amount int64) {
	t.Helper()
	s, err := station.NewSaleRecord(
		station.SaleID(saleID), station.ReservoirID(reservoirID), station.AttendantID(attendantID),
		mustDay(t, date), station.PeriodMorning,
		decimal.NewFromInt(volume), decimal.NewFromInt(amount),
	)
	require.NoError(t, err)
	require.NoError(t, st.RecordSale(context.Background(), s))
}
