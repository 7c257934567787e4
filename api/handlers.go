/*
handlers.go - HTTP API handlers for the station engine

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reservoirs:
    GET    /api/reservoirs                 List all reservoirs
    POST   /api/reservoirs                 Register a reservoir
    GET    /api/reservoirs/{id}            Get reservoir details
    GET    /api/reservoirs/{id}/forecast   Depletion forecast

  Ledger:
    POST   /api/levels                     Record a daily level
    POST   /api/sales                      Record a sale

  Reports:
    GET    /api/reports/daily?date=        Daily loss report
    GET    /api/reports/period?from=&to=   Period loss report
    GET    /api/reports/weekly             Current-week summary

  Performance:
    GET    /api/performance?year=&month=   Monthly attendant ranking

  Alerts:
    GET    /api/alerts                     Unread alerts
    POST   /api/alerts/{id}/read           Mark an alert read
    POST   /api/alerts/check               Run the threshold watcher

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: database access (interface, so tests can inject memory)
  - Engine/Aggregator/Forecaster/Scorer/Watcher: domain logic
  - Clock: injected time source

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 422: Insufficient history for forecasting
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/station-engine/station"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is station.Store plus the administrative write paths the API
// needs. Both store/sqlite and station/store satisfy it.
type Store interface {
	station.Store

	AddReservoir(ctx context.Context, r station.Reservoir) error
	AddAttendant(ctx context.Context, a station.Attendant) error
	RecordSale(ctx context.Context, s station.SaleRecord) error
	MarkAlertRead(ctx context.Context, id station.AlertID) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Clock      station.Clock
	Resolver   *station.BalanceResolver
	Engine     *station.ReconciliationEngine
	Aggregator *station.Aggregator
	Forecaster *station.Forecaster
	Scorer     *station.PerformanceScorer
	Watcher    *station.ThresholdWatcher
}

// NewHandler creates a new handler with the given store and clock.
func NewHandler(store Store, clock station.Clock) *Handler {
	return &Handler{
		Store:      store,
		Clock:      clock,
		Resolver:   station.NewBalanceResolver(store),
		Engine:     station.NewReconciliationEngine(store, clock),
		Aggregator: station.NewAggregator(store, clock),
		Forecaster: station.NewForecaster(store, clock),
		Scorer:     station.NewPerformanceScorer(store),
		Watcher:    station.NewThresholdWatcher(store, clock),
	}
}

// =============================================================================
// RESERVOIR HANDLERS
// =============================================================================

// ListReservoirs returns all reservoirs.
// GET /api/reservoirs
func (h *Handler) ListReservoirs(w http.ResponseWriter, r *http.Request) {
	reservoirs, err := h.Store.ListReservoirs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reservoirs", err)
		return
	}

	dtos := make([]ReservoirDTO, len(reservoirs))
	for i, res := range reservoirs {
		dtos[i] = toReservoirDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateReservoir registers a new reservoir.
// POST /api/reservoirs
func (h *Handler) CreateReservoir(w http.ResponseWriter, r *http.Request) {
	var req CreateReservoirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	reservoir, err := station.NewReservoir(
		station.ReservoirID(req.ID),
		req.Name,
		station.FuelType(req.FuelType),
		decimal.NewFromFloat(req.MaxCapacity),
		decimal.NewFromFloat(req.AlertThreshold),
		h.Clock.Today(),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reservoir", err)
		return
	}

	if err := h.Store.AddReservoir(r.Context(), reservoir); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save reservoir", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservoirDTO(reservoir))
}

// GetReservoir returns a single reservoir with its current day record.
// GET /api/reservoirs/{id}
func (h *Handler) GetReservoir(w http.ResponseWriter, r *http.Request) {
	id := station.ReservoirID(chi.URLParam(r, "id"))

	reservoir, err := h.Store.GetReservoir(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reservoir", err)
		return
	}
	if reservoir == nil {
		writeError(w, http.StatusNotFound, "Reservoir not found", nil)
		return
	}

	// Materialize today's record so the response always carries a level.
	rec, err := h.Resolver.MaterializeDay(r.Context(), id, h.Clock.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve level", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ReservoirDTO
		Today DailyLevelDTO `json:"today"`
	}{toReservoirDTO(*reservoir), toDailyLevelDTO(rec)})
}

// GetForecast returns the depletion forecast for a reservoir.
// GET /api/reservoirs/{id}/forecast?days=
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id := station.ReservoirID(chi.URLParam(r, "id"))

	horizon := 0
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
			return
		}
		horizon = n
	}

	forecast, err := h.Forecaster.Forecast(r.Context(), id, horizon)
	if err != nil {
		switch {
		case errors.Is(err, station.ErrReservoirNotFound):
			writeError(w, http.StatusNotFound, "Reservoir not found", nil)
		case errors.Is(err, station.ErrInsufficientHistory):
			writeError(w, http.StatusUnprocessableEntity, "Insufficient sales history", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to forecast", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toForecastDTO(forecast))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// RecordLevel records (or corrects) a daily level.
// POST /api/levels
func (h *Handler) RecordLevel(w http.ResponseWriter, r *http.Request) {
	var req RecordLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := station.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	reservoir, err := h.Store.GetReservoir(r.Context(), station.ReservoirID(req.ReservoirID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reservoir", err)
		return
	}
	if reservoir == nil {
		writeError(w, http.StatusNotFound, "Reservoir not found", nil)
		return
	}

	rec, err := station.NewDailyLevelRecord(
		reservoir.ID,
		date,
		decimal.NewFromFloat(req.OpeningQuantity),
		decimal.NewFromFloat(req.InboundQuantity),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid level record", err)
		return
	}

	if err := h.Store.UpsertDailyLevel(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save level", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDailyLevelDTO(rec))
}

// RecordSale records a sale transaction.
// POST /api/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := station.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	reservoir, err := h.Store.GetReservoir(r.Context(), station.ReservoirID(req.ReservoirID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reservoir", err)
		return
	}
	if reservoir == nil {
		writeError(w, http.StatusNotFound, "Reservoir not found", nil)
		return
	}

	sale, err := station.NewSaleRecord(
		station.SaleID(req.ID),
		reservoir.ID,
		station.AttendantID(req.AttendantID),
		date,
		station.SalePeriod(req.Period),
		decimal.NewFromFloat(req.VolumeSold),
		decimal.NewFromFloat(req.Amount),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale", err)
		return
	}
	sale.StartTime = req.StartTime
	sale.EndTime = req.EndTime

	if err := h.Store.RecordSale(r.Context(), sale); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID, "status": "recorded"})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport returns the loss report for one date (today by default).
// GET /api/reports/daily?date=
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	date := h.Clock.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := station.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = d
	}

	report, err := h.Aggregator.DailyReport(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

// PeriodReport returns the loss report for an inclusive date range.
// GET /api/reports/period?from=&to=
func (h *Handler) PeriodReport(w http.ResponseWriter, r *http.Request) {
	from, err := station.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD", err)
		return
	}
	to, err := station.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD", err)
		return
	}

	report, err := h.Aggregator.PeriodReport(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, station.ErrInvalidPeriod) {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodReportDTO(report))
}

// WeeklyReport returns the current-week summary (Monday through Sunday).
// GET /api/reports/weekly
func (h *Handler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Aggregator.WeeklyReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeeklyReportDTO(summary))
}

// =============================================================================
// PERFORMANCE HANDLERS
// =============================================================================

// Performance returns the monthly attendant ranking (current month by
// default).
// GET /api/performance?year=&month=
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	today := h.Clock.Today()
	year := today.Year()
	month := today.Month()

	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year parameter", err)
			return
		}
		year = n
	}
	if s := r.URL.Query().Get("month"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month parameter", err)
			return
		}
		month = time.Month(n)
	}

	ranked, err := h.Scorer.RankAttendants(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rank attendants", err)
		return
	}
	writeJSON(w, http.StatusOK, toPerformanceDTOs(ranked))
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlerts returns unread alerts, newest first.
// GET /api/alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.UnreadAlerts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkAlertRead transitions an alert to read.
// POST /api/alerts/{id}/read
func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id := station.AlertID(chi.URLParam(r, "id"))

	if err := h.Store.MarkAlertRead(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "Alert not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(id), "status": "read"})
}

// CheckThresholds runs the low-level watcher and returns any alerts it
// created.
// POST /api/alerts/check
func (h *Handler) CheckThresholds(w http.ResponseWriter, r *http.Request) {
	created, err := h.Watcher.CheckThresholds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check thresholds", err)
		return
	}

	dtos := make([]AlertDTO, len(created))
	for i, a := range created {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
