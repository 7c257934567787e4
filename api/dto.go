/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBER FORMATTING:
  Quantities and money cross the wire as JSON numbers (float64). The
  domain computes in decimal; conversion happens only at this boundary.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - station/types.go: the domain model these mirror
*/
package api

import (
	"time"

	"github.com/warp/station-engine/station"
)

// =============================================================================
// RESERVOIR TYPES
// =============================================================================

// ReservoirDTO represents a reservoir in API responses.
type ReservoirDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FuelType       string  `json:"fuel_type"`
	MaxCapacity    float64 `json:"max_capacity"`
	AlertThreshold float64 `json:"alert_threshold"`
	CreatedAt      string  `json:"created_at"`
}

// CreateReservoirRequest is the request to register a reservoir.
type CreateReservoirRequest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FuelType       string  `json:"fuel_type"`
	MaxCapacity    float64 `json:"max_capacity"`
	AlertThreshold float64 `json:"alert_threshold"`
}

// =============================================================================
// LEVEL AND SALE TYPES
// =============================================================================

// RecordLevelRequest is the request to record a daily level.
type RecordLevelRequest struct {
	ReservoirID     string  `json:"reservoir_id"`
	Date            string  `json:"date"` // YYYY-MM-DD
	OpeningQuantity float64 `json:"opening_quantity"`
	InboundQuantity float64 `json:"inbound_quantity"`
}

// DailyLevelDTO represents a daily level record.
type DailyLevelDTO struct {
	ReservoirID     string  `json:"reservoir_id"`
	Date            string  `json:"date"`
	OpeningQuantity float64 `json:"opening_quantity"`
	InboundQuantity float64 `json:"inbound_quantity"`
	Total           float64 `json:"total"`
}

// RecordSaleRequest is the request to record a sale.
type RecordSaleRequest struct {
	ID          string  `json:"id"`
	ReservoirID string  `json:"reservoir_id"`
	AttendantID string  `json:"attendant_id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Period      string  `json:"period"`
	VolumeSold  float64 `json:"volume_sold"`
	Amount      float64 `json:"amount"`
	StartTime   string  `json:"start_time,omitempty"`
	EndTime     string  `json:"end_time,omitempty"`
}

// =============================================================================
// RECONCILIATION / REPORT TYPES
// =============================================================================

// ReservoirLossDTO is one reservoir's line in a daily report.
type ReservoirLossDTO struct {
	ReservoirID string  `json:"reservoir_id"`
	Name        string  `json:"name"`
	FuelType    string  `json:"fuel_type"`
	LossVolume  float64 `json:"loss_volume"`
	LossValue   float64 `json:"loss_value"`
	PctLoss     float64 `json:"pct_loss"`
	Measured    bool    `json:"measured"`
	ActualLevel float64 `json:"actual_level"`
	Status      string  `json:"status"`
}

// DailyReportDTO aggregates one date across all reservoirs.
type DailyReportDTO struct {
	Date            string             `json:"date"`
	Reservoirs      []ReservoirLossDTO `json:"reservoirs"`
	TotalLossVolume float64            `json:"total_loss_volume"`
	TotalLossValue  float64            `json:"total_loss_value"`
	Alerts          []AlertDTO         `json:"alerts,omitempty"`
	Failures        []FailureDTO       `json:"failures,omitempty"`
}

// DayTotalsDTO is one day's contribution to a period report.
type DayTotalsDTO struct {
	Date       string  `json:"date"`
	LossVolume float64 `json:"loss_volume"`
	LossValue  float64 `json:"loss_value"`
}

// PeriodReportDTO aggregates an inclusive date range.
type PeriodReportDTO struct {
	From            string         `json:"from"`
	To              string         `json:"to"`
	Days            []DayTotalsDTO `json:"days"`
	TotalLossVolume float64        `json:"total_loss_volume"`
	TotalLossValue  float64        `json:"total_loss_value"`
	Failures        []FailureDTO   `json:"failures,omitempty"`
}

// FailureDTO notes a unit that was skipped during aggregation.
type FailureDTO struct {
	ReservoirID string `json:"reservoir_id,omitempty"`
	Date        string `json:"date"`
	Error       string `json:"error"`
}

// FuelTypeSalesDTO is the week's sales for one fuel type.
type FuelTypeSalesDTO struct {
	FuelType string  `json:"fuel_type"`
	Volume   float64 `json:"volume"`
	Amount   float64 `json:"amount"`
}

// DaySalesDTO is one day's sales total across all reservoirs.
type DaySalesDTO struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// WeeklyReportDTO is the weekly summary response.
type WeeklyReportDTO struct {
	From             string             `json:"from"`
	To               string             `json:"to"`
	TransactionCount int                `json:"transaction_count"`
	TotalVolume      float64            `json:"total_volume"`
	TotalAmount      float64            `json:"total_amount"`
	ByFuelType       []FuelTypeSalesDTO `json:"by_fuel_type"`
	BestDay          *DaySalesDTO       `json:"best_day,omitempty"`
	LossVolume       float64            `json:"loss_volume"`
	LossValue        float64            `json:"loss_value"`
	Failures         []FailureDTO       `json:"failures,omitempty"`
}

// =============================================================================
// FORECAST TYPES
// =============================================================================

// ProjectionDTO is one future day's expected level.
type ProjectionDTO struct {
	Date           string  `json:"date"`
	ProjectedLevel float64 `json:"projected_level"`
	PctOfCapacity  float64 `json:"pct_of_capacity"`
}

// ForecastDTO is the full projection response for one reservoir.
type ForecastDTO struct {
	ReservoirID    string          `json:"reservoir_id"`
	ReservoirName  string          `json:"reservoir_name"`
	CurrentLevel   float64         `json:"current_level"`
	Capacity       float64         `json:"capacity"`
	MeanDailySold  float64         `json:"mean_daily_sold"`
	DaysRemaining  int             `json:"days_remaining"`
	Unlimited      bool            `json:"unlimited"`
	DepletionDate  *string         `json:"depletion_date,omitempty"`
	Projections    []ProjectionDTO `json:"projections"`
	Recommendation string          `json:"recommendation"`
}

// =============================================================================
// PERFORMANCE TYPES
// =============================================================================

// AttendantPerformanceDTO is one attendant's monthly ranking entry.
type AttendantPerformanceDTO struct {
	AttendantID string  `json:"attendant_id"`
	Name        string  `json:"name"`
	SaleCount   int     `json:"sale_count"`
	TotalVolume float64 `json:"total_volume"`
	TotalAmount float64 `json:"total_amount"`
	AvgAmount   float64 `json:"avg_amount"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	Badge       string  `json:"badge"`
}

// =============================================================================
// ALERT TYPES
// =============================================================================

// AlertDTO represents an alert in API responses.
type AlertDTO struct {
	ID          string `json:"id"`
	ReservoirID string `json:"reservoir_id"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// =============================================================================
// ERROR RESPONSE
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReservoirDTO(r station.Reservoir) ReservoirDTO {
	return ReservoirDTO{
		ID:             string(r.ID),
		Name:           r.Name,
		FuelType:       string(r.FuelType),
		MaxCapacity:    r.MaxCapacity.InexactFloat64(),
		AlertThreshold: r.AlertThreshold.InexactFloat64(),
		CreatedAt:      r.CreatedAt.String(),
	}
}

func toDailyLevelDTO(rec station.DailyLevelRecord) DailyLevelDTO {
	return DailyLevelDTO{
		ReservoirID:     string(rec.ReservoirID),
		Date:            rec.Date.String(),
		OpeningQuantity: rec.OpeningQuantity.InexactFloat64(),
		InboundQuantity: rec.InboundQuantity.InexactFloat64(),
		Total:           rec.Total().InexactFloat64(),
	}
}

func toAlertDTO(a station.LossAlert) AlertDTO {
	return AlertDTO{
		ID:          string(a.ID),
		ReservoirID: string(a.ReservoirID),
		Type:        string(a.Type),
		Severity:    string(a.Severity),
		Message:     a.Message,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFailureDTOs(failures []station.ReportFailure) []FailureDTO {
	if len(failures) == 0 {
		return nil
	}
	dtos := make([]FailureDTO, len(failures))
	for i, f := range failures {
		dtos[i] = FailureDTO{
			ReservoirID: string(f.ReservoirID),
			Date:        f.Date.String(),
			Error:       f.Err.Error(),
		}
	}
	return dtos
}

func toDailyReportDTO(report *station.DailyLossReport) DailyReportDTO {
	dto := DailyReportDTO{
		Date:            report.Date.String(),
		Reservoirs:      []ReservoirLossDTO{},
		TotalLossVolume: report.TotalLossVolume.InexactFloat64(),
		TotalLossValue:  report.TotalLossValue.InexactFloat64(),
		Failures:        toFailureDTOs(report.Failures),
	}
	for _, r := range report.Reservoirs {
		dto.Reservoirs = append(dto.Reservoirs, ReservoirLossDTO{
			ReservoirID: string(r.ReservoirID),
			Name:        r.Name,
			FuelType:    string(r.FuelType),
			LossVolume:  r.LossVolume.InexactFloat64(),
			LossValue:   r.LossValue.InexactFloat64(),
			PctLoss:     r.PctLoss.InexactFloat64(),
			Measured:    r.Measured,
			ActualLevel: r.ActualLevel.InexactFloat64(),
			Status:      string(r.Status),
		})
	}
	for _, a := range report.Alerts {
		dto.Alerts = append(dto.Alerts, toAlertDTO(a))
	}
	return dto
}

func toPeriodReportDTO(report *station.PeriodLossReport) PeriodReportDTO {
	dto := PeriodReportDTO{
		From:            report.From.String(),
		To:              report.To.String(),
		Days:            []DayTotalsDTO{},
		TotalLossVolume: report.TotalLossVolume.InexactFloat64(),
		TotalLossValue:  report.TotalLossValue.InexactFloat64(),
		Failures:        toFailureDTOs(report.Failures),
	}
	for _, d := range report.Days {
		dto.Days = append(dto.Days, DayTotalsDTO{
			Date:       d.Date.String(),
			LossVolume: d.LossVolume.InexactFloat64(),
			LossValue:  d.LossValue.InexactFloat64(),
		})
	}
	return dto
}

func toWeeklyReportDTO(summary *station.WeeklySummary) WeeklyReportDTO {
	dto := WeeklyReportDTO{
		From:             summary.From.String(),
		To:               summary.To.String(),
		TransactionCount: summary.TransactionCount,
		TotalVolume:      summary.TotalVolume.InexactFloat64(),
		TotalAmount:      summary.TotalAmount.InexactFloat64(),
		ByFuelType:       []FuelTypeSalesDTO{},
		LossVolume:       summary.LossVolume.InexactFloat64(),
		LossValue:        summary.LossValue.InexactFloat64(),
		Failures:         toFailureDTOs(summary.Failures),
	}
	for _, f := range summary.ByFuelType {
		dto.ByFuelType = append(dto.ByFuelType, FuelTypeSalesDTO{
			FuelType: string(f.FuelType),
			Volume:   f.Volume.InexactFloat64(),
			Amount:   f.Amount.InexactFloat64(),
		})
	}
	if summary.BestDay != nil {
		dto.BestDay = &DaySalesDTO{
			Date:   summary.BestDay.Date.String(),
			Amount: summary.BestDay.Amount.InexactFloat64(),
		}
	}
	return dto
}

func toForecastDTO(f *station.Forecast) ForecastDTO {
	dto := ForecastDTO{
		ReservoirID:    string(f.ReservoirID),
		ReservoirName:  f.ReservoirName,
		CurrentLevel:   f.CurrentLevel.InexactFloat64(),
		Capacity:       f.Capacity.InexactFloat64(),
		MeanDailySold:  f.MeanDailySold.InexactFloat64(),
		DaysRemaining:  f.DaysRemaining,
		Unlimited:      f.Unlimited,
		Projections:    []ProjectionDTO{},
		Recommendation: string(f.Recommendation),
	}
	if f.DepletionDate != nil {
		s := f.DepletionDate.String()
		dto.DepletionDate = &s
	}
	for _, p := range f.Projections {
		dto.Projections = append(dto.Projections, ProjectionDTO{
			Date:           p.Date.String(),
			ProjectedLevel: p.ProjectedLevel.InexactFloat64(),
			PctOfCapacity:  p.PctOfCapacity.InexactFloat64(),
		})
	}
	return dto
}

func toPerformanceDTOs(ranked []station.AttendantPerformance) []AttendantPerformanceDTO {
	dtos := make([]AttendantPerformanceDTO, len(ranked))
	for i, p := range ranked {
		dtos[i] = AttendantPerformanceDTO{
			AttendantID: string(p.Attendant.ID),
			Name:        p.Attendant.Name,
			SaleCount:   p.SaleCount,
			TotalVolume: p.TotalVolume.InexactFloat64(),
			TotalAmount: p.TotalAmount.InexactFloat64(),
			AvgAmount:   p.AvgAmount.InexactFloat64(),
			Score:       p.Score.InexactFloat64(),
			Rank:        p.Rank,
			Badge:       string(p.Badge),
		}
	}
	return dtos
}
