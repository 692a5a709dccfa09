package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

type reportResponse struct {
	ID                string    `json:"id"`
	DoctorID          string    `json:"doctor_id"`
	Month             string    `json:"month"`
	TotalPatients     int64     `json:"total_patients"`
	TotalAppointments int64     `json:"total_appointments"`
	TotalEarnings     float64   `json:"total_earnings"`
	CreatedAt         time.Time `json:"created_at"`
}

func toReportResponse(r *model.Report) reportResponse {
	return reportResponse{
		ID:                r.ID.String(),
		DoctorID:          r.DoctorID.String(),
		Month:             r.Month,
		TotalPatients:     r.TotalPatients,
		TotalAppointments: r.TotalAppointments,
		TotalEarnings:     r.TotalEarnings,
		CreatedAt:         r.CreatedAt,
	}
}

func (s *Server) GenerateReports(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid month")
	}

	reports, err := s.reports.GenerateMonthly(c.Request().Context(), actorFrom(c), year, month)
	if err != nil {
		return httpError(err)
	}

	items := make([]reportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, toReportResponse(&reports[i]))
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) ListReports(c echo.Context) error {
	reports, err := s.reports.ListReports(c.Request().Context(), actorFrom(c), c.QueryParam("month"))
	if err != nil {
		return httpError(err)
	}

	items := make([]reportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, toReportResponse(&reports[i]))
	}
	return c.JSON(http.StatusOK, items)
}
