package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

type appointmentResponse struct {
	ID          string        `json:"id"`
	PatientID   string        `json:"patient_id"`
	DoctorID    string        `json:"doctor_id"`
	ScheduledAt time.Time     `json:"appointment_datetime"`
	Notes       string        `json:"notes,omitempty"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	Patient     *userResponse `json:"patient,omitempty"`
	Doctor      *userResponse `json:"doctor,omitempty"`
}

func toAppointmentResponse(a *model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:          a.ID.String(),
		PatientID:   a.PatientID.String(),
		DoctorID:    a.DoctorID.String(),
		ScheduledAt: a.ScheduledAt,
		Notes:       a.Notes,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
	}
	if a.Patient != nil {
		p := toUserResponse(a.Patient)
		resp.Patient = &p
	}
	if a.Doctor != nil {
		d := toUserResponse(a.Doctor)
		resp.Doctor = &d
	}
	return resp
}

type createAppointmentRequest struct {
	DoctorID    string `json:"doctor_id"`
	ScheduledAt string `json:"appointment_datetime"`
	Notes       string `json:"notes"`
}

func (s *Server) CreateAppointment(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	at, err := parseInstant(req.ScheduledAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment_datetime")
	}

	appt, err := s.booking.CreateAppointment(c.Request().Context(), actorFrom(c), doctorID, at, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toAppointmentResponse(appt))
}

func (s *Server) ListAppointments(c echo.Context) error {
	f := repository.AppointmentFilter{
		Skip:  intQuery(c, "skip", 0),
		Limit: intQuery(c, "limit", 10),
	}

	if v := c.QueryParam("status"); v != "" {
		st, err := scheduling.ParseStatus(v)
		if err != nil {
			return httpError(err)
		}
		f.Status = &st
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_from")
		}
		f.DateFrom = &t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_to")
		}
		// включительно по дате: граница — начало следующего дня
		end := t.Add(24 * time.Hour)
		f.DateTo = &end
	}

	appts, total, err := s.booking.ListAppointments(c.Request().Context(), actorFrom(c), f)
	if err != nil {
		return httpError(err)
	}

	items := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		items = append(items, toAppointmentResponse(&appts[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"appointments": items,
		"total":        total,
		"skip":         f.Skip,
		"limit":        f.Limit,
	})
}

func (s *Server) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	appt, err := s.booking.GetByID(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(appt))
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateAppointmentStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := s.booking.UpdateStatus(c.Request().Context(), actorFrom(c), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(appt))
}

func (s *Server) UpcomingAppointments(c echo.Context) error {
	appts, err := s.booking.UpcomingForUser(c.Request().Context(), actorFrom(c))
	if err != nil {
		return httpError(err)
	}

	items := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		items = append(items, toAppointmentResponse(&appts[i]))
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) AppointmentStats(c echo.Context) error {
	stats, err := s.booking.Stats(c.Request().Context(), actorFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// parseInstant принимает RFC3339 либо "2006-01-02 15:04:05" (UTC).
func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(scheduling.SlotLayout, raw, time.UTC)
}

// parseDate принимает дату "2006-01-02" либо полный момент.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return t, nil
	}
	return parseInstant(raw)
}

func intQuery(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
