package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Leganyst/healthcare-booking/internal/config"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
	"github.com/Leganyst/healthcare-booking/internal/service"
)

// Server — HTTP-слой поверх сервисов. Сам ничего не решает:
// разбирает запрос, зовёт сервис, маппит доменные ошибки в коды.
type Server struct {
	echo     *echo.Echo
	log      zerolog.Logger
	identity *service.IdentityService
	booking  *service.BookingService
	reports  *service.ReportService
	secret   string
}

func New(
	cfg *config.AppConfig,
	identity *service.IdentityService,
	booking *service.BookingService,
	reports *service.ReportService,
	log zerolog.Logger,
) *Server {
	s := &Server{
		echo:     echo.New(),
		log:      log.With().Str("component", "http").Logger(),
		identity: identity,
		booking:  booking,
		reports:  reports,
		secret:   cfg.JWTSecret,
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.Use(middleware.RateLimiter(
		middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit)),
	))
	s.echo.Use(s.requestLogger)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.Health)

	api := s.echo.Group("/api/v1")

	api.POST("/users/register", s.Register)
	api.POST("/users/login", s.Login)
	api.GET("/users/doctors", s.ListDoctors)

	authed := api.Group("", s.requireAuth)
	authed.GET("/users/me", s.GetProfile)
	authed.PUT("/users/me", s.UpdateProfile)
	authed.PUT("/users/me/slots", s.SetDoctorSlots)
	authed.GET("/users", s.ListUsers)
	authed.GET("/users/:id", s.GetUser)

	authed.POST("/appointments", s.CreateAppointment)
	authed.GET("/appointments", s.ListAppointments)
	authed.GET("/appointments/my/upcoming", s.UpcomingAppointments)
	authed.GET("/appointments/stats/summary", s.AppointmentStats)
	authed.GET("/appointments/:id", s.GetAppointment)
	authed.PUT("/appointments/:id/status", s.UpdateAppointmentStatus)

	authed.POST("/reports/generate/:year/:month", s.GenerateReports)
	authed.GET("/reports", s.ListReports)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "healthcare-booking",
	})
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		s.log.Info().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Msg("request")
		return err
	}
}

// httpError переводит доменные ошибки в HTTP-коды.
// Детали (например, список слотов врача) уходят в тело ответа.
func httpError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, scheduling.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, scheduling.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, scheduling.ErrValidation),
		errors.Is(err, scheduling.ErrUnavailable),
		errors.Is(err, scheduling.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
