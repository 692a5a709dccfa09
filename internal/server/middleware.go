package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/healthcare-booking/internal/auth"
	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

const actorKey = "actor"

// requireAuth разбирает Bearer-токен и кладёт пару (userID, role)
// в контекст запроса. Дальше ядро доверяет этой паре.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := auth.ParseToken(raw, s.secret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
		}

		c.Set(actorKey, scheduling.Actor{
			ID:   userID,
			Role: model.UserRole(claims.Role),
		})
		return next(c)
	}
}

func actorFrom(c echo.Context) scheduling.Actor {
	actor, _ := c.Get(actorKey).(scheduling.Actor)
	return actor
}
