package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/service"
)

type userResponse struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	MobileNumber    string   `json:"mobile_number"`
	Role            string   `json:"role"`
	AddressDivision string   `json:"address_division,omitempty"`
	AddressDistrict string   `json:"address_district,omitempty"`
	AddressThana    string   `json:"address_thana,omitempty"`
	ProfileImage    string   `json:"profile_image,omitempty"`
	LicenseNumber   string   `json:"license_number,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
	ConsultationFee float64  `json:"consultation_fee,omitempty"`
	Specialization  string   `json:"specialization,omitempty"`
	AvailableSlots  []string `json:"available_slots,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	resp := userResponse{
		ID:              u.ID.String(),
		FullName:        u.FullName,
		Email:           u.Email,
		MobileNumber:    u.MobileNumber,
		Role:            string(u.Role),
		AddressDivision: u.AddressDivision,
		AddressDistrict: u.AddressDistrict,
		AddressThana:    u.AddressThana,
		ProfileImage:    u.ProfileImage,
	}
	if u.Role == model.UserRoleDoctor {
		resp.LicenseNumber = u.LicenseNumber
		resp.ExperienceYears = u.ExperienceYears
		resp.ConsultationFee = u.ConsultationFee
		resp.Specialization = u.Specialization
		resp.AvailableSlots = u.SlotStrings()
	}
	return resp
}

type registerRequest struct {
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	MobileNumber    string   `json:"mobile_number"`
	Password        string   `json:"password"`
	Role            string   `json:"user_type"`
	AddressDivision string   `json:"address_division"`
	AddressDistrict string   `json:"address_district"`
	AddressThana    string   `json:"address_thana"`
	LicenseNumber   string   `json:"license_number"`
	ExperienceYears int      `json:"experience_years"`
	ConsultationFee float64  `json:"consultation_fee"`
	Specialization  string   `json:"specialization"`
	AvailableSlots  []string `json:"available_timeslots"`
}

func (s *Server) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := s.identity.Register(c.Request().Context(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		MobileNumber:    req.MobileNumber,
		Password:        req.Password,
		Role:            req.Role,
		AddressDivision: req.AddressDivision,
		AddressDistrict: req.AddressDistrict,
		AddressThana:    req.AddressThana,
		LicenseNumber:   req.LicenseNumber,
		ExperienceYears: req.ExperienceYears,
		ConsultationFee: req.ConsultationFee,
		Specialization:  req.Specialization,
		AvailableSlots:  req.AvailableSlots,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, u, err := s.identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// специально 401, а не 403: это аутентификация, а не авторизация
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user_type":    string(u.Role),
		"user_id":      u.ID.String(),
	})
}

func (s *Server) GetProfile(c echo.Context) error {
	u, err := s.identity.GetProfile(c.Request().Context(), actorFrom(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

type profileUpdateRequest struct {
	FullName        string   `json:"full_name"`
	MobileNumber    string   `json:"mobile_number"`
	AddressDivision string   `json:"address_division"`
	AddressDistrict string   `json:"address_district"`
	AddressThana    string   `json:"address_thana"`
	ProfileImage    string   `json:"profile_image"`
	Specialization  string   `json:"specialization"`
	ConsultationFee *float64 `json:"consultation_fee"`
}

func (s *Server) UpdateProfile(c echo.Context) error {
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := s.identity.UpdateProfile(c.Request().Context(), actorFrom(c), service.ProfileUpdate{
		FullName:        req.FullName,
		MobileNumber:    req.MobileNumber,
		AddressDivision: req.AddressDivision,
		AddressDistrict: req.AddressDistrict,
		AddressThana:    req.AddressThana,
		ProfileImage:    req.ProfileImage,
		Specialization:  req.Specialization,
		ConsultationFee: req.ConsultationFee,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

type setSlotsRequest struct {
	Slots      []string   `json:"slots"`
	RangeStart *time.Time `json:"range_start"`
	RangeEnd   *time.Time `json:"range_end"`
}

func (s *Server) SetDoctorSlots(c echo.Context) error {
	var req setSlotsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := s.identity.SetDoctorSlots(c.Request().Context(), actorFrom(c), service.SetSlotsInput{
		Slots:      req.Slots,
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) ListDoctors(c echo.Context) error {
	page, err := s.identity.ListDoctors(c.Request().Context(), service.DoctorFilter{
		Specialization: c.QueryParam("specialization"),
		Division:       c.QueryParam("division"),
		Search:         c.QueryParam("search"),
		Skip:           intQuery(c, "skip", 0),
		Limit:          intQuery(c, "limit", 10),
	})
	if err != nil {
		return httpError(err)
	}

	doctors := make([]userResponse, 0, len(page.Items))
	for i := range page.Items {
		doctors = append(doctors, toUserResponse(&page.Items[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"doctors": doctors,
		"total":   page.Total,
		"skip":    page.Skip,
		"limit":   page.Limit,
	})
}

func (s *Server) ListUsers(c echo.Context) error {
	page, err := s.identity.ListUsers(c.Request().Context(), actorFrom(c), repository.UserFilter{
		Role:           model.UserRole(c.QueryParam("user_type")),
		Specialization: c.QueryParam("specialization"),
		Division:       c.QueryParam("division"),
		Search:         c.QueryParam("search"),
	}, intQuery(c, "skip", 0), intQuery(c, "limit", 10))
	if err != nil {
		return httpError(err)
	}

	users := make([]userResponse, 0, len(page.Items))
	for i := range page.Items {
		users = append(users, toUserResponse(&page.Items[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"users": users,
		"total": page.Total,
		"skip":  page.Skip,
		"limit": page.Limit,
	})
}

func (s *Server) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	actor := actorFrom(c)
	if actor.Role != model.UserRoleAdmin && actor.ID != id {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized to view this user")
	}

	u, err := s.identity.GetProfile(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}
