package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Leganyst/healthcare-booking/internal/auth"
	"github.com/Leganyst/healthcare-booking/internal/calendar"
	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

// Рабочий интервал врача длиннее суток не принимаем.
const maxWorkingRange = 12 * time.Hour

// IdentityService реализует регистрацию, вход и управление профилем.
type IdentityService struct {
	users    repository.UserRepository
	secret   string
	tokenTTL time.Duration
	log      zerolog.Logger
}

func NewIdentityService(
	users repository.UserRepository,
	secret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log.With().Str("component", "identity").Logger(),
	}
}

type RegisterInput struct {
	FullName     string
	Email        string
	MobileNumber string
	Password     string
	Role         string

	AddressDivision string
	AddressDistrict string
	AddressThana    string

	// Поля врача.
	LicenseNumber   string
	ExperienceYears int
	ConsultationFee float64
	Specialization  string
	AvailableSlots  []string
}

// Register создаёт пользователя с захэшированным паролем.
// Слоты и гонорар сохраняются только для роли doctor.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	role := model.UserRole(in.Role)
	switch role {
	case model.UserRoleAdmin, model.UserRoleDoctor, model.UserRolePatient:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", scheduling.ErrValidation, in.Role)
	}

	if in.Email == "" || in.Password == "" || in.FullName == "" {
		return nil, fmt.Errorf("%w: full_name, email and password are required", scheduling.ErrValidation)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:              uuid.New(),
		FullName:        in.FullName,
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		MobileNumber:    in.MobileNumber,
		PasswordHash:    hash,
		Role:            role,
		AddressDivision: in.AddressDivision,
		AddressDistrict: in.AddressDistrict,
		AddressThana:    in.AddressThana,
	}

	if role == model.UserRoleDoctor {
		u.LicenseNumber = in.LicenseNumber
		u.ExperienceYears = in.ExperienceYears
		u.ConsultationFee = in.ConsultationFee
		u.Specialization = in.Specialization
		if err := u.SetSlotStrings(in.AvailableSlots); err != nil {
			return nil, fmt.Errorf("%w: bad slot list", scheduling.ErrValidation)
		}
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", scheduling.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", u.ID.String()).Str("role", string(role)).Msg("user registered")
	return u, nil
}

// Login проверяет пароль и выпускает токен с парой (userID, role).
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("%w: invalid email or password", scheduling.ErrForbidden)
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", nil, fmt.Errorf("%w: invalid email or password", scheduling.ErrForbidden)
	}

	token, err := auth.MakeToken(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("make token: %w", err)
	}
	return token, u, nil
}

// GetProfile возвращает пользователя по ID.
func (s *IdentityService) GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", scheduling.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

type ProfileUpdate struct {
	FullName        string
	MobileNumber    string
	AddressDivision string
	AddressDistrict string
	AddressThana    string
	ProfileImage    string
	Specialization  string
	ConsultationFee *float64
}

// UpdateProfile обновляет собственный профиль инициатора.
// Пустые поля не трогаются.
func (s *IdentityService) UpdateProfile(
	ctx context.Context,
	actor scheduling.Actor,
	upd ProfileUpdate,
) (*model.User, error) {
	u, err := s.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if upd.FullName != "" {
		u.FullName = upd.FullName
	}
	if upd.MobileNumber != "" {
		u.MobileNumber = upd.MobileNumber
	}
	if upd.AddressDivision != "" {
		u.AddressDivision = upd.AddressDivision
	}
	if upd.AddressDistrict != "" {
		u.AddressDistrict = upd.AddressDistrict
	}
	if upd.AddressThana != "" {
		u.AddressThana = upd.AddressThana
	}
	if upd.ProfileImage != "" {
		u.ProfileImage = upd.ProfileImage
	}
	if u.Role == model.UserRoleDoctor {
		if upd.Specialization != "" {
			u.Specialization = upd.Specialization
		}
		if upd.ConsultationFee != nil {
			u.ConsultationFee = *upd.ConsultationFee
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

type DoctorFilter struct {
	Specialization string
	Division       string
	Search         string
	Skip           int
	Limit          int
}

// ListDoctors — публичный список врачей с фильтрами и пагинацией.
func (s *IdentityService) ListDoctors(
	ctx context.Context,
	f DoctorFilter,
) (calendar.Page[model.User], error) {
	doctors, err := s.users.List(ctx, repository.UserFilter{
		Role:           model.UserRoleDoctor,
		Specialization: f.Specialization,
		Division:       f.Division,
		Search:         f.Search,
	})
	if err != nil {
		return calendar.Page[model.User]{}, fmt.Errorf("list doctors: %w", err)
	}
	return calendar.Paginate(doctors, f.Skip, f.Limit), nil
}

// ListUsers — список пользователей для админа.
func (s *IdentityService) ListUsers(
	ctx context.Context,
	actor scheduling.Actor,
	f repository.UserFilter,
	skip, limit int,
) (calendar.Page[model.User], error) {
	// Не-админ видит только врачей.
	if actor.Role != model.UserRoleAdmin {
		f.Role = model.UserRoleDoctor
	}
	users, err := s.users.List(ctx, f)
	if err != nil {
		return calendar.Page[model.User]{}, fmt.Errorf("list users: %w", err)
	}
	return calendar.Paginate(users, skip, limit), nil
}

type SetSlotsInput struct {
	// Явный список слотов в формате scheduling.SlotLayout.
	Slots []string
	// Либо рабочий интервал, который нарезается на часовые слоты.
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// SetDoctorSlots заменяет список слотов доступности врача.
// Интервал нормализуется и нарезается на часовые блоки с выравниванием
// по началу часа.
func (s *IdentityService) SetDoctorSlots(
	ctx context.Context,
	actor scheduling.Actor,
	in SetSlotsInput,
) (*model.User, error) {
	if actor.Role != model.UserRoleDoctor {
		return nil, fmt.Errorf("%w: only doctors manage availability slots", scheduling.ErrForbidden)
	}

	slots := append([]string(nil), in.Slots...)

	if in.RangeStart != nil && in.RangeEnd != nil {
		tr, err := calendar.NormalizeTimeRange(*in.RangeStart, *in.RangeEnd, time.UTC, maxWorkingRange)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", scheduling.ErrValidation, err)
		}
		hourly, err := calendar.SplitToTimeSlots(tr, time.Hour, 60)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", scheduling.ErrValidation, err)
		}
		slots = append(slots, calendar.SlotStarts(hourly, scheduling.SlotLayout)...)
	}

	u, err := s.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := u.SetSlotStrings(slots); err != nil {
		return nil, fmt.Errorf("%w: bad slot list", scheduling.ErrValidation)
	}
	if err := s.users.UpdateSlots(ctx, u.ID, u.AvailableSlots); err != nil {
		return nil, fmt.Errorf("update slots: %w", err)
	}

	s.log.Info().Str("doctor_id", u.ID.String()).Int("slots", len(slots)).Msg("doctor slots updated")
	return u, nil
}
