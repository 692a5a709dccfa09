package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

// BookingService — оркестратор записи на приём: валидация момента,
// проверка доступности, проверка конфликтов, жизненный цикл статусов.
type BookingService struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	rules        scheduling.BusinessRules
	log          zerolog.Logger

	// Сериализует проверку конфликта и вставку. На Postgres инвариант
	// дополнительно держит частичный уникальный индекс, но критическая
	// секция нужна для остальных диалектов и для честных тестов.
	mu sync.Mutex

	now func() time.Time
}

func NewBookingService(
	users repository.UserRepository,
	appointments repository.AppointmentRepository,
	rules scheduling.BusinessRules,
	log zerolog.Logger,
) *BookingService {
	return &BookingService{
		users:        users,
		appointments: appointments,
		rules:        rules,
		log:          log.With().Str("component", "booking").Logger(),
		now:          time.Now,
	}
}

// AppointmentStats — сводка по статусам для дашборда.
type AppointmentStats struct {
	Total     int64 `json:"total_appointments"`
	Pending   int64 `json:"pending_appointments"`
	Confirmed int64 `json:"confirmed_appointments"`
	Completed int64 `json:"completed_appointments"`
	Cancelled int64 `json:"cancelled_appointments"`
	Today     int64 `json:"todays_appointments"`
}

// CreateAppointment создаёт запись пациента к врачу на указанный момент.
// Последовательность проверок фиксирована: врач → момент → доступность →
// конфликт. Новая запись всегда в статусе pending.
func (s *BookingService) CreateAppointment(
	ctx context.Context,
	actor scheduling.Actor,
	doctorID uuid.UUID,
	at time.Time,
	notes string,
) (*model.Appointment, error) {
	if actor.Role != model.UserRolePatient {
		return nil, fmt.Errorf("%w: only patients can book appointments", scheduling.ErrForbidden)
	}

	doctor, err := s.users.GetByID(ctx, doctorID)
	if err != nil || doctor.Role != model.UserRoleDoctor {
		return nil, fmt.Errorf("%w: doctor %s", scheduling.ErrNotFound, doctorID)
	}

	at = at.UTC()
	if err := scheduling.ValidateInstant(s.now().UTC(), at, s.rules); err != nil {
		return nil, err
	}

	slots := doctor.SlotStrings()
	if !scheduling.IsAvailable(slots, at) {
		return nil, &scheduling.UnavailableError{Requested: at, Slots: slots}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	busy, err := s.appointments.HasActiveAt(ctx, doctorID, at)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if busy {
		return nil, scheduling.ErrConflict
	}

	appt := &model.Appointment{
		ID:          uuid.New(),
		PatientID:   actor.ID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Notes:       notes,
		Status:      model.AppointmentStatusPending,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, scheduling.ErrConflict
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", doctorID.String()).
		Time("scheduled_at", at).
		Msg("appointment created")

	// Идентичность для отображения подтягивается на чтении,
	// в записи хранятся только внешние ключи.
	created, err := s.appointments.GetByID(ctx, appt.ID)
	if err != nil {
		return appt, nil
	}
	return created, nil
}

// ListAppointments возвращает страницу записей, видимых инициатору:
// пациент и врач — только свои, админ — все.
func (s *BookingService) ListAppointments(
	ctx context.Context,
	actor scheduling.Actor,
	f repository.AppointmentFilter,
) ([]model.Appointment, int64, error) {
	scopeFilter(actor, &f.PatientID, &f.DoctorID)

	appts, total, err := s.appointments.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return appts, total, nil
}

// GetByID возвращает запись; пациент и врач видят только свои.
func (s *BookingService) GetByID(
	ctx context.Context,
	actor scheduling.Actor,
	id uuid.UUID,
) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment %s", scheduling.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	switch actor.Role {
	case model.UserRolePatient:
		if appt.PatientID != actor.ID {
			return nil, fmt.Errorf("%w: appointment belongs to another patient", scheduling.ErrForbidden)
		}
	case model.UserRoleDoctor:
		if appt.DoctorID != actor.ID {
			return nil, fmt.Errorf("%w: appointment belongs to another doctor", scheduling.ErrForbidden)
		}
	}

	return appt, nil
}

// UpdateStatus — точка входа в машину статусов (§ жизненный цикл).
func (s *BookingService) UpdateStatus(
	ctx context.Context,
	actor scheduling.Actor,
	id uuid.UUID,
	rawStatus string,
) (*model.Appointment, error) {
	target, err := scheduling.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment %s", scheduling.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	from := appt.Status
	if err := scheduling.Transition(actor, appt, target); err != nil {
		return nil, err
	}

	if err := s.appointments.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.log.Info().
		Str("appointment_id", id.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("actor_role", string(actor.Role)).
		Msg("appointment status changed")

	return appt, nil
}

// UpcomingForUser — записи инициатора в окне [24ч, 48ч) от текущего момента.
func (s *BookingService) UpcomingForUser(
	ctx context.Context,
	actor scheduling.Actor,
) ([]model.Appointment, error) {
	now := s.now().UTC()
	f := repository.WindowFilter{
		From:     now.Add(24 * time.Hour),
		To:       now.Add(48 * time.Hour),
		Statuses: model.ActiveStatuses,
	}
	scopeFilter(actor, &f.PatientID, &f.DoctorID)

	appts, err := s.appointments.ListInWindow(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	return appts, nil
}

// Stats — сводка по статусам в скоупе инициатора плюс счётчик на сегодня.
func (s *BookingService) Stats(
	ctx context.Context,
	actor scheduling.Actor,
) (*AppointmentStats, error) {
	var patientID, doctorID *uuid.UUID
	scopeFilter(actor, &patientID, &doctorID)

	counts, err := s.appointments.StatusCounts(ctx, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.appointments.CountInRange(ctx, patientID, doctorID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("today count: %w", err)
	}

	stats := &AppointmentStats{
		Pending:   counts[model.AppointmentStatusPending],
		Confirmed: counts[model.AppointmentStatusConfirmed],
		Completed: counts[model.AppointmentStatusCompleted],
		Cancelled: counts[model.AppointmentStatusCancelled],
		Today:     today,
	}
	stats.Total = stats.Pending + stats.Confirmed + stats.Completed + stats.Cancelled
	return stats, nil
}

// scopeFilter сужает выборку по роли инициатора.
func scopeFilter(actor scheduling.Actor, patientID, doctorID **uuid.UUID) {
	switch actor.Role {
	case model.UserRolePatient:
		id := actor.ID
		*patientID = &id
	case model.UserRoleDoctor:
		id := actor.ID
		*doctorID = &id
	}
}
