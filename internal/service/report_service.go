package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

// ReportService формирует помесячные отчёты по врачам.
// Отчёты только добавляются; ядро записи их не трогает.
type ReportService struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	reports      repository.ReportRepository
	log          zerolog.Logger
}

func NewReportService(
	users repository.UserRepository,
	appointments repository.AppointmentRepository,
	reports repository.ReportRepository,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		users:        users,
		appointments: appointments,
		reports:      reports,
		log:          log.With().Str("component", "reports").Logger(),
	}
}

// GenerateMonthly строит отчёт за (year, month) по каждому врачу:
// завершённые приёмы, уникальные пациенты, заработок = приёмы × гонорар.
func (s *ReportService) GenerateMonthly(
	ctx context.Context,
	actor scheduling.Actor,
	year, month int,
) ([]model.Report, error) {
	if actor.Role != model.UserRoleAdmin {
		return nil, fmt.Errorf("%w: only admins generate reports", scheduling.ErrForbidden)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", scheduling.ErrValidation)
	}
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year must be between 1900 and 9999", scheduling.ErrValidation)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	doctors, err := s.users.ListByRole(ctx, model.UserRoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	reports := make([]model.Report, 0, len(doctors))
	for _, doctor := range doctors {
		appointments, patients, err := s.appointments.CompletedStats(ctx, doctor.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("stats for doctor %s: %w", doctor.ID, err)
		}

		report := model.Report{
			ID:                uuid.New(),
			DoctorID:          doctor.ID,
			Month:             fmt.Sprintf("%04d-%02d", year, month),
			TotalPatients:     patients,
			TotalAppointments: appointments,
			TotalEarnings:     float64(appointments) * doctor.ConsultationFee,
		}
		if err := s.reports.Create(ctx, &report); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
		reports = append(reports, report)
	}

	s.log.Info().Int("doctors", len(reports)).Str("month", fmt.Sprintf("%04d-%02d", year, month)).
		Msg("monthly reports generated")
	return reports, nil
}

// ListReports — отчёты за месяц (админ — любые, врач — только свои).
func (s *ReportService) ListReports(
	ctx context.Context,
	actor scheduling.Actor,
	month string,
) ([]model.Report, error) {
	var doctorID *uuid.UUID
	switch actor.Role {
	case model.UserRoleAdmin:
	case model.UserRoleDoctor:
		id := actor.ID
		doctorID = &id
	default:
		return nil, fmt.Errorf("%w: reports are not available for role %s", scheduling.ErrForbidden, actor.Role)
	}

	reports, err := s.reports.List(ctx, doctorID, month)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}
