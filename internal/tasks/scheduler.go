package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/notify"
	"github.com/Leganyst/healthcare-booking/internal/repository"
)

// Config — расписание фоновых задач. Часы — по UTC.
type Config struct {
	ReminderHour int           // ежедневный скан напоминаний
	PurgeWeekday time.Weekday  // еженедельная чистка
	PurgeHour    int
	Retention    time.Duration // срок хранения отменённых записей
}

func DefaultConfig() Config {
	return Config{
		ReminderHour: 9,
		PurgeWeekday: time.Sunday,
		PurgeHour:    2,
		Retention:    30 * 24 * time.Hour,
	}
}

// Scheduler владеет фоновыми задачами: ежедневным сканом напоминаний
// и еженедельной чисткой старых отменённых записей. Жизненный цикл
// явный: Start при запуске сервиса, Stop при остановке. Никакого
// глобального состояния.
type Scheduler struct {
	appointments repository.AppointmentRepository
	sender       notify.Sender
	cfg          Config
	log          zerolog.Logger

	now  func() time.Time
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewScheduler(
	appointments repository.AppointmentRepository,
	sender notify.Sender,
	cfg Config,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		appointments: appointments,
		sender:       sender,
		cfg:          cfg,
		log:          log.With().Str("component", "tasks").Logger(),
		now:          time.Now,
		stop:         make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.loop("reminders", s.nextReminderRun, func(ctx context.Context) error {
		return s.RunReminderScan(ctx)
	})
	go s.loop("purge", s.nextPurgeRun, func(ctx context.Context) error {
		_, err := s.RunPurge(ctx)
		return err
	})
	s.log.Info().Msg("background scheduler started")
}

func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	s.log.Info().Msg("background scheduler stopped")
}

// loop спит до следующего запуска задачи; провал одного запуска
// не останавливает цикл — повтор на следующем тике.
func (s *Scheduler) loop(name string, next func(time.Time) time.Time, run func(context.Context) error) {
	defer s.wg.Done()
	for {
		wait := time.Until(next(s.now().UTC()))
		timer := time.NewTimer(wait)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := run(context.Background()); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		}
	}
}

// RunReminderScan выбирает активные записи с приёмом в окне [24ч, 48ч)
// и шлёт напоминания. Ошибки по отдельным записям логируются и
// пропускаются; дедупликации между запусками нет.
func (s *Scheduler) RunReminderScan(ctx context.Context) error {
	now := s.now().UTC()
	appts, err := s.appointments.ListInWindow(ctx, repository.WindowFilter{
		From:     now.Add(24 * time.Hour),
		To:       now.Add(48 * time.Hour),
		Statuses: model.ActiveStatuses,
	})
	if err != nil {
		return fmt.Errorf("reminder scan query: %w", err)
	}

	sent := 0
	for _, appt := range appts {
		if appt.Patient == nil || appt.Doctor == nil {
			s.log.Warn().
				Str("appointment_id", appt.ID.String()).
				Msg("skipping reminder: missing patient or doctor")
			continue
		}

		r := notify.Reminder{
			PatientName: appt.Patient.FullName,
			DoctorName:  appt.Doctor.FullName,
			Email:       appt.Patient.Email,
			Phone:       appt.Patient.MobileNumber,
			ScheduledAt: appt.ScheduledAt,
		}
		if err := s.sender.SendEmail(ctx, r); err != nil {
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("email reminder failed")
		}
		if err := s.sender.SendSMS(ctx, r); err != nil {
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("sms reminder failed")
		}
		sent++
	}

	s.log.Info().Int("appointments", len(appts)).Int("processed", sent).Msg("reminder scan finished")
	return nil
}

// RunPurge удаляет отменённые записи старше срока хранения.
func (s *Scheduler) RunPurge(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.Retention)
	deleted, err := s.appointments.PurgeCancelledBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cancelled appointments: %w", err)
	}
	s.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("purge finished")
	return deleted, nil
}

func (s *Scheduler) nextReminderRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.ReminderHour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) nextPurgeRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.PurgeHour, 0, 0, 0, time.UTC)
	for next.Weekday() != s.cfg.PurgeWeekday || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
