package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

// Понедельник 10:30 при слоте "10:00" — в пределах часового допуска.
var (
	slotMonday   = "2025-03-10 10:00:00"
	requestedAt  = time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	ctxBookingBg = context.Background()
)

func TestCreateAppointment_HappyPath(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday})
	patient := seedPatient(t, db, "Karim")

	appt, err := svc.CreateAppointment(ctxBookingBg, asActor(patient), doctor.ID, requestedAt, "first visit")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if appt.Status != model.AppointmentStatusPending {
		t.Fatalf("status = %s, want pending", appt.Status)
	}
	if !appt.ScheduledAt.UTC().Equal(requestedAt) {
		t.Fatalf("scheduled_at = %v, want %v", appt.ScheduledAt, requestedAt)
	}
	// Идентичность сторон подтягивается на чтении.
	if appt.Patient == nil || appt.Patient.FullName != "Karim" {
		t.Fatalf("patient not preloaded: %+v", appt.Patient)
	}
	if appt.Doctor == nil || appt.Doctor.ID != doctor.ID {
		t.Fatalf("doctor not preloaded: %+v", appt.Doctor)
	}
}

func TestCreateAppointment_OnlyPatientsBook(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday})

	_, err := svc.CreateAppointment(ctxBookingBg, asActor(doctor), doctor.ID, requestedAt, "")
	if !errors.Is(err, scheduling.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateAppointment_DoctorNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	patient := seedPatient(t, db, "Karim")
	other := seedPatient(t, db, "Salma")

	// Несуществующий ID.
	_, err := svc.CreateAppointment(ctxBookingBg, asActor(patient), uuid.New(), requestedAt, "")
	if !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}

	// Существующий пользователь, но не врач.
	_, err = svc.CreateAppointment(ctxBookingBg, asActor(patient), other.ID, requestedAt, "")
	if !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("non-doctor id: expected ErrNotFound, got %v", err)
	}
}

func TestCreateAppointment_RejectsInvalidInstant(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday, "2025-03-14 10:00:00", "2025-03-08 10:00:00"})
	patient := seedPatient(t, db, "Karim")

	cases := []struct {
		name string
		at   time.Time
	}{
		{"in the past", time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC)},
		{"closed weekday", time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)}, // пятница
		{"outside working hours", time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAppointment(ctxBookingBg, asActor(patient), doctor.ID, tc.at, "")
			if !errors.Is(err, scheduling.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateAppointment_Unavailable(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday})
	patient := seedPatient(t, db, "Karim")

	// 13:00 — дальше часа от единственного слота 10:00.
	_, err := svc.CreateAppointment(ctxBookingBg, asActor(patient), doctor.ID,
		time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC), "")
	if !errors.Is(err, scheduling.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	var unavailable *scheduling.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %T", err)
	}
	if len(unavailable.Slots) != 1 || unavailable.Slots[0] != slotMonday {
		t.Fatalf("error must carry doctor slots, got %v", unavailable.Slots)
	}
}

func TestCreateAppointment_ExactInstantConflict(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday})
	first := seedPatient(t, db, "Karim")
	second := seedPatient(t, db, "Salma")

	if _, err := svc.CreateAppointment(ctxBookingBg, asActor(first), doctor.ID, requestedAt, ""); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Тот же момент — конфликт.
	_, err := svc.CreateAppointment(ctxBookingBg, asActor(second), doctor.ID, requestedAt, "")
	if !errors.Is(err, scheduling.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Конфликт считается по точному моменту: минутой позже — свободно,
	// хоть оба момента и накрыты одним слотом.
	if _, err := svc.CreateAppointment(ctxBookingBg, asActor(second), doctor.ID,
		requestedAt.Add(time.Minute), ""); err != nil {
		t.Fatalf("adjacent instant must not conflict: %v", err)
	}
}

func TestCreateAppointment_CancelFreesInstant(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday})
	first := seedPatient(t, db, "Karim")
	second := seedPatient(t, db, "Salma")

	appt, err := svc.CreateAppointment(ctxBookingBg, asActor(first), doctor.ID, requestedAt, "")
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}

	if _, err := svc.UpdateStatus(ctxBookingBg, asActor(first), appt.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Отменённая запись не занимает момент.
	if _, err := svc.CreateAppointment(ctxBookingBg, asActor(second), doctor.ID, requestedAt, ""); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

// Параллельные попытки на один момент: ровно один победитель.
func TestCreateAppointment_ConcurrentSingleWinner(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, []string{slotMonday})

	const attempts = 8
	patients := make([]*model.User, attempts)
	for i := range patients {
		patients[i] = seedPatient(t, db, "Patient")
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateAppointment(ctxBookingBg, asActor(patients[i]), doctor.ID, requestedAt, "")
		}(i)
	}
	wg.Wait()

	won, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, scheduling.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || conflicts != attempts-1 {
		t.Fatalf("won=%d conflicts=%d, want 1/%d", won, conflicts, attempts-1)
	}

	var count int64
	if err := db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND status IN ?", doctor.ID, model.ActiveStatuses).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("active appointments = %d, want 1", count)
	}
}

func TestListAppointments_RoleScoping(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, nil)
	otherDoctor := seedDoctor(t, db, 300, nil)
	p1 := seedPatient(t, db, "Karim")
	p2 := seedPatient(t, db, "Salma")

	seedAppointment(t, db, p1.ID, doctor.ID, requestedAt, model.AppointmentStatusPending)
	seedAppointment(t, db, p2.ID, doctor.ID, requestedAt.Add(time.Hour), model.AppointmentStatusConfirmed)
	seedAppointment(t, db, p1.ID, otherDoctor.ID, requestedAt.Add(2*time.Hour), model.AppointmentStatusPending)

	// Пациент видит только свои.
	appts, total, err := svc.ListAppointments(ctxBookingBg, asActor(p1), repository.AppointmentFilter{})
	if err != nil {
		t.Fatalf("patient list: %v", err)
	}
	if total != 2 || len(appts) != 2 {
		t.Fatalf("patient scope: total=%d len=%d, want 2/2", total, len(appts))
	}
	for _, a := range appts {
		if a.PatientID != p1.ID {
			t.Fatalf("foreign appointment leaked to patient: %s", a.ID)
		}
	}

	// Врач видит только свои.
	_, total, err = svc.ListAppointments(ctxBookingBg, asActor(doctor), repository.AppointmentFilter{})
	if err != nil {
		t.Fatalf("doctor list: %v", err)
	}
	if total != 2 {
		t.Fatalf("doctor scope: total=%d, want 2", total)
	}

	// Админ видит всё, с фильтром по статусу.
	admin := scheduling.Actor{ID: uuid.New(), Role: model.UserRoleAdmin}
	status := model.AppointmentStatusPending
	appts, total, err = svc.ListAppointments(ctxBookingBg, admin, repository.AppointmentFilter{Status: &status})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if total != 2 || len(appts) != 2 {
		t.Fatalf("admin status filter: total=%d len=%d, want 2/2", total, len(appts))
	}

	// Пагинация: total полный, страница ограничена.
	appts, total, err = svc.ListAppointments(ctxBookingBg, admin, repository.AppointmentFilter{Limit: 2})
	if err != nil {
		t.Fatalf("admin paged list: %v", err)
	}
	if total != 3 || len(appts) != 2 {
		t.Fatalf("pagination: total=%d len=%d, want 3/2", total, len(appts))
	}
}

func TestGetByID_Authorization(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, nil)
	owner := seedPatient(t, db, "Karim")
	stranger := seedPatient(t, db, "Salma")

	appt := seedAppointment(t, db, owner.ID, doctor.ID, requestedAt, model.AppointmentStatusPending)

	if _, err := svc.GetByID(ctxBookingBg, asActor(owner), appt.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetByID(ctxBookingBg, asActor(doctor), appt.ID); err != nil {
		t.Fatalf("doctor read: %v", err)
	}

	if _, err := svc.GetByID(ctxBookingBg, asActor(stranger), appt.ID); !errors.Is(err, scheduling.ErrForbidden) {
		t.Fatalf("stranger read: expected ErrForbidden, got %v", err)
	}

	if _, err := svc.GetByID(ctxBookingBg, asActor(owner), uuid.New()); !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus_Flow(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, nil)
	patient := seedPatient(t, db, "Karim")
	appt := seedAppointment(t, db, patient.ID, doctor.ID, requestedAt, model.AppointmentStatusPending)

	// Неизвестный статус.
	if _, err := svc.UpdateStatus(ctxBookingBg, asActor(doctor), appt.ID, "rescheduled"); !errors.Is(err, scheduling.ErrValidation) {
		t.Fatalf("bad status: expected ErrValidation, got %v", err)
	}

	// Несуществующая запись.
	if _, err := svc.UpdateStatus(ctxBookingBg, asActor(doctor), uuid.New(), "confirmed"); !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}

	// Врач подтверждает; изменение должно сохраниться.
	updated, err := svc.UpdateStatus(ctxBookingBg, asActor(doctor), appt.ID, "confirmed")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != model.AppointmentStatusConfirmed {
		t.Fatalf("returned status = %s, want confirmed", updated.Status)
	}
	var stored model.Appointment
	if err := db.First(&stored, "id = ?", appt.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Status != model.AppointmentStatusConfirmed {
		t.Fatalf("stored status = %s, want confirmed", stored.Status)
	}

	// Пациент не может отменить подтверждённую запись.
	if _, err := svc.UpdateStatus(ctxBookingBg, asActor(patient), appt.ID, "cancelled"); !errors.Is(err, scheduling.ErrForbidden) {
		t.Fatalf("patient cancel confirmed: expected ErrForbidden, got %v", err)
	}

	// confirmed -> completed -> дальше переходов нет.
	if _, err := svc.UpdateStatus(ctxBookingBg, asActor(doctor), appt.ID, "completed"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	admin := scheduling.Actor{ID: uuid.New(), Role: model.UserRoleAdmin}
	if _, err := svc.UpdateStatus(ctxBookingBg, admin, appt.ID, "confirmed"); !errors.Is(err, scheduling.ErrInvalidTransition) {
		t.Fatalf("completed -> confirmed: expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpcomingForUser_Window(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, nil)
	patient := seedPatient(t, db, "Karim")
	other := seedPatient(t, db, "Salma")

	inWindow := seedAppointment(t, db, patient.ID, doctor.ID, fixedNow.Add(30*time.Hour), model.AppointmentStatusPending)
	seedAppointment(t, db, patient.ID, doctor.ID, fixedNow.Add(10*time.Hour), model.AppointmentStatusPending)   // слишком скоро
	seedAppointment(t, db, patient.ID, doctor.ID, fixedNow.Add(50*time.Hour), model.AppointmentStatusConfirmed) // слишком далеко
	seedAppointment(t, db, patient.ID, doctor.ID, fixedNow.Add(26*time.Hour), model.AppointmentStatusCancelled) // неактивна
	seedAppointment(t, db, other.ID, doctor.ID, fixedNow.Add(32*time.Hour), model.AppointmentStatusPending)     // чужая

	appts, err := svc.UpcomingForUser(ctxBookingBg, asActor(patient))
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(appts) != 1 || appts[0].ID != inWindow.ID {
		t.Fatalf("expected exactly the in-window appointment, got %d", len(appts))
	}

	// Врач в том же окне видит и чужую для пациента запись.
	appts, err = svc.UpcomingForUser(ctxBookingBg, asActor(doctor))
	if err != nil {
		t.Fatalf("doctor upcoming: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("doctor window: got %d, want 2", len(appts))
	}
}

func TestStats_ByScope(t *testing.T) {
	db := openTestDB(t)
	svc := newTestBookingService(t, db)

	doctor := seedDoctor(t, db, 500, nil)
	patient := seedPatient(t, db, "Karim")
	other := seedPatient(t, db, "Salma")

	seedAppointment(t, db, patient.ID, doctor.ID, requestedAt, model.AppointmentStatusPending)
	seedAppointment(t, db, patient.ID, doctor.ID, requestedAt.Add(time.Hour), model.AppointmentStatusCompleted)
	// Сегодняшняя запись (fixedNow — 9 марта).
	seedAppointment(t, db, patient.ID, doctor.ID, time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC), model.AppointmentStatusConfirmed)
	seedAppointment(t, db, other.ID, doctor.ID, requestedAt.Add(2*time.Hour), model.AppointmentStatusCancelled)

	stats, err := svc.Stats(ctxBookingBg, asActor(patient))
	if err != nil {
		t.Fatalf("patient stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Completed != 1 || stats.Confirmed != 1 || stats.Cancelled != 0 {
		t.Fatalf("patient stats = %+v", stats)
	}
	if stats.Today != 1 {
		t.Fatalf("today = %d, want 1", stats.Today)
	}

	stats, err = svc.Stats(ctxBookingBg, asActor(doctor))
	if err != nil {
		t.Fatalf("doctor stats: %v", err)
	}
	if stats.Total != 4 || stats.Cancelled != 1 {
		t.Fatalf("doctor stats = %+v", stats)
	}
}
