package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
)

// Фиксированный "сейчас" для детерминированных тестов: воскресенье, полдень.
var fixedNow = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

// Схема создаётся сырым SQL: дефолт gen_random_uuid() из тегов моделей
// не работает на sqlite, поэтому идентификаторы в тестах задаются явно.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// У sqlite ':memory:' база живёт внутри соединения — пул
	// ограничивается одним, иначе goroutine-ы увидят разные базы.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			mobile_number TEXT,
			password_hash TEXT,
			role TEXT NOT NULL,
			address_division TEXT,
			address_district TEXT,
			address_thana TEXT,
			profile_image TEXT,
			license_number TEXT,
			experience_years INTEGER,
			consultation_fee REAL,
			specialization TEXT,
			available_slots TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE appointments (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			doctor_id TEXT NOT NULL,
			scheduled_at DATETIME NOT NULL,
			notes TEXT,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE reports (
			id TEXT PRIMARY KEY,
			doctor_id TEXT NOT NULL,
			month TEXT NOT NULL,
			total_patients INTEGER,
			total_appointments INTEGER,
			total_earnings REAL,
			created_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedDoctor(t *testing.T, db *gorm.DB, fee float64, slots []string) *model.User {
	t.Helper()
	u := &model.User{
		ID:              uuid.New(),
		FullName:        "Dr. Rahim",
		Email:           fmt.Sprintf("%s@clinic.test", uuid.NewString()),
		MobileNumber:    "+8801000000000",
		Role:            model.UserRoleDoctor,
		ConsultationFee: fee,
		Specialization:  "cardiology",
	}
	if err := u.SetSlotStrings(slots); err != nil {
		t.Fatalf("set slots: %v", err)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return u
}

func seedPatient(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New(),
		FullName:     name,
		Email:        fmt.Sprintf("%s@patients.test", uuid.NewString()),
		MobileNumber: "+8801100000000",
		Role:         model.UserRolePatient,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return u
}

func seedAppointment(
	t *testing.T,
	db *gorm.DB,
	patientID, doctorID uuid.UUID,
	at time.Time,
	status model.AppointmentStatus,
) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Status:      status,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func newTestBookingService(t *testing.T, db *gorm.DB) *BookingService {
	t.Helper()
	svc := NewBookingService(
		repository.NewGormUserRepository(db),
		repository.NewGormAppointmentRepository(db),
		scheduling.DefaultBusinessRules(),
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func asActor(u *model.User) scheduling.Actor {
	return scheduling.Actor{ID: u.ID, Role: u.Role}
}
