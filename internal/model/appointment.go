package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус записи на приём.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// ActiveStatuses — статусы, при которых запись занимает время врача.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
}

// appointments
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	PatientID uuid.UUID `gorm:"type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_doctor_time"`

	ScheduledAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_appointments_doctor_time"`

	Notes  string            `gorm:"type:text"`
	Status AppointmentStatus `gorm:"type:varchar(32);not null;default:'pending';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Навигационные поля для отображения; заполняются на чтении,
	// связь хранится только через внешние ключи.
	Patient *User `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Doctor  *User `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
