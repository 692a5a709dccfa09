package model

import (
	"time"

	"github.com/google/uuid"
)

// reports — помесячные срезы по врачу. Только добавляются, никогда не мутируются.
type Report struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	DoctorID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Месяц в формате "YYYY-MM".
	Month string `gorm:"type:varchar(7);not null;index"`

	TotalPatients     int64   `gorm:"not null"`
	TotalAppointments int64   `gorm:"not null"`
	TotalEarnings     float64 `gorm:"type:numeric;not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	Doctor *User `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
