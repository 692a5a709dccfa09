package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Роль пользователя в системе.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleDoctor  UserRole = "doctor"
	UserRolePatient UserRole = "patient"
)

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	FullName     string   `gorm:"type:varchar(255);not null"`
	Email        string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	MobileNumber string   `gorm:"type:varchar(32);not null"`
	PasswordHash string   `gorm:"type:varchar(255);not null"`
	Role         UserRole `gorm:"type:varchar(32);not null;index"`

	// Адресные поля.
	AddressDivision string `gorm:"type:varchar(255)"`
	AddressDistrict string `gorm:"type:varchar(255)"`
	AddressThana    string `gorm:"type:varchar(255)"`

	ProfileImage string `gorm:"type:varchar(512)"`

	// Поля врача; для остальных ролей остаются пустыми.
	LicenseNumber   string  `gorm:"type:varchar(64)"`
	ExperienceYears int     `gorm:"type:bigint"`
	ConsultationFee float64 `gorm:"type:numeric"`
	Specialization  string  `gorm:"type:varchar(255);index"`

	// Слоты доступности врача: JSON-массив строк в формате
	// "2006-01-02 15:04:05". JSON вместо ARRAY, чтобы одинаково
	// работать на Postgres и на sqlite в тестах.
	AvailableSlots datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// SlotStrings разбирает JSON-список слотов врача.
// Повреждённое содержимое трактуется как пустой список.
func (u *User) SlotStrings() []string {
	if len(u.AvailableSlots) == 0 {
		return nil
	}
	var slots []string
	if err := json.Unmarshal(u.AvailableSlots, &slots); err != nil {
		return nil
	}
	return slots
}

// SetSlotStrings сериализует список слотов обратно в JSON.
func (u *User) SetSlotStrings(slots []string) error {
	b, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	u.AvailableSlots = datatypes.JSON(b)
	return nil
}
