package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей сервиса записи.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Appointment{},
		&Report{},
	); err != nil {
		return err
	}

	// Частичный уникальный индекс: не более одной активной записи
	// на пару (врач, момент времени). Поддерживается только Postgres;
	// на других диалектах инвариант держит критическая секция в сервисе.
	if db.Dialector.Name() == "postgres" {
		return db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_doctor_active_time
			 ON appointments (doctor_id, scheduled_at)
			 WHERE status IN ('pending', 'confirmed')`,
		).Error
	}
	return nil
}
