package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

// AppointmentFilter — параметры выборки записей.
// DateTo трактуется как исключительная граница.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *model.AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Skip      int
	Limit     int
}

// WindowFilter — выборка записей в окне [From, To) по списку статусов,
// опционально со скоупом по пациенту/врачу. Используется напоминаниями
// и выдачей "ближайших" записей.
type WindowFilter struct {
	From      time.Time
	To        time.Time
	Statuses  []model.AppointmentStatus
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	// Запись вместе с данными пациента и врача для отображения.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
	// Есть ли активная (pending/confirmed) запись у врача ровно в этот момент.
	HasActiveAt(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error)
	List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, int64, error)
	ListInWindow(ctx context.Context, f WindowFilter) ([]model.Appointment, error)
	// Количество записей по статусам в заданном скоупе.
	StatusCounts(ctx context.Context, patientID, doctorID *uuid.UUID) (map[model.AppointmentStatus]int64, error)
	CountInRange(ctx context.Context, patientID, doctorID *uuid.UUID, from, to time.Time) (int64, error)
	// Статистика завершённых приёмов врача: количество записей и
	// уникальных пациентов в интервале [from, to).
	CompletedStats(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (appointments, patients int64, err error)
	// Удалить отменённые записи старше cutoff. Возвращает число удалённых.
	PurgeCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status model.AppointmentStatus,
) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *GormAppointmentRepository) HasActiveAt(
	ctx context.Context,
	doctorID uuid.UUID,
	at time.Time,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("doctor_id = ?", doctorID).
		Where("scheduled_at = ?", at).
		Where("status IN ?", model.ActiveStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormAppointmentRepository) List(
	ctx context.Context,
	f AppointmentFilter,
) ([]model.Appointment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{})

	if f.PatientID != nil {
		q = q.Where("patient_id = ?", *f.PatientID)
	}
	if f.DoctorID != nil {
		q = q.Where("doctor_id = ?", *f.DoctorID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.DateFrom != nil {
		q = q.Where("scheduled_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("scheduled_at < ?", *f.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Skip)
	}

	var appts []model.Appointment
	if err := q.
		Preload("Patient").
		Preload("Doctor").
		Order("scheduled_at DESC").
		Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

func (r *GormAppointmentRepository) ListInWindow(
	ctx context.Context,
	f WindowFilter,
) ([]model.Appointment, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("scheduled_at >= ? AND scheduled_at < ?", f.From, f.To)

	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.PatientID != nil {
		q = q.Where("patient_id = ?", *f.PatientID)
	}
	if f.DoctorID != nil {
		q = q.Where("doctor_id = ?", *f.DoctorID)
	}

	var appts []model.Appointment
	if err := q.
		Preload("Patient").
		Preload("Doctor").
		Order("scheduled_at ASC").
		Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) StatusCounts(
	ctx context.Context,
	patientID, doctorID *uuid.UUID,
) (map[model.AppointmentStatus]int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{})
	if patientID != nil {
		q = q.Where("patient_id = ?", *patientID)
	}
	if doctorID != nil {
		q = q.Where("doctor_id = ?", *doctorID)
	}

	var rows []struct {
		Status model.AppointmentStatus
		Count  int64
	}
	if err := q.
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.AppointmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormAppointmentRepository) CountInRange(
	ctx context.Context,
	patientID, doctorID *uuid.UUID,
	from, to time.Time,
) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to)
	if patientID != nil {
		q = q.Where("patient_id = ?", *patientID)
	}
	if doctorID != nil {
		q = q.Where("doctor_id = ?", *doctorID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAppointmentRepository) CompletedStats(
	ctx context.Context,
	doctorID uuid.UUID,
	from, to time.Time,
) (int64, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("doctor_id = ?", doctorID).
		Where("status = ?", model.AppointmentStatusCompleted).
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to)

	var appointments int64
	if err := base.Session(&gorm.Session{}).Count(&appointments).Error; err != nil {
		return 0, 0, err
	}

	var patients int64
	if err := base.Session(&gorm.Session{}).
		Distinct("patient_id").
		Count(&patients).Error; err != nil {
		return 0, 0, err
	}

	return appointments, patients, nil
}

func (r *GormAppointmentRepository) PurgeCancelledBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ?", model.AppointmentStatusCancelled).
		Where("created_at < ?", cutoff).
		Delete(&model.Appointment{})
	return res.RowsAffected, res.Error
}
