package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	// Отчёты за месяц "YYYY-MM"; при пустом month — все.
	List(ctx context.Context, doctorID *uuid.UUID, month string) ([]model.Report, error)
}

type GormReportRepository struct {
	db *gorm.DB
}

func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

func (r *GormReportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *GormReportRepository) List(
	ctx context.Context,
	doctorID *uuid.UUID,
	month string,
) ([]model.Report, error) {
	q := r.db.WithContext(ctx).Model(&model.Report{})
	if doctorID != nil {
		q = q.Where("doctor_id = ?", *doctorID)
	}
	if month != "" {
		q = q.Where("month = ?", month)
	}

	var reports []model.Report
	if err := q.Order("month DESC, created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
