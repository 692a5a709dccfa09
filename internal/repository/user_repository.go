package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

// UserFilter — параметры выборки пользователей.
type UserFilter struct {
	Role           model.UserRole
	Specialization string
	Division       string
	Search         string // подстрока имени либо специализации
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Заменить список слотов доступности врача.
	UpdateSlots(ctx context.Context, id uuid.UUID, slots datatypes.JSON) error
	// Отфильтрованный список; пагинация выполняется вызывающей стороной.
	List(ctx context.Context, f UserFilter) ([]model.User, error)
	ListByRole(ctx context.Context, role model.UserRole) ([]model.User, error)
}

// Реализация на GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *GormUserRepository) UpdateSlots(ctx context.Context, id uuid.UUID, slots datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("available_slots", slots).
		Error
}

func (r *GormUserRepository) List(ctx context.Context, f UserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})

	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Specialization != "" {
		q = q.Where("specialization = ?", f.Specialization)
	}
	if f.Division != "" {
		q = q.Where("address_division = ?", f.Division)
	}
	if f.Search != "" {
		// lower() вместо ILIKE — одинаково работает на Postgres и sqlite.
		needle := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("lower(full_name) LIKE ? OR lower(specialization) LIKE ?", needle, needle)
	}

	var users []model.User
	if err := q.Order("full_name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormUserRepository) ListByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
