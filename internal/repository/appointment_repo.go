package repository

import (
	"context"

	"estatehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentFilter struct {
	Status model.AppointmentStatus
	Offset int
	Limit  int
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, int64, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next model.AppointmentStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	return GetDB(ctx, r.db).Create(a).Error
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := GetDB(ctx, r.db).Preload("Property").First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *appointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, int64, error) {
	db := GetDB(ctx, r.db)
	base := db.Model(&model.Appointment{})
	if f.Status != "" {
		base = base.Where("status = ?", f.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Property").Order("created_at DESC").Order("id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	var items []model.Appointment
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *appointmentRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next model.AppointmentStatus) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Appointment{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
