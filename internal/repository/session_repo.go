package repository

import (
	"context"
	"time"

	"estatehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionFilter struct {
	AdminID  *uuid.UUID
	IsActive *bool
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.AdminSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AdminSession, error)
	List(ctx context.Context, filter SessionFilter) ([]model.AdminSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	DeactivateForAdmin(ctx context.Context, adminID uuid.UUID) (int64, error)
	// DeactivateStale ends sessions idle since before idleBefore or past expiry.
	DeactivateStale(ctx context.Context, idleBefore, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.AdminSession) error {
	return GetDB(ctx, r.db).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AdminSession, error) {
	var s model.AdminSession
	if err := GetDB(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sessionRepository) List(ctx context.Context, f SessionFilter) ([]model.AdminSession, error) {
	q := GetDB(ctx, r.db).Preload("Admin")
	if f.AdminID != nil {
		q = q.Where("admin_id = ?", *f.AdminID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var sessions []model.AdminSession
	if err := q.Order("last_activity DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.AdminSession{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("last_activity", at).Error
}

func (r *sessionRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.AdminSession{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

func (r *sessionRepository) DeactivateForAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.AdminSession{}).
		Where("admin_id = ? AND is_active = ?", adminID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) DeactivateStale(ctx context.Context, idleBefore, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.AdminSession{}).
		Where("is_active = ? AND (last_activity < ? OR expires_at < ?)", true, idleBefore, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
