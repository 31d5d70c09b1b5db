package repository

import (
	"context"

	"estatehub/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository interface {
	Log(ctx context.Context, entry *model.AdminActivity) error
	Recent(ctx context.Context, limit int) ([]model.AdminActivity, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entry *model.AdminActivity) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *activityRepository) Recent(ctx context.Context, limit int) ([]model.AdminActivity, int64, error) {
	var logs []model.AdminActivity
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AdminActivity{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Admin").Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
