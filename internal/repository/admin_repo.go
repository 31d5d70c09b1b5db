package repository

import (
	"context"
	"time"

	"estatehub/internal/model"
	"estatehub/internal/permission"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	// GetByIDForUpdate row-locks the admin until the surrounding transaction
	// ends, so concurrent edits, deletes and logins serialize on it.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	List(ctx context.Context, offset, limit int) ([]model.Admin, int64, error)
	// Update writes the managed columns of an existing, non-deleted admin.
	Update(ctx context.Context, admin *model.Admin) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsWithRole(ctx context.Context, role permission.Role) (bool, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return GetDB(ctx, r.db).Create(admin).Error
}

func (r *adminRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	if err := GetDB(ctx, r.db).First(&admin, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

func (r *adminRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&admin, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := GetDB(ctx, r.db).First(&admin, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

func (r *adminRepository) List(ctx context.Context, offset, limit int) ([]model.Admin, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.Admin{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var admins []model.Admin
	if err := db.Order("created_at ASC").Offset(offset).Limit(limit).Find(&admins).Error; err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// last_login_at is left to TouchLastLogin. Save is avoided since it falls
// back to an upsert when the row is gone and would undelete the admin.
var adminColumns = []string{"name", "email", "password", "role", "permissions", "is_active", "updated_at"}

func (r *adminRepository) Update(ctx context.Context, admin *model.Admin) error {
	res := GetDB(ctx, r.db).Model(admin).Select(adminColumns).Updates(admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := GetDB(ctx, r.db).Model(&model.Admin{}).Where("id = ?", id).Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Admin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) ExistsWithRole(ctx context.Context, role permission.Role) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Admin{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
