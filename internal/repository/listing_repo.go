package repository

import (
	"context"
	"strings"

	"estatehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListingFilter narrows listing queries. Zero values mean "any".
type ListingFilter struct {
	ReviewStatus model.ReviewStatus
	OwnerID      *uuid.UUID
	PublicOnly   bool
	City         string
	ListingType  string
	Search       string
	Offset       int
	Limit        int
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.PropertyListing) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PropertyListing, error)
	// GetByIDForUpdate row-locks the listing until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PropertyListing, error)
	List(ctx context.Context, filter ListingFilter) ([]model.PropertyListing, int64, error)
	CountByReviewStatus(ctx context.Context) (map[model.ReviewStatus]int64, error)
	// CompareAndSetReview writes next only if the stored status still equals
	// expected. It reports whether the row was updated.
	CompareAndSetReview(ctx context.Context, id uuid.UUID, expected model.ReviewStatus, next model.Review) (bool, error)
	// UpdateContent writes the owner-editable columns only, and only while
	// the stored review status still equals expected. Review fields are left
	// to CompareAndSetReview.
	UpdateContent(ctx context.Context, listing *model.PropertyListing, expected model.ReviewStatus) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.ListingStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.PropertyListing) error {
	return GetDB(ctx, r.db).Create(listing).Error
}

func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PropertyListing, error) {
	var listing model.PropertyListing
	if err := GetDB(ctx, r.db).Preload("User").First(&listing, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &listing, nil
}

func (r *listingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PropertyListing, error) {
	var listing model.PropertyListing
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	// loaded separately so the lock covers the listing row only
	var owner model.User
	if err := GetDB(ctx, r.db).First(&owner, "id = ?", listing.UserID).Error; err == nil {
		listing.User = &owner
	}
	return &listing, nil
}

func (r *listingRepository) scoped(db *gorm.DB, f ListingFilter) *gorm.DB {
	q := db.Model(&model.PropertyListing{})
	if f.ReviewStatus != "" && f.ReviewStatus != model.ReviewAll {
		q = q.Where("review_status = ?", f.ReviewStatus)
	}
	if f.OwnerID != nil {
		q = q.Where("user_id = ?", *f.OwnerID)
	}
	if f.PublicOnly {
		q = q.Where("review_status = ? AND status <> ?", model.ReviewApproved, model.ListingInactive)
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.ListingType != "" {
		q = q.Where("listing_type = ?", f.ListingType)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(address) LIKE ?", like, like)
	}
	return q
}

// List orders newest submission first with id as the tie-break.
func (r *listingRepository) List(ctx context.Context, f ListingFilter) ([]model.PropertyListing, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := r.scoped(db, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []model.PropertyListing
	q := r.scoped(db, f).Preload("User").Order("created_at DESC").Order("id DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) CountByReviewStatus(ctx context.Context) (map[model.ReviewStatus]int64, error) {
	var rows []struct {
		ReviewStatus model.ReviewStatus
		Total        int64
	}
	err := GetDB(ctx, r.db).Model(&model.PropertyListing{}).
		Select("review_status, COUNT(*) AS total").
		Group("review_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ReviewStatus]int64, len(model.ReviewStatuses))
	for _, s := range model.ReviewStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.ReviewStatus] = row.Total
	}
	return counts, nil
}

func (r *listingRepository) CompareAndSetReview(ctx context.Context, id uuid.UUID, expected model.ReviewStatus, next model.Review) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.PropertyListing{}).
		Where("id = ? AND review_status = ?", id, expected).
		Updates(map[string]interface{}{
			"review_status":    next.ReviewStatus,
			"rejection_reason": next.RejectionReason,
			"reviewed_by":      next.ReviewedBy,
			"reviewed_at":      next.ReviewedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

var contentColumns = []string{
	"title", "description", "listing_type", "property_type", "price", "currency",
	"city", "address", "area_sqm", "bedrooms", "bathrooms", "images", "updated_at",
}

func (r *listingRepository) UpdateContent(ctx context.Context, listing *model.PropertyListing, expected model.ReviewStatus) (bool, error) {
	res := GetDB(ctx, r.db).Model(listing).
		Where("review_status = ?", expected).
		Select(contentColumns).
		Updates(listing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *listingRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.ListingStatus) error {
	res := GetDB(ctx, r.db).Model(&model.PropertyListing{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PropertyListing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
