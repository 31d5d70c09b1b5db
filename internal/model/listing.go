package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewStatus is the moderation state of a listing.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewApproved  ReviewStatus = "APPROVED"
	ReviewRejected  ReviewStatus = "REJECTED"
	ReviewNeedsEdit ReviewStatus = "NEEDS_EDIT"

	// ReviewAll is a query filter, never a stored state.
	ReviewAll ReviewStatus = "ALL"
)

var ReviewStatuses = []ReviewStatus{ReviewPending, ReviewApproved, ReviewRejected, ReviewNeedsEdit}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewNeedsEdit:
		return true
	}
	return false
}

// ListingStatus is the marketplace lifecycle controlled by the owner.
type ListingStatus string

const (
	ListingActive   ListingStatus = "ACTIVE"
	ListingInactive ListingStatus = "INACTIVE"
	ListingPending  ListingStatus = "PENDING"
	ListingSold     ListingStatus = "SOLD"
	ListingRented   ListingStatus = "RENTED"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingInactive, ListingPending, ListingSold, ListingRented:
		return true
	}
	return false
}

const (
	ListingTypeSale = "SALE"
	ListingTypeRent = "RENT"
)

// Review holds the moderation fields of a listing. reviewedBy and
// reviewedAt are set only while the status is not PENDING.
type Review struct {
	ReviewStatus    ReviewStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"reviewStatus"`
	RejectionReason string       `gorm:"type:text" json:"rejectionReason"`
	ReviewedBy      *uuid.UUID   `gorm:"type:uuid" json:"reviewedBy"`
	ReviewedAt      *time.Time   `json:"reviewedAt"`
}

// PropertyListing is a property submitted by an owner for publication.
type PropertyListing struct {
	ID           uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"userId"`
	User         *User                       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title        string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description  string                      `gorm:"type:text" json:"description"`
	ListingType  string                      `gorm:"type:varchar(10);not null;index" json:"listingType"`
	PropertyType string                      `gorm:"type:varchar(50);not null" json:"propertyType"`
	Price        decimal.Decimal             `gorm:"type:decimal(18,2);not null" json:"price"`
	Currency     string                      `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	City         string                      `gorm:"type:varchar(100);index" json:"city"`
	Address      string                      `gorm:"type:varchar(255)" json:"address"`
	AreaSqm      decimal.Decimal             `gorm:"type:decimal(12,2)" json:"areaSqm"`
	Bedrooms     int                         `json:"bedrooms"`
	Bathrooms    int                         `json:"bathrooms"`
	Images       datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Status       ListingStatus               `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	Review       `gorm:"embedded"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PubliclyVisible reports whether the listing may appear on public surfaces.
func (p PropertyListing) PubliclyVisible() bool {
	return p.ReviewStatus == ReviewApproved && p.Status != ListingInactive
}
