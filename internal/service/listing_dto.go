package service

import (
	"time"

	"estatehub/internal/model"
	"estatehub/pkg/pagination"

	"github.com/shopspring/decimal"
)

type OwnerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ListingResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Owner           *OwnerSummary   `json:"user,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ListingType     string          `json:"listingType"`
	PropertyType    string          `json:"propertyType"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	City            string          `json:"city"`
	Address         string          `json:"address"`
	AreaSqm         decimal.Decimal `json:"areaSqm"`
	Bedrooms        int             `json:"bedrooms"`
	Bathrooms       int             `json:"bathrooms"`
	Images          []string        `json:"images"`
	Status          string          `json:"status"`
	ReviewStatus    string          `json:"reviewStatus"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	ReviewedBy      *string         `json:"reviewedBy"`
	ReviewedAt      *string         `json:"reviewedAt"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

// ListingInput is the editable content of a listing.
type ListingInput struct {
	Title        string          `json:"title" binding:"required,max=255"`
	Description  string          `json:"description" binding:"max=10000"`
	ListingType  string          `json:"listingType" binding:"required,oneof=SALE RENT"`
	PropertyType string          `json:"propertyType" binding:"required,max=50"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Currency     string          `json:"currency" binding:"omitempty,len=3"`
	City         string          `json:"city" binding:"required,max=100"`
	Address      string          `json:"address" binding:"max=255"`
	AreaSqm      decimal.Decimal `json:"areaSqm"`
	Bedrooms     int             `json:"bedrooms" binding:"gte=0,lte=100"`
	Bathrooms    int             `json:"bathrooms" binding:"gte=0,lte=100"`
	Images       []string        `json:"images" binding:"max=30,dive,required"`
}

type UpdateListingStatusRequest struct {
	Status string `json:"status" binding:"required,listing_status"`
}

type ListingQuery struct {
	City        string
	ListingType string
	Search      string
	Page        int
	Limit       int
}

type ListingPage struct {
	Properties []ListingResponse `json:"properties"`
	Pagination pagination.Meta   `json:"pagination"`
}

func (in ListingInput) validate() error {
	if in.Price.IsNegative() {
		return validationErr("price must not be negative")
	}
	if in.AreaSqm.IsNegative() {
		return validationErr("areaSqm must not be negative")
	}
	return nil
}

func (in ListingInput) applyTo(l *model.PropertyListing) {
	l.Title = in.Title
	l.Description = in.Description
	l.ListingType = in.ListingType
	l.PropertyType = in.PropertyType
	l.Price = in.Price
	l.Currency = in.Currency
	if l.Currency == "" {
		l.Currency = "USD"
	}
	l.City = in.City
	l.Address = in.Address
	l.AreaSqm = in.AreaSqm
	l.Bedrooms = in.Bedrooms
	l.Bathrooms = in.Bathrooms
	l.Images = in.Images
}

func toListingResponse(l model.PropertyListing) ListingResponse {
	resp := ListingResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		Title:           l.Title,
		Description:     l.Description,
		ListingType:     l.ListingType,
		PropertyType:    l.PropertyType,
		Price:           l.Price,
		Currency:        l.Currency,
		City:            l.City,
		Address:         l.Address,
		AreaSqm:         l.AreaSqm,
		Bedrooms:        l.Bedrooms,
		Bathrooms:       l.Bathrooms,
		Images:          []string(l.Images),
		Status:          string(l.Status),
		ReviewStatus:    string(l.ReviewStatus),
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       l.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if l.User != nil {
		resp.Owner = &OwnerSummary{
			ID:    l.User.ID.String(),
			Name:  l.User.Name,
			Email: l.User.Email,
			Phone: l.User.Phone,
		}
	}
	if l.ReviewedBy != nil {
		s := l.ReviewedBy.String()
		resp.ReviewedBy = &s
	}
	if l.ReviewedAt != nil {
		s := l.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}

func toListingResponses(ls []model.PropertyListing) []ListingResponse {
	out := make([]ListingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingResponse(l))
	}
	return out
}
