package service

import (
	"context"
	"fmt"
	"strings"

	"estatehub/internal/logger"
	"estatehub/internal/model"
	"estatehub/internal/notify"
	"estatehub/internal/permission"
	"estatehub/internal/repository"
	"estatehub/internal/workflow"
	"estatehub/pkg/pagination"

	"github.com/google/uuid"
)

// ListingService covers the owner dashboard, the public catalogue and the
// admin manage endpoints. Review decisions live in ReviewService.
type ListingService interface {
	// Owner
	Create(ctx context.Context, ownerID uuid.UUID, in ListingInput) (*ListingResponse, error)
	ListMine(ctx context.Context, ownerID uuid.UUID, page, limit int) (*ListingPage, error)
	GetMine(ctx context.Context, ownerID uuid.UUID, id string) (*ListingResponse, error)
	UpdateMine(ctx context.Context, ownerID uuid.UUID, id string, in ListingInput) (*ListingResponse, error)
	SetMyStatus(ctx context.Context, ownerID uuid.UUID, id string, status string) (*ListingResponse, error)
	DeleteMine(ctx context.Context, ownerID uuid.UUID, id string) error

	// Public
	ListPublic(ctx context.Context, q ListingQuery) (*ListingPage, error)
	GetPublic(ctx context.Context, id string) (*ListingResponse, error)

	// Admin
	Manage(ctx context.Context, actor Actor, id string, in ListingInput) (*ListingResponse, error)
	Remove(ctx context.Context, actor Actor, id string) error
}

type listingService struct {
	tx         repository.TransactionManager
	listings   repository.ListingRepository
	activities repository.ActivityRepository
	publisher  notify.Publisher
	log        *logger.Logger
}

func NewListingService(tx repository.TransactionManager, listings repository.ListingRepository, activities repository.ActivityRepository, publisher notify.Publisher) ListingService {
	return &listingService{
		tx:         tx,
		listings:   listings,
		activities: activities,
		publisher:  publisher,
		log:        logger.New("LISTING"),
	}
}

func parseListingID(id string) (uuid.UUID, error) {
	lid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, validationErr("invalid property id")
	}
	return lid, nil
}

// owned loads a listing and hides listings of other owners behind ErrNotFound.
// With lock set the row stays locked until the caller's transaction ends.
func (s *listingService) owned(ctx context.Context, ownerID uuid.UUID, id string, lock bool) (*model.PropertyListing, error) {
	lid, err := parseListingID(id)
	if err != nil {
		return nil, err
	}
	load := s.listings.GetByID
	if lock {
		load = s.listings.GetByIDForUpdate
	}
	l, err := load(ctx, lid)
	if err != nil {
		return nil, mapNotFound(err, "property")
	}
	if l.UserID != ownerID {
		return nil, fmt.Errorf("property: %w", ErrNotFound)
	}
	return l, nil
}

func (s *listingService) submitted(ctx context.Context, l *model.PropertyListing) {
	notify.PublishAfterCommit(ctx, s.publisher, s.log, notify.EventListingSubmitted, permission.ModuleProperties.String(), map[string]interface{}{
		"propertyId": l.ID,
		"title":      l.Title,
	})
}

func (s *listingService) Create(ctx context.Context, ownerID uuid.UUID, in ListingInput) (*ListingResponse, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	l := &model.PropertyListing{
		UserID: ownerID,
		Status: model.ListingActive,
		Review: model.Review{ReviewStatus: model.ReviewPending},
	}
	in.applyTo(l)

	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.submitted(ctx, l)

	resp := toListingResponse(*l)
	return &resp, nil
}

func (s *listingService) ListMine(ctx context.Context, ownerID uuid.UUID, page, limit int) (*ListingPage, error) {
	p := pagination.New(page, limit)
	listings, total, err := s.listings.List(ctx, repository.ListingFilter{OwnerID: &ownerID, Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, err
	}
	return &ListingPage{Properties: toListingResponses(listings), Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *listingService) GetMine(ctx context.Context, ownerID uuid.UUID, id string) (*ListingResponse, error) {
	l, err := s.owned(ctx, ownerID, id, false)
	if err != nil {
		return nil, err
	}
	resp := toListingResponse(*l)
	return &resp, nil
}

// writeContent stores l's content only if its review status is still the one
// it was loaded with, so an edit never lands on a listing reviewed meanwhile.
func (s *listingService) writeContent(ctx context.Context, l *model.PropertyListing) error {
	ok, err := s.listings.UpdateContent(ctx, l, l.ReviewStatus)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: listing changed concurrently", workflow.ErrInvalidTransition)
	}
	return nil
}

// UpdateMine saves the owner's edits and puts a reviewed listing back in
// the queue.
func (s *listingService) UpdateMine(ctx context.Context, ownerID uuid.UUID, id string, in ListingInput) (*ListingResponse, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		updated     model.PropertyListing
		resubmitted bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.owned(txCtx, ownerID, id, true)
		if err != nil {
			return err
		}
		in.applyTo(l)
		if err := s.writeContent(txCtx, l); err != nil {
			return err
		}

		next := workflow.Resubmit(l.Review)
		if next.ReviewStatus != l.ReviewStatus {
			ok, err := s.listings.CompareAndSetReview(txCtx, l.ID, l.ReviewStatus, next)
			if err != nil {
				return fmt.Errorf("failed to resubmit property: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: listing changed concurrently", workflow.ErrInvalidTransition)
			}
			l.Review = next
			resubmitted = true
		}
		updated = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resubmitted {
		s.submitted(ctx, &updated)
	}
	resp := toListingResponse(updated)
	return &resp, nil
}

func (s *listingService) SetMyStatus(ctx context.Context, ownerID uuid.UUID, id string, status string) (*ListingResponse, error) {
	st := model.ListingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, validationErr("unknown status %q", status)
	}
	l, err := s.owned(ctx, ownerID, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.listings.SetStatus(ctx, l.ID, st); err != nil {
		return nil, mapNotFound(err, "property")
	}
	l.Status = st
	resp := toListingResponse(*l)
	return &resp, nil
}

func (s *listingService) DeleteMine(ctx context.Context, ownerID uuid.UUID, id string) error {
	l, err := s.owned(ctx, ownerID, id, false)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, l.ID); err != nil {
		return mapNotFound(err, "property")
	}
	return nil
}

func (s *listingService) ListPublic(ctx context.Context, q ListingQuery) (*ListingPage, error) {
	lt := strings.ToUpper(strings.TrimSpace(q.ListingType))
	if lt != "" && lt != model.ListingTypeSale && lt != model.ListingTypeRent {
		return nil, validationErr("unknown listingType %q", q.ListingType)
	}
	p := pagination.New(q.Page, q.Limit)
	listings, total, err := s.listings.List(ctx, repository.ListingFilter{
		PublicOnly:  true,
		City:        strings.TrimSpace(q.City),
		ListingType: lt,
		Search:      strings.TrimSpace(q.Search),
		Offset:      p.Offset,
		Limit:       p.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListingPage{Properties: toListingResponses(listings), Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *listingService) GetPublic(ctx context.Context, id string) (*ListingResponse, error) {
	lid, err := parseListingID(id)
	if err != nil {
		return nil, err
	}
	l, err := s.listings.GetByID(ctx, lid)
	if err != nil {
		return nil, mapNotFound(err, "property")
	}
	if !l.PubliclyVisible() {
		return nil, fmt.Errorf("property: %w", ErrNotFound)
	}
	resp := toListingResponse(*l)
	return &resp, nil
}

// Manage lets an admin correct listing content without touching its review state.
func (s *listingService) Manage(ctx context.Context, actor Actor, id string, in ListingInput) (*ListingResponse, error) {
	if err := permission.Require(actor.Principal, permission.ModuleProperties, permission.Edit); err != nil {
		return nil, err
	}
	lid, err := parseListingID(id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated model.PropertyListing
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.listings.GetByIDForUpdate(txCtx, lid)
		if err != nil {
			return mapNotFound(err, "property")
		}
		in.applyTo(l)
		if err := s.writeContent(txCtx, l); err != nil {
			return err
		}
		if err := recordActivity(txCtx, s.activities, actor, model.ActionUpdateProperty, permission.ModuleProperties, l.ID, l.Title, nil); err != nil {
			return fmt.Errorf("failed to write activity log: %w", err)
		}
		updated = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toListingResponse(updated)
	return &resp, nil
}

func (s *listingService) Remove(ctx context.Context, actor Actor, id string) error {
	if err := permission.Require(actor.Principal, permission.ModuleProperties, permission.Delete); err != nil {
		return err
	}
	lid, err := parseListingID(id)
	if err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.listings.GetByID(txCtx, lid)
		if err != nil {
			return mapNotFound(err, "property")
		}
		if err := s.listings.Delete(txCtx, l.ID); err != nil {
			return mapNotFound(err, "property")
		}
		return recordActivity(txCtx, s.activities, actor, model.ActionDeleteProperty, permission.ModuleProperties, l.ID, l.Title, nil)
	})
}
