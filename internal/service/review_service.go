package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/logger"
	"estatehub/internal/model"
	"estatehub/internal/notify"
	"estatehub/internal/permission"
	"estatehub/internal/repository"
	"estatehub/internal/workflow"
	"estatehub/pkg/pagination"

	"github.com/google/uuid"
)

// --- DTOs ---

type ReviewDecisionRequest struct {
	PropertyID      string `json:"propertyId" binding:"required,uuid"`
	Action          string `json:"action" binding:"required,review_action"`
	RejectionReason string `json:"rejectionReason" binding:"max=2000"`
}

type ReviewListQuery struct {
	ReviewStatus string
	Page         int
	Limit        int
}

type ReviewStats struct {
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	NeedsEdit int64 `json:"needsEdit"`
}

type ReviewListResponse struct {
	Properties []ListingResponse `json:"properties"`
	Pagination pagination.Meta   `json:"pagination"`
	Stats      ReviewStats       `json:"stats"`
}

// --- Interface ---

type ReviewService interface {
	ListByReviewStatus(ctx context.Context, q ReviewListQuery) (*ReviewListResponse, error)
	SubmitDecision(ctx context.Context, actor Actor, req ReviewDecisionRequest) (*ListingResponse, error)
}

type reviewService struct {
	tx         repository.TransactionManager
	listings   repository.ListingRepository
	activities repository.ActivityRepository
	publisher  notify.Publisher
	now        func() time.Time
	log        *logger.Logger
}

func NewReviewService(tx repository.TransactionManager, listings repository.ListingRepository, activities repository.ActivityRepository, publisher notify.Publisher) ReviewService {
	return &reviewService{
		tx:         tx,
		listings:   listings,
		activities: activities,
		publisher:  publisher,
		now:        time.Now,
		log:        logger.New("REVIEW"),
	}
}

// --- Implementation ---

// ListByReviewStatus reads the page and the per-status tiles from one
// snapshot so the counts always match the rows at query time.
func (s *reviewService) ListByReviewStatus(ctx context.Context, q ReviewListQuery) (*ReviewListResponse, error) {
	status := model.ReviewStatus(strings.ToUpper(strings.TrimSpace(q.ReviewStatus)))
	if status == "" {
		status = model.ReviewAll
	}
	if status != model.ReviewAll && !status.Valid() {
		return nil, validationErr("unknown reviewStatus %q", q.ReviewStatus)
	}
	page := pagination.New(q.Page, q.Limit)

	var (
		listings []model.PropertyListing
		total    int64
		counts   map[model.ReviewStatus]int64
	)
	err := s.tx.RunInSnapshot(ctx, func(txCtx context.Context) error {
		var err error
		listings, total, err = s.listings.List(txCtx, repository.ListingFilter{
			ReviewStatus: status,
			Offset:       page.Offset,
			Limit:        page.Limit,
		})
		if err != nil {
			return fmt.Errorf("failed to fetch listings: %w", err)
		}
		counts, err = s.listings.CountByReviewStatus(txCtx)
		if err != nil {
			return fmt.Errorf("failed to count listings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ReviewListResponse{
		Properties: toListingResponses(listings),
		Pagination: pagination.NewMeta(page, total),
		Stats: ReviewStats{
			Pending:   counts[model.ReviewPending],
			Approved:  counts[model.ReviewApproved],
			Rejected:  counts[model.ReviewRejected],
			NeedsEdit: counts[model.ReviewNeedsEdit],
		},
	}, nil
}

// SubmitDecision authorizes, validates and commits a review decision. The
// status observed when the listing is loaded is re-checked at write time, so
// of two concurrent decisions only the first commits.
func (s *reviewService) SubmitDecision(ctx context.Context, actor Actor, req ReviewDecisionRequest) (*ListingResponse, error) {
	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		return nil, validationErr("invalid propertyId")
	}
	if err := permission.Require(actor.Principal, permission.ModuleProperties, action.RequiredCapability()); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if action.RequiresJustification() && reason == "" {
		return nil, workflow.ErrMissingJustification
	}

	var updated model.PropertyListing
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		listing, err := s.listings.GetByID(txCtx, propertyID)
		if err != nil {
			return mapNotFound(err, "property")
		}

		next, err := workflow.Decide(listing.Review, action, actor.ID, reason, s.now().UTC())
		if err != nil {
			return err
		}

		ok, err := s.listings.CompareAndSetReview(txCtx, listing.ID, listing.ReviewStatus, next)
		if err != nil {
			return fmt.Errorf("failed to update review status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: listing changed concurrently", workflow.ErrInvalidTransition)
		}

		if err := recordActivity(txCtx, s.activities, actor, action.ActivityName(), permission.ModuleProperties, listing.ID, listing.Title, map[string]interface{}{
			"from":   listing.ReviewStatus,
			"to":     next.ReviewStatus,
			"reason": next.RejectionReason,
		}); err != nil {
			return fmt.Errorf("failed to write activity log: %w", err)
		}

		listing.Review = next
		updated = *listing
		return nil
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			s.log.Warn("rejected %s on %s: %v", action, propertyID, err)
		}
		return nil, err
	}

	resp := toListingResponse(updated)
	notify.PublishAfterCommit(ctx, s.publisher, s.log, notify.EventReviewDecided, permission.ModuleProperties.String(), map[string]interface{}{
		"propertyId":   resp.ID,
		"action":       action,
		"reviewStatus": resp.ReviewStatus,
		"reviewedBy":   actor.ID,
	})
	return &resp, nil
}
