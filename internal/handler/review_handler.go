package handler

import (
	"net/http"

	"estatehub/internal/middleware"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService  service.ReviewService
	listingService service.ListingService
}

func NewReviewHandler(reviewService service.ReviewService, listingService service.ListingService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, listingService: listingService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	properties := router.Group("/properties", g.Admin)
	{
		properties.GET("/review", middleware.RequireCapability(permission.ModuleProperties, permission.View), h.ListForReview)
		// capability depends on the action and is checked by the service
		properties.PUT("/review", h.SubmitDecision)
		properties.PUT("/manage/:id", middleware.RequireCapability(permission.ModuleProperties, permission.Edit), h.Manage)
		properties.DELETE("/manage/:id", middleware.RequireCapability(permission.ModuleProperties, permission.Delete), h.Remove)
	}
}

// ListForReview returns one page of listings in a review status with the per-status counts
// @Summary      List listings for review
// @Tags         review
// @Produce      json
// @Security     BearerAuth
// @Param        reviewStatus  query     string  false  "PENDING, APPROVED, REJECTED, NEEDS_EDIT or ALL"
// @Param        page          query     int     false  "Page"
// @Param        limit         query     int     false  "Page size"
// @Success      200  {object}  response.Response{data=service.ReviewListResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/properties/review [get]
func (h *ReviewHandler) ListForReview(c *gin.Context) {
	p := pagination.Parse(c)
	res, err := h.reviewService.ListByReviewStatus(c.Request.Context(), service.ReviewListQuery{
		ReviewStatus: c.DefaultQuery("reviewStatus", "PENDING"),
		Page:         p.Page,
		Limit:        p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", res)
}

// SubmitDecision applies approve, reject, needs_edit or revert_to_pending
// @Summary      Submit a review decision
// @Description  reject and needs_edit require a non-empty rejectionReason
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ReviewDecisionRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.ListingResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/properties/review [put]
func (h *ReviewHandler) SubmitDecision(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	listing, err := h.reviewService.SubmitDecision(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgDecisionSaved", listing)
}

// Manage edits listing content as an admin
// @Summary      Edit a listing
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Listing ID"
// @Param        payload  body      service.ListingInput  true  "Listing"
// @Success      200      {object}  response.Response{data=service.ListingResponse}
// @Router       /api/properties/manage/{id} [put]
func (h *ReviewHandler) Manage(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	listing, err := h.listingService.Manage(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgSaved", listing)
}

// @Summary      Delete a listing
// @Tags         review
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response
// @Router       /api/properties/manage/{id} [delete]
func (h *ReviewHandler) Remove(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.listingService.Remove(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgDeleted", nil)
}
