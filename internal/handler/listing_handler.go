package handler

import (
	"net/http"

	"estatehub/internal/middleware"
	"estatehub/internal/service"
	"estatehub/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListingHandler serves the owner's own listings and the public catalogue.
type ListingHandler struct {
	listingService service.ListingService
}

func NewListingHandler(listingService service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

func (h *ListingHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	mine := router.Group("/me/properties", g.Owner)
	{
		mine.GET("", h.ListMine)
		mine.POST("", h.Create)
		mine.GET("/:id", h.GetMine)
		mine.PUT("/:id", h.UpdateMine)
		mine.PATCH("/:id/status", h.SetMyStatus)
		mine.DELETE("/:id", h.DeleteMine)
	}

	public := router.Group("/listings")
	{
		public.GET("", h.ListPublic)
		public.GET("/:id", h.GetPublic)
	}
}

func ownerOrAbort(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.OwnerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, failBody(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated"))
	}
	return id, ok
}

// Create submits a new listing for review
// @Summary      Create a listing
// @Description  New listings start in PENDING review
// @Tags         my-properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ListingInput  true  "Listing"
// @Success      201      {object}  response.Response{data=service.ListingResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/me/properties [post]
func (h *ListingHandler) Create(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	var req service.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	listing, err := h.listingService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "MsgSaved", listing)
}

// @Summary      List my listings
// @Tags         my-properties
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=service.ListingPage}
// @Router       /api/me/properties [get]
func (h *ListingHandler) ListMine(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	page, err := h.listingService.ListMine(c.Request.Context(), ownerID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", page)
}

// @Summary      Get one of my listings
// @Tags         my-properties
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response{data=service.ListingResponse}
// @Router       /api/me/properties/{id} [get]
func (h *ListingHandler) GetMine(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	listing, err := h.listingService.GetMine(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", listing)
}

// UpdateMine edits content; a reviewed listing goes back to PENDING
// @Summary      Update one of my listings
// @Tags         my-properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                true  "Listing ID"
// @Param        payload  body      service.ListingInput  true  "Listing"
// @Success      200      {object}  response.Response{data=service.ListingResponse}
// @Router       /api/me/properties/{id} [put]
func (h *ListingHandler) UpdateMine(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	var req service.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	listing, err := h.listingService.UpdateMine(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgSaved", listing)
}

// @Summary      Activate or deactivate one of my listings
// @Tags         my-properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Listing ID"
// @Param        payload  body      service.UpdateListingStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=service.ListingResponse}
// @Router       /api/me/properties/{id}/status [patch]
func (h *ListingHandler) SetMyStatus(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	var req service.UpdateListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	listing, err := h.listingService.SetMyStatus(c.Request.Context(), ownerID, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgSaved", listing)
}

// @Summary      Delete one of my listings
// @Tags         my-properties
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response
// @Router       /api/me/properties/{id} [delete]
func (h *ListingHandler) DeleteMine(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	if err := h.listingService.DeleteMine(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgDeleted", nil)
}

// ListPublic returns approved, active listings
// @Summary      Browse listings
// @Tags         listings
// @Produce      json
// @Param        city         query     string  false  "City"
// @Param        listingType  query     string  false  "SALE or RENT"
// @Param        search       query     string  false  "Title search"
// @Param        page         query     int     false  "Page"
// @Param        limit        query     int     false  "Page size"
// @Success      200          {object}  response.Response{data=service.ListingPage}
// @Router       /api/listings [get]
func (h *ListingHandler) ListPublic(c *gin.Context) {
	p := pagination.Parse(c)
	page, err := h.listingService.ListPublic(c.Request.Context(), service.ListingQuery{
		City:        c.Query("city"),
		ListingType: c.Query("listingType"),
		Search:      c.Query("search"),
		Page:        p.Page,
		Limit:       p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", page)
}

// @Summary      Get a listing
// @Tags         listings
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response{data=service.ListingResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/listings/{id} [get]
func (h *ListingHandler) GetPublic(c *gin.Context) {
	listing, err := h.listingService.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", listing)
}
