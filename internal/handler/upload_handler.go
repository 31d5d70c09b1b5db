package handler

import (
	"net/http"

	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService service.UploadService
}

func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	router.POST("/uploads/presign", g.Owner, h.Presign)
}

// Presign returns a presigned PUT for uploading a listing image straight to the bucket
// @Summary      Presign an image upload
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PresignRequest  true  "File"
// @Success      200      {object}  response.Response{data=storage.PresignedUpload}
// @Failure      400      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/uploads/presign [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	ownerID, ok := ownerOrAbort(c)
	if !ok {
		return
	}
	var req service.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	upload, err := h.uploadService.PresignListingImage(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", upload)
}
