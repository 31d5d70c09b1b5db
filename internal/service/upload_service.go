package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"estatehub/internal/storage"

	"github.com/google/uuid"
)

// Presigner signs direct-to-bucket uploads.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*storage.PresignedUpload, error)
}

type PresignRequest struct {
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required"`
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UploadService interface {
	PresignListingImage(ctx context.Context, ownerID uuid.UUID, req PresignRequest) (*storage.PresignedUpload, error)
}

type uploadService struct {
	presigner Presigner
	ttl       time.Duration
}

// NewUploadService returns a service that answers ErrUploadsDisabled when
// presigner is nil.
func NewUploadService(presigner Presigner, ttl time.Duration) UploadService {
	return &uploadService{presigner: presigner, ttl: ttl}
}

func (s *uploadService) PresignListingImage(ctx context.Context, ownerID uuid.UUID, req PresignRequest) (*storage.PresignedUpload, error) {
	if s.presigner == nil {
		return nil, ErrUploadsDisabled
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, validationErr("unsupported content type %q", req.ContentType)
	}
	key := path.Join("listings", ownerID.String(), fmt.Sprintf("%s%s", uuid.New().String(), ext))
	return s.presigner.PresignPut(ctx, key, contentType, s.ttl)
}
