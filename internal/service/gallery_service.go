package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"momento/internal/api"
	"momento/internal/logger"
)

// GalleryBackend is the memory gallery surface of the backend.
type GalleryBackend interface {
	UploadImage(ctx context.Context, owner, relationship, filename string, file io.Reader) (api.Image, error)
	ImagesByRelationship(ctx context.Context, owner, relationship string) ([]api.Image, error)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type GalleryService struct{}

func NewGalleryService() *GalleryService {
	return &GalleryService{}
}

// Upload stores an image under the relationship.
func (s *GalleryService) Upload(ctx context.Context, backend GalleryBackend, user api.User, relationshipID, filename string, file io.Reader) (api.Image, error) {
	if relationshipID == "" {
		return api.Image{}, fmt.Errorf("relationship is required")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return api.Image{}, fmt.Errorf("unsupported image type %q", ext)
	}
	img, err := backend.UploadImage(ctx, user.ID, relationshipID, filename, file)
	if err != nil {
		return api.Image{}, err
	}
	logger.Infof("image uploaded owner=%s relationship=%s url=%s", user.ID, relationshipID, img.ImageURL)
	return img, nil
}

func (s *GalleryService) Images(ctx context.Context, backend GalleryBackend, user api.User, relationshipID string) ([]api.Image, error) {
	return backend.ImagesByRelationship(ctx, user.ID, relationshipID)
}
