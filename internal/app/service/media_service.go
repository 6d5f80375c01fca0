package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

// MediaStore uploads an image and returns its public URL. Failures wrap common.ErrUpload.
type MediaStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type MediaService struct {
	store    MediaStore
	maxBytes int64
}

func NewMediaService(store MediaStore, maxBytes int64) *MediaService {
	return &MediaService{store: store, maxBytes: maxBytes}
}

func (s *MediaService) MaxBytes() int64 { return s.maxBytes }

// UploadImage stores an image for a contest banner, profile photo or submission.
func (s *MediaService) UploadImage(ctx context.Context, p model.Principal, filename, contentType string, size int64, r io.Reader) (string, error) {
	if p.IsAnonymous() {
		return "", common.ErrUnauthorized
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q: %w", contentType, common.ErrValidation)
	}
	if size <= 0 {
		return "", fmt.Errorf("image is empty: %w", common.ErrValidation)
	}
	if size > s.maxBytes {
		return "", fmt.Errorf("image exceeds %d bytes: %w", s.maxBytes, common.ErrValidation)
	}

	name := uuid.NewString() + ext
	if base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename))); base != "" {
		name = uuid.NewString()[:8] + "-" + base + ext
	}
	url, err := s.store.Upload(ctx, name, contentType, io.LimitReader(r, s.maxBytes))
	if err != nil {
		log.Error().Err(err).Str("user_id", p.UserID).Str("file", name).Msg("image upload failed")
		return "", err
	}
	return url, nil
}
