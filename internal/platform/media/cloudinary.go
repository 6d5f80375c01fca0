package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/platform/logger"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Uploader stores images on Cloudinary. A nil client means uploads are not configured.
type Uploader struct {
	cld    *cloudinary.Cloudinary
	preset string
	logger zerolog.Logger
}

// NewUploader takes a cloudinary://<key>:<secret>@<cloud> URL. An empty URL disables uploads.
func NewUploader(cloudinaryURL, preset string) (*Uploader, error) {
	u := &Uploader{preset: preset, logger: logger.Component("media")}
	if cloudinaryURL == "" {
		return u, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDINARY_URL: %w", err)
	}
	cld.Config.URL.Secure = true
	u.cld = cld
	return u, nil
}

func (u *Uploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if u.cld == nil {
		return "", fmt.Errorf("media uploads are not configured: %w", common.ErrUpload)
	}

	res, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     strings.TrimSuffix(name, extOf(name)),
		UploadPreset: u.preset,
	})
	if err != nil {
		return "", fmt.Errorf("media host unreachable: %v: %w", err, common.ErrUpload)
	}
	if res.Error.Message != "" {
		u.logger.Warn().Str("file", name).Str("content_type", contentType).Str("reason", res.Error.Message).Msg("Media host rejected upload")
		return "", fmt.Errorf("media host: %s: %w", res.Error.Message, common.ErrUpload)
	}
	if res.SecureURL != "" {
		return res.SecureURL, nil
	}
	if res.URL != "" {
		return res.URL, nil
	}
	return "", fmt.Errorf("media host returned no url: %w", common.ErrUpload)
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
