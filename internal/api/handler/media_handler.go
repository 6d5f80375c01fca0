package handler

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for form boundaries and headers around the image part.
const multipartOverhead = 64 << 10

type MediaHandler struct {
	Responder
	mediaService *service.MediaService
}

func NewMediaHandler(ms *service.MediaService, rs Responder) *MediaHandler {
	return &MediaHandler{Responder: rs, mediaService: ms}
}

// RegisterRoutes mounts under /media.
func (h *MediaHandler) RegisterRoutes(r chi.Router, auth *middleware.Auth) {
	r.With(auth.Authenticator).Post("/images", h.uploadImage)
}

type uploadResponse struct {
	URL string `json:"url"`
}

// uploadImage expects multipart/form-data with the file in the "image" field.
// The content type is sniffed from the bytes, not taken from the client.
func (h *MediaHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.mediaService.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(h.mediaService.MaxBytes()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(w, r, fmt.Errorf("image exceeds %d bytes: %w", h.mediaService.MaxBytes(), common.ErrValidation))
			return
		}
		h.fail(w, r, fmt.Errorf("invalid multipart form: %s: %w", err.Error(), common.ErrValidation))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.fail(w, r, fmt.Errorf("image field is required: %w", common.ErrValidation))
		return
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)

	url, err := h.mediaService.UploadImage(r.Context(), middleware.PrincipalFromContext(r.Context()), header.Filename, contentType, header.Size, br)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
