package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/service"
	"github.com/prn-tf/recipebook/internal/storage"
)

// ImageHandler streams stored recipe pictures.
type ImageHandler struct {
	images *service.ImageService
	logger zerolog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		images: images,
		logger: logger.With().Str("handler", "image").Logger(),
	}
}

// Serve handles GET /api/images/{key}. Keys are random, so objects are
// immutable and cacheable.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if storage.ValidateKey(key) != nil {
		writeError(w, r, h.logger, domain.ErrImageNotFound)
		return
	}

	obj, err := h.images.Open(r.Context(), key)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = storage.ImageContentType
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("image stream interrupted")
	}
}
