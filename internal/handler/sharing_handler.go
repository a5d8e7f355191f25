package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/service"
)

// SharingHandler serves the sharing ledger.
type SharingHandler struct {
	sharing  *service.SharingService
	resolver *service.Resolver
	decoder  *RequestDecoder
	logger   zerolog.Logger
}

// NewSharingHandler creates a new SharingHandler.
func NewSharingHandler(sharing *service.SharingService, resolver *service.Resolver, decoder *RequestDecoder, logger zerolog.Logger) *SharingHandler {
	return &SharingHandler{
		sharing:  sharing,
		resolver: resolver,
		decoder:  decoder,
		logger:   logger.With().Str("handler", "sharing").Logger(),
	}
}

type shareRequest struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// ShareResponse is returned when a recipe is shared.
type ShareResponse struct {
	Message string                    `json:"message"`
	Sharing *service.SharedRecipeView `json:"sharing"`
}

func (h *SharingHandler) writeEntries(w http.ResponseWriter, r *http.Request, entries []*domain.SharedRecipe) {
	views, err := h.resolver.SharedRecipes(r.Context(), entries)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// SharedWithMe handles GET /api/sharing/with-me.
func (h *SharingHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	entries, err := h.sharing.ListSharedWithMe(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeEntries(w, r, entries)
}

// MyShares handles GET /api/sharing/my-shares.
func (h *SharingHandler) MyShares(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	entries, err := h.sharing.ListMyShares(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeEntries(w, r, entries)
}

// Share handles POST /api/sharing.
func (h *SharingHandler) Share(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req shareRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entry, err := h.sharing.Share(r.Context(), req.RecipeID, id.UserID, req.Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	view, err := h.resolver.SharedRecipe(r.Context(), entry)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ShareResponse{Message: "Recipe shared successfully", Sharing: view})
}

// Unshare handles DELETE /api/sharing/{sharingId}/{userId}.
func (h *SharingHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	err = h.sharing.Unshare(r.Context(), chi.URLParam(r, "sharingId"), chi.URLParam(r, "userId"), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Share removed")
}
