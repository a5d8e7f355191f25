package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/service"
)

// CommentHandler serves recipe comments.
type CommentHandler struct {
	comments *service.CommentService
	resolver *service.Resolver
	decoder  *RequestDecoder
	logger   zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments *service.CommentService, resolver *service.Resolver, decoder *RequestDecoder, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		resolver: resolver,
		decoder:  decoder,
		logger:   logger.With().Str("handler", "comment").Logger(),
	}
}

type createCommentRequest struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Text     string `json:"text"`
	Rating   int    `json:"rating"`
}

type updateCommentRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// ListByRecipe handles GET /api/comments/recipe/{recipeId}.
func (h *CommentHandler) ListByRecipe(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListByRecipe(r.Context(), chi.URLParam(r, "recipeId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	views, err := h.resolver.Comments(r.Context(), comments)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Create handles POST /api/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req createCommentRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), req.RecipeID, id.UserID, req.Text, req.Rating)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	view, err := h.resolver.Comment(r.Context(), comment)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Update handles PUT /api/comments/{commentId}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateCommentRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), chi.URLParam(r, "commentId"), id.UserID, req.Text, req.Rating)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	view, err := h.resolver.Comment(r.Context(), comment)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/comments/{commentId}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "commentId"), id.UserID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Comment deleted")
}
