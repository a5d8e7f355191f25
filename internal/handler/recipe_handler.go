package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/service"
)

// imageFormField is the multipart field carrying an uploaded picture.
const imageFormField = "image"

// RecipeHandler serves recipes and their pictures.
type RecipeHandler struct {
	recipes      *service.RecipeService
	images       *service.ImageService
	resolver     *service.Resolver
	decoder      *RequestDecoder
	maxImageSize int64
	logger       zerolog.Logger
}

// RecipeHandlerConfig contains the dependencies of a RecipeHandler.
type RecipeHandlerConfig struct {
	Recipes  *service.RecipeService
	Images   *service.ImageService // nil disables uploads
	Resolver *service.Resolver
	Decoder  *RequestDecoder

	// MaxImageSize caps the multipart upload body.
	MaxImageSize int64

	Logger zerolog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(cfg RecipeHandlerConfig) *RecipeHandler {
	return &RecipeHandler{
		recipes:      cfg.Recipes,
		images:       cfg.Images,
		resolver:     cfg.Resolver,
		decoder:      cfg.Decoder,
		maxImageSize: cfg.MaxImageSize,
		logger:       cfg.Logger.With().Str("handler", "recipe").Logger(),
	}
}

// recipeRequest is shared by create and update. Absent fields stay nil.
type recipeRequest struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	Ingredients  []string           `json:"ingredients"`
	Instructions *string            `json:"instructions"`
	PrepTime     *int               `json:"prepTime"`
	Difficulty   *domain.Difficulty `json:"difficulty"`
	Category     *domain.Category   `json:"category"`
	Image        *string            `json:"image"`
	Rating       *float64           `json:"rating"`
}

func (req recipeRequest) fields() domain.RecipeFields {
	return domain.RecipeFields{
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		Difficulty:   req.Difficulty,
		Category:     req.Category,
		Image:        req.Image,
		Rating:       req.Rating,
	}
}

func (h *RecipeHandler) writeRecipes(w http.ResponseWriter, r *http.Request, recipes []*domain.Recipe) {
	views, err := h.resolver.Recipes(r.Context(), recipes)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RecipeHandler) writeRecipe(w http.ResponseWriter, r *http.Request, status int, recipe *domain.Recipe) {
	view, err := h.resolver.Recipe(r.Context(), recipe)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, view)
}

// List handles GET /api/recipes.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeRecipes(w, r, recipes)
}

// Search handles GET /api/recipes/search/{query}.
func (h *RecipeHandler) Search(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeRecipes(w, r, recipes)
}

// Get handles GET /api/recipes/{id}.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeRecipe(w, r, http.StatusOK, recipe)
}

// Create handles POST /api/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req recipeRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), id.UserID, req.fields())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeRecipe(w, r, http.StatusCreated, recipe)
}

// Update handles PUT /api/recipes/{id}.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req recipeRequest
	if err := h.decoder.Decode(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), chi.URLParam(r, "id"), id.UserID, req.fields())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeRecipe(w, r, http.StatusOK, recipe)
}

// Delete handles DELETE /api/recipes/{id}.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.recipes.Delete(r.Context(), chi.URLParam(r, "id"), id.UserID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Recipe deleted")
}

// UploadImage handles POST /api/recipes/{id}/image with a multipart "image" field.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+64<<10)
	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, domain.NewValidationError(imageFormField, "file is too large"))
			return
		}
		writeError(w, r, h.logger, domain.NewValidationError(imageFormField, "multipart file field is required"))
		return
	}
	defer file.Close()

	recipe, err := h.images.Upload(r.Context(), chi.URLParam(r, "id"), id.UserID, file)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeRecipe(w, r, http.StatusOK, recipe)
}
