package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// ImageCleaner removes the stored image of a deleted recipe.
type ImageCleaner interface {
	RemoveForRecipe(ctx context.Context, recipe *domain.Recipe) error
}

// RecipeService handles recipe operations.
type RecipeService struct {
	recipeRepo  repository.RecipeRepository
	commentRepo repository.CommentRepository
	sharingRepo repository.SharingRepository
	images      ImageCleaner
	events      EventRecorder
	logger      zerolog.Logger
}

// NewRecipeService creates a new RecipeService. images may be nil when
// image storage is not configured.
func NewRecipeService(
	repos *repository.Repositories,
	images ImageCleaner,
	events EventRecorder,
	logger zerolog.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo:  repos.Recipe,
		commentRepo: repos.Comment,
		sharingRepo: repos.Sharing,
		images:      images,
		events:      recorderOrNop(events),
		logger:      logger.With().Str("service", "recipe").Logger(),
	}
}

// List returns every recipe, newest first.
func (s *RecipeService) List(ctx context.Context) ([]*domain.Recipe, error) {
	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list recipes")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return recipes, nil
}

// Get retrieves a recipe by ID.
func (s *RecipeService) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", id).Msg("failed to get recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return recipe, nil
}

// Create stores a new recipe owned by ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID string, fields domain.RecipeFields) (*domain.Recipe, error) {
	if err := checkImageField(fields, ""); err != nil {
		return nil, err
	}
	recipe, err := domain.NewRecipe(ownerID, fields)
	if err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to create recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.events.Event(EventRecipeCreated)
	s.logger.Info().
		Str("recipe_id", recipe.ID).
		Str("owner_id", ownerID).
		Str("title", recipe.Title).
		Msg("recipe created")

	return recipe, nil
}

// Update applies a partial update. Only the owner may update a recipe.
func (s *RecipeService) Update(ctx context.Context, id, callerID string, fields domain.RecipeFields) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recipe.IsOwnedBy(callerID) {
		s.logger.Debug().Str("recipe_id", id).Str("caller_id", callerID).Msg("update rejected: not owner")
		return nil, domain.Forbidden("not authorized to modify this recipe", id)
	}

	if err := checkImageField(fields, recipe.Image); err != nil {
		return nil, err
	}
	if err := recipe.Apply(fields); err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", id).Msg("failed to update recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("recipe_id", id).Msg("recipe updated")
	return recipe, nil
}

// Delete removes a recipe, then its comments, sharing entries and image.
// Once the recipe is gone, cascade failures are logged and not returned.
func (s *RecipeService) Delete(ctx context.Context, id, callerID string) error {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !recipe.IsOwnedBy(callerID) {
		s.logger.Debug().Str("recipe_id", id).Str("caller_id", callerID).Msg("delete rejected: not owner")
		return domain.Forbidden("not authorized to delete this recipe", id)
	}

	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", id).Msg("failed to delete recipe")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	comments, err := s.commentRepo.DeleteByRecipe(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("recipe_id", id).Msg("failed to delete comments of deleted recipe")
	}
	shares, err := s.sharingRepo.DeleteByRecipe(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("recipe_id", id).Msg("failed to delete sharing entries of deleted recipe")
	}
	if s.images != nil && recipe.Image != "" {
		if err := s.images.RemoveForRecipe(ctx, recipe); err != nil {
			s.logger.Error().Err(err).Str("recipe_id", id).Msg("failed to delete image of deleted recipe")
		}
	}

	s.events.Event(EventRecipeDeleted)
	s.logger.Info().
		Str("recipe_id", id).
		Int64("comments_deleted", comments).
		Int64("shares_deleted", shares).
		Msg("recipe deleted")

	return nil
}

// Search returns recipes whose title, description or any ingredient
// contains query, ignoring case. The query is matched literally.
func (s *RecipeService) Search(ctx context.Context, query string) ([]*domain.Recipe, error) {
	query = strings.TrimSpace(query)
	recipes, err := s.recipeRepo.Search(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to search recipes")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return recipes, nil
}

// checkImageField rejects client-set managed image URLs. Stored images are
// only attached through ImageService.Upload; a recipe may keep its current
// one but never point at another recipe's picture, which its delete would
// remove.
func checkImageField(fields domain.RecipeFields, current string) error {
	if fields.Image == nil {
		return nil
	}
	image := strings.TrimSpace(*fields.Image)
	if strings.HasPrefix(image, ImageURLPrefix) && image != current {
		return domain.NewValidationError("image", "uploaded images must be set through the image upload")
	}
	return nil
}
