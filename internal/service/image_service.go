package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
	"github.com/prn-tf/recipebook/internal/storage"
)

// ImageURLPrefix is prepended to stored image keys in Recipe.Image.
const ImageURLPrefix = "/api/images/"

const (
	imageSuffix     = ".jpg"
	thumbnailSuffix = "_thumb.jpg"
)

// ImageService stores recipe pictures and their thumbnails.
type ImageService struct {
	recipeRepo repository.RecipeRepository
	backend    storage.Backend
	processor  *storage.ImageProcessor
	events     EventRecorder
	logger     zerolog.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(
	recipeRepo repository.RecipeRepository,
	backend storage.Backend,
	processor *storage.ImageProcessor,
	events EventRecorder,
	logger zerolog.Logger,
) *ImageService {
	return &ImageService{
		recipeRepo: recipeRepo,
		backend:    backend,
		processor:  processor,
		events:     recorderOrNop(events),
		logger:     logger.With().Str("service", "image").Logger(),
	}
}

// ThumbnailKey returns the key of the thumbnail stored next to key.
func ThumbnailKey(key string) string {
	return strings.TrimSuffix(key, imageSuffix) + thumbnailSuffix
}

// ImageKey extracts the storage key from a Recipe.Image value. Images set to
// external URLs are not managed here and report false.
func ImageKey(image string) (string, bool) {
	key, ok := strings.CutPrefix(image, ImageURLPrefix)
	if !ok || storage.ValidateKey(key) != nil || !strings.HasSuffix(key, imageSuffix) {
		return "", false
	}
	return key, true
}

// Upload replaces the picture of a recipe owned by callerID.
func (s *ImageService) Upload(ctx context.Context, recipeID, callerID string, r io.Reader) (*domain.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to get recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !recipe.IsOwnedBy(callerID) {
		return nil, domain.Forbidden("not authorized to modify this recipe", recipeID)
	}

	img, err := s.processor.Process(r)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrImageTooLarge):
			return nil, domain.NewValidationError("image", "file is too large")
		case errors.Is(err, storage.ErrUnsupportedImage):
			return nil, domain.NewValidationError("image", "unsupported or corrupt image")
		}
		s.logger.Error().Err(err).Msg("failed to process image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	key := uuid.NewString() + imageSuffix
	if err := s.put(ctx, key, img.Full); err != nil {
		return nil, err
	}
	if err := s.put(ctx, ThumbnailKey(key), img.Thumbnail); err != nil {
		s.remove(ctx, key)
		return nil, err
	}

	previous := recipe.Image
	url := ImageURLPrefix + key
	if err := recipe.Apply(domain.RecipeFields{Image: &url}); err != nil {
		s.remove(ctx, key)
		return nil, err
	}
	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		s.remove(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to save recipe image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if oldKey, ok := ImageKey(previous); ok {
		s.remove(ctx, oldKey)
	}

	s.events.Event(EventImageUploaded)
	s.logger.Info().
		Str("recipe_id", recipeID).
		Str("key", key).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("recipe image stored")

	return recipe, nil
}

func (s *ImageService) put(ctx context.Context, key string, data []byte) error {
	if err := s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.ImageContentType); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store image")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// remove deletes an image and its thumbnail, logging failures.
func (s *ImageService) remove(ctx context.Context, key string) {
	for _, k := range []string{key, ThumbnailKey(key)} {
		if err := s.backend.Delete(ctx, k); err != nil {
			s.logger.Warn().Err(err).Str("key", k).Msg("failed to delete image")
		}
	}
}

// Open returns a stored image or thumbnail by key.
func (s *ImageService) Open(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.ErrImageNotFound
		}
		s.logger.Error().Err(err).Str("key", key).Msg("failed to open image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return obj, nil
}

// RemoveForRecipe deletes the managed image of recipe, if any.
func (s *ImageService) RemoveForRecipe(ctx context.Context, recipe *domain.Recipe) error {
	key, ok := ImageKey(recipe.Image)
	if !ok {
		return nil
	}
	var errs []error
	for _, k := range []string{key, ThumbnailKey(key)} {
		if err := s.backend.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ImageCleaner = (*ImageService)(nil)
