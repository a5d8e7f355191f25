package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// CommentService handles comment operations.
type CommentService struct {
	commentRepo repository.CommentRepository
	recipeRepo  repository.RecipeRepository
	events      EventRecorder
	logger      zerolog.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(repos *repository.Repositories, events EventRecorder, logger zerolog.Logger) *CommentService {
	return &CommentService{
		commentRepo: repos.Comment,
		recipeRepo:  repos.Recipe,
		events:      recorderOrNop(events),
		logger:      logger.With().Str("service", "comment").Logger(),
	}
}

// ListByRecipe returns the comments of a recipe, newest first.
func (s *CommentService) ListByRecipe(ctx context.Context, recipeID string) ([]*domain.Comment, error) {
	comments, err := s.commentRepo.ListByRecipe(ctx, recipeID)
	if err != nil {
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to list comments")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return comments, nil
}

// Create adds a comment by authorID to an existing recipe.
func (s *CommentService) Create(ctx context.Context, recipeID, authorID, text string, rating int) (*domain.Comment, error) {
	if _, err := s.recipeRepo.GetByID(ctx, recipeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to get recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	comment, err := domain.NewComment(recipeID, authorID, text, rating)
	if err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to create comment")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.events.Event(EventCommentCreated)
	s.logger.Info().
		Str("comment_id", comment.ID).
		Str("recipe_id", recipeID).
		Str("user_id", authorID).
		Msg("comment created")

	return comment, nil
}

func (s *CommentService) getOwned(ctx context.Context, commentID, callerID, action string) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Str("comment_id", commentID).Msg("failed to get comment")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !comment.IsAuthoredBy(callerID) {
		s.logger.Debug().Str("comment_id", commentID).Str("caller_id", callerID).Msg(action + " rejected: not author")
		return nil, domain.Forbidden("not authorized to "+action+" this comment", commentID)
	}
	return comment, nil
}

// Update replaces text and rating. Only the author may edit a comment.
func (s *CommentService) Update(ctx context.Context, commentID, callerID, text string, rating int) (*domain.Comment, error) {
	comment, err := s.getOwned(ctx, commentID, callerID, "modify")
	if err != nil {
		return nil, err
	}
	if err := comment.Edit(text, rating); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Str("comment_id", commentID).Msg("failed to update comment")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return comment, nil
}

// Delete removes a comment. Only the author may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, callerID string) error {
	if _, err := s.getOwned(ctx, commentID, callerID, "delete"); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Str("comment_id", commentID).Msg("failed to delete comment")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("comment_id", commentID).Msg("comment deleted")
	return nil
}
