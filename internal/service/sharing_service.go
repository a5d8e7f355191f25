package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/lock"
	"github.com/prn-tf/recipebook/internal/repository"
)

// SharingService maintains the sharing ledger.
//
// Updates of one (recipe, owner) entry are serialized with a lock, and the
// backend's unique index on that pair catches any insert race that slips
// past it (for example a lock that expired mid-update).
type SharingService struct {
	sharingRepo repository.SharingRepository
	recipeRepo  repository.RecipeRepository
	userRepo    repository.UserRepository
	locker      lock.Locker
	lockOpts    lock.Options
	events      EventRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSharingService creates a new SharingService.
func NewSharingService(repos *repository.Repositories, locker lock.Locker, events EventRecorder, logger zerolog.Logger) *SharingService {
	return &SharingService{
		sharingRepo: repos.Sharing,
		recipeRepo:  repos.Recipe,
		userRepo:    repos.User,
		locker:      locker,
		lockOpts:    lock.DefaultOptions,
		events:      recorderOrNop(events),
		logger:      logger.With().Str("service", "sharing").Logger(),
		now:         time.Now,
	}
}

// ListSharedWithMe returns entries that grant userID access, newest first.
func (s *SharingService) ListSharedWithMe(ctx context.Context, userID string) ([]*domain.SharedRecipe, error) {
	entries, err := s.sharingRepo.ListBySharedUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list shared recipes")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return entries, nil
}

// ListMyShares returns entries owned by ownerID.
func (s *SharingService) ListMyShares(ctx context.Context, ownerID string) ([]*domain.SharedRecipe, error) {
	entries, err := s.sharingRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to list own shares")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return entries, nil
}

// Share grants targetUsername access to a recipe owned by ownerID.
// Checks run in order: recipe exists, caller owns it, target exists,
// target is not the caller, target not already granted.
func (s *SharingService) Share(ctx context.Context, recipeID, ownerID, targetUsername string) (*domain.SharedRecipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to get recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !recipe.IsOwnedBy(ownerID) {
		s.logger.Debug().Str("recipe_id", recipeID).Str("caller_id", ownerID).Msg("share rejected: not owner")
		return nil, domain.Forbidden("not authorized to share this recipe", recipeID)
	}

	target, err := s.userRepo.GetByUsername(ctx, domain.NormalizeUsername(targetUsername))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTargetUserNotFound
		}
		s.logger.Error().Err(err).Str("username", targetUsername).Msg("failed to get share target")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if target.ID == ownerID {
		return nil, domain.ErrSelfShare
	}

	var entry *domain.SharedRecipe
	err = s.withLock(ctx, recipeID, ownerID, func(ctx context.Context) error {
		var grantErr error
		entry, grantErr = s.grant(ctx, recipeID, ownerID, target.ID)
		return grantErr
	})
	if err != nil {
		return nil, err
	}

	s.events.Event(EventRecipeShared)
	s.logger.Info().
		Str("sharing_id", entry.ID).
		Str("recipe_id", recipeID).
		Str("owner_id", ownerID).
		Str("target_id", target.ID).
		Msg("recipe shared")

	return entry, nil
}

// grant finds or creates the entry and appends targetID. Must run under the lock.
func (s *SharingService) grant(ctx context.Context, recipeID, ownerID, targetID string) (*domain.SharedRecipe, error) {
	entry, err := s.sharingRepo.GetByRecipeAndOwner(ctx, recipeID, ownerID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		entry = domain.NewSharedRecipe(recipeID, ownerID)
		if err := entry.Grant(targetID, s.now()); err != nil {
			return nil, err
		}
		err = s.sharingRepo.Create(ctx, entry)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to create sharing entry")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		// Lost an insert race: append to the winner's entry instead.
		s.logger.Warn().Str("recipe_id", recipeID).Msg("sharing entry created concurrently, appending")
		entry, err = s.sharingRepo.GetByRecipeAndOwner(ctx, recipeID, ownerID)
		if err != nil {
			s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to reload sharing entry")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	case err != nil:
		s.logger.Error().Err(err).Str("recipe_id", recipeID).Msg("failed to get sharing entry")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := entry.Grant(targetID, s.now()); err != nil {
		return nil, err
	}
	if err := s.sharingRepo.Update(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("sharing_id", entry.ID).Msg("failed to update sharing entry")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return entry, nil
}

// Unshare revokes targetUserID's grant on an entry owned by callerID.
// Revoking a user without a grant succeeds. The entry is deleted once no
// grants remain.
func (s *SharingService) Unshare(ctx context.Context, sharingID, targetUserID, callerID string) error {
	entry, err := s.getEntry(ctx, sharingID)
	if err != nil {
		return err
	}
	if entry.OwnerID != callerID {
		s.logger.Debug().Str("sharing_id", sharingID).Str("caller_id", callerID).Msg("unshare rejected: not owner")
		return domain.Forbidden("not authorized to modify this sharing", sharingID)
	}

	var deleted bool
	err = s.withLock(ctx, entry.RecipeID, entry.OwnerID, func(ctx context.Context) error {
		// Reload under the lock; the entry may have changed or gone since.
		entry, err := s.getEntry(ctx, sharingID)
		if err != nil {
			return err
		}
		if !entry.Revoke(targetUserID) {
			return nil
		}
		if entry.IsEmpty() {
			deleted = true
			if err := s.sharingRepo.Delete(ctx, entry.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error().Err(err).Str("sharing_id", sharingID).Msg("failed to delete sharing entry")
				return fmt.Errorf("%w: %v", ErrInternalError, err)
			}
			return nil
		}
		if err := s.sharingRepo.Update(ctx, entry); err != nil {
			s.logger.Error().Err(err).Str("sharing_id", sharingID).Msg("failed to update sharing entry")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Event(EventRecipeUnshared)
	s.logger.Info().
		Str("sharing_id", sharingID).
		Str("target_id", targetUserID).
		Bool("entry_deleted", deleted).
		Msg("recipe unshared")

	return nil
}

func (s *SharingService) getEntry(ctx context.Context, sharingID string) (*domain.SharedRecipe, error) {
	entry, err := s.sharingRepo.GetByID(ctx, sharingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSharingNotFound
		}
		s.logger.Error().Err(err).Str("sharing_id", sharingID).Msg("failed to get sharing entry")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return entry, nil
}

// withLock runs fn under the ledger lock of (recipeID, ownerID). Errors of
// fn pass through untouched; lock failures become ErrSharingBusy or
// ErrInternalError.
func (s *SharingService) withLock(ctx context.Context, recipeID, ownerID string, fn func(ctx context.Context) error) error {
	key := lock.Keys.Sharing(recipeID, ownerID)
	ran := false
	err := lock.WithLock(ctx, s.locker, key, s.lockOpts, func(ctx context.Context) error {
		ran = true
		return fn(ctx)
	})
	if err == nil || ran {
		return err
	}
	if errors.Is(err, lock.ErrNotAcquired) {
		s.logger.Warn().Str("lock", key).Msg("sharing lock busy")
		return ErrSharingBusy
	}
	s.logger.Error().Err(err).Str("lock", key).Msg("failed to acquire sharing lock")
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
