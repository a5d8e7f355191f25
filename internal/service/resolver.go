package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// DefaultUsernameTTL is how long resolved usernames stay cached.
const DefaultUsernameTTL = 10 * time.Minute

// UserRef is the public view of a user referenced by another entity.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RecipeView is a recipe with its owner resolved.
type RecipeView struct {
	*domain.Recipe
	Owner *UserRef `json:"owner"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	*domain.Comment
	User *UserRef `json:"user"`
}

// GrantView is one grant of a sharing entry.
type GrantView struct {
	User     *UserRef  `json:"user"`
	SharedAt time.Time `json:"sharedAt"`
}

// SharedRecipeView is a sharing entry with recipe and users resolved.
// Recipe is nil if the recipe no longer exists.
type SharedRecipeView struct {
	ID         string      `json:"id"`
	Recipe     *RecipeView `json:"recipe"`
	Owner      *UserRef    `json:"owner"`
	SharedWith []GrantView `json:"sharedWith"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Resolver turns stored entities into views for API responses. Lookups are
// batched per call; usernames go through the cache when one is configured.
// References to users that no longer exist resolve to nil.
type Resolver struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	cache      repository.Cache
	ttl        time.Duration
	logger     zerolog.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(repos *repository.Repositories, cache repository.Cache, ttl time.Duration, logger zerolog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultUsernameTTL
	}
	return &Resolver{
		userRepo:   repos.User,
		recipeRepo: repos.Recipe,
		cache:      cache,
		ttl:        ttl,
		logger:     logger.With().Str("service", "resolver").Logger(),
	}
}

// UserRefOf returns the public view of u.
func UserRefOf(u *domain.User) *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username}
}

// Recipe resolves a single recipe.
func (r *Resolver) Recipe(ctx context.Context, recipe *domain.Recipe) (*RecipeView, error) {
	views, err := r.Recipes(ctx, []*domain.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Recipes resolves recipe owners, preserving order.
func (r *Resolver) Recipes(ctx context.Context, recipes []*domain.Recipe) ([]RecipeView, error) {
	ids := make([]string, 0, len(recipes))
	for _, rec := range recipes {
		ids = append(ids, rec.OwnerID)
	}
	names, err := r.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]RecipeView, 0, len(recipes))
	for _, rec := range recipes {
		views = append(views, RecipeView{Recipe: rec, Owner: names.ref(rec.OwnerID)})
	}
	return views, nil
}

// Comment resolves a single comment.
func (r *Resolver) Comment(ctx context.Context, comment *domain.Comment) (*CommentView, error) {
	views, err := r.Comments(ctx, []*domain.Comment{comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Comments resolves comment authors, preserving order.
func (r *Resolver) Comments(ctx context.Context, comments []*domain.Comment) ([]CommentView, error) {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	names, err := r.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{Comment: c, User: names.ref(c.UserID)})
	}
	return views, nil
}

// SharedRecipe resolves a single sharing entry.
func (r *Resolver) SharedRecipe(ctx context.Context, entry *domain.SharedRecipe) (*SharedRecipeView, error) {
	views, err := r.SharedRecipes(ctx, []*domain.SharedRecipe{entry})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// SharedRecipes resolves recipes, owners and grantees of sharing entries.
func (r *Resolver) SharedRecipes(ctx context.Context, entries []*domain.SharedRecipe) ([]SharedRecipeView, error) {
	recipeIDs := make([]string, 0, len(entries))
	userIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		recipeIDs = append(recipeIDs, e.RecipeID)
		userIDs = append(userIDs, e.OwnerID)
		for _, g := range e.SharedWith {
			userIDs = append(userIDs, g.UserID)
		}
	}

	recipes, err := r.recipeRepo.GetByIDs(ctx, dedupe(recipeIDs))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load shared recipes")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	byID := make(map[string]*domain.Recipe, len(recipes))
	for _, rec := range recipes {
		byID[rec.ID] = rec
		userIDs = append(userIDs, rec.OwnerID)
	}

	names, err := r.usernames(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]SharedRecipeView, 0, len(entries))
	for _, e := range entries {
		view := SharedRecipeView{
			ID:         e.ID,
			Owner:      names.ref(e.OwnerID),
			SharedWith: make([]GrantView, 0, len(e.SharedWith)),
			CreatedAt:  e.CreatedAt,
		}
		if rec, ok := byID[e.RecipeID]; ok {
			view.Recipe = &RecipeView{Recipe: rec, Owner: names.ref(rec.OwnerID)}
		}
		for _, g := range e.SharedWith {
			view.SharedWith = append(view.SharedWith, GrantView{User: names.ref(g.UserID), SharedAt: g.SharedAt})
		}
		views = append(views, view)
	}
	return views, nil
}

type usernameMap map[string]string

func (m usernameMap) ref(id string) *UserRef {
	name, ok := m[id]
	if !ok {
		return nil
	}
	return &UserRef{ID: id, Username: name}
}

// usernames maps user IDs to usernames, reading through the cache.
// Cache failures are logged and fall back to the repository.
func (r *Resolver) usernames(ctx context.Context, ids []string) (usernameMap, error) {
	ids = dedupe(ids)
	names := make(usernameMap, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	missing := ids
	if r.cache != nil {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, repository.CacheKeys.Username(id))
		}
		cached, err := r.cache.GetMulti(ctx, keys)
		if err != nil {
			r.logger.Warn().Err(err).Msg("username cache read failed")
		}
		missing = make([]string, 0, len(ids))
		for i, id := range ids {
			if v, ok := cached[keys[i]]; ok {
				names[id] = string(v)
			} else {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return names, nil
	}

	users, err := r.userRepo.GetByIDs(ctx, missing)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to resolve users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	fill := make(map[string][]byte, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
		fill[repository.CacheKeys.Username(u.ID)] = []byte(u.Username)
	}
	if r.cache != nil && len(fill) > 0 {
		if err := r.cache.SetMulti(ctx, fill, r.ttl); err != nil {
			r.logger.Warn().Err(err).Msg("username cache write failed")
		}
	}
	return names, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
