// Package repository defines data access interfaces for RecipeBook.
// These interfaces abstract the document store, allowing MongoDB,
// PostgreSQL and SQLite implementations behind the same service layer.
package repository

import (
	"context"

	"github.com/prn-tf/recipebook/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	// Returns domain.ErrDuplicateIdentity if the username or email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDs retrieves the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email, including the password hash.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns users with pagination, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Recipe Repository
// =============================================================================

// RecipeRepository defines the interface for recipe data access.
type RecipeRepository interface {
	// Create stores a new recipe and assigns its ID.
	Create(ctx context.Context, recipe *domain.Recipe) error

	// GetByID retrieves a recipe by ID.
	GetByID(ctx context.Context, id string) (*domain.Recipe, error)

	// GetByIDs retrieves the recipes that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Recipe, error)

	// List returns all recipes, newest first.
	List(ctx context.Context) ([]*domain.Recipe, error)

	// Search returns recipes whose title, description or any ingredient
	// contains query, case-insensitively and literally. Newest first.
	Search(ctx context.Context, query string) ([]*domain.Recipe, error)

	// Update replaces the mutable fields of an existing recipe.
	Update(ctx context.Context, recipe *domain.Recipe) error

	// Delete deletes a recipe by ID.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Comment Repository
// =============================================================================

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	// Create stores a new comment and assigns its ID.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by ID.
	GetByID(ctx context.Context, id string) (*domain.Comment, error)

	// ListByRecipe returns a recipe's comments, newest first.
	ListByRecipe(ctx context.Context, recipeID string) ([]*domain.Comment, error)

	// Update replaces text and rating of an existing comment.
	Update(ctx context.Context, comment *domain.Comment) error

	// Delete deletes a comment by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByRecipe deletes all comments of a recipe and returns how many went.
	DeleteByRecipe(ctx context.Context, recipeID string) (int64, error)
}

// =============================================================================
// Sharing Repository
// =============================================================================

// SharingRepository defines the interface for sharing ledger access.
// Implementations enforce uniqueness of (RecipeID, OwnerID).
type SharingRepository interface {
	// Create stores a new entry with its grants.
	// Returns ErrDuplicateKey if an entry for (RecipeID, OwnerID) exists.
	Create(ctx context.Context, entry *domain.SharedRecipe) error

	// GetByID retrieves an entry by ID.
	GetByID(ctx context.Context, id string) (*domain.SharedRecipe, error)

	// GetByRecipeAndOwner retrieves the entry for a (recipe, owner) pair.
	GetByRecipeAndOwner(ctx context.Context, recipeID, ownerID string) (*domain.SharedRecipe, error)

	// ListBySharedUser returns entries granting userID access, newest first.
	ListBySharedUser(ctx context.Context, userID string) ([]*domain.SharedRecipe, error)

	// ListByOwner returns entries owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedRecipe, error)

	// Update replaces the grant list of an existing entry.
	Update(ctx context.Context, entry *domain.SharedRecipe) error

	// Delete deletes an entry by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByRecipe deletes every entry of a recipe and returns how many went.
	DeleteByRecipe(ctx context.Context, recipeID string) (int64, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Limit is the maximum number of items to return.
	Limit int

	// Offset is the number of items to skip.
	Offset int
}

// DefaultListOptions returns ListOptions with default values.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	// Items contains the returned items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// HasMore indicates if there are more items available.
	HasMore bool
}
