package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// recipeRepository implements repository.RecipeRepository for PostgreSQL.
type recipeRepository struct {
	db *DB
}

// NewRecipeRepository creates a new PostgreSQL recipe repository.
func NewRecipeRepository(db *DB) repository.RecipeRepository {
	return &recipeRepository{db: db}
}

const recipeColumns = `id, owner_id, title, description, ingredients, instructions,
	prep_time, difficulty, category, image, rating, created_at, updated_at`

func scanRecipe(row pgx.Row) (*domain.Recipe, error) {
	r := &domain.Recipe{}
	var difficulty, category string
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Ingredients, &r.Instructions,
		&r.PrepTime, &difficulty, &category, &r.Image, &r.Rating, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Difficulty = domain.Difficulty(difficulty)
	r.Category = domain.Category(category)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

// Create creates a new recipe.
func (r *recipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO recipes (`+recipeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		recipe.ID, recipe.OwnerID, recipe.Title, recipe.Description, recipe.Ingredients, recipe.Instructions,
		recipe.PrepTime, string(recipe.Difficulty), string(recipe.Category), recipe.Image, recipe.Rating,
		recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe by ID.
func (r *recipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	recipe, err := scanRecipe(r.db.Pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return recipe, nil
}

// GetByIDs retrieves the recipes that exist among ids.
func (r *recipeRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ANY($1)`, ids)
}

// List returns all recipes, newest first.
func (r *recipeRepository) List(ctx context.Context) ([]*domain.Recipe, error) {
	return r.query(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY created_at DESC`)
}

// Search matches title, description or any ingredient with ILIKE.
func (r *recipeRepository) Search(ctx context.Context, query string) ([]*domain.Recipe, error) {
	return r.query(ctx, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE title ILIKE $1
			OR description ILIKE $1
			OR EXISTS (SELECT 1 FROM unnest(ingredients) AS ing WHERE ing ILIKE $1)
		ORDER BY created_at DESC`, likePattern(query))
}

func (r *recipeRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Recipe, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}
	return recipes, nil
}

// Update replaces the mutable fields of a recipe.
func (r *recipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE recipes
		SET title = $2, description = $3, ingredients = $4, instructions = $5, prep_time = $6,
			difficulty = $7, category = $8, image = $9, rating = $10, updated_at = $11
		WHERE id = $1`,
		recipe.ID, recipe.Title, recipe.Description, recipe.Ingredients, recipe.Instructions, recipe.PrepTime,
		string(recipe.Difficulty), string(recipe.Category), recipe.Image, recipe.Rating, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

// Delete deletes a recipe by ID.
func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

var _ repository.RecipeRepository = (*recipeRepository)(nil)
