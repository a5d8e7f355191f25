package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// recipeRepository implements repository.RecipeRepository for SQLite.
// Ingredients are stored as a JSON array.
type recipeRepository struct {
	db *DB
}

// NewRecipeRepository creates a new SQLite recipe repository.
func NewRecipeRepository(db *DB) repository.RecipeRepository {
	return &recipeRepository{db: db}
}

const recipeColumns = `id, owner_id, title, description, ingredients, instructions,
	prep_time, difficulty, category, image, rating, created_at, updated_at`

func scanRecipe(row rowScanner) (*domain.Recipe, error) {
	r := &domain.Recipe{}
	var ingredients, createdAt, updatedAt string
	var difficulty, category string
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &ingredients, &r.Instructions,
		&r.PrepTime, &difficulty, &category, &r.Image, &r.Rating, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	r.Difficulty = domain.Difficulty(difficulty)
	r.Category = domain.Category(category)
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// Create creates a new recipe.
func (r *recipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to encode ingredients: %w", err)
	}

	_, err = r.db.db.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID, recipe.OwnerID, recipe.Title, recipe.Description, string(ingredients), recipe.Instructions,
		recipe.PrepTime, string(recipe.Difficulty), string(recipe.Category), recipe.Image, recipe.Rating,
		formatTime(recipe.CreatedAt), formatTime(recipe.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe by ID.
func (r *recipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	row := r.db.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	recipe, err := scanRecipe(row)
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
	return r.query(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
}

// List returns all recipes, newest first.
func (r *recipeRepository) List(ctx context.Context) ([]*domain.Recipe, error) {
	return r.query(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY created_at DESC, rowid DESC`)
}

// Search filters in Go: SQLite's LIKE and lower() fold ASCII only, which
// would miss "PÂTES" against "pâtes".
func (r *recipeRepository) Search(ctx context.Context, query string) ([]*domain.Recipe, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]*domain.Recipe, 0, len(all))
	for _, recipe := range all {
		if recipe.Matches(query) {
			matches = append(matches, recipe)
		}
	}
	return matches, nil
}

func (r *recipeRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Recipe, error) {
	rows, err := r.db.db.QueryContext(ctx, q, args...)
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

// Update replaces the mutable fields of a recipe. Owner and creation time are not written.
func (r *recipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to encode ingredients: %w", err)
	}

	result, err := r.db.db.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, description = ?, ingredients = ?, instructions = ?, prep_time = ?,
			difficulty = ?, category = ?, image = ?, rating = ?, updated_at = ?
		WHERE id = ?`,
		recipe.Title, recipe.Description, string(ingredients), recipe.Instructions, recipe.PrepTime,
		string(recipe.Difficulty), string(recipe.Category), recipe.Image, recipe.Rating,
		formatTime(recipe.UpdatedAt), recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return requireAffected(result, domain.ErrRecipeNotFound)
}

// Delete deletes a recipe by ID.
func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return requireAffected(result, domain.ErrRecipeNotFound)
}

var _ repository.RecipeRepository = (*recipeRepository)(nil)
