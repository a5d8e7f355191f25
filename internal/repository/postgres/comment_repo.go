package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// commentRepository implements repository.CommentRepository for PostgreSQL.
type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new PostgreSQL comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, recipe_id, user_id, text, rating, created_at`

func scanComment(row pgx.Row) (*domain.Comment, error) {
	c := &domain.Comment{}
	if err := row.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.Text, &c.Rating, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

// Create creates a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.RecipeID, comment.UserID, comment.Text, comment.Rating, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID.
func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := scanComment(r.db.Pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListByRecipe returns a recipe's comments, newest first.
func (r *commentRepository) ListByRecipe(ctx context.Context, recipeID string) ([]*domain.Comment, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE recipe_id = $1 ORDER BY created_at DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Update replaces text and rating.
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE comments SET text = $2, rating = $3 WHERE id = $1`,
		comment.ID, comment.Text, comment.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// Delete deletes a comment by ID.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// DeleteByRecipe deletes all comments of a recipe.
func (r *commentRepository) DeleteByRecipe(ctx context.Context, recipeID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM comments WHERE recipe_id = $1`, recipeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
