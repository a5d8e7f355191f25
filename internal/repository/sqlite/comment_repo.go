package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// commentRepository implements repository.CommentRepository for SQLite.
type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, recipe_id, user_id, text, rating, created_at`

func scanComment(row rowScanner) (*domain.Comment, error) {
	c := &domain.Comment{}
	var createdAt string
	if err := row.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.Text, &c.Rating, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return c, nil
}

// Create creates a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	_, err := r.db.db.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.RecipeID, comment.UserID, comment.Text, comment.Rating, formatTime(comment.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID.
func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	row := r.db.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
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
	rows, err := r.db.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE recipe_id = ? ORDER BY created_at DESC, rowid DESC`,
		recipeID,
	)
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
	result, err := r.db.db.ExecContext(ctx,
		`UPDATE comments SET text = ?, rating = ? WHERE id = ?`,
		comment.Text, comment.Rating, comment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return requireAffected(result, domain.ErrCommentNotFound)
}

// Delete deletes a comment by ID.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireAffected(result, domain.ErrCommentNotFound)
}

// DeleteByRecipe deletes all comments of a recipe.
func (r *commentRepository) DeleteByRecipe(ctx context.Context, recipeID string) (int64, error) {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM comments WHERE recipe_id = ?`, recipeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return result.RowsAffected()
}

var _ repository.CommentRepository = (*commentRepository)(nil)
