package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// sharingRepository implements repository.SharingRepository for SQLite.
// Grants live in share_grants, ordered by their position in the list.
type sharingRepository struct {
	db *DB
}

// NewSharingRepository creates a new SQLite sharing repository.
func NewSharingRepository(db *DB) repository.SharingRepository {
	return &sharingRepository{db: db}
}

const sharedColumns = `sr.id, sr.recipe_id, sr.owner_id, sr.created_at`

func scanShared(row rowScanner) (*domain.SharedRecipe, error) {
	s := &domain.SharedRecipe{SharedWith: []domain.ShareGrant{}}
	var createdAt string
	if err := row.Scan(&s.ID, &s.RecipeID, &s.OwnerID, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = t
	return s, nil
}

func insertGrants(ctx context.Context, q querier, entry *domain.SharedRecipe) error {
	for i, g := range entry.SharedWith {
		_, err := q.ExecContext(ctx,
			`INSERT INTO share_grants (shared_recipe_id, user_id, shared_at, position) VALUES (?, ?, ?, ?)`,
			entry.ID, g.UserID, formatTime(g.SharedAt), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert grant: %w", err)
		}
	}
	return nil
}

// Create creates a new ledger entry with its grants.
func (r *sharingRepository) Create(ctx context.Context, entry *domain.SharedRecipe) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO shared_recipes (id, recipe_id, owner_id, created_at) VALUES (?, ?, ?, ?)`,
			entry.ID, entry.RecipeID, entry.OwnerID, formatTime(entry.CreatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicateKey
			}
			return fmt.Errorf("failed to create sharing: %w", err)
		}
		return insertGrants(ctx, tx, entry)
	})
}

func (r *sharingRepository) getOne(ctx context.Context, where string, args ...any) (*domain.SharedRecipe, error) {
	row := r.db.db.QueryRowContext(ctx, `SELECT `+sharedColumns+` FROM shared_recipes sr WHERE `+where, args...)
	entry, err := scanShared(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSharingNotFound
		}
		return nil, fmt.Errorf("failed to get sharing: %w", err)
	}
	if err := r.loadGrants(ctx, []*domain.SharedRecipe{entry}); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByID retrieves an entry by ID.
func (r *sharingRepository) GetByID(ctx context.Context, id string) (*domain.SharedRecipe, error) {
	return r.getOne(ctx, "sr.id = ?", id)
}

// GetByRecipeAndOwner retrieves the entry for a (recipe, owner) pair.
func (r *sharingRepository) GetByRecipeAndOwner(ctx context.Context, recipeID, ownerID string) (*domain.SharedRecipe, error) {
	return r.getOne(ctx, "sr.recipe_id = ? AND sr.owner_id = ?", recipeID, ownerID)
}

// ListBySharedUser returns entries granting userID access.
func (r *sharingRepository) ListBySharedUser(ctx context.Context, userID string) ([]*domain.SharedRecipe, error) {
	return r.list(ctx, `
		SELECT `+sharedColumns+` FROM shared_recipes sr
		JOIN share_grants g ON g.shared_recipe_id = sr.id
		WHERE g.user_id = ?
		ORDER BY sr.created_at DESC, sr.rowid DESC`, userID)
}

// ListByOwner returns entries owned by ownerID.
func (r *sharingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedRecipe, error) {
	return r.list(ctx, `
		SELECT `+sharedColumns+` FROM shared_recipes sr
		WHERE sr.owner_id = ?
		ORDER BY sr.created_at DESC, sr.rowid DESC`, ownerID)
}

func (r *sharingRepository) list(ctx context.Context, q string, args ...any) ([]*domain.SharedRecipe, error) {
	rows, err := r.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sharings: %w", err)
	}

	entries := []*domain.SharedRecipe{}
	for rows.Next() {
		entry, err := scanShared(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sharing: %w", err)
		}
		entries = append(entries, entry)
	}
	// Close before loading grants: the single connection is held until then.
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sharings: %w", err)
	}

	if err := r.loadGrants(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *sharingRepository) loadGrants(ctx context.Context, entries []*domain.SharedRecipe) error {
	if len(entries) == 0 {
		return nil
	}
	byID := make(map[string]*domain.SharedRecipe, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	rows, err := r.db.db.QueryContext(ctx,
		`SELECT shared_recipe_id, user_id, shared_at FROM share_grants
		WHERE shared_recipe_id IN (`+placeholders(len(ids))+`)
		ORDER BY shared_recipe_id, position`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to load grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID, userID, sharedAt string
		if err := rows.Scan(&entryID, &userID, &sharedAt); err != nil {
			return fmt.Errorf("failed to scan grant: %w", err)
		}
		t, err := parseTime(sharedAt)
		if err != nil {
			return err
		}
		if e, ok := byID[entryID]; ok {
			e.SharedWith = append(e.SharedWith, domain.ShareGrant{UserID: userID, SharedAt: t})
		}
	}
	return rows.Err()
}

// Update replaces the grant list of an existing entry.
func (r *sharingRepository) Update(ctx context.Context, entry *domain.SharedRecipe) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM shared_recipes WHERE id = ?`, entry.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check sharing: %w", err)
		}
		if exists == 0 {
			return domain.ErrSharingNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM share_grants WHERE shared_recipe_id = ?`, entry.ID); err != nil {
			return fmt.Errorf("failed to clear grants: %w", err)
		}
		return insertGrants(ctx, tx, entry)
	})
}

// Delete deletes an entry and its grants.
func (r *sharingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM share_grants WHERE shared_recipe_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete grants: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM shared_recipes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete sharing: %w", err)
		}
		return requireAffected(result, domain.ErrSharingNotFound)
	})
}

// DeleteByRecipe deletes every entry of a recipe.
func (r *sharingRepository) DeleteByRecipe(ctx context.Context, recipeID string) (int64, error) {
	var n int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM share_grants
			WHERE shared_recipe_id IN (SELECT id FROM shared_recipes WHERE recipe_id = ?)`, recipeID)
		if err != nil {
			return fmt.Errorf("failed to delete grants: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM shared_recipes WHERE recipe_id = ?`, recipeID)
		if err != nil {
			return fmt.Errorf("failed to delete sharings: %w", err)
		}
		n, err = result.RowsAffected()
		return err
	})
	return n, err
}

var _ repository.SharingRepository = (*sharingRepository)(nil)
