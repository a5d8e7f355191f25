package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// sharingRepository implements repository.SharingRepository for PostgreSQL.
type sharingRepository struct {
	db *DB
}

// NewSharingRepository creates a new PostgreSQL sharing repository.
func NewSharingRepository(db *DB) repository.SharingRepository {
	return &sharingRepository{db: db}
}

const sharedColumns = `sr.id, sr.recipe_id, sr.owner_id, sr.created_at`

func scanShared(row pgx.Row) (*domain.SharedRecipe, error) {
	s := &domain.SharedRecipe{SharedWith: []domain.ShareGrant{}}
	if err := row.Scan(&s.ID, &s.RecipeID, &s.OwnerID, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func insertGrants(ctx context.Context, q Querier, entry *domain.SharedRecipe) error {
	for i, g := range entry.SharedWith {
		_, err := q.Exec(ctx,
			`INSERT INTO share_grants (shared_recipe_id, user_id, shared_at, position) VALUES ($1, $2, $3, $4)`,
			entry.ID, g.UserID, g.SharedAt, i,
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
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO shared_recipes (id, recipe_id, owner_id, created_at) VALUES ($1, $2, $3, $4)`,
			entry.ID, entry.RecipeID, entry.OwnerID, entry.CreatedAt,
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
	entry, err := scanShared(r.db.Pool.QueryRow(ctx, `SELECT `+sharedColumns+` FROM shared_recipes sr WHERE `+where, args...))
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
	return r.getOne(ctx, "sr.id = $1", id)
}

// GetByRecipeAndOwner retrieves the entry for a (recipe, owner) pair.
func (r *sharingRepository) GetByRecipeAndOwner(ctx context.Context, recipeID, ownerID string) (*domain.SharedRecipe, error) {
	return r.getOne(ctx, "sr.recipe_id = $1 AND sr.owner_id = $2", recipeID, ownerID)
}

// ListBySharedUser returns entries granting userID access.
func (r *sharingRepository) ListBySharedUser(ctx context.Context, userID string) ([]*domain.SharedRecipe, error) {
	return r.list(ctx, `
		SELECT `+sharedColumns+` FROM shared_recipes sr
		JOIN share_grants g ON g.shared_recipe_id = sr.id
		WHERE g.user_id = $1
		ORDER BY sr.created_at DESC`, userID)
}

// ListByOwner returns entries owned by ownerID.
func (r *sharingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedRecipe, error) {
	return r.list(ctx, `
		SELECT `+sharedColumns+` FROM shared_recipes sr
		WHERE sr.owner_id = $1
		ORDER BY sr.created_at DESC`, ownerID)
}

func (r *sharingRepository) list(ctx context.Context, q string, args ...any) ([]*domain.SharedRecipe, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sharings: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.SharedRecipe, error) {
		return scanShared(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sharings: %w", err)
	}
	if err := r.loadGrants(ctx, entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.SharedRecipe{}
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

	rows, err := r.db.Pool.Query(ctx, `
		SELECT shared_recipe_id, user_id, shared_at FROM share_grants
		WHERE shared_recipe_id = ANY($1)
		ORDER BY shared_recipe_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to load grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID string
		var g domain.ShareGrant
		if err := rows.Scan(&entryID, &g.UserID, &g.SharedAt); err != nil {
			return fmt.Errorf("failed to scan grant: %w", err)
		}
		g.SharedAt = g.SharedAt.UTC()
		if e, ok := byID[entryID]; ok {
			e.SharedWith = append(e.SharedWith, g)
		}
	}
	return rows.Err()
}

// Update replaces the grant list of an existing entry.
func (r *sharingRepository) Update(ctx context.Context, entry *domain.SharedRecipe) error {
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// Row lock so concurrent updates of one entry apply in turn.
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM shared_recipes WHERE id = $1 FOR UPDATE`, entry.ID).Scan(&id)
		if err != nil {
			if isNoRows(err) {
				return domain.ErrSharingNotFound
			}
			return fmt.Errorf("failed to lock sharing: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM share_grants WHERE shared_recipe_id = $1`, entry.ID); err != nil {
			return fmt.Errorf("failed to clear grants: %w", err)
		}
		return insertGrants(ctx, tx, entry)
	})
}

// Delete deletes an entry; its grants go with it through ON DELETE CASCADE.
func (r *sharingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM shared_recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sharing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSharingNotFound
	}
	return nil
}

// DeleteByRecipe deletes every entry of a recipe.
func (r *sharingRepository) DeleteByRecipe(ctx context.Context, recipeID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM shared_recipes WHERE recipe_id = $1`, recipeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sharings: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.SharingRepository = (*sharingRepository)(nil)
