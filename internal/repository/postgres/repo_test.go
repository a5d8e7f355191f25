package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/config"
	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

// newLiveRepos opens RECIPEBOOK_TEST_POSTGRES_DSN or skips. The database is
// shared between runs, so tests key their rows on a fresh run token.
func newLiveRepos(t *testing.T) (*DB, *repository.Repositories, string) {
	t.Helper()
	dsn := os.Getenv("RECIPEBOOK_TEST_POSTGRES_DSN")
	if testing.Short() || dsn == "" {
		t.Skip("RECIPEBOOK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	db, err := NewDB(ctx, config.DatabaseConfig{Driver: "postgres", URL: dsn, SlowQueryThreshold: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	return db, NewRepositories(db), uuid.NewString()[:8]
}

func liveRecipe(t *testing.T, repos *repository.Repositories, ownerID, title string, ingredients ...string) *domain.Recipe {
	t.Helper()
	desc := "Une recette"
	instr := "Mélanger."
	r, err := domain.NewRecipe(ownerID, domain.RecipeFields{
		Title:        &title,
		Description:  &desc,
		Ingredients:  ingredients,
		Instructions: &instr,
	})
	require.NoError(t, err)
	require.NoError(t, repos.Recipe.Create(context.Background(), r))
	t.Cleanup(func() { _ = repos.Recipe.Delete(context.Background(), r.ID) })
	return r
}

func TestPostgres_MigrateIdempotent(t *testing.T) {
	db, _, _ := newLiveRepos(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	v, err := db.MigrationVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestPostgres_SharingUniqueRecipeOwner(t *testing.T) {
	_, repos, run := newLiveRepos(t)
	ctx := context.Background()
	recipeID := "recipe-" + run
	alice, dave, bob := "alice-"+run, "dave-"+run, "bob-"+run
	t.Cleanup(func() { _, _ = repos.Sharing.DeleteByRecipe(context.Background(), recipeID) })

	entry := domain.NewSharedRecipe(recipeID, alice)
	require.NoError(t, entry.Grant(bob, time.Now()))
	require.NoError(t, repos.Sharing.Create(ctx, entry))

	dup := domain.NewSharedRecipe(recipeID, alice)
	require.NoError(t, dup.Grant(dave, time.Now()))
	require.ErrorIs(t, repos.Sharing.Create(ctx, dup), repository.ErrDuplicateKey)

	// The rejected entry left no grants behind.
	withDave, err := repos.Sharing.ListBySharedUser(ctx, dave)
	require.NoError(t, err)
	require.Empty(t, withDave)

	other := domain.NewSharedRecipe(recipeID, dave)
	require.NoError(t, other.Grant(bob, time.Now()))
	require.NoError(t, repos.Sharing.Create(ctx, other))

	withBob, err := repos.Sharing.ListBySharedUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, withBob, 2)

	n, err := repos.Sharing.DeleteByRecipe(ctx, recipeID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	withBob, err = repos.Sharing.ListBySharedUser(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, withBob)
}

func TestPostgres_SearchMatchesLiterally(t *testing.T) {
	_, repos, run := newLiveRepos(t)
	ctx := context.Background()

	percent := liveRecipe(t, repos, "u-"+run, "Tarte "+run+" 50% sucre", "farine")
	liveRecipe(t, repos, "u-"+run, "Tarte "+run+" 50 sucre", "farine")
	underscore := liveRecipe(t, repos, "u-"+run, "Pain", "levain_"+run)
	liveRecipe(t, repos, "u-"+run, "Pain complet", "levainx"+run)
	backslash := liveRecipe(t, repos, "u-"+run, `Crêpe \`+run, "lait")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "percent", query: run + " 50%", want: []string{percent.ID}},
		{name: "underscore in ingredient", query: "LEVAIN_" + run, want: []string{underscore.ID}},
		{name: "backslash", query: `\` + run, want: []string{backslash.ID}},
		{name: "case folded", query: "TARTE " + run + " 50% SUCRE", want: []string{percent.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repos.Recipe.Search(ctx, tt.query)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestPostgres_UserUniqueness(t *testing.T) {
	_, repos, run := newLiveRepos(t)
	ctx := context.Background()

	u := domain.NewUser("chef"+run, "chef"+run+"@example.com", "hash")
	require.NoError(t, repos.User.Create(ctx, u))

	dup := domain.NewUser("chef"+run, "other"+run+"@example.com", "hash")
	require.ErrorIs(t, repos.User.Create(ctx, dup), domain.ErrDuplicateIdentity)

	got, err := repos.User.GetByEmail(ctx, "chef"+run+"@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}
