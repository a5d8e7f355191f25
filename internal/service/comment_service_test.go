package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/domain"
)

func TestCommentService(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	recipes := NewRecipeService(repos.Repositories, nil, nil, zerolog.Nop())
	svc := NewCommentService(repos.Repositories, nil, zerolog.Nop())

	recipe, err := recipes.Create(ctx, "owner-1", carbonaraFields())
	require.NoError(t, err)

	t.Run("create checks the recipe before the body", func(t *testing.T) {
		_, err := svc.Create(ctx, "missing", "u2", "", 0)
		require.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})

	t.Run("create validates text and rating", func(t *testing.T) {
		tests := []struct {
			name   string
			text   string
			rating int
		}{
			{name: "text too short", text: " ok ", rating: 4},
			{name: "rating too low", text: "Delicious", rating: 0},
			{name: "rating too high", text: "Delicious", rating: 6},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, recipe.ID, "u2", tt.text, tt.rating)
				require.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	})

	first, err := svc.Create(ctx, recipe.ID, "u2", "Delicious", 5)
	require.NoError(t, err)
	second, err := svc.Create(ctx, recipe.ID, "u3", "  Too salty  ", 2)
	require.NoError(t, err)
	require.Equal(t, "Too salty", second.Text)

	list, err := svc.ListByRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID, "newest first")

	t.Run("only the author may edit", func(t *testing.T) {
		_, err := svc.Update(ctx, first.ID, "u3", "Hijacked", 1)
		require.ErrorIs(t, err, domain.ErrForbidden)

		updated, err := svc.Update(ctx, first.ID, "u2", "Still delicious", 4)
		require.NoError(t, err)
		require.Equal(t, "Still delicious", updated.Text)
		require.Equal(t, 4, updated.Rating)

		_, err = svc.Update(ctx, first.ID, "u2", "Still delicious", 9)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("only the author may delete", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(ctx, second.ID, "u2"), domain.ErrForbidden)
		require.NoError(t, svc.Delete(ctx, second.ID, "u3"))
		require.ErrorIs(t, svc.Delete(ctx, second.ID, "u3"), domain.ErrCommentNotFound)
	})

	list, err = svc.ListByRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
