package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func carbonaraFields() domain.RecipeFields {
	return domain.RecipeFields{
		Title:        ptr("Spaghetti Carbonara"),
		Description:  ptr("Classic Roman pasta"),
		Ingredients:  []string{"spaghetti", "guanciale", "eggs", "pecorino"},
		Instructions: ptr("Cook pasta, fry guanciale, mix with eggs and cheese."),
		PrepTime:     ptr(25),
		Difficulty:   ptr(domain.DifficultyMedium),
		Category:     ptr(domain.CategoryMain),
	}
}

func TestRecipeService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewRecipeService(newTestRepos().Repositories, nil, nil, zerolog.Nop())

	t.Run("applies defaults", func(t *testing.T) {
		recipe, err := svc.Create(ctx, "owner-1", domain.RecipeFields{
			Title:        ptr("Toast"),
			Description:  ptr("Bread, toasted"),
			Ingredients:  []string{"bread"},
			Instructions: ptr("Toast it."),
		})
		require.NoError(t, err)
		require.NotEmpty(t, recipe.ID)
		require.Equal(t, "owner-1", recipe.OwnerID)
		require.Equal(t, domain.DefaultPrepTime, recipe.PrepTime)
		require.Equal(t, domain.DifficultyEasy, recipe.Difficulty)
		require.Equal(t, domain.CategoryMain, recipe.Category)
		require.Equal(t, domain.DefaultRating, recipe.Rating)
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		fields := carbonaraFields()
		fields.Difficulty = ptr(domain.Difficulty("extreme"))
		_, err := svc.Create(ctx, "owner-1", fields)
		require.ErrorIs(t, err, domain.ErrValidation)

		fields = carbonaraFields()
		fields.Ingredients = []string{}
		_, err = svc.Create(ctx, "owner-1", fields)
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRecipeService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewRecipeService(newTestRepos().Repositories, nil, nil, zerolog.Nop())
	recipe, err := svc.Create(ctx, "owner-1", carbonaraFields())
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  string
		fields  domain.RecipeFields
		wantErr error
	}{
		{name: "non-owner is forbidden", caller: "someone-else", fields: domain.RecipeFields{Title: ptr("Mine now")}, wantErr: domain.ErrForbidden},
		{name: "invalid patch is rejected", caller: "owner-1", fields: domain.RecipeFields{PrepTime: ptr(-5)}, wantErr: domain.ErrValidation},
		{name: "partial update by owner", caller: "owner-1", fields: domain.RecipeFields{Title: ptr("Carbonara deluxe")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.Update(ctx, recipe.ID, tt.caller, tt.fields)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Carbonara deluxe", updated.Title)
			require.Equal(t, recipe.Description, updated.Description)
			require.Equal(t, recipe.Ingredients, updated.Ingredients)
			require.Equal(t, 25, updated.PrepTime)
		})
	}

	_, err = svc.Update(ctx, "missing", "owner-1", domain.RecipeFields{})
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)

	stored, err := svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	require.Equal(t, "Carbonara deluxe", stored.Title)
}

func TestRecipeService_ManagedImageField(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	svc := NewRecipeService(repos.Repositories, nil, nil, zerolog.Nop())

	victim, err := svc.Create(ctx, "alice", carbonaraFields())
	require.NoError(t, err)
	victim.Image = ImageURLPrefix + "alice.jpg"
	require.NoError(t, repos.Recipe.Update(ctx, victim))

	fields := carbonaraFields()
	fields.Image = ptr(victim.Image)
	_, err = svc.Create(ctx, "mallory", fields)
	require.ErrorIs(t, err, domain.ErrValidation)

	fields.Image = ptr("https://example.com/carbonara.jpg")
	own, err := svc.Create(ctx, "mallory", fields)
	require.NoError(t, err)

	tests := []struct {
		name     string
		recipeID string
		caller   string
		image    string
		wantErr  error
	}{
		{name: "other recipe's image", recipeID: own.ID, caller: "mallory", image: victim.Image, wantErr: domain.ErrValidation},
		{name: "padded managed url", recipeID: own.ID, caller: "mallory", image: "  " + victim.Image, wantErr: domain.ErrValidation},
		{name: "external url", recipeID: own.ID, caller: "mallory", image: "https://example.com/other.jpg"},
		{name: "current managed image kept", recipeID: victim.ID, caller: "alice", image: victim.Image},
		{name: "cleared", recipeID: own.ID, caller: "mallory", image: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.Update(ctx, tt.recipeID, tt.caller, domain.RecipeFields{Image: ptr(tt.image)})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.image, updated.Image)
		})
	}

	stored, err := svc.Get(ctx, victim.ID)
	require.NoError(t, err)
	require.Equal(t, ImageURLPrefix+"alice.jpg", stored.Image)
}

func TestRecipeService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	images := &MockImageCleaner{}
	svc := NewRecipeService(repos.Repositories, images, nil, zerolog.Nop())

	recipe, err := svc.Create(ctx, "owner-1", carbonaraFields())
	require.NoError(t, err)
	recipe.Image = ImageURLPrefix + "abc.jpg"
	require.NoError(t, repos.Recipe.Update(ctx, recipe))
	other, err := svc.Create(ctx, "owner-1", carbonaraFields())
	require.NoError(t, err)

	require.NoError(t, repos.comments.Create(ctx, &domain.Comment{RecipeID: recipe.ID, UserID: "u2", Text: "great", Rating: 5}))
	require.NoError(t, repos.comments.Create(ctx, &domain.Comment{RecipeID: other.ID, UserID: "u2", Text: "fine", Rating: 3}))
	entry := domain.NewSharedRecipe(recipe.ID, "owner-1")
	require.NoError(t, entry.Grant("u2", entry.CreatedAt))
	require.NoError(t, repos.sharing.Create(ctx, entry))

	images.On("RemoveForRecipe", mock.Anything, mock.MatchedBy(func(r *domain.Recipe) bool {
		return r.ID == recipe.ID
	})).Return(nil).Once()

	require.ErrorIs(t, svc.Delete(ctx, recipe.ID, "someone-else"), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, recipe.ID, "owner-1"))

	_, err = svc.Get(ctx, recipe.ID)
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)

	left, err := repos.comments.ListByRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Empty(t, left)
	kept, err := repos.comments.ListByRecipe(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	require.Zero(t, repos.sharing.count())
	images.AssertExpectations(t)

	require.ErrorIs(t, svc.Delete(ctx, recipe.ID, "owner-1"), domain.ErrRecipeNotFound)
}

func TestRecipeService_DeleteSurvivesCascadeFailure(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	repos.Comment = &failingCommentRepo{memCommentRepo: repos.comments, err: errors.New("disk full")}
	svc := NewRecipeService(repos.Repositories, nil, nil, zerolog.Nop())

	recipe, err := svc.Create(ctx, "owner-1", carbonaraFields())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, recipe.ID, "owner-1"))
	_, err = svc.Get(ctx, recipe.ID)
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestRecipeService_Search(t *testing.T) {
	ctx := context.Background()
	svc := NewRecipeService(newTestRepos().Repositories, nil, nil, zerolog.Nop())

	carbonara, err := svc.Create(ctx, "owner-1", carbonaraFields())
	require.NoError(t, err)
	_, err = svc.Create(ctx, "owner-1", domain.RecipeFields{
		Title:        ptr("Tiramisu"),
		Description:  ptr("Coffee dessert"),
		Ingredients:  []string{"mascarpone", "coffee", "eggs"},
		Instructions: ptr("Layer and chill."),
		Category:     ptr(domain.CategoryDessert),
	})
	require.NoError(t, err)

	tests := []struct {
		query string
		want  int
	}{
		{query: "GUANCIALE", want: 1},
		{query: "  carbonara  ", want: 1},
		{query: "eggs", want: 2},
		{query: "coffee", want: 1},
		{query: "sushi", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query)
			require.NoError(t, err)
			require.Len(t, got, tt.want)
		})
	}

	got, err := svc.Search(ctx, "spaghetti")
	require.NoError(t, err)
	require.Equal(t, carbonara.ID, got[0].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Tiramisu", all[0].Title, "newest first")
}
