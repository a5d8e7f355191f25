package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validFields() RecipeFields {
	return RecipeFields{
		Title:        strPtr("Pâtes Carbonara"),
		Description:  strPtr("Un classique italien"),
		Ingredients:  []string{"pâtes", "lardons", "œufs"},
		Instructions: strPtr("Cuire les pâtes, ajouter les lardons."),
	}
}

func TestNewRecipe_Defaults(t *testing.T) {
	r, err := NewRecipe("owner-1", validFields())
	require.NoError(t, err)
	require.Equal(t, "owner-1", r.OwnerID)
	require.Equal(t, DefaultPrepTime, r.PrepTime)
	require.Equal(t, DifficultyEasy, r.Difficulty)
	require.Equal(t, CategoryMain, r.Category)
	require.Equal(t, DefaultRating, r.Rating)
	require.Empty(t, r.Image)
	require.False(t, r.CreatedAt.IsZero())
}

func TestNewRecipe_Validation(t *testing.T) {
	bad := Difficulty("impossible")
	cat := Category("brunch")
	neg := -1
	high := 6.0

	tests := []struct {
		name   string
		mutate func(*RecipeFields)
		field  string
	}{
		{"missing title", func(f *RecipeFields) { f.Title = nil }, "title"},
		{"blank title", func(f *RecipeFields) { f.Title = strPtr("   ") }, "title"},
		{"missing description", func(f *RecipeFields) { f.Description = nil }, "description"},
		{"no ingredients", func(f *RecipeFields) { f.Ingredients = nil }, "ingredients"},
		{"empty ingredient", func(f *RecipeFields) { f.Ingredients = []string{"sel", " "} }, "ingredients"},
		{"missing instructions", func(f *RecipeFields) { f.Instructions = nil }, "instructions"},
		{"negative prep time", func(f *RecipeFields) { f.PrepTime = &neg }, "prepTime"},
		{"unknown difficulty", func(f *RecipeFields) { f.Difficulty = &bad }, "difficulty"},
		{"unknown category", func(f *RecipeFields) { f.Category = &cat }, "category"},
		{"rating too high", func(f *RecipeFields) { f.Rating = &high }, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)
			_, err := NewRecipe("owner-1", f)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRecipe_ApplyIsPartial(t *testing.T) {
	r, err := NewRecipe("owner-1", validFields())
	require.NoError(t, err)
	created := r.CreatedAt

	hard := DifficultyHard
	require.NoError(t, r.Apply(RecipeFields{Difficulty: &hard}))
	require.Equal(t, DifficultyHard, r.Difficulty)
	require.Equal(t, "Pâtes Carbonara", r.Title)
	require.Equal(t, []string{"pâtes", "lardons", "œufs"}, r.Ingredients)
	require.Equal(t, "owner-1", r.OwnerID)
	require.Equal(t, created, r.CreatedAt)
}

func TestRecipe_ApplyInvalidLeavesRecipeUntouched(t *testing.T) {
	r, err := NewRecipe("owner-1", validFields())
	require.NoError(t, err)

	err = r.Apply(RecipeFields{Title: strPtr(""), Ingredients: []string{"riz"}})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "Pâtes Carbonara", r.Title)
	require.Equal(t, []string{"pâtes", "lardons", "œufs"}, r.Ingredients)
}

func TestRecipe_Matches(t *testing.T) {
	r, err := NewRecipe("owner-1", validFields())
	require.NoError(t, err)

	tests := []struct {
		query string
		want  bool
	}{
		{"lardons", true},
		{"LARDONS", true},
		{"carbo", true},
		{"italien", true},
		{"PÂTES", true},
		{"tiramisu", false},
		{".*", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			require.Equal(t, tt.want, r.Matches(tt.query))
		})
	}
}
