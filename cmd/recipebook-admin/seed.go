package main

import (
	"context"
	"strings"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/service"
)

func ptr[T any](v T) *T { return &v }

// sampleRecipes returns the demo recipes of a fresh cookbook.
func sampleRecipes() []domain.RecipeFields {
	return []domain.RecipeFields{
		{
			Title:        ptr("Pâtes Carbonara"),
			Description:  ptr("Un classique italien simple et délicieux"),
			Ingredients:  []string{"400g de pâtes", "200g de lardons", "3 œufs", "100g de parmesan", "Poivre noir"},
			Instructions: ptr("1. Cuire les pâtes\n2. Faire revenir les lardons\n3. Battre les œufs avec le parmesan\n4. Mélanger le tout hors du feu"),
			PrepTime:     ptr(20),
			Difficulty:   ptr(domain.DifficultyEasy),
			Category:     ptr(domain.CategoryMain),
			Rating:       ptr(4.0),
		},
		{
			Title:        ptr("Tiramisu"),
			Description:  ptr("Le dessert italien préféré de tous"),
			Ingredients:  []string{"250g de mascarpone", "3 œufs", "100g de sucre", "24 biscuits à la cuillère", "Café fort", "Cacao"},
			Instructions: ptr(tiramisuInstructions),
			PrepTime:     ptr(30),
			Difficulty:   ptr(domain.DifficultyMedium),
			Category:     ptr(domain.CategoryDessert),
			Rating:       ptr(5.0),
		},
	}
}

const tiramisuInstructions = `1. Préparer le café et laisser refroidir
2. Séparer les blancs des jaunes
3. Mélanger mascarpone avec jaunes et sucre
4. Monter les blancs en neige
5. Tremper les biscuits dans le café
6. Alterner couches de biscuits et crème
7. Saupoudrer de cacao`

// seedRecipes creates the sample recipes owned by ownerID and returns how
// many were created. A sample the owner already has under the same title is
// skipped, so seeding twice is harmless.
func seedRecipes(ctx context.Context, recipes *service.RecipeService, ownerID string) (int, error) {
	created := 0
	for _, fields := range sampleRecipes() {
		existing, err := recipes.Search(ctx, *fields.Title)
		if err != nil {
			return created, err
		}
		if hasRecipe(existing, ownerID, *fields.Title) {
			continue
		}
		if _, err := recipes.Create(ctx, ownerID, fields); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func hasRecipe(recipes []*domain.Recipe, ownerID, title string) bool {
	for _, r := range recipes {
		if r.OwnerID == ownerID && strings.EqualFold(r.Title, title) {
			return true
		}
	}
	return false
}
