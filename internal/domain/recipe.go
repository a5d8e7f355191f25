package domain

import (
	"strings"
	"time"
)

// Difficulty is the preparation difficulty of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "facile"
	DifficultyMedium Difficulty = "moyen"
	DifficultyHard   Difficulty = "difficile"
)

// IsValid reports whether d is a known difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category is the course a recipe belongs to.
type Category string

const (
	CategoryStarter Category = "entrée"
	CategoryMain    Category = "plat"
	CategoryDessert Category = "dessert"
	CategoryDrink   Category = "boisson"
	CategoryOther   Category = "autre"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink, CategoryOther:
		return true
	}
	return false
}

const (
	// DefaultPrepTime is used when a recipe is created without a preparation time.
	DefaultPrepTime = 15

	// DefaultRating is the rating a new recipe starts with.
	DefaultRating = 1.0

	// MaxRating is the upper bound for recipe and comment ratings.
	MaxRating = 5
)

// Recipe is a user-authored recipe.
type Recipe struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Ingredients  []string   `json:"ingredients"`
	Instructions string     `json:"instructions"`
	PrepTime     int        `json:"prepTime"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     Category   `json:"category"`
	Image        string     `json:"image"`
	Rating       float64    `json:"rating"`

	// OwnerID is set at creation and never changes.
	OwnerID string `json:"ownerId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecipeFields is a recipe patch. Nil fields are absent and left untouched.
type RecipeFields struct {
	Title        *string
	Description  *string
	Ingredients  []string
	Instructions *string
	PrepTime     *int
	Difficulty   *Difficulty
	Category     *Category
	Image        *string
	Rating       *float64
}

// NewRecipe builds a recipe owned by ownerID from fields, applying defaults.
func NewRecipe(ownerID string, fields RecipeFields) (*Recipe, error) {
	now := time.Now().UTC()
	r := &Recipe{
		PrepTime:   DefaultPrepTime,
		Difficulty: DifficultyEasy,
		Category:   CategoryMain,
		Rating:     DefaultRating,
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.apply(fields)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Apply patches r in place and revalidates it. On error r is unchanged.
func (r *Recipe) Apply(fields RecipeFields) error {
	patched := *r
	patched.Ingredients = append([]string(nil), r.Ingredients...)
	patched.apply(fields)
	if err := patched.Validate(); err != nil {
		return err
	}
	patched.UpdatedAt = time.Now().UTC()
	*r = patched
	return nil
}

func (r *Recipe) apply(f RecipeFields) {
	if f.Title != nil {
		r.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		r.Description = strings.TrimSpace(*f.Description)
	}
	if f.Ingredients != nil {
		r.Ingredients = make([]string, len(f.Ingredients))
		for i, ing := range f.Ingredients {
			r.Ingredients[i] = strings.TrimSpace(ing)
		}
	}
	if f.Instructions != nil {
		r.Instructions = strings.TrimSpace(*f.Instructions)
	}
	if f.PrepTime != nil {
		r.PrepTime = *f.PrepTime
	}
	if f.Difficulty != nil {
		r.Difficulty = *f.Difficulty
	}
	if f.Category != nil {
		r.Category = *f.Category
	}
	if f.Image != nil {
		r.Image = strings.TrimSpace(*f.Image)
	}
	if f.Rating != nil {
		r.Rating = *f.Rating
	}
}

// Validate checks required fields, enums and ranges.
func (r *Recipe) Validate() error {
	if r.Title == "" {
		return NewValidationError("title", "is required")
	}
	if r.Description == "" {
		return NewValidationError("description", "is required")
	}
	if len(r.Ingredients) == 0 {
		return NewValidationError("ingredients", "at least one ingredient is required")
	}
	for _, ing := range r.Ingredients {
		if ing == "" {
			return NewValidationError("ingredients", "ingredients cannot be empty")
		}
	}
	if r.Instructions == "" {
		return NewValidationError("instructions", "is required")
	}
	if r.PrepTime < 0 {
		return NewValidationError("prepTime", "cannot be negative")
	}
	if !r.Difficulty.IsValid() {
		return NewValidationError("difficulty", "must be one of facile, moyen, difficile")
	}
	if !r.Category.IsValid() {
		return NewValidationError("category", "must be one of entrée, plat, dessert, boisson, autre")
	}
	if r.Rating < 0 || r.Rating > MaxRating {
		return NewValidationError("rating", "must be between 0 and 5")
	}
	return nil
}

// IsOwnedBy reports whether userID owns the recipe.
func (r *Recipe) IsOwnedBy(userID string) bool {
	return r.OwnerID == userID
}

// Matches reports whether query occurs, case-insensitively, in the title,
// the description or any ingredient. The query is matched literally.
func (r *Recipe) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing), q) {
			return true
		}
	}
	return false
}
