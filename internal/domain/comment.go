package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinCommentLength = 3
	MaxCommentLength = 500
	MinCommentRating = 1
)

// Comment is a rated remark left by a user on a recipe.
type Comment struct {
	ID       string `json:"id"`
	RecipeID string `json:"recipeId"`

	// UserID is the author.
	UserID string `json:"userId"`

	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewComment validates and builds a comment.
func NewComment(recipeID, userID, text string, rating int) (*Comment, error) {
	text = strings.TrimSpace(text)
	if err := ValidateComment(text, rating); err != nil {
		return nil, err
	}
	return &Comment{
		RecipeID:  recipeID,
		UserID:    userID,
		Text:      text,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Edit replaces text and rating after validating them.
func (c *Comment) Edit(text string, rating int) error {
	text = strings.TrimSpace(text)
	if err := ValidateComment(text, rating); err != nil {
		return err
	}
	c.Text = text
	c.Rating = rating
	return nil
}

// IsAuthoredBy reports whether userID wrote the comment.
func (c *Comment) IsAuthoredBy(userID string) bool {
	return c.UserID == userID
}

// ValidateComment checks text length (in characters) and rating range.
func ValidateComment(text string, rating int) error {
	n := utf8.RuneCountInString(text)
	if n < MinCommentLength || n > MaxCommentLength {
		return NewValidationError("text", "must be between 3 and 500 characters")
	}
	if rating < MinCommentRating || rating > MaxRating {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}
