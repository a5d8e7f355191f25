package domain

import (
	"time"
)

// ShareGrant records one user a recipe was shared with.
type ShareGrant struct {
	UserID   string    `json:"userId"`
	SharedAt time.Time `json:"sharedAt"`
}

// SharedRecipe is the ledger entry for one (recipe, owner) pair.
// There is at most one entry per pair and it never has an empty grant list at rest.
type SharedRecipe struct {
	ID         string       `json:"id"`
	RecipeID   string       `json:"recipeId"`
	OwnerID    string       `json:"ownerId"`
	SharedWith []ShareGrant `json:"sharedWith"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// NewSharedRecipe creates an entry with no grants yet.
func NewSharedRecipe(recipeID, ownerID string) *SharedRecipe {
	return &SharedRecipe{
		RecipeID:   recipeID,
		OwnerID:    ownerID,
		SharedWith: []ShareGrant{},
		CreatedAt:  time.Now().UTC(),
	}
}

// IsSharedWith reports whether userID holds a grant.
func (s *SharedRecipe) IsSharedWith(userID string) bool {
	for _, g := range s.SharedWith {
		if g.UserID == userID {
			return true
		}
	}
	return false
}

// Grant appends userID to the grant list.
func (s *SharedRecipe) Grant(userID string, at time.Time) error {
	if userID == s.OwnerID {
		return ErrSelfShare
	}
	if s.IsSharedWith(userID) {
		return ErrAlreadyShared
	}
	s.SharedWith = append(s.SharedWith, ShareGrant{UserID: userID, SharedAt: at.UTC()})
	return nil
}

// Revoke removes userID's grant and reports whether one was present.
func (s *SharedRecipe) Revoke(userID string) bool {
	for i, g := range s.SharedWith {
		if g.UserID == userID {
			s.SharedWith = append(s.SharedWith[:i], s.SharedWith[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether no grants remain.
func (s *SharedRecipe) IsEmpty() bool {
	return len(s.SharedWith) == 0
}
