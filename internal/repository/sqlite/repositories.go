package sqlite

import "github.com/prn-tf/recipebook/internal/repository"

// NewRepositories wires every SQLite repository on db.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(db),
		Recipe:  NewRecipeRepository(db),
		Comment: NewCommentRepository(db),
		Sharing: NewSharingRepository(db),
	}
}
