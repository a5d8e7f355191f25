// Package service provides business logic services for RecipeBook.
package service

import "errors"

// Common service errors. Business rule violations live in the domain package.
var (
	// ErrSharingBusy is returned when the ledger entry stays locked by
	// concurrent updates for longer than the lock wait.
	ErrSharingBusy = errors.New("sharing is being updated, please retry")

	// ErrInternalError wraps every infrastructure failure. Details are logged,
	// never returned to clients.
	ErrInternalError = errors.New("internal server error")
)
