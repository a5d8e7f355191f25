// Package domain contains the core business entities for RecipeBook.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ErrNotFound is the root of every "does not exist" error below.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller is authenticated but does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrDuplicateIdentity indicates a user with the same username or email exists.
	ErrDuplicateIdentity = errors.New("user with this email or username already exists")

	// ErrInvalidCredentials indicates authentication failed. It never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ===========================================
	// Recipe Errors
	// ===========================================

	// ErrRecipeNotFound indicates the requested recipe does not exist.
	ErrRecipeNotFound = fmt.Errorf("recipe %w", ErrNotFound)

	// ErrImageNotFound indicates the requested stored image does not exist.
	ErrImageNotFound = fmt.Errorf("image %w", ErrNotFound)

	// ===========================================
	// Comment Errors
	// ===========================================

	// ErrCommentNotFound indicates the requested comment does not exist.
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)

	// ===========================================
	// Sharing Errors
	// ===========================================

	// ErrSharingNotFound indicates the requested sharing entry does not exist.
	ErrSharingNotFound = fmt.Errorf("sharing %w", ErrNotFound)

	// ErrTargetUserNotFound indicates the share target username does not exist.
	ErrTargetUserNotFound = fmt.Errorf("target user %w", ErrNotFound)

	// ErrSelfShare indicates an owner tried to share a recipe with themselves.
	ErrSelfShare = errors.New("you cannot share a recipe with yourself")

	// ErrAlreadyShared indicates the recipe is already shared with the target.
	ErrAlreadyShared = errors.New("recipe already shared with this user")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., recipe or comment ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// Forbidden returns an ErrForbidden carrying a user-facing message.
func Forbidden(message, resource string) error {
	return NewDomainError(ErrForbidden, message, resource)
}
