package domain

import (
	"regexp"
	"strings"
	"time"
)

const (
	// MinUsernameLength is the minimum username length after trimming.
	MinUsernameLength = 3

	// MaxUsernameLength bounds usernames to something displayable.
	MaxUsernameLength = 50

	// MinPasswordLength is the minimum plaintext password length.
	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

// User represents a registered user in the system.
type User struct {
	// ID is an opaque identifier assigned by the store.
	ID string `json:"id"`

	// Username is unique, trimmed, and used as the share target handle.
	Username string `json:"username"`

	// Email is unique and stored lowercased.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser creates a new User with normalized username and email.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     NormalizeUsername(username),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks an already normalized username.
func ValidateUsername(username string) error {
	n := len([]rune(username))
	if n < MinUsernameLength {
		return NewValidationError("username", "must be at least 3 characters")
	}
	if n > MaxUsernameLength {
		return NewValidationError("username", "must be at most 50 characters")
	}
	return nil
}

// ValidateEmail checks an already normalized email address.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return NewValidationError("email", "invalid email address")
	}
	return nil
}

// ValidatePassword checks a plaintext password before hashing.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}
