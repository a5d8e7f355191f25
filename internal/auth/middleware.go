package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// AuthorizationHeader carries the bearer token.
const AuthorizationHeader = "Authorization"

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Config contains configuration for the auth middleware.
type Config struct {
	// ErrorHandler writes the rejection. Defaults to a JSON {"error": ...} body.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{ErrorHandler: writeAuthError}
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrTokenMissing
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}

// Authenticate resolves the bearer identity of r without touching any store.
func Authenticate(verifier TokenVerifier, r *http.Request) (Identity, error) {
	token, err := ExtractBearerToken(r.Header.Get(AuthorizationHeader))
	if err != nil {
		return Identity{}, err
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	return claims.Identity(), nil
}

// Middleware rejects requests without a valid bearer token and attaches
// the Identity to the request context of the rest.
func Middleware(verifier TokenVerifier, config Config) func(http.Handler) http.Handler {
	onError := config.ErrorHandler
	if onError == nil {
		onError = writeAuthError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := Authenticate(verifier, r)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer authentication failed")
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// StatusFor maps a token error to its HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, ErrTokenMissing) {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	msg := ErrTokenInvalid.Error()
	if errors.Is(err, ErrTokenMissing) {
		msg = ErrTokenMissing.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
