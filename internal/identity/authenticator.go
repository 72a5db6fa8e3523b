// Package identity resolves the calling user from a bearer credential.
package identity

import (
	"context"
	"errors"
)

// Authenticator maps a bearer token to the authenticated user's id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Authentication failures surfaced by implementations.
var (
	ErrNoCredential      = errors.New("no credential provided")
	ErrInvalidCredential = errors.New("invalid credential")
)

// StaticAuthenticator resolves tokens from a fixed map. Used in tests and
// local development where no identity provider is available.
type StaticAuthenticator struct {
	Users map[string]string
}

// Authenticate implements the Authenticator interface.
func (a StaticAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoCredential
	}
	userID, ok := a.Users[token]
	if !ok {
		return "", ErrInvalidCredential
	}
	return userID, nil
}
