// Package auth holds the API-key identity model used by the HTTP layer.
package auth

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/merxio/marketplace/internal/domain/user"
)

// ErrKeyNotFound is returned when no API key matches a given hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyInfo holds the identity data for a validated API key. UserID and
// Role form the pre-authenticated caller identity handed to handlers; the
// domain services never re-check authorization.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	UserID  string
	Role    user.Role
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
