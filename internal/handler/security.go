package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/merxio/marketplace/internal/domain/auth"
	"github.com/merxio/marketplace/internal/domain/user"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// Identity is the pre-authenticated caller identity attached to the request
// context. Handlers use it for ownership checks; the domain services never
// re-check authorization.
type Identity struct {
	UserID string
	Role   user.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == user.RoleAdmin
}

type identityKeyType struct{}

var identityKey identityKeyType

// IdentityFrom extracts the caller identity stored by APIKeyAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// withIdentity returns ctx carrying the given identity.
func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// APIKeyAuth authenticates requests by computing the HMAC-SHA256 of the
// provided API key under the given pepper, looking the hash up, and
// performing a constant-time comparison against the stored hash to guard
// against timing side-channels.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				respondErrorMessage(w, http.StatusUnauthorized, "missing api key")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				respondErrorMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				respondErrorMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := withIdentity(r.Context(), Identity{UserID: info.UserID, Role: info.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identity pulls the caller identity out of the request, answering 401 when
// the auth middleware did not run.
func identity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		respondErrorMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

// requireAdmin answers 403 unless the caller holds the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	id, ok := identity(w, r)
	if !ok {
		return id, false
	}
	if !id.IsAdmin() {
		respondErrorMessage(w, http.StatusForbidden, "admin role required")
		return id, false
	}
	return id, true
}
