package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/news-aggregator/internal/repository"
)

// Identity is the authenticated caller, resolved once by RequireAuth and
// threaded through the request context. Handlers receive it typed and
// present-or-absent instead of digging an untyped value out of the request.
type Identity struct {
	UserID string
	Admin  bool
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication on protected routes.
//
// It reads the "Authorization: Bearer <token>" header, validates the JWT,
// loads the user record (so the admin flag reflects the database, not the
// token's issue time), and stores the Identity in the request context.
// Missing or invalid credentials end the request with 401.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolveIdentity(r, tokens, users)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin enforces the admin role. It must be mounted inside a
// RequireAuth chain; with no identity in context it answers 401, and with
// a non-admin identity 403.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if !identity.Admin {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden","message":"admin access required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identity.
// The second return is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok && identity.UserID != ""
}

// resolveIdentity extracts the bearer token, validates it, and loads the
// user it belongs to.
func resolveIdentity(r *http.Request, tokens *TokenService, users repository.UserRepository) (Identity, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return Identity{}, errors.New("auth: missing bearer token")
	}

	userID, err := tokens.Validate(strings.TrimPrefix(header, prefix))
	if err != nil {
		return Identity{}, err
	}

	// A valid token for a since-deleted user is still unauthorized.
	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil {
		return Identity{}, err
	}

	return Identity{UserID: user.ID, Admin: user.IsAdmin}, nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
