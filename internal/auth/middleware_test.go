package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
)

// stubUserRepo serves a fixed set of users for middleware tests.
type stubUserRepo struct {
	users map[string]*model.User
}

func (s *stubUserRepo) CreateUser(_ context.Context, user *model.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return user, nil
}

func (s *stubUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFoundMessage("user not found with email " + email)
}

func newMiddlewareFixture(t *testing.T) (*TokenService, *stubUserRepo) {
	t.Helper()
	tokens := newTestTokenService(t)
	users := &stubUserRepo{users: map[string]*model.User{
		"user-1":  {ID: "user-1", Email: "alice@example.com"},
		"admin-1": {ID: "admin-1", Email: "root@example.com", IsAdmin: true},
	}}
	return tokens, users
}

// echoIdentity writes 200 and records the identity it saw.
func echoIdentity(t *testing.T, got *Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Error("expected an identity in the request context")
		}
		*got = identity
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	tokens, users := newMiddlewareFixture(t)

	token, err := tokens.Generate("user-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var identity Identity
	handler := RequireAuth(tokens, users)(echoIdentity(t, &identity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if identity.UserID != "user-1" || identity.Admin {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	tokens, users := newMiddlewareFixture(t)

	expired, err := tokens.GenerateWithDuration("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	deleted, err := tokens.Generate("user-gone")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	tests := []struct {
		label  string
		header string
	}{
		{"no header", ""},
		{"not a bearer header", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"valid token for deleted user", "Bearer " + deleted},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			handler := RequireAuth(tokens, users)(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					t.Error("expected the request to be rejected before the handler")
				}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens, users := newMiddlewareFixture(t)

	adminToken, err := tokens.Generate("admin-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	userToken, err := tokens.Generate("user-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(tokens, users)(RequireAdmin()(ok))

	tests := []struct {
		label string
		token string
		want  int
	}{
		{"admin", adminToken, http.StatusOK},
		{"non-admin", userToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAdminWithoutIdentity(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected the request to be rejected")
	}))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestIdentityFromContextAnonymous(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("expected no identity in a bare context")
	}
}
