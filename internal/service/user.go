package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/samber/lo"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/auth"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

// MinPasswordLength is the minimum accepted password size.
const MinPasswordLength = 8

// UserService handles account registration, login, profile reads, and
// preference updates.
type UserService struct {
	users       repository.UserRepository
	preferences repository.PreferenceRepository
	categories  repository.CategoryRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	logger      *slog.Logger
}

// NewUserService creates a UserService with all dependencies injected.
func NewUserService(
	users repository.UserRepository,
	preferences repository.PreferenceRepository,
	categories repository.CategoryRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:       users,
		preferences: preferences,
		categories:  categories,
		tokens:      tokens,
		passwords:   passwords,
		logger:      logger,
	}
}

// AuthResult bundles the user record with a signed token so the handler
// can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Profile is a user record together with the categories they follow.
type Profile struct {
	User       *model.User      `json:"user"`
	Categories []model.Category `json:"categories"`
}

// Register creates a new account and returns it with a signed token.
// A taken email fails with Conflict.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user %s: %w", email, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user registered",
		slog.String("userId", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies the credentials and returns the user with a fresh token.
// Unknown email and wrong password both produce the same Unauthorized
// message, so the response doesn't reveal which accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Only a missing account becomes the shared credential failure; a
		// storage error stays internal.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("loading user %s for login: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userId", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile returns the user's record plus the categories they follow.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	preferences, err := s.preferences.ListPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for user %s: %w", userID, err)
	}

	followed := make(map[string]bool, len(preferences))
	for _, p := range preferences {
		followed[p.CategoryID] = true
	}

	// One list call instead of a lookup per preference row.
	all, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories for user %s: %w", userID, err)
	}
	categories := lo.Filter(all, func(c model.Category, _ int) bool {
		return followed[c.ID]
	})

	return &Profile{User: user, Categories: categories}, nil
}

// ReplacePreferences swaps the user's followed-category set for the given
// IDs. Duplicate IDs in the input collapse to one preference each; any
// unknown ID fails the whole operation, and the repository performs the
// delete+insert atomically.
func (s *UserService) ReplacePreferences(ctx context.Context, userID string, categoryIDs []string) ([]model.Preference, error) {
	if categoryIDs == nil {
		return nil, apperror.ValidationFailed("categoryIds", "categoryIds is required")
	}

	unique := lo.Uniq(categoryIDs)

	preferences, err := s.preferences.ReplacePreferences(ctx, userID, unique)
	if err != nil {
		return nil, err
	}

	s.logger.Info("preferences replaced",
		slog.String("userId", userID),
		slog.Int("count", len(preferences)),
	)

	return preferences, nil
}
