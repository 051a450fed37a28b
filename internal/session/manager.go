// Package session owns the signed-in identity state: it merges provider
// accounts with profile records, mints gateway tokens, and answers "who is
// this request" for every guarded route. There is a single writer (the auth
// flow) and many readers (middleware and every data-fetching handler).
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/identity"
	"github.com/eduassign/eduassign-gateway/internal/models"
)

// ErrSignedOut indicates a token that was explicitly revoked.
var ErrSignedOut = errors.New("session signed out")

// Provider abstracts the identity provider collaborator.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SignUp(ctx context.Context, email, password string) (identity.Session, error)
	Profile(ctx context.Context, userID string) (identity.Profile, error)
	SaveProfile(ctx context.Context, userID string, profile identity.Profile) error
}

// TokenStore records revoked token IDs until their natural expiry.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// State is the published session state after a successful auth flow.
type State struct {
	Token string
	User  models.User
}

// Manager orchestrates sign-in/sign-up/sign-out against the provider and
// resolves gateway tokens back to users.
type Manager struct {
	provider Provider
	tokens   TokenStore
	secret   string
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewManager builds the session manager.
func NewManager(provider Provider, tokens TokenStore, secret string, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		provider: provider,
		tokens:   tokens,
		secret:   secret,
		ttl:      ttl,
		logger:   logger.With().Str("component", "session").Logger(),
		now:      time.Now,
	}
}

// SignIn authenticates against the provider, merges the profile record, and
// mints a session token. A failed profile lookup is logged and leaves
// role/name empty; the route guard then treats the user as unauthorized for
// role-gated routes.
func (m *Manager) SignIn(ctx context.Context, email, password string) (State, error) {
	providerSession, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return State{}, err
	}

	user := models.User{ID: providerSession.UserID}
	profile, err := m.provider.Profile(ctx, providerSession.UserID)
	if err != nil {
		m.logger.Error().Err(err).Str("user_id", providerSession.UserID).Msg("profile lookup failed")
	} else {
		user.Role = profile.Role
		user.Name = profile.Name
	}

	return m.mint(user)
}

// SignUp registers a provider account, stores the profile record, and signs
// the new user in.
func (m *Manager) SignUp(ctx context.Context, email, password, role, name string) (State, error) {
	if !models.KnownRole(role) {
		return State{}, fmt.Errorf("unknown role %q", role)
	}

	providerSession, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		return State{}, err
	}

	profile := identity.Profile{Role: role, Name: name}
	if err := m.provider.SaveProfile(ctx, providerSession.UserID, profile); err != nil {
		return State{}, fmt.Errorf("failed to store profile: %w", err)
	}

	user := models.User{ID: providerSession.UserID, Role: role, Name: name}

	m.logger.Info().Str("user_id", user.ID).Str("role", role).Msg("user registered")

	return m.mint(user)
}

// SignOut revokes the active token for the remainder of its lifetime.
func (m *Manager) SignOut(ctx context.Context, claims Claims) error {
	remaining := claims.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	return m.tokens.Revoke(ctx, claims.TokenID, remaining)
}

// Resolve validates a token and returns the user it identifies. Revoked
// tokens resolve to ErrSignedOut so dependents observe the signed-out state.
func (m *Manager) Resolve(ctx context.Context, token string) (models.User, Claims, error) {
	claims, err := ParseToken(m.secret, token)
	if err != nil {
		return models.User{}, Claims{}, err
	}

	revoked, err := m.tokens.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return models.User{}, Claims{}, fmt.Errorf("failed to check token state: %w", err)
	}
	if revoked {
		return models.User{}, Claims{}, ErrSignedOut
	}

	user := models.User{ID: claims.UserID, Role: claims.Role, Name: claims.Name}
	return user, claims, nil
}

func (m *Manager) mint(user models.User) (State, error) {
	token, _, err := IssueToken(m.secret, user, m.ttl, m.now())
	if err != nil {
		return State{}, err
	}
	return State{Token: token, User: user}, nil
}
