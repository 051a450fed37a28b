// Package identity is the client for the external identity provider. The
// provider owns accounts and profile records; the gateway only needs the
// capability contract of sign-in, sign-up, and profile lookup.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidCredentials indicates the provider rejected the email/password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrProfileNotFound indicates there is no profile record for the user.
var ErrProfileNotFound = errors.New("profile not found")

// Session is the provider's handle for a signed-in account.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Profile is the registration-time record attached to an account. Role and
// name are immutable after creation.
type Profile struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Client talks to the identity provider over its REST surface.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds an identity provider client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "identity").Logger(),
	}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email/password for a provider session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/v1/sessions", credentialsPayload{Email: email, Password: password}, &session)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// SignUp registers a new account with the provider.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/v1/accounts", credentialsPayload{Email: email, Password: password}, &session)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// Profile fetches the profile record for a user id.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/v1/profiles/%s", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// SaveProfile stores the registration-time profile record for a user.
func (c *Client) SaveProfile(ctx context.Context, userID string, profile Profile) error {
	path := fmt.Sprintf("/v1/profiles/%s", url.PathEscape(userID))
	return c.do(ctx, http.MethodPut, path, profile, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return ErrInvalidCredentials
	case resp.StatusCode == http.StatusNotFound:
		return ErrProfileNotFound
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("identity provider returned an error")
		return fmt.Errorf("identity provider request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}

	return nil
}
