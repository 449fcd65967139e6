// Package session is the auth provider for the dashboard: it authenticates
// users (against the configured demo account in mock mode, or the upstream
// backend otherwise), issues dashboard session tokens, and owns the stored
// token keys the remote API adapter reads.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vishnu-krishna/pump-master/internal/kv"
)

// Storage keys. The remote API adapter reads the token keys but never
// writes user; the provider is the owner of all three.
const (
	accessTokenKey  = "auth_token"
	refreshTokenKey = "refresh_token"
	userKey         = "user"
)

// ErrInvalidCredentials is returned when a login is rejected.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is the authenticated user's profile.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Provider authenticates users and manages the persisted session state.
// With an empty baseURL it runs self-contained against the configured demo
// credentials; otherwise logins are proxied to the upstream auth endpoint
// and the upstream token pair is stored for the remote adapter to use.
type Provider struct {
	storage kv.Storage
	tokens  *TokenService

	demoUsername string
	demoPassword string

	baseURL string
	client  *http.Client
}

// NewProvider creates a provider in mock mode.
func NewProvider(storage kv.Storage, tokens *TokenService, demoUsername, demoPassword string) *Provider {
	return &Provider{
		storage:      storage,
		tokens:       tokens,
		demoUsername: demoUsername,
		demoPassword: demoPassword,
	}
}

// NewRemoteProvider creates a provider that authenticates against the
// upstream backend at baseURL.
func NewRemoteProvider(storage kv.Storage, tokens *TokenService, baseURL string, timeout time.Duration) *Provider {
	return &Provider{
		storage: storage,
		tokens:  tokens,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Login authenticates and establishes a session. The returned token is the
// dashboard session token; rejected credentials surface as
// ErrInvalidCredentials.
func (p *Provider) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var (
		user          User
		storedAccess  string
		storedRefresh string
	)

	if p.baseURL == "" {
		if username != p.demoUsername || password != p.demoPassword {
			return nil, ErrInvalidCredentials
		}
		user = User{ID: "1", Username: username, Name: "Demo User", Role: "operator"}
	} else {
		upstream, err := p.loginUpstream(ctx, username, password)
		if err != nil {
			return nil, err
		}
		user = upstream.User
		storedAccess = upstream.AccessToken
		storedRefresh = upstream.RefreshToken
	}

	token, err := p.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	if storedAccess == "" {
		storedAccess = token
	}

	if err := p.storage.Set(accessTokenKey, storedAccess); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	if storedRefresh != "" {
		if err := p.storage.Set(refreshTokenKey, storedRefresh); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}
	profile, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user profile: %w", err)
	}
	if err := p.storage.Set(userKey, string(profile)); err != nil {
		return nil, fmt.Errorf("store user profile: %w", err)
	}

	return &LoginResult{User: user, Token: token}, nil
}

// upstreamLoginResponse decodes either cased variant of the upstream body;
// encoding/json matches field names case-insensitively on unmarshal.
type upstreamLoginResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
}

func (p *Provider) loginUpstream(ctx context.Context, username, password string) (*upstreamLoginResponse, error) {
	// The upstream contract is UpperCamel-cased.
	body, err := json.Marshal(map[string]string{
		"Username": username,
		"Password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}

	var decoded upstreamLoginResponse
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &decoded, nil
}

// Logout clears the persisted session state.
func (p *Provider) Logout() error {
	for _, key := range []string{accessTokenKey, refreshTokenKey, userKey} {
		if err := p.storage.Remove(key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// IsAuthenticated reports whether a session is established.
func (p *Provider) IsAuthenticated() bool {
	_, ok, err := p.storage.Get(accessTokenKey)
	return err == nil && ok
}

// CurrentUser returns the stored profile, or nil when no session exists or
// the stored profile cannot be parsed.
func (p *Provider) CurrentUser() *User {
	raw, ok, err := p.storage.Get(userKey)
	if err != nil || !ok {
		return nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

// ValidateToken checks a dashboard session token.
func (p *Provider) ValidateToken(token string) (*Claims, error) {
	return p.tokens.Validate(token)
}

// AccessToken returns the stored upstream-facing bearer token, empty when
// no session is established.
func (p *Provider) AccessToken() string {
	v, _, _ := p.storage.Get(accessTokenKey)
	return v
}

// RefreshToken returns the stored refresh token, empty when absent.
func (p *Provider) RefreshToken() string {
	v, _, _ := p.storage.Get(refreshTokenKey)
	return v
}

// SetAccessToken replaces the stored bearer token; the remote adapter calls
// this after a successful refresh.
func (p *Provider) SetAccessToken(token string) error {
	return p.storage.Set(accessTokenKey, token)
}
