package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishnu-krishna/pump-master/internal/kv"
)

func newMockProvider() (*Provider, *kv.Memory) {
	storage := kv.NewMemory()
	tokens := NewTokenService("test-secret", time.Hour)
	return NewProvider(storage, tokens, "demo", "demo123"), storage
}

func TestLoginMockMode(t *testing.T) {
	p, storage := newMockProvider()

	result, err := p.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "demo", result.User.Username)
	assert.Equal(t, "operator", result.User.Role)
	assert.NotEmpty(t, result.Token)

	claims, err := p.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "demo", claims.Username)

	// Session state lands under the documented keys.
	stored, ok, _ := storage.Get("auth_token")
	assert.True(t, ok)
	assert.Equal(t, result.Token, stored)
	_, ok, _ = storage.Get("user")
	assert.True(t, ok)

	assert.True(t, p.IsAuthenticated())
	user := p.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Demo User", user.Name)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	p, _ := newMockProvider()

	_, err := p.Login(context.Background(), "demo", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, p.IsAuthenticated())
}

func TestLogoutClearsSession(t *testing.T) {
	p, storage := newMockProvider()

	_, err := p.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)
	require.True(t, p.IsAuthenticated())

	require.NoError(t, p.Logout())
	assert.False(t, p.IsAuthenticated())
	assert.Nil(t, p.CurrentUser())
	_, ok, _ := storage.Get("auth_token")
	assert.False(t, ok)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	p, _ := newMockProvider()

	result, err := p.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)

	_, err = p.ValidateToken(result.Token + "x")
	assert.Error(t, err)

	other := NewTokenService("another-secret", time.Hour)
	forged, err := other.Generate(User{Username: "demo"})
	require.NoError(t, err)
	_, err = p.ValidateToken(forged)
	assert.Error(t, err)
}

func TestLoginRemoteMode(t *testing.T) {
	var gotBody map[string]string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		// The upstream answers in its own PascalCase convention.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"User": {"Id": "42", "Username": "ops", "Name": "Ops User", "Role": "admin"},
			"AccessToken": "upstream-access",
			"RefreshToken": "upstream-refresh"
		}`))
	}))
	defer upstream.Close()

	storage := kv.NewMemory()
	tokens := NewTokenService("test-secret", time.Hour)
	p := NewRemoteProvider(storage, tokens, upstream.URL, 5*time.Second)

	result, err := p.Login(context.Background(), "ops", "secret")
	require.NoError(t, err)

	// Credentials go out UpperCamel-cased.
	assert.Equal(t, "ops", gotBody["Username"])
	assert.Equal(t, "secret", gotBody["Password"])

	assert.Equal(t, "Ops User", result.User.Name)
	assert.Equal(t, "upstream-access", p.AccessToken())
	assert.Equal(t, "upstream-refresh", p.RefreshToken())

	// The dashboard token is ours, not the upstream's.
	claims, err := p.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Username)
}

func TestLoginRemoteModeRejected(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	p := NewRemoteProvider(kv.NewMemory(), NewTokenService("s", time.Hour), upstream.URL, 5*time.Second)
	_, err := p.Login(context.Background(), "ops", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
