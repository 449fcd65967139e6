// Package remote implements the backing store over the upstream pump API.
// Cross-cutting concerns (bearer auth, correlation ids, the one-shot 401
// refresh-and-retry, error decoding) live in the transport client so every
// endpoint gets them uniformly.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Session is the slice of the auth provider the transport needs: reading
// the stored tokens, rotating the access token after a refresh, and tearing
// the session down when a refresh fails.
type Session interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	Logout() error
}

// ErrAuthExpired is returned when a request came back 401 and the session
// could not be refreshed. The session has already been invalidated by the
// time a caller sees it.
var ErrAuthExpired = errors.New("session expired")

// StatusError is a non-2xx upstream response, carrying the server-provided
// message when one was decodable.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Code)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Message)
}

// Client is the HTTP transport under the remote adapter.
type Client struct {
	baseURL string
	http    *http.Client
	session Session

	// onAuthExpired runs after a failed refresh has torn the session down;
	// the composition root uses it to push clients back to the login flow.
	onAuthExpired func()
}

// NewClient creates a transport against baseURL with a fixed request
// timeout. onAuthExpired may be nil.
func NewClient(baseURL string, timeout time.Duration, session Session, onAuthExpired func()) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: timeout},
		session:       session,
		onAuthExpired: onAuthExpired,
	}
}

// response is a decoded-enough upstream reply: raw body plus the headers
// export passthrough needs.
type response struct {
	body   []byte
	header http.Header
}

// do performs one request with the uniform transformations applied, honoring
// the single refresh-and-retry on 401.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, query, payload, c.session.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusUnauthorized {
		return c.finish(method, path, resp)
	}

	// 401: exactly one refresh attempt, then one retry. No loop.
	token, err := c.refresh(ctx)
	if err != nil {
		c.expireSession()
		return nil, err
	}

	retried, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return nil, err
	}
	return c.finish(method, path, retried)
}

type rawResponse struct {
	status int
	body   []byte
	header http.Header
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*rawResponse, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Tracing only; carries no business meaning.
	req.Header.Set("X-Correlation-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &rawResponse{status: resp.StatusCode, body: data, header: resp.Header}, nil
}

// finish turns a terminal raw response into a result or a StatusError.
func (c *Client) finish(method, path string, resp *rawResponse) (*response, error) {
	if resp.status >= 200 && resp.status < 300 {
		return &response{body: resp.body, header: resp.header}, nil
	}

	msg := decodeErrorMessage(resp.body)
	log.Printf("remote: %s %s failed with status %d: %s", method, path, resp.status, msg)
	return nil, &StatusError{Code: resp.status, Message: msg}
}

// refresh exchanges the stored refresh token for a new access token and
// stores it. Missing token or a rejected exchange both fail.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		return "", ErrAuthExpired
	}

	payload, err := json.Marshal(map[string]string{"RefreshToken": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", ErrAuthExpired
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrAuthExpired
	}

	var decoded struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || decoded.AccessToken == "" {
		return "", ErrAuthExpired
	}

	if err := c.session.SetAccessToken(decoded.AccessToken); err != nil {
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	return decoded.AccessToken, nil
}

// expireSession tears the session down before the caller observes the
// failure, then fires the redirect hook.
func (c *Client) expireSession() {
	if err := c.session.Logout(); err != nil {
		log.Printf("remote: failed to clear expired session: %v", err)
	}
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
}

// decodeErrorMessage pulls the server-provided message out of an error body,
// tolerating both {"message": ...} and {"error": ...} conventions.
func decodeErrorMessage(body []byte) string {
	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	if decoded.Message != "" {
		return decoded.Message
	}
	return decoded.Error
}
