// Package reddit implements the OAuth2 token manager and listing client
// for collecting posts from subreddits.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ideaspark/internal/apperr"
)

const tokenURL = "https://www.reddit.com/api/v1/access_token"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials holds the password-grant credentials for the content API.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// TokenSource obtains and caches an OAuth2 password-grant token. The cached
// token expires at 5/6 of the provider TTL, so a 60-minute token is reused
// for 50 minutes and re-fetched before the provider cuts it off.
type TokenSource struct {
	creds  Credentials
	client HTTPClient
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a TokenSource with the given HTTP client.
func NewTokenSource(creds Credentials, client HTTPClient) *TokenSource {
	return &TokenSource{
		creds:  creds,
		client: client,
		now:    time.Now,
	}
}

// Token returns a valid access token, authenticating only when the cached
// token is missing or expired.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	token, ttl, err := ts.authenticate(ctx)
	if err != nil {
		return "", err
	}

	ts.token = token
	ts.expiresAt = ts.now().Add(ttl * 5 / 6)
	return token, nil
}

// Invalidate discards the cached token, forcing the next Token call to
// re-authenticate. The collector calls this after an unauthorized response.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiresAt = time.Time{}
}

func (ts *TokenSource) authenticate(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", ts.creds.Username)
	form.Set("password", ts.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, apperr.Auth("reddit", fmt.Errorf("create token request: %w", err))
	}
	req.SetBasicAuth(ts.creds.ClientID, ts.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", ts.creds.UserAgent)

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", 0, apperr.Auth("reddit", fmt.Errorf("token request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, apperr.Auth("reddit",
			fmt.Errorf("token request returned %d: %s", resp.StatusCode, body))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, apperr.Auth("reddit", fmt.Errorf("decode token response: %w", err))
	}
	if parsed.Error != "" || parsed.AccessToken == "" {
		return "", 0, apperr.Auth("reddit",
			fmt.Errorf("credentials rejected: %q", parsed.Error))
	}

	ttl := time.Duration(parsed.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return parsed.AccessToken, ttl, nil
}
