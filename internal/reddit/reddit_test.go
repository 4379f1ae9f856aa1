package reddit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
)

type mockResponse struct {
	body       string
	statusCode int
	err        error
}

// mockTransport replays canned responses and records every request it sees.
type mockTransport struct {
	responses []mockResponse
	requests  []*http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return nil, errors.New("mockTransport: no responses left")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.err != nil {
		return nil, resp.err
	}
	return &http.Response{
		StatusCode: resp.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(resp.body)),
	}, nil
}

const tokenBody = `{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`

const listingBody = `{"data":{"children":[
	{"data":{"id":"abc","title":"My SaaS billing is a mess","selftext":"I waste hours every month reconciling invoices by hand.","score":42,"num_comments":7,"permalink":"/r/startups/comments/abc","created_utc":1756166400,"subreddit":"startups"}}
]}}`

func testCreds() Credentials {
	return Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		Username:     "user",
		Password:     "pass",
		UserAgent:    "ideaspark/1.0",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTokenCaching(t *testing.T) {
	transport := &mockTransport{responses: []mockResponse{
		{body: tokenBody, statusCode: 200},
	}}
	ts := NewTokenSource(testCreds(), transport)

	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		token, err := ts.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() call %d: %v", i, err)
		}
		if token != "tok-1" {
			t.Errorf("Token() = %q, want %q", token, "tok-1")
		}
	}
	if got := len(transport.requests); got != 1 {
		t.Errorf("auth requests = %d, want 1 (token must be cached)", got)
	}

	// 49 minutes in: still within 5/6 of the hour TTL.
	now = now.Add(49 * time.Minute)
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token() within cache window: %v", err)
	}
	if got := len(transport.requests); got != 1 {
		t.Errorf("auth requests = %d, want 1 after 49 minutes", got)
	}

	// Past the 50-minute mark the cached token must be refreshed.
	transport.responses = append(transport.responses,
		mockResponse{body: `{"access_token":"tok-2","expires_in":3600}`, statusCode: 200})
	now = now.Add(2 * time.Minute)
	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() after expiry: %v", err)
	}
	if token != "tok-2" {
		t.Errorf("Token() after expiry = %q, want %q", token, "tok-2")
	}
	if got := len(transport.requests); got != 2 {
		t.Errorf("auth requests = %d, want 2 after expiry", got)
	}
}

func TestTokenInvalidate(t *testing.T) {
	transport := &mockTransport{responses: []mockResponse{
		{body: tokenBody, statusCode: 200},
		{body: `{"access_token":"tok-2","expires_in":3600}`, statusCode: 200},
	}}
	ts := NewTokenSource(testCreds(), transport)

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token(): %v", err)
	}
	ts.Invalidate()
	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() after Invalidate: %v", err)
	}
	if token != "tok-2" {
		t.Errorf("Token() after Invalidate = %q, want fresh token", token)
	}
}

func TestTokenRejected(t *testing.T) {
	transport := &mockTransport{responses: []mockResponse{
		{body: `{"error":"invalid_grant"}`, statusCode: 200},
	}}
	ts := NewTokenSource(testCreds(), transport)

	_, err := ts.Token(context.Background())
	if err == nil {
		t.Fatal("Token() with rejected credentials: want error, got nil")
	}
	if kind := apperr.KindOf(err); kind != apperr.Authentication {
		t.Errorf("error kind = %v, want %v", kind, apperr.Authentication)
	}
}

func TestFetchSubreddit(t *testing.T) {
	transport := &mockTransport{responses: []mockResponse{
		{body: tokenBody, statusCode: 200},
		{body: listingBody, statusCode: 200},
	}}
	ts := NewTokenSource(testCreds(), transport)
	c := NewClient(ts, transport, "ideaspark/1.0", discardLogger())

	items, err := c.FetchSubreddit(context.Background(), "startups", 25)
	if err != nil {
		t.Fatalf("FetchSubreddit(): %v", err)
	}

	want := []model.ContentItem{{
		ID:          "abc",
		Title:       "My SaaS billing is a mess",
		Body:        "I waste hours every month reconciling invoices by hand.",
		Bucket:      "r/startups",
		Score:       42,
		NumComments: 7,
		URL:         "https://reddit.com/r/startups/comments/abc",
		CreatedAt:   time.Unix(1756166400, 0).UTC(),
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("FetchSubreddit() mismatch (-want +got):\n%s", diff)
	}

	listingReq := transport.requests[1]
	if got := listingReq.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Errorf("Authorization header = %q, want %q", got, "Bearer tok-1")
	}
	if got := listingReq.URL.String(); got != apiBase+"/r/startups/hot.json?limit=25" {
		t.Errorf("request URL = %q", got)
	}
}

func TestFetchSubredditRetriesOnceOnUnauthorized(t *testing.T) {
	transport := &mockTransport{responses: []mockResponse{
		{body: tokenBody, statusCode: 200},
		{body: "expired", statusCode: 401},
		{body: `{"access_token":"tok-2","expires_in":3600}`, statusCode: 200},
		{body: listingBody, statusCode: 200},
	}}
	ts := NewTokenSource(testCreds(), transport)
	c := NewClient(ts, transport, "ideaspark/1.0", discardLogger())

	items, err := c.FetchSubreddit(context.Background(), "startups", 25)
	if err != nil {
		t.Fatalf("FetchSubreddit() after 401 retry: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
	if got := transport.requests[3].Header.Get("Authorization"); got != "Bearer tok-2" {
		t.Errorf("retry Authorization header = %q, want fresh token", got)
	}
}

func TestFetchSubredditNoSecondRetry(t *testing.T) {
	transport := &mockTransport{responses: []mockResponse{
		{body: tokenBody, statusCode: 200},
		{body: "expired", statusCode: 401},
		{body: `{"access_token":"tok-2","expires_in":3600}`, statusCode: 200},
		{body: "still expired", statusCode: 401},
	}}
	ts := NewTokenSource(testCreds(), transport)
	c := NewClient(ts, transport, "ideaspark/1.0", discardLogger())

	_, err := c.FetchSubreddit(context.Background(), "startups", 25)
	if err == nil {
		t.Fatal("FetchSubreddit() with persistent 401: want error, got nil")
	}
	if got := len(transport.requests); got != 4 {
		t.Errorf("requests = %d, want exactly 4 (no second retry)", got)
	}
}

func TestFetchMultipleSubreddits(t *testing.T) {
	t.Run("partial failure keeps going", func(t *testing.T) {
		transport := &mockTransport{responses: []mockResponse{
			{body: tokenBody, statusCode: 200},
			{body: listingBody, statusCode: 200},
			{body: "oops", statusCode: 500},
			{body: listingBody, statusCode: 200},
		}}
		ts := NewTokenSource(testCreds(), transport)
		c := NewClient(ts, transport, "ideaspark/1.0", discardLogger())
		c.delay = 0

		items, err := c.FetchMultipleSubreddits(context.Background(),
			[]string{"startups", "broken", "SaaS"}, 25)
		if err != nil {
			t.Fatalf("FetchMultipleSubreddits(): %v", err)
		}
		if len(items) != 2 {
			t.Errorf("items = %d, want 2", len(items))
		}
	})

	t.Run("empty bucket plus failure is not an error", func(t *testing.T) {
		transport := &mockTransport{responses: []mockResponse{
			{body: tokenBody, statusCode: 200},
			{body: `{"data":{"children":[]}}`, statusCode: 200},
			{body: "oops", statusCode: 500},
		}}
		ts := NewTokenSource(testCreds(), transport)
		c := NewClient(ts, transport, "ideaspark/1.0", discardLogger())
		c.delay = 0

		items, err := c.FetchMultipleSubreddits(context.Background(),
			[]string{"quiet", "broken"}, 25)
		if err != nil {
			t.Fatalf("FetchMultipleSubreddits(): %v", err)
		}
		if len(items) != 0 {
			t.Errorf("items = %d, want 0", len(items))
		}
	})

	t.Run("all failures aggregate into one error", func(t *testing.T) {
		transport := &mockTransport{responses: []mockResponse{
			{body: tokenBody, statusCode: 200},
			{body: "oops", statusCode: 500},
			{body: "oops", statusCode: 503},
		}}
		ts := NewTokenSource(testCreds(), transport)
		c := NewClient(ts, transport, "ideaspark/1.0", discardLogger())
		c.delay = 0

		_, err := c.FetchMultipleSubreddits(context.Background(),
			[]string{"startups", "SaaS"}, 25)
		if err == nil {
			t.Fatal("FetchMultipleSubreddits() with all failures: want error, got nil")
		}
		if kind := apperr.KindOf(err); kind != apperr.ExternalAPI {
			t.Errorf("error kind = %v, want %v", kind, apperr.ExternalAPI)
		}
	})
}
