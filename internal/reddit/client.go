package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
)

const (
	apiBase        = "https://oauth.reddit.com"
	maxBodySize    = 5 * 1024 * 1024
	subredditDelay = time.Second
)

// Client fetches subreddit listings through the authenticated API.
type Client struct {
	tokens *TokenSource
	client HTTPClient
	ua     string
	logger *slog.Logger

	// delay between sequential subreddit fetches, overridable in tests.
	delay time.Duration
}

// NewClient creates a Client using the given token source and HTTP client.
func NewClient(tokens *TokenSource, client HTTPClient, userAgent string, logger *slog.Logger) *Client {
	return &Client{
		tokens: tokens,
		client: client,
		ua:     userAgent,
		logger: logger,
		delay:  subredditDelay,
	}
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Permalink   string  `json:"permalink"`
				CreatedUTC  float64 `json:"created_utc"`
				Subreddit   string  `json:"subreddit"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchSubreddit returns up to limit posts from the subreddit's hot listing.
// An unauthorized response invalidates the cached token and retries exactly
// once with a fresh one.
func (c *Client) FetchSubreddit(ctx context.Context, subreddit string, limit int) ([]model.ContentItem, error) {
	items, err := c.fetch(ctx, subreddit, limit)
	if err == nil {
		return items, nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Status == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return c.fetch(ctx, subreddit, limit)
	}
	return nil, err
}

func (c *Client) fetch(ctx context.Context, subreddit string, limit int) ([]model.ContentItem, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", apiBase, subreddit, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.External(subreddit, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.External(subreddit, 0, fmt.Errorf("fetch listing: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.External(subreddit, resp.StatusCode,
			fmt.Errorf("listing returned status %d", resp.StatusCode))
	}

	var parsed listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&parsed); err != nil {
		return nil, apperr.External(subreddit, 0, fmt.Errorf("decode listing: %w", err))
	}

	items := make([]model.ContentItem, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		post := child.Data
		items = append(items, model.ContentItem{
			ID:          post.ID,
			Title:       post.Title,
			Body:        post.Selftext,
			Bucket:      "r/" + post.Subreddit,
			Score:       post.Score,
			NumComments: post.NumComments,
			URL:         "https://reddit.com" + post.Permalink,
			CreatedAt:   time.Unix(int64(post.CreatedUTC), 0).UTC(),
		})
	}
	return items, nil
}

// FetchMultipleSubreddits fetches each subreddit in order with a fixed delay
// between requests. Failures of individual subreddits are logged and skipped;
// the call fails only when every subreddit fails.
func (c *Client) FetchMultipleSubreddits(ctx context.Context, subreddits []string, limitPer int) ([]model.ContentItem, error) {
	var (
		items []model.ContentItem
		errs  []error
	)

	for i, name := range subreddits {
		if i > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		fetched, err := c.FetchSubreddit(ctx, name, limitPer)
		if err != nil {
			c.logger.Warn("failed to fetch subreddit", "subreddit", name, "error", err)
			errs = append(errs, err)
			continue
		}
		items = append(items, fetched...)
	}

	if len(subreddits) > 0 && len(errs) == len(subreddits) {
		return nil, apperr.External("reddit", 0,
			fmt.Errorf("all subreddits failed: %w", errors.Join(errs...)))
	}
	return items, nil
}
