// Package feeds collects content from RSS and Atom feeds as an alternative
// source when the primary content API is unavailable.
package feeds

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"ideaspark/internal/apperr"
	"ideaspark/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Feed identifies a single feed to collect from.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds lists the startup and indie-maker feeds polled when no
// explicit feed list is configured.
var DefaultFeeds = []Feed{
	{Name: "indiehackers", URL: "https://www.indiehackers.com/feed.xml"},
	{Name: "hackernews", URL: "https://hnrss.org/newest?q=struggle+OR+frustrating"},
}

// Collector downloads and parses feeds into content items.
type Collector struct {
	client HTTPClient
	ua     string
	logger *slog.Logger
}

// New creates a Collector with the given HTTP client.
func New(client HTTPClient, userAgent string, logger *slog.Logger) *Collector {
	return &Collector{
		client: client,
		ua:     userAgent,
		logger: logger,
	}
}

// Fetch downloads and parses a single feed, mapping every entry to a
// content item. Feed entries carry no vote counts, so Score and
// NumComments stay zero and the analyzer relies on text signals alone.
func (c *Collector) Fetch(ctx context.Context, feed Feed) ([]model.ContentItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, apperr.External(feed.Name, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.External(feed.Name, 0, fmt.Errorf("http get: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.External(feed.Name, resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, apperr.External(feed.Name, 0, fmt.Errorf("read body: %w", err))
	}

	parser := gofeed.NewParser()
	parsed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, apperr.External(feed.Name, 0, fmt.Errorf("parse feed: %w", err))
	}

	items := make([]model.ContentItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		published := time.Now().UTC()
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		}
		items = append(items, model.ContentItem{
			ID:        entryID(entry),
			Title:     entry.Title,
			Body:      entry.Description,
			Bucket:    feed.Name,
			URL:       entry.Link,
			CreatedAt: published,
		})
	}
	return items, nil
}

// FetchAll collects every feed in order. Failures of individual feeds are
// logged and skipped; the call fails only when every feed fails.
func (c *Collector) FetchAll(ctx context.Context, feeds []Feed) ([]model.ContentItem, error) {
	var (
		items []model.ContentItem
		errs  []error
	)

	for _, feed := range feeds {
		fetched, err := c.Fetch(ctx, feed)
		if err != nil {
			c.logger.Warn("failed to fetch feed", "feed", feed.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		items = append(items, fetched...)
	}

	if len(feeds) > 0 && len(errs) == len(feeds) {
		return nil, apperr.External("feeds", 0,
			fmt.Errorf("all feeds failed: %w", errors.Join(errs...)))
	}
	return items, nil
}

// entryID returns a stable identifier for a feed entry.
// If the entry has no GUID, a SHA-256 hash of title+link is used.
func entryID(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	h := sha256.Sum256([]byte(entry.Title + "|" + entry.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}
