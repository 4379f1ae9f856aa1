package feeds

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

type routeTransport struct {
	responses map[string]mockTransport
}

func (r *routeTransport) Do(req *http.Request) (*http.Response, error) {
	m := r.responses[req.URL.String()]
	return m.Do(req)
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Indie Makers</title>
    <item>
      <title>Struggling with churn on my SaaS</title>
      <description>Every month I lose customers and I cannot figure out why.</description>
      <link>https://example.com/posts/1</link>
      <guid>post-1</guid>
      <pubDate>Mon, 25 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No GUID on this one</title>
      <description>Manual invoicing is a pain.</description>
      <link>https://example.com/posts/2</link>
    </item>
  </channel>
</rss>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		wantItems int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: sampleFeed, statusCode: 200},
			wantItems: 2,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.transport, "ideaspark/1.0", discardLogger())
			items, err := c.Fetch(context.Background(), Feed{Name: "indie", URL: "https://example.com/feed"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Fetch(): want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch(): %v", err)
			}
			if len(items) != tt.wantItems {
				t.Fatalf("items = %d, want %d", len(items), tt.wantItems)
			}
			if items[0].ID != "post-1" {
				t.Errorf("items[0].ID = %q, want %q", items[0].ID, "post-1")
			}
			if items[0].Bucket != "indie" {
				t.Errorf("items[0].Bucket = %q, want %q", items[0].Bucket, "indie")
			}
			if !strings.HasPrefix(items[1].ID, "sha256:") {
				t.Errorf("items[1].ID = %q, want sha256 fallback", items[1].ID)
			}
		})
	}
}

func TestFetchAll(t *testing.T) {
	t.Run("all feeds fail", func(t *testing.T) {
		c := New(&mockTransport{statusCode: 500, body: "oops"}, "ideaspark/1.0", discardLogger())
		_, err := c.FetchAll(context.Background(), []Feed{
			{Name: "a", URL: "https://example.com/a"},
			{Name: "b", URL: "https://example.com/b"},
		})
		if err == nil {
			t.Fatal("FetchAll() with all failures: want error, got nil")
		}
	})

	t.Run("empty feed plus failure is not an error", func(t *testing.T) {
		empty := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Quiet</title></channel></rss>`
		c := New(&routeTransport{responses: map[string]mockTransport{
			"https://example.com/quiet":  {statusCode: 200, body: empty},
			"https://example.com/broken": {statusCode: 500, body: "oops"},
		}}, "ideaspark/1.0", discardLogger())

		items, err := c.FetchAll(context.Background(), []Feed{
			{Name: "quiet", URL: "https://example.com/quiet"},
			{Name: "broken", URL: "https://example.com/broken"},
		})
		if err != nil {
			t.Fatalf("FetchAll(): %v", err)
		}
		if len(items) != 0 {
			t.Errorf("items = %d, want 0", len(items))
		}
	})

	t.Run("empty feed list", func(t *testing.T) {
		c := New(&mockTransport{statusCode: 200, body: sampleFeed}, "ideaspark/1.0", discardLogger())
		items, err := c.FetchAll(context.Background(), nil)
		if err != nil {
			t.Fatalf("FetchAll(): %v", err)
		}
		if len(items) != 0 {
			t.Errorf("items = %d, want 0", len(items))
		}
	})
}
