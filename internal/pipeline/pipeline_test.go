package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"ideaspark/internal/analyzer"
	"ideaspark/internal/ideagen"
	"ideaspark/internal/model"
	"ideaspark/internal/storage"
)

// --- mocks ---

type mockCollector struct {
	items []model.ContentItem
	err   error
}

func (m *mockCollector) FetchMultipleSubreddits(_ context.Context, _ []string, _ int) ([]model.ContentItem, error) {
	return m.items, m.err
}

type mockSender struct {
	sent  [][]model.BusinessIdea
	reply bool
}

func (m *mockSender) SendDigest(_ context.Context, ideas []model.BusinessIdea) bool {
	m.sent = append(m.sent, ideas)
	return m.reply
}

type mockChat struct {
	content string
	err     error
}

func (m *mockChat) Complete(_ context.Context, _, _ string, _ int, _ float64) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	return m.content, "gpt-4o-mini", nil
}

// ideagen.Generator only accepts its own completer interface, so tests
// build one through the exported constructor.
func newTestGenerator(chat *mockChat) *ideagen.Generator {
	return ideagen.New(chat, discardLogger(), rand.New(rand.NewSource(1)))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, collector Collector, sender DigestSender, chat *mockChat) (*Pipeline, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p := New(Options{
		Collector:  collector,
		Analyzer:   analyzer.New(),
		Generator:  newTestGenerator(chat),
		Sender:     sender,
		Store:      store,
		Logger:     discardLogger(),
		Subreddits: []string{"startups"},
		Limit:      25,
	})
	return p, store
}

func painItem(id string) model.ContentItem {
	return model.ContentItem{
		ID:     id,
		Title:  "Struggling with manual invoicing",
		Body:   "Every month I waste hours copying numbers between spreadsheets and invoices.",
		Bucket: "r/smallbusiness",
		Score:  40,
	}
}

// --- tests ---

func TestRunCollection(t *testing.T) {
	collector := &mockCollector{items: []model.ContentItem{
		painItem("a"),
		{ID: "b", Title: "I love my job", Body: strings.Repeat("x", 60)},
	}}
	p, store := newTestPipeline(t, collector, nil, &mockChat{})

	result, err := p.RunCollection(context.Background())
	if err != nil {
		t.Fatalf("RunCollection(): %v", err)
	}
	if result.ItemsCollected != 2 || result.PainPointsFound != 1 || result.Stored != 1 {
		t.Errorf("result = %+v, want 2 collected, 1 found, 1 stored", result)
	}

	points, err := store.ListPainPoints(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPainPoints(): %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("stored points = %d, want 1", len(points))
	}
}

func TestRunCollectionCollectorFailure(t *testing.T) {
	// No feed fallback configured, so a collector failure is terminal.
	p, _ := newTestPipeline(t, &mockCollector{err: errors.New("down")}, nil, &mockChat{})

	if _, err := p.RunCollection(context.Background()); err == nil {
		t.Fatal("RunCollection() with failing collector: want error, got nil")
	}
}

const ideaResponse = `{"title":"InvoiceBot","description":"d","targetMarket":"t",
	"businessModel":"b","keyFeatures":["a"],"marketSize":"m","competitiveAdvantage":"c",
	"confidenceScore":90,"tags":["x"],"estimatedCost":"Low","timeToMarket":"3 months"}`

func TestRunDaily(t *testing.T) {
	collector := &mockCollector{items: []model.ContentItem{painItem("a")}}
	sender := &mockSender{reply: true}
	p, store := newTestPipeline(t, collector, sender, &mockChat{content: ideaResponse})
	ctx := context.Background()

	result, err := p.RunDaily(ctx)
	if err != nil {
		t.Fatalf("RunDaily(): %v", err)
	}
	if result.IdeaID == "" {
		t.Error("IdeaID is empty, want generated idea stored")
	}
	if !result.DigestSent {
		t.Error("DigestSent = false, want true")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("digests sent = %d, want 1", len(sender.sent))
	}

	// Pain points consumed by generation are marked processed.
	unprocessed, err := store.ListUnprocessedPainPoints(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnprocessedPainPoints(): %v", err)
	}
	if len(unprocessed) != 0 {
		t.Errorf("unprocessed = %d, want 0", len(unprocessed))
	}
}

func TestRunDailyGenerationFallsBack(t *testing.T) {
	collector := &mockCollector{items: []model.ContentItem{painItem("a")}}
	sender := &mockSender{reply: true}
	p, store := newTestPipeline(t, collector, sender, &mockChat{err: errors.New("api down")})
	ctx := context.Background()

	result, err := p.RunDaily(ctx)
	if err != nil {
		t.Fatalf("RunDaily(): %v", err)
	}
	if result.IdeaID == "" {
		t.Fatal("IdeaID is empty, want mock fallback idea stored")
	}

	idea, err := store.GetIdea(ctx, result.IdeaID)
	if err != nil {
		t.Fatalf("GetIdea(): %v", err)
	}
	if idea.Model != "mock-fallback" || idea.BasedOnRealData {
		t.Errorf("idea provenance = (%q, %v), want mock fallback", idea.Model, idea.BasedOnRealData)
	}
}

func TestSchedulerFiresOncePerDay(t *testing.T) {
	collector := &mockCollector{items: nil}
	sender := &mockSender{reply: true}
	p, _ := newTestPipeline(t, collector, sender, &mockChat{content: ideaResponse})

	s := NewScheduler(p, 9, discardLogger())
	now := time.Date(2026, 8, 26, 8, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.check(ctx)
	if len(sender.sent) != 0 {
		t.Fatal("job ran before the configured hour")
	}

	now = time.Date(2026, 8, 26, 9, 0, 30, 0, time.UTC)
	s.check(ctx)
	if len(sender.sent) != 1 {
		t.Fatalf("digests = %d, want 1 after the hour", len(sender.sent))
	}

	// Later ticks on the same day must not re-run the job.
	now = time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)
	s.check(ctx)
	if len(sender.sent) != 1 {
		t.Fatalf("digests = %d, want still 1 on the same day", len(sender.sent))
	}

	// The next day it fires again.
	now = time.Date(2026, 8, 27, 9, 1, 0, 0, time.UTC)
	s.check(ctx)
	if len(sender.sent) != 2 {
		t.Fatalf("digests = %d, want 2 on the next day", len(sender.sent))
	}
}
