package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ideaspark/internal/analyzer"
	"ideaspark/internal/ideagen"
	"ideaspark/internal/model"
	"ideaspark/internal/pipeline"
	"ideaspark/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- mocks ---

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

type mockCollector struct {
	items []model.ContentItem
	err   error
}

func (m *mockCollector) FetchMultipleSubreddits(_ context.Context, _ []string, _ int) ([]model.ContentItem, error) {
	return m.items, m.err
}

type mockTelegram struct {
	sendOK  bool
	connErr error
}

func (m *mockTelegram) SendTestMessage(_ context.Context) bool { return m.sendOK }
func (m *mockTelegram) TestConnection() error                  { return m.connErr }

// --- helpers ---

type testEnv struct {
	router *gin.Engine
	store  *storage.SQLite
}

func newTestEnv(t *testing.T, chat *mockChat, sampleFallback bool) *testEnv {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := ideagen.New(chat, logger, rand.New(rand.NewSource(1)))

	p := pipeline.New(pipeline.Options{
		Collector: &mockCollector{items: []model.ContentItem{{
			ID:     "a",
			Title:  "Struggling with manual invoicing",
			Body:   "Every month I waste hours copying numbers between spreadsheets and invoices.",
			Bucket: "r/smallbusiness",
			Score:  40,
		}}},
		Analyzer:   analyzer.New(),
		Generator:  gen,
		Store:      store,
		Logger:     logger,
		Subreddits: []string{"startups"},
		Limit:      25,
	})

	s := New(Options{
		Store:          store,
		Pipeline:       p,
		Generator:      gen,
		Telegram:       &mockTelegram{sendOK: true},
		Logger:         logger,
		CronSecret:     "cron-secret",
		SampleFallback: sampleFallback,
	})
	return &testEnv{router: s.Router(), store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", w.Body.String(), err)
	}
	return w, env
}

func seedUserAndPost(t *testing.T, e *testEnv, userID string) string {
	t.Helper()
	ctx := context.Background()
	if err := e.store.CreateUser(ctx, &model.User{ID: userID, Name: "Test User"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	post := &model.CommunityPost{
		ID:       "post-" + userID,
		AuthorID: userID,
		Title:    "Anyone else drowning in invoices?",
		Content:  "Looking for a better way to handle billing.",
		Category: "general",
	}
	if err := e.store.CreatePost(ctx, post); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post.ID
}

// --- tests ---

func TestHealth(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	w, env := e.do(t, http.MethodGet, "/api/health", nil, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("health = %d %v, want 200 success", w.Code, env)
	}
}

func TestGenerateIdeaScenario(t *testing.T) {
	// The chat backend is down, so the mock fallback must still answer.
	e := newTestEnv(t, &mockChat{err: errors.New("api down")}, false)

	w, env := e.do(t, http.MethodPost, "/api/ideas/generate",
		gin.H{"painPoint": "React state management is too complex"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !env.Success {
		t.Fatal("success = false, want true")
	}

	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", env.Data)
	}
	idea, ok := data["idea"].(map[string]any)
	if !ok {
		t.Fatalf("data.idea = %T, want object", data["idea"])
	}
	title, _ := idea["title"].(string)
	if title == "" {
		t.Error("idea title is empty")
	}
	confidence, _ := idea["confidenceScore"].(float64)
	if confidence < 85 || confidence > 95 {
		t.Errorf("confidence = %v, want within [85, 95]", confidence)
	}
	if modelName, _ := idea["model"].(string); modelName != "mock-fallback" {
		t.Errorf("model = %q, want mock-fallback when the API is down", modelName)
	}
}

func TestGenerateIdeaRequiresPainPoint(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	w, env := e.do(t, http.MethodPost, "/api/ideas/generate", gin.H{"industry": "devtools"}, nil)
	if w.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("response = %d %v, want 400 failure", w.Code, env)
	}
}

func TestLikeToggleIdempotent(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	postID := seedUserAndPost(t, e, "user-1")

	like := gin.H{"userId": "user-2", "action": "like"}

	_, env := e.do(t, http.MethodPost, "/api/community/posts/"+postID+"/like", like, nil)
	if !env.Success {
		t.Fatalf("first like failed: %v", env.Error)
	}
	data := env.Data.(map[string]any)
	if count := data["likesCount"].(float64); count != 1 {
		t.Fatalf("likesCount after first like = %v, want 1", count)
	}

	// A repeated like must not double-increment.
	_, env = e.do(t, http.MethodPost, "/api/community/posts/"+postID+"/like", like, nil)
	if !env.Success {
		t.Fatalf("second like failed: %v", env.Error)
	}
	data = env.Data.(map[string]any)
	if count := data["likesCount"].(float64); count != 1 {
		t.Errorf("likesCount after repeat like = %v, want still 1", count)
	}
	if !strings.Contains(env.Message, "already") {
		t.Errorf("message = %q, want already-liked notice", env.Message)
	}

	// Unlike brings the counter back down.
	_, env = e.do(t, http.MethodPost, "/api/community/posts/"+postID+"/like",
		gin.H{"userId": "user-2", "action": "unlike"}, nil)
	data = env.Data.(map[string]any)
	if count := data["likesCount"].(float64); count != 0 {
		t.Errorf("likesCount after unlike = %v, want 0", count)
	}
}

func TestPostOwnership(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	postID := seedUserAndPost(t, e, "owner")

	w, env := e.do(t, http.MethodPut, "/api/community/posts/"+postID,
		gin.H{"userId": "intruder", "title": "hijacked"}, nil)
	if w.Code != http.StatusForbidden || env.Success {
		t.Fatalf("update by non-owner = %d %v, want 403 failure", w.Code, env)
	}

	w, _ = e.do(t, http.MethodDelete, "/api/community/posts/"+postID,
		gin.H{"userId": "intruder"}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("delete by non-owner = %d, want 403", w.Code)
	}

	w, env = e.do(t, http.MethodPut, "/api/community/posts/"+postID,
		gin.H{"userId": "owner", "title": "better title"}, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("update by owner = %d %v, want 200 success", w.Code, env)
	}
}

func TestCronAuth(t *testing.T) {
	e := newTestEnv(t, &mockChat{err: errors.New("down")}, false)

	w, _ := e.do(t, http.MethodPost, "/api/cron/collect", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("cron without secret = %d, want 401", w.Code)
	}

	w, _ = e.do(t, http.MethodPost, "/api/cron/collect", nil,
		map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("cron with wrong secret = %d, want 401", w.Code)
	}

	w, env := e.do(t, http.MethodPost, "/api/cron/collect", nil,
		map[string]string{"Authorization": "Bearer cron-secret"})
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("cron with secret = %d %v, want 200 success", w.Code, env)
	}
}

func TestSearchRequiresKeyword(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	w, _ := e.do(t, http.MethodGet, "/api/pain-points/search", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("search without keyword = %d, want 400", w.Code)
	}
}

func TestSampleDataFallback(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, true)

	// A closed store makes every read fail with a database error.
	if err := e.store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	w, env := e.do(t, http.MethodGet, "/api/pain-points", nil, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("fallback read = %d %v, want 200 success", w.Code, env)
	}
	meta, ok := env.Meta.(map[string]any)
	if !ok || meta["sampleData"] != true {
		t.Errorf("meta = %v, want sampleData marker", env.Meta)
	}
	if data, ok := env.Data.([]any); !ok || len(data) == 0 {
		t.Errorf("data = %v, want non-empty sample pain points", env.Data)
	}
}

func TestSampleDataFallbackDisabled(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	if err := e.store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	w, env := e.do(t, http.MethodGet, "/api/pain-points", nil, nil)
	if w.Code != http.StatusInternalServerError || env.Success {
		t.Fatalf("read with fallback off = %d %v, want 500 failure", w.Code, env)
	}
}

func TestTelegramStatus(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)
	w, env := e.do(t, http.MethodGet, "/api/telegram/status", nil, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("telegram status = %d %v, want 200 success", w.Code, env)
	}
	data := env.Data.(map[string]any)
	if data["configured"] != true || data["connected"] != true {
		t.Errorf("status data = %v, want configured and connected", data)
	}
}

func TestCollectThenListPainPoints(t *testing.T) {
	e := newTestEnv(t, &mockChat{}, false)

	_, env := e.do(t, http.MethodPost, "/api/pain-points/collect", nil, nil)
	if !env.Success {
		t.Fatalf("collect failed: %v", env.Error)
	}

	_, env = e.do(t, http.MethodGet, "/api/pain-points", nil, nil)
	if !env.Success {
		t.Fatalf("list failed: %v", env.Error)
	}
	points, ok := env.Data.([]any)
	if !ok || len(points) != 1 {
		t.Fatalf("pain points = %v, want 1 collected entry", env.Data)
	}

	_, env = e.do(t, http.MethodGet, "/api/pain-points/search?keyword=invoicing", nil, nil)
	if !env.Success {
		t.Fatalf("search failed: %v", env.Error)
	}
}
