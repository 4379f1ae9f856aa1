package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ideaspark/internal/analyzer"
	"ideaspark/internal/api"
	"ideaspark/internal/config"
	"ideaspark/internal/digest"
	"ideaspark/internal/feeds"
	"ideaspark/internal/ideagen"
	"ideaspark/internal/pipeline"
	"ideaspark/internal/reddit"
	"ideaspark/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var collector pipeline.Collector
	if cfg.RedditEnabled() {
		tokens := reddit.NewTokenSource(reddit.Credentials{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			Username:     cfg.RedditUsername,
			Password:     cfg.RedditPassword,
			UserAgent:    cfg.RedditUserAgent,
		}, http.DefaultClient)
		collector = reddit.NewClient(tokens, http.DefaultClient, cfg.RedditUserAgent, log)
	} else {
		log.Warn("reddit credentials not configured, using RSS feeds only")
	}

	feedList := make([]feeds.Feed, 0, len(cfg.RSSFeeds))
	for _, url := range cfg.RSSFeeds {
		feedList = append(feedList, feeds.Feed{Name: feedName(url), URL: url})
	}
	feedCollector := feeds.New(http.DefaultClient, cfg.RedditUserAgent, log)

	chat := ideagen.NewChatClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel,
		&http.Client{Timeout: 60 * time.Second})
	generator := ideagen.New(chat, log, rand.New(rand.NewSource(time.Now().UnixNano())))

	var sender *digest.Sender
	if cfg.TelegramEnabled() {
		sender, err = digest.New(cfg.TelegramBotToken, cfg.TelegramChatID, store, log)
		if err != nil {
			log.Error("create telegram sender", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("telegram not configured, digests disabled")
	}

	pipelineOpts := pipeline.Options{
		Collector:  collector,
		Feeds:      feedCollector,
		FeedList:   feedList,
		Analyzer:   analyzer.New(),
		Generator:  generator,
		Store:      store,
		Logger:     log,
		Subreddits: cfg.Subreddits,
		Limit:      cfg.CollectLimit,
	}
	if sender != nil {
		pipelineOpts.Sender = sender
	}
	p := pipeline.New(pipelineOpts)

	apiOpts := api.Options{
		Store:          store,
		Pipeline:       p,
		Generator:      generator,
		Logger:         log,
		CronSecret:     cfg.CronSecret,
		SampleFallback: cfg.SampleDataFallback,
	}
	if sender != nil {
		apiOpts.Telegram = sender
	}
	server := api.New(apiOpts)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := pipeline.NewScheduler(p, cfg.DigestHour, log)
	go sched.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("starting server", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("serve", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// feedName derives a short feed label from its URL host.
func feedName(url string) string {
	name := strings.TrimPrefix(url, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "www.")
	if i := strings.IndexByte(name, '/'); i > 0 {
		name = name[:i]
	}
	return name
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
