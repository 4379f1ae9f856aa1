// Package pipeline wires collection, analysis, idea generation and digest
// delivery into the scheduled jobs the cron endpoints also trigger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"ideaspark/internal/analyzer"
	"ideaspark/internal/digest"
	"ideaspark/internal/feeds"
	"ideaspark/internal/ideagen"
	"ideaspark/internal/model"
	"ideaspark/internal/storage"
)

// digestMinConfidence is the confidence floor for ideas included in the
// daily digest.
const digestMinConfidence = 85

// digestLimit caps the number of ideas per digest message.
const digestLimit = 5

// Collector fetches content items from the primary source.
type Collector interface {
	FetchMultipleSubreddits(ctx context.Context, subreddits []string, limitPer int) ([]model.ContentItem, error)
}

// DigestSender delivers rendered digests.
type DigestSender interface {
	SendDigest(ctx context.Context, ideas []model.BusinessIdea) bool
}

// Pipeline runs the collect -> analyze -> generate -> digest flow.
type Pipeline struct {
	collector  Collector
	feeds      *feeds.Collector
	feedList   []feeds.Feed
	analyzer   *analyzer.Analyzer
	generator  *ideagen.Generator
	sender     DigestSender
	store      storage.Storage
	log        *slog.Logger
	subreddits []string
	limit      int
}

// Options configures a Pipeline. Collector and Sender may be nil when the
// corresponding credentials are not configured; the affected stages are
// skipped with a log line instead of failing.
type Options struct {
	Collector  Collector
	Feeds      *feeds.Collector
	FeedList   []feeds.Feed
	Analyzer   *analyzer.Analyzer
	Generator  *ideagen.Generator
	Sender     DigestSender
	Store      storage.Storage
	Logger     *slog.Logger
	Subreddits []string
	Limit      int
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Feeds != nil && len(opts.FeedList) == 0 {
		opts.FeedList = feeds.DefaultFeeds
	}
	return &Pipeline{
		collector:  opts.Collector,
		feeds:      opts.Feeds,
		feedList:   opts.FeedList,
		analyzer:   opts.Analyzer,
		generator:  opts.Generator,
		sender:     opts.Sender,
		store:      opts.Store,
		log:        opts.Logger,
		subreddits: opts.Subreddits,
		limit:      opts.Limit,
	}
}

// CollectionResult summarizes one collection run.
type CollectionResult struct {
	ItemsCollected  int `json:"itemsCollected"`
	PainPointsFound int `json:"painPointsFound"`
	Stored          int `json:"stored"`
}

// RunCollection fetches content, extracts pain points and stores them.
// Falls back to the RSS feed collector when the primary source is not
// configured or fails entirely.
func (p *Pipeline) RunCollection(ctx context.Context) (*CollectionResult, error) {
	items, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}

	points := p.analyzer.ExtractPainPoints(items)
	stored := 0
	for i := range points {
		if err := p.store.CreatePainPoint(ctx, &points[i]); err != nil {
			p.log.Warn("store pain point", "id", points[i].ID, "error", err)
			continue
		}
		stored++
	}

	p.log.Info("collection run finished",
		"items", len(items), "pain_points", len(points), "stored", stored)
	return &CollectionResult{
		ItemsCollected:  len(items),
		PainPointsFound: len(points),
		Stored:          stored,
	}, nil
}

func (p *Pipeline) collect(ctx context.Context) ([]model.ContentItem, error) {
	if p.collector != nil {
		items, err := p.collector.FetchMultipleSubreddits(ctx, p.subreddits, p.limit)
		if err == nil {
			return items, nil
		}
		p.log.Warn("primary collection failed, trying feeds", "error", err)
	}

	if p.feeds == nil {
		return nil, fmt.Errorf("no content source configured")
	}
	return p.feeds.FetchAll(ctx, p.feedList)
}

// DailyResult summarizes one daily job run.
type DailyResult struct {
	Collection *CollectionResult `json:"collection"`
	IdeaID     string            `json:"ideaId,omitempty"`
	DigestSent bool              `json:"digestSent"`
}

// RunDaily performs the full daily job: collect fresh pain points, generate
// one idea from the unprocessed batch, then send the digest.
func (p *Pipeline) RunDaily(ctx context.Context) (*DailyResult, error) {
	result := &DailyResult{}

	collection, err := p.RunCollection(ctx)
	if err != nil {
		// Idea generation and digest can still run on existing data.
		p.log.Warn("daily collection failed", "error", err)
	} else {
		result.Collection = collection
	}

	points, err := p.store.ListUnprocessedPainPoints(ctx, 10)
	if err != nil {
		return result, err
	}
	if len(points) > 0 {
		idea := p.generator.FromTrending(ctx, points, "")
		if err := p.store.CreateIdea(ctx, &idea); err != nil {
			p.log.Warn("store idea", "error", err)
		} else {
			result.IdeaID = idea.ID
		}
		for _, pt := range points {
			if err := p.store.MarkPainPointProcessed(ctx, pt.ID); err != nil {
				p.log.Warn("mark processed", "id", pt.ID, "error", err)
			}
		}
	}

	if p.sender != nil {
		ideas, err := p.store.ListIdeasForDigest(ctx, digestMinConfidence, digestLimit)
		if err != nil {
			return result, err
		}
		result.DigestSent = p.sender.SendDigest(ctx, ideas)
	}
	return result, nil
}

var _ DigestSender = (*digest.Sender)(nil)
