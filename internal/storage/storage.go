// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"ideaspark/internal/model"
)

// ListPostsOptions filters and orders a community post listing.
type ListPostsOptions struct {
	Category string
	Tag      string
	Search   string
	Sort     string // latest, popular, comments
	Limit    int
	Offset   int
}

// ToggleResult reports the outcome of an idempotent like/bookmark toggle.
type ToggleResult struct {
	Active  bool // state after the call
	Changed bool // false when the call was a no-op repeat
	Count   int  // counter value after the call (likes only)
}

// Storage is the interface for all persistence operations.
type Storage interface {
	// Pain points
	CreatePainPoint(ctx context.Context, p *model.PainPoint) error
	GetPainPoint(ctx context.Context, id string) (*model.PainPoint, error)
	ListPainPoints(ctx context.Context, limit int) ([]model.PainPoint, error)
	ListPainPointsBySource(ctx context.Context, source string, limit int) ([]model.PainPoint, error)
	ListTrendingPainPoints(ctx context.Context, limit int) ([]model.PainPoint, error)
	ListUnprocessedPainPoints(ctx context.Context, limit int) ([]model.PainPoint, error)
	SearchPainPoints(ctx context.Context, keyword string, limit int) ([]model.PainPoint, error)
	MarkPainPointProcessed(ctx context.Context, id string) error

	// Business ideas
	CreateIdea(ctx context.Context, idea *model.BusinessIdea) error
	GetIdea(ctx context.Context, id string) (*model.BusinessIdea, error)
	ListIdeas(ctx context.Context, limit int) ([]model.BusinessIdea, error)
	ListIdeasForDigest(ctx context.Context, minConfidence, limit int) ([]model.BusinessIdea, error)
	DeleteIdea(ctx context.Context, id string) error

	// Saved ideas
	SaveIdea(ctx context.Context, userID, ideaID string) (*model.SavedIdea, error)
	ListSavedIdeas(ctx context.Context, userID string) ([]model.SavedIdea, error)
	SetSavedIdeaFavorite(ctx context.Context, id int64, favorite bool) error
	DeleteSavedIdea(ctx context.Context, id int64) error

	// Telegram delivery log
	LogTelegramMessage(ctx context.Context, entry *model.TelegramLog) error
	TelegramStats(ctx context.Context, days int) (*model.TelegramStats, error)

	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)

	// Community
	CreatePost(ctx context.Context, p *model.CommunityPost) error
	GetPost(ctx context.Context, id string, countView bool) (*model.CommunityPost, error)
	ListPosts(ctx context.Context, opts ListPostsOptions) ([]model.CommunityPost, error)
	UpdatePost(ctx context.Context, p *model.CommunityPost) error
	DeletePost(ctx context.Context, id string) error
	CreateComment(ctx context.Context, c *model.CommunityComment) error
	GetComment(ctx context.Context, id string) (*model.CommunityComment, error)
	ListComments(ctx context.Context, postID string) ([]model.CommunityComment, error)
	UpdateComment(ctx context.Context, c *model.CommunityComment) error
	DeleteComment(ctx context.Context, id string) error
	TogglePostLike(ctx context.Context, userID, postID string, on bool) (ToggleResult, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string, on bool) (ToggleResult, error)
	ToggleBookmark(ctx context.Context, userID, postID string, on bool) (ToggleResult, error)

	// Analytics
	PainPointSourceStats(ctx context.Context) ([]model.SourceStats, error)
	TrendingKeywords(ctx context.Context, days, limit int) ([]model.KeywordCount, error)
	IdeaStats(ctx context.Context) (*model.IdeaStats, error)

	Close() error
}
