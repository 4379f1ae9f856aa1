// Package model defines the domain types used across the application.
package model

import "time"

// ContentItem is a single post pulled from an external content source.
// Items are transient input to the analyzer and are never persisted as-is.
type ContentItem struct {
	ID          string
	Title       string
	Body        string
	Bucket      string // originating subreddit or feed name
	Score       int
	NumComments int
	URL         string
	CreatedAt   time.Time
}

// PainPoint is a user-reported problem extracted from a ContentItem.
type PainPoint struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Source         string     `json:"source"`
	SourceURL      string     `json:"sourceUrl"`
	SentimentScore float64    `json:"sentimentScore"`
	TrendScore     float64    `json:"trendScore"`
	Keywords       []string   `json:"keywords"`
	Category       string     `json:"category"`
	CollectedAt    time.Time  `json:"collectedAt"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
}

// BusinessIdea is a structured idea suggestion produced by the generator.
// Model records which model produced it; the mock fallback uses
// "mock-fallback" and sets BasedOnRealData to false.
type BusinessIdea struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	TargetMarket         string    `json:"targetMarket"`
	BusinessModel        string    `json:"businessModel"`
	KeyFeatures          []string  `json:"keyFeatures"`
	MarketSize           string    `json:"marketSize"`
	CompetitiveAdvantage string    `json:"competitiveAdvantage"`
	ConfidenceScore      int       `json:"confidenceScore"`
	Tags                 []string  `json:"tags"`
	EstimatedCost        string    `json:"estimatedCost"`
	TimeToMarket         string    `json:"timeToMarket"`
	PainPointsAddressed  []string  `json:"painPointsAddressed,omitempty"`
	ImplementationSteps  []string  `json:"implementationSteps,omitempty"`
	Model                string    `json:"model"`
	BasedOnRealData      bool      `json:"basedOnRealData"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// SavedIdea links a user to a business idea they kept.
type SavedIdea struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	IdeaID     string    `json:"ideaId"`
	IsFavorite bool      `json:"isFavorite"`
	SavedAt    time.Time `json:"savedAt"`
}

// MessageType classifies a Telegram delivery.
type MessageType string

// Supported Telegram message types.
const (
	MessageDailyDigest MessageType = "daily_digest"
	MessageIdea        MessageType = "idea"
	MessageAlert       MessageType = "alert"
	MessageTest        MessageType = "test"
)

// TelegramLog is an append-only record of one Telegram send attempt.
type TelegramLog struct {
	ID        int64       `json:"id"`
	ChatID    int64       `json:"chatId"`
	Type      MessageType `json:"type"`
	IdeaIDs   []string    `json:"ideaIds,omitempty"`
	Content   string      `json:"content"`
	Success   bool        `json:"success"`
	ErrorText string      `json:"errorText,omitempty"`
	SentAt    time.Time   `json:"sentAt"`
}

// TelegramStats aggregates delivery outcomes over a time window.
type TelegramStats struct {
	Total       int            `json:"total"`
	Successful  int            `json:"successful"`
	Failed      int            `json:"failed"`
	SuccessRate float64        `json:"successRate"`
	ByType      map[string]int `json:"byType"`
}

// User is a community member.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Level     string    `json:"level,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommunityPost is a forum post.
type CommunityPost struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	ViewsCount    int       `json:"viewsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CommunityComment is a comment on a post, optionally threaded via ParentID.
type CommunityComment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	AuthorID   string    `json:"authorId"`
	ParentID   *string   `json:"parentId,omitempty"`
	Content    string    `json:"content"`
	LikesCount int       `json:"likesCount"`
	IsEdited   bool      `json:"isEdited"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SourceStats summarizes collected pain points for one source.
type SourceStats struct {
	Source       string  `json:"source"`
	Count        int     `json:"count"`
	AvgSentiment float64 `json:"avgSentiment"`
	AvgTrend     float64 `json:"avgTrend"`
}

// KeywordCount is one entry of the trending-keywords report.
type KeywordCount struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

// IdeaStats summarizes the stored business ideas.
type IdeaStats struct {
	Total         int     `json:"total"`
	AvgConfidence float64 `json:"avgConfidence"`
	MockCount     int     `json:"mockCount"`
	RealCount     int     `json:"realCount"`
}
