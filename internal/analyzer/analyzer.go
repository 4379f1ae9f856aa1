// Package analyzer extracts scored pain points from collected content.
// The transformation is pure and deterministic: no I/O, no hidden state.
package analyzer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"ideaspark/internal/model"
)

// minBodyLength is the minimum body size for an item to qualify.
// Shorter posts rarely describe a problem in enough detail to act on.
const minBodyLength = 50

// maxKeywords caps the keyword list stored per pain point.
const maxKeywords = 5

// painKeywords mark an item as describing a problem.
var painKeywords = []string{
	"problem", "issue", "struggle", "struggling", "frustrated", "frustrating",
	"difficult", "hard to", "annoying", "pain", "hate", "broken", "waste",
	"wasting", "tedious", "manual", "inefficient", "wish there was",
	"can't find", "cannot find", "no good way", "why is there no",
}

// negativeKeywords lower the sentiment score, one tenth per match.
var negativeKeywords = []string{
	"terrible", "awful", "horrible", "worst", "useless", "impossible",
	"nightmare", "hate", "broken", "failing",
}

// topicKeywords feed the keyword list of a pain point, technical terms first.
var topicKeywords = []string{
	"api", "automation", "saas", "software", "app", "integration", "workflow",
	"dashboard", "analytics", "database", "deployment", "testing", "billing",
	"invoicing", "crm", "marketing", "sales", "onboarding", "churn",
	"pricing", "payment", "subscription", "customer", "revenue", "startup",
	"productivity", "scheduling", "inventory", "compliance", "reporting",
}

// categoryBuckets maps category names to the bucket names (and topical
// markers) that select them. Order matters: the first match wins.
var categoryBuckets = []struct {
	name    string
	buckets []string
}{
	{"saas", []string{"r/SaaS", "saas"}},
	{"startup", []string{"r/startups", "r/entrepreneur", "startup", "founder"}},
	{"smallbusiness", []string{"r/smallbusiness", "small business"}},
	{"productivity", []string{"r/productivity", "productivity", "workflow"}},
	{"technology", []string{"r/programming", "r/webdev", "software", "developer"}},
}

// Analyzer turns collected content items into scored pain points.
type Analyzer struct {
	now func() time.Time
}

// New creates an Analyzer using the wall clock.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// ExtractPainPoints filters items by pain heuristics and scores the
// qualifying ones. An item qualifies only if its concatenated title and body
// contain at least one pain keyword and the body exceeds the length
// threshold. Order of the input is preserved, and identifiers are derived
// from the item itself, so repeated calls on the same input produce the
// same output.
func (a *Analyzer) ExtractPainPoints(items []model.ContentItem) []model.PainPoint {
	var points []model.PainPoint
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Body)
		if !containsAny(text, painKeywords) || len(item.Body) <= minBodyLength {
			continue
		}
		points = append(points, model.PainPoint{
			ID:             uuid.NewSHA1(uuid.NameSpaceURL, []byte(item.Bucket+"|"+item.ID)).String(),
			Title:          item.Title,
			Content:        item.Body,
			Source:         item.Bucket,
			SourceURL:      item.URL,
			SentimentScore: sentimentScore(text),
			TrendScore:     trendScore(item.Score, item.NumComments),
			Keywords:       extractKeywords(text),
			Category:       categorize(item.Bucket, text),
			CollectedAt:    a.now().UTC(),
		})
	}
	return points
}

// sentimentScore starts from a neutral 0.5 and subtracts 0.1 per negative
// keyword present, floored at 0.1. Lower means more frustrated.
func sentimentScore(text string) float64 {
	score := 0.5
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			score -= 0.1
		}
	}
	if score < 0.1 {
		return 0.1
	}
	return score
}

// trendScore blends popularity and discussion volume, capped at 1.0.
func trendScore(score, comments int) float64 {
	trend := (float64(score)*0.7 + float64(comments)*0.3) / 100
	if trend > 1.0 {
		return 1.0
	}
	if trend < 0 {
		return 0
	}
	return trend
}

func extractKeywords(text string) []string {
	var keywords []string
	for _, kw := range topicKeywords {
		if strings.Contains(text, kw) {
			keywords = append(keywords, kw)
			if len(keywords) == maxKeywords {
				break
			}
		}
	}
	return keywords
}

func categorize(bucket, text string) string {
	for _, cat := range categoryBuckets {
		for _, marker := range cat.buckets {
			if strings.EqualFold(bucket, marker) || strings.Contains(text, strings.ToLower(marker)) {
				return cat.name
			}
		}
	}
	return "general"
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
