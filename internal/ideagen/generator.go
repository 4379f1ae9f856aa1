package ideagen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"ideaspark/internal/model"
)

// Confidence bounds applied to every generated idea.
const (
	MinConfidence     = 85
	MaxConfidence     = 95
	DefaultConfidence = 90
)

const (
	singleMaxTokens   = 1000
	trendingMaxTokens = 1500
	temperature       = 0.8
)

// completer is the lower-level chat primitive both generation modes share.
type completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (content, model string, err error)
}

// SingleRequest is one free-text problem statement with optional hints.
type SingleRequest struct {
	Problem     string
	Industry    string
	Preferences string
}

// Generator orchestrates prompt building, the chat call, response parsing
// and the mock fallback. Generate methods never fail: any upstream error is
// logged and answered with a canned idea instead.
type Generator struct {
	chat   completer
	logger *slog.Logger
	rng    *rand.Rand
	now    func() time.Time
}

// New creates a Generator. The random source picks the fallback idea and is
// injected so tests can seed it.
func New(chat completer, logger *slog.Logger, rng *rand.Rand) *Generator {
	return &Generator{
		chat:   chat,
		logger: logger,
		rng:    rng,
		now:    time.Now,
	}
}

const singleSystemPrompt = `You are a startup advisor. Given a problem statement, propose one concrete business idea that solves it.
Respond with a single JSON object and nothing else, using exactly these fields:
{"title": string, "description": string, "targetMarket": string, "businessModel": string, "keyFeatures": [string], "marketSize": string, "competitiveAdvantage": string, "confidenceScore": number, "tags": [string], "estimatedCost": string, "timeToMarket": string}`

const trendingSystemPrompt = `You are a startup advisor. You will receive a list of user-reported pain points collected from online communities.
Find the common pattern across them and propose one business idea that addresses the set.
Respond with a single JSON object and nothing else, using exactly these fields:
{"title": string, "description": string, "targetMarket": string, "businessModel": string, "keyFeatures": [string], "marketSize": string, "competitiveAdvantage": string, "confidenceScore": number, "tags": [string], "estimatedCost": string, "timeToMarket": string, "painPointsAddressed": [string], "implementationSteps": [string]}`

// FromProblem generates one idea for a single problem statement.
func (g *Generator) FromProblem(ctx context.Context, req SingleRequest) model.BusinessIdea {
	var user strings.Builder
	fmt.Fprintf(&user, "Problem: %s\n", req.Problem)
	if req.Industry != "" {
		fmt.Fprintf(&user, "Industry: %s\n", req.Industry)
	}
	if req.Preferences != "" {
		fmt.Fprintf(&user, "Preferences: %s\n", req.Preferences)
	}

	return g.generate(ctx, singleSystemPrompt, user.String(), singleMaxTokens, nil)
}

// FromTrending generates one idea addressing a batch of pain points.
func (g *Generator) FromTrending(ctx context.Context, points []model.PainPoint, category string) model.BusinessIdea {
	var user strings.Builder
	if category != "" {
		fmt.Fprintf(&user, "Category focus: %s\n\n", category)
	}
	user.WriteString("Pain points:\n")
	for i, p := range points {
		fmt.Fprintf(&user, "%d. %s\n   %s\n   source=%s sentiment=%.2f trend=%.2f keywords=%s\n",
			i+1, p.Title, p.Content, p.Source, p.SentimentScore, p.TrendScore,
			strings.Join(p.Keywords, ", "))
	}

	return g.generate(ctx, trendingSystemPrompt, user.String(), trendingMaxTokens, points)
}

func (g *Generator) generate(ctx context.Context, system, user string, maxTokens int, points []model.PainPoint) model.BusinessIdea {
	content, modelName, err := g.chat.Complete(ctx, system, user, maxTokens, temperature)
	if err != nil {
		g.logger.Warn("idea generation failed, using mock fallback", "error", err)
		return g.mockIdea(points)
	}

	idea, err := parseIdea(content)
	if err != nil {
		g.logger.Warn("idea response unparsable, using mock fallback", "error", err)
		return g.mockIdea(points)
	}

	idea.ID = uuid.NewString()
	idea.Model = modelName
	idea.BasedOnRealData = len(points) > 0
	idea.GeneratedAt = g.now().UTC()
	if len(points) > 0 && len(idea.PainPointsAddressed) == 0 {
		for _, p := range points {
			idea.PainPointsAddressed = append(idea.PainPointsAddressed, p.Title)
		}
	}
	return idea
}

// rawIdea mirrors the JSON schema the prompts ask for. Confidence is kept
// raw because providers sometimes return it as a string.
type rawIdea struct {
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	TargetMarket         string          `json:"targetMarket"`
	BusinessModel        string          `json:"businessModel"`
	KeyFeatures          []string        `json:"keyFeatures"`
	MarketSize           string          `json:"marketSize"`
	CompetitiveAdvantage string          `json:"competitiveAdvantage"`
	ConfidenceScore      json.RawMessage `json:"confidenceScore"`
	Tags                 []string        `json:"tags"`
	EstimatedCost        string          `json:"estimatedCost"`
	TimeToMarket         string          `json:"timeToMarket"`
	PainPointsAddressed  []string        `json:"painPointsAddressed"`
	ImplementationSteps  []string        `json:"implementationSteps"`
}

// parseIdea strips markdown fences, parses the JSON payload and fills in
// defaults for every missing or malformed field.
func parseIdea(content string) (model.BusinessIdea, error) {
	var raw rawIdea
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return model.BusinessIdea{}, fmt.Errorf("parse idea JSON: %w", err)
	}

	idea := model.BusinessIdea{
		Title:                orDefault(raw.Title, "AI-Generated Business Idea"),
		Description:          orDefault(raw.Description, "A business opportunity derived from observed user pain points."),
		TargetMarket:         orDefault(raw.TargetMarket, "Small and medium businesses"),
		BusinessModel:        orDefault(raw.BusinessModel, "Subscription"),
		KeyFeatures:          raw.KeyFeatures,
		MarketSize:           orDefault(raw.MarketSize, "Unknown"),
		CompetitiveAdvantage: orDefault(raw.CompetitiveAdvantage, "First-mover advantage in an underserved niche"),
		ConfidenceScore:      parseConfidence(raw.ConfidenceScore),
		Tags:                 raw.Tags,
		EstimatedCost:        orDefault(raw.EstimatedCost, "Medium"),
		TimeToMarket:         orDefault(raw.TimeToMarket, "3-6 months"),
		PainPointsAddressed:  raw.PainPointsAddressed,
		ImplementationSteps:  raw.ImplementationSteps,
	}
	if len(idea.KeyFeatures) == 0 {
		idea.KeyFeatures = []string{"Core feature", "Automation", "Analytics dashboard"}
	}
	if len(idea.Tags) == 0 {
		idea.Tags = []string{"startup", "saas"}
	}
	return idea, nil
}

// parseConfidence clamps a numeric confidence into the configured bounds
// and substitutes the default when the value is absent or not a number.
func parseConfidence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return DefaultConfidence
	}
	var score float64
	if err := json.Unmarshal(raw, &score); err != nil {
		return DefaultConfidence
	}
	switch {
	case score < MinConfidence:
		return MinConfidence
	case score > MaxConfidence:
		return MaxConfidence
	default:
		return int(score)
	}
}

// stripFences removes a markdown code fence wrapper if present.
func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
