package ideagen

import (
	"github.com/google/uuid"

	"ideaspark/internal/model"
)

// mockModel marks ideas produced by the fallback path.
const mockModel = "mock-fallback"

// mockIdeas are returned when the generative API call fails. Two fixed
// candidates keep the fallback from looking identical on every failure.
var mockIdeas = []model.BusinessIdea{
	{
		Title:                "TaskFlow - Smart Workflow Automation",
		Description:          "A no-code automation tool that connects the small-business apps people already use and removes repetitive manual work like copying data between spreadsheets and invoices.",
		TargetMarket:         "Small businesses and solo founders",
		BusinessModel:        "Monthly subscription with a free tier",
		KeyFeatures:          []string{"Drag-and-drop workflow builder", "Prebuilt templates for common chores", "Integrations with popular SMB tools"},
		MarketSize:           "Growing no-code automation market",
		CompetitiveAdvantage: "Focused on non-technical small-business owners rather than enterprise IT",
		ConfidenceScore:      DefaultConfidence,
		Tags:                 []string{"automation", "saas", "productivity"},
		EstimatedCost:        "Low",
		TimeToMarket:         "3-6 months",
	},
	{
		Title:                "FeedbackLens - Customer Pain Point Radar",
		Description:          "A dashboard that continuously scans community discussions and support channels for recurring complaints about a product category, so teams learn what to build next without manual research.",
		TargetMarket:         "Product teams at early-stage startups",
		BusinessModel:        "Tiered subscription by number of tracked topics",
		KeyFeatures:          []string{"Automatic complaint clustering", "Trend scoring over time", "Weekly digest reports"},
		MarketSize:           "Voice-of-customer analytics market",
		CompetitiveAdvantage: "Sources insights from public communities instead of surveys",
		ConfidenceScore:      DefaultConfidence,
		Tags:                 []string{"analytics", "saas", "research"},
		EstimatedCost:        "Medium",
		TimeToMarket:         "6-9 months",
	},
}

// mockIdea returns one of the canned ideas, stamped with the fallback
// provenance so downstream code can tell it apart from real output.
func (g *Generator) mockIdea(points []model.PainPoint) model.BusinessIdea {
	idea := mockIdeas[g.rng.Intn(len(mockIdeas))]

	idea.ID = uuid.NewString()
	idea.Model = mockModel
	idea.BasedOnRealData = false
	idea.GeneratedAt = g.now().UTC()
	if len(points) > 0 {
		for _, p := range points {
			idea.PainPointsAddressed = append(idea.PainPointsAddressed, p.Title)
		}
	}
	return idea
}
