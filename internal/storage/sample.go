package storage

import (
	"time"

	"ideaspark/internal/model"
)

// SamplePainPoints returns canned pain points used when the sample-data
// fallback is enabled and the backing store is unavailable. Demo
// deployments stay populated instead of surfacing a hard read error.
func SamplePainPoints() []model.PainPoint {
	now := time.Now().UTC()
	return []model.PainPoint{
		{
			ID:             "sample-pp-1",
			Title:          "Managing invoices across three tools is a nightmare",
			Content:        "I run a small agency and juggle invoicing between a spreadsheet, an accounting app, and email threads. Reconciling them every month wastes an entire day and mistakes still slip through.",
			Source:         "smallbusiness",
			SourceURL:      "https://reddit.com/r/smallbusiness/sample1",
			SentimentScore: 0.3,
			TrendScore:     0.72,
			Keywords:       []string{"invoicing", "automation", "accounting"},
			Category:       "business",
			CollectedAt:    now.Add(-2 * time.Hour),
		},
		{
			ID:             "sample-pp-2",
			Title:          "Onboarding new engineers takes weeks because docs are scattered",
			Content:        "Every new hire struggles to find setup guides, architecture notes, and tribal knowledge spread across wikis, chat history, and people's heads. It is frustrating and slow for everyone involved.",
			Source:         "programming",
			SourceURL:      "https://reddit.com/r/programming/sample2",
			SentimentScore: 0.2,
			TrendScore:     0.85,
			Keywords:       []string{"onboarding", "documentation", "productivity"},
			Category:       "technology",
			CollectedAt:    now.Add(-5 * time.Hour),
		},
		{
			ID:             "sample-pp-3",
			Title:          "Scheduling across time zones keeps breaking",
			Content:        "Our distributed team constantly double-books meetings because calendar tools handle time zones differently. The problem gets worse every time someone travels.",
			Source:         "productivity",
			SourceURL:      "https://reddit.com/r/productivity/sample3",
			SentimentScore: 0.4,
			TrendScore:     0.61,
			Keywords:       []string{"scheduling", "remote", "calendar"},
			Category:       "productivity",
			CollectedAt:    now.Add(-8 * time.Hour),
		},
	}
}

// SampleIdeas returns canned ideas for the same fallback path.
func SampleIdeas() []model.BusinessIdea {
	now := time.Now().UTC()
	return []model.BusinessIdea{
		{
			ID:                   "sample-idea-1",
			Title:                "Unified Invoice Hub for Small Agencies",
			Description:          "A single dashboard that syncs invoices from spreadsheets, accounting apps, and email, reconciles them automatically, and flags mismatches before month end.",
			TargetMarket:         "Small agencies and freelancers with 2-20 clients",
			BusinessModel:        "Monthly SaaS subscription with a per-seat tier",
			KeyFeatures:          []string{"Automatic reconciliation", "Multi-source sync", "Mismatch alerts"},
			MarketSize:           "Mid-size, growing with the freelance economy",
			CompetitiveAdvantage: "Integrates with existing tools instead of replacing them",
			ConfidenceScore:      88,
			Tags:                 []string{"saas", "fintech", "automation"},
			EstimatedCost:        "$15,000 - $30,000",
			TimeToMarket:         "3-4 months",
			Model:                "sample-data",
			BasedOnRealData:      false,
			GeneratedAt:          now.Add(-time.Hour),
		},
		{
			ID:                   "sample-idea-2",
			Title:                "Living Onboarding Playbooks",
			Description:          "A developer onboarding tool that assembles setup guides and architecture notes from existing wikis and repositories, keeps them fresh with staleness detection, and tracks each hire's progress.",
			TargetMarket:         "Engineering teams of 10-200 developers",
			BusinessModel:        "Per-team subscription with a free tier for small teams",
			KeyFeatures:          []string{"Doc aggregation", "Staleness detection", "Progress tracking"},
			MarketSize:           "Large, every growing engineering org onboards continuously",
			CompetitiveAdvantage: "Builds on docs teams already have rather than demanding new ones",
			ConfidenceScore:      91,
			Tags:                 []string{"devtools", "saas", "productivity"},
			EstimatedCost:        "$25,000 - $50,000",
			TimeToMarket:         "4-6 months",
			Model:                "sample-data",
			BasedOnRealData:      false,
			GeneratedAt:          now.Add(-3 * time.Hour),
		},
	}
}
