package classifier

import (
	"context"
	"strings"

	"smartinbox/internal/models"
)

// KeywordClassifier is a lexical classifier used when no model API key
// is configured. Confidence is the share of keyword hits belonging to
// the winning category.
type KeywordClassifier struct {
	keywords map[models.Classification][]string
}

// NewKeywordClassifier creates a keyword-based classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		keywords: map[models.Classification][]string{
			models.ClassificationTechnical: {
				"bug", "error", "issue", "problem", "crash", "fix", "feature",
				"request", "update", "upgrade", "install", "configuration",
				"setup", "deploy", "code", "api", "endpoint", "server",
				"database", "query", "exception", "log", "debug",
			},
			models.ClassificationCommercial: {
				"price", "cost", "quote", "purchase", "buy", "order", "invoice",
				"payment", "subscription", "license", "contract", "agreement",
				"proposal", "offer", "discount", "sale", "pricing", "plan",
				"package", "trial", "demo", "sales", "billing",
			},
			models.ClassificationAdministrative: {
				"account", "login", "password", "access", "permission", "user",
				"profile", "settings", "preference", "schedule", "meeting",
				"appointment", "call", "contact", "support", "help", "assistance",
				"information", "question", "inquiry", "feedback", "suggestion",
			},
		},
	}
}

// Classify counts keyword occurrences per category over subject and
// body. No hits at all yields (administrative, 0.5).
func (c *KeywordClassifier) Classify(ctx context.Context, subject, body string) (Result, error) {
	content := strings.ToLower(subject + "\n" + body)

	counts := make(map[models.Classification]int, len(c.keywords))
	total := 0
	for category, keywords := range c.keywords {
		for _, keyword := range keywords {
			n := strings.Count(content, keyword)
			counts[category] += n
			total += n
		}
	}

	if total == 0 {
		return Result{Label: models.ClassificationAdministrative, Confidence: 0.5}, nil
	}

	best := models.ClassificationAdministrative
	bestCount := -1
	// Iterate the closed label set in declaration order so equal counts
	// resolve deterministically.
	for _, category := range models.Classifications() {
		if counts[category] > bestCount {
			best = category
			bestCount = counts[category]
		}
	}

	return Result{
		Label:      best,
		Confidence: float64(bestCount) / float64(total),
	}, nil
}
