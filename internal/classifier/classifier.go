// Package classifier assigns an intent label and confidence score to
// inbound emails. The engine treats classification as a pluggable
// capability: an OpenAI-backed classifier when an API key is
// configured, and a keyword classifier otherwise.
package classifier

import (
	"context"

	"smartinbox/internal/config"
	"smartinbox/internal/models"

	"github.com/rs/zerolog"
)

// Result is a classification outcome.
type Result struct {
	Label      models.Classification
	Confidence float64
}

// Classifier assigns a label and confidence to email content.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) (Result, error)
}

// New returns the configured classifier implementation
func New(cfg *config.Config, logger zerolog.Logger) Classifier {
	if cfg.OpenAIKey != "" {
		return NewOpenAIClassifier(cfg, logger)
	}
	logger.Info().Msg("OPENAI_API_KEY not set, using keyword classifier")
	return NewKeywordClassifier()
}
