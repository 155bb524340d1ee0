package classifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"smartinbox/internal/config"
	"smartinbox/internal/models"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const (
	// maxContentLength bounds how much of the email body is sent to the
	// model; classification does not need the full message.
	maxContentLength = 1000

	systemPrompt = "You are an email classification assistant."

	promptTemplate = `Classify the following email into one of these categories:
- technical: Technical issues, bug reports, feature requests
- commercial: Sales inquiries, pricing questions, contract discussions
- administrative: Account management, general inquiries, scheduling

Subject: %s

Email content:
%s

Respond with only the category name and confidence score (0-1) separated by a comma.
Example: "technical,0.85"`
)

// OpenAIClassifier classifies emails with a chat completion call.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOpenAIClassifier creates an OpenAI-backed classifier
func NewOpenAIClassifier(cfg *config.Config, logger zerolog.Logger) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:  openai.NewClient(cfg.OpenAIKey),
		model:   string(openai.GPT4oMini),
		timeout: time.Duration(cfg.OpenAITimeout) * time.Second,
		logger:  logger,
	}
}

// Classify sends the email to the model and parses its one-line reply.
// The call is bounded by the configured timeout; a transport failure is
// returned to the caller, which must treat it as confidence zero rather
// than blocking ingestion.
func (c *OpenAIClassifier) Classify(ctx context.Context, subject, body string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content := body
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, subject, content)},
		},
		Temperature: 0.3,
		MaxTokens:   20,
	})
	if err != nil {
		return Result{}, fmt.Errorf("classification request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("no response from classifier")
	}

	result := parseReply(resp.Choices[0].Message.Content)
	c.logger.Debug().
		Str("label", string(result.Label)).
		Float64("confidence", result.Confidence).
		Msg("Email classified")
	return result, nil
}

// parseReply parses the model's "label,confidence" reply. Malformed
// replies and unknown labels degrade to (administrative, 0.5) instead
// of failing the workflow.
func parseReply(reply string) Result {
	fallback := Result{Label: models.ClassificationAdministrative, Confidence: 0.5}

	parts := strings.SplitN(strings.TrimSpace(strings.Trim(reply, `"`)), ",", 2)
	if len(parts) != 2 {
		return fallback
	}

	label := models.Classification(strings.ToLower(strings.TrimSpace(parts[0])))
	if !label.Valid() {
		return fallback
	}

	confidence, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Result{Label: label, Confidence: 0.5}
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{Label: label, Confidence: confidence}
}
