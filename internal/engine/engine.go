// Package engine orchestrates the routing decision for each inbound
// email: resolve the client, classify the intent, select a rule, then
// dispatch the action or escalate to manual review. Each email is an
// independent unit of work; processing distinct emails concurrently is
// safe.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartinbox/internal/classifier"
	"smartinbox/internal/models"
	"smartinbox/internal/registry"

	"github.com/rs/zerolog"
)

// Resolver resolves which client an email belongs to.
type Resolver interface {
	Resolve(ctx context.Context, email *models.InboundEmail) (registry.Match, error)
}

// RuleSource provides the active rule snapshot for a client.
type RuleSource interface {
	ActiveForClient(ctx context.Context, clientID int64) ([]models.RoutingRule, error)
}

// ClientGetter loads a single client.
type ClientGetter interface {
	Get(ctx context.Context, id int64) (*models.Client, error)
}

// Dispatcher executes a selected rule's action.
type Dispatcher interface {
	Dispatch(ctx context.Context, rule *models.RoutingRule, email *models.InboundEmail, clientName string) (string, error)
}

// EmailSink persists routing state transitions.
type EmailSink interface {
	UpdateRouting(ctx context.Context, email *models.InboundEmail) error
}

// Engine is the routing decision engine.
type Engine struct {
	resolver   Resolver
	classifier classifier.Classifier
	rules      RuleSource
	clients    ClientGetter
	dispatcher Dispatcher
	emails     EmailSink
	threshold  float64
	logger     zerolog.Logger
}

// New creates a routing engine
func New(resolver Resolver, cls classifier.Classifier, rules RuleSource, clients ClientGetter, dispatcher Dispatcher, emails EmailSink, threshold float64, logger zerolog.Logger) *Engine {
	return &Engine{
		resolver:   resolver,
		classifier: cls,
		rules:      rules,
		clients:    clients,
		dispatcher: dispatcher,
		emails:     emails,
		threshold:  threshold,
		logger:     logger,
	}
}

// Process routes a stored email through resolution, classification,
// rule selection and dispatch. Every failure along the way is recovered
// into the manual review queue with a recorded reason; Process returns
// an error only when the routing outcome itself could not be persisted.
func (e *Engine) Process(ctx context.Context, email *models.InboundEmail) error {
	log := e.logger.With().Int64("email_id", email.ID).Logger()

	// Resolving
	match, err := e.resolver.Resolve(ctx, email)
	if err != nil {
		if errors.Is(err, registry.ErrNoMatch) || errors.Is(err, registry.ErrAmbiguous) {
			log.Info().Str("reason", string(models.ReasonUnresolvedClient)).Msg("Escalating to manual review")
			return e.escalate(ctx, email, models.ReasonUnresolvedClient)
		}
		return fmt.Errorf("resolution failed for email %d: %w", email.ID, err)
	}
	email.ClientID = &match.ClientID

	// Classifying. A classifier outage is treated as confidence zero so
	// ingestion never blocks on the external capability.
	result, err := e.classifier.Classify(ctx, email.Subject, email.Body)
	if err != nil {
		log.Warn().Err(err).Msg("Classifier unavailable, treating as zero confidence")
		result = classifier.Result{}
	}
	if result.Label.Valid() {
		email.Classification = &result.Label
	}
	email.Confidence = result.Confidence

	// Below threshold is strict: a score exactly at the threshold passes.
	// The resolved client is retained for operator convenience.
	if result.Confidence < e.threshold {
		log.Info().
			Float64("confidence", result.Confidence).
			Float64("threshold", e.threshold).
			Str("reason", string(models.ReasonLowConfidence)).
			Msg("Escalating to manual review")
		return e.escalate(ctx, email, models.ReasonLowConfidence)
	}

	return e.selectAndDispatch(ctx, email, match.ClientID, result.Label, models.StatusAutoRouted)
}

// Approve re-enters the engine with an operator-supplied client and
// classification, bypassing resolution and classification entirely.
func (e *Engine) Approve(ctx context.Context, email *models.InboundEmail, clientID int64, label models.Classification) error {
	email.ClientID = &clientID
	email.Classification = &label
	return e.selectAndDispatch(ctx, email, clientID, label, models.StatusRoutedAfterReview)
}

// Reject transitions a pending email to the terminal rejected state.
// No dispatch happens; the email stays recorded for audit.
func (e *Engine) Reject(ctx context.Context, email *models.InboundEmail) error {
	now := time.Now().UTC()
	email.Status = models.StatusRejected
	email.ReviewReason = nil
	email.ProcessedAt = &now
	return e.emails.UpdateRouting(ctx, email)
}

// selectAndDispatch runs the Selecting and Dispatching states.
func (e *Engine) selectAndDispatch(ctx context.Context, email *models.InboundEmail, clientID int64, label models.Classification, successStatus models.RoutingStatus) error {
	log := e.logger.With().Int64("email_id", email.ID).Int64("client_id", clientID).Logger()

	// Selecting
	rules, err := e.rules.ActiveForClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("rule lookup failed for email %d: %w", email.ID, err)
	}
	rule, tie := selectRule(rules, label)
	if rule == nil {
		log.Info().
			Str("classification", string(label)).
			Str("reason", string(models.ReasonNoMatchingRule)).
			Msg("Escalating to manual review")
		return e.escalate(ctx, email, models.ReasonNoMatchingRule)
	}
	if tie {
		log.Warn().
			Int64("rule_id", rule.ID).
			Int("priority", rule.Priority).
			Msg("Multiple rules share the top priority, picked lowest rule id")
	}

	client, err := e.clients.Get(ctx, clientID)
	if err != nil {
		return fmt.Errorf("client lookup failed for email %d: %w", email.ID, err)
	}

	// Dispatching
	reference, err := e.dispatcher.Dispatch(ctx, rule, email, client.Name)
	if err != nil {
		log.Error().Err(err).
			Int64("rule_id", rule.ID).
			Str("reason", string(models.ReasonDispatchFailed)).
			Msg("Dispatch failed, escalating to manual review")
		return e.escalate(ctx, email, models.ReasonDispatchFailed)
	}

	now := time.Now().UTC()
	email.Status = successStatus
	email.ReviewReason = nil
	if reference != "" {
		email.ActionReference = &reference
	}
	email.ProcessedAt = &now

	if err := e.emails.UpdateRouting(ctx, email); err != nil {
		return fmt.Errorf("failed to persist routing outcome for email %d: %w", email.ID, err)
	}

	log.Info().
		Str("status", string(successStatus)).
		Int64("rule_id", rule.ID).
		Str("action", string(rule.Action)).
		Msg("Email routed")
	return nil
}

// escalate parks the email in the manual review queue with the given
// reason. No email is ever silently discarded.
func (e *Engine) escalate(ctx context.Context, email *models.InboundEmail, reason models.ReviewReason) error {
	email.Status = models.StatusPendingReview
	email.ReviewReason = &reason
	if err := e.emails.UpdateRouting(ctx, email); err != nil {
		return fmt.Errorf("failed to persist escalation for email %d: %w", email.ID, err)
	}
	return nil
}

// selectRule picks the matching active rule with the highest priority.
// Rules are expected ordered by priority descending then id ascending,
// so the first match wins; tie reports whether another candidate shared
// the top priority.
func selectRule(rules []models.RoutingRule, label models.Classification) (*models.RoutingRule, bool) {
	var selected *models.RoutingRule
	tie := false
	for i := range rules {
		rule := &rules[i]
		if !rule.Active || rule.Classification != label {
			continue
		}
		if selected == nil {
			selected = rule
			continue
		}
		if rule.Priority > selected.Priority {
			selected = rule
			tie = false
		} else if rule.Priority == selected.Priority {
			tie = true
			if rule.ID < selected.ID {
				selected = rule
			}
		}
	}
	return selected, tie
}
