// Package dispatch executes the action a selected routing rule
// prescribes: creating a tracker issue or forwarding the email. Both
// action kinds sit behind one dispatch entry point so new kinds can be
// added without touching the decision engine.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartinbox/internal/models"

	"github.com/rs/zerolog"
)

// ErrPermanent wraps failures that retrying cannot fix; the engine
// escalates these to manual review without further attempts.
var ErrPermanent = errors.New("permanent dispatch failure")

// permanenter is implemented by collaborator errors that know whether
// they are worth retrying.
type permanenter interface {
	Permanent() bool
}

// IssueTracker is the issue-tracker collaborator.
type IssueTracker interface {
	CreateIssue(ctx context.Context, repository, title, body string) (string, error)
}

// MailTransport is the mail-transport collaborator.
type MailTransport interface {
	Forward(ctx context.Context, destination string, email *models.InboundEmail) error
}

// Dispatcher executes rule actions with bounded retries and
// at-least-once delivery toward the external collaborators. Idempotency
// is keyed by (email, rule) through the ledger, so a retried dispatch
// never creates a duplicate issue or a double forward.
type Dispatcher struct {
	tracker        IssueTracker
	mail           MailTransport
	ledger         Ledger
	maxAttempts    int
	baseBackoff    time.Duration
	attemptTimeout time.Duration
	logger         zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given collaborators
func NewDispatcher(tracker IssueTracker, mail MailTransport, ledger Ledger, maxAttempts int, attemptTimeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Dispatcher{
		tracker:        tracker,
		mail:           mail,
		ledger:         ledger,
		maxAttempts:    maxAttempts,
		baseBackoff:    time.Second,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Dispatch executes the rule's action for the email and returns a
// reference to the side effect (issue URL or forward destination).
// Transient failures are retried with exponential backoff up to the
// attempt budget; permanent failures abort immediately. If the (email,
// rule) pair was already dispatched, Dispatch reports success without
// re-executing the action.
func (d *Dispatcher) Dispatch(ctx context.Context, rule *models.RoutingRule, email *models.InboundEmail, clientName string) (string, error) {
	key := fmt.Sprintf("email:%d:rule:%d", email.ID, rule.ID)

	claimed, err := d.ledger.Claim(ctx, key)
	if err != nil {
		return "", fmt.Errorf("claim dispatch key: %w", err)
	}
	if !claimed {
		d.logger.Info().
			Int64("email_id", email.ID).
			Int64("rule_id", rule.ID).
			Msg("Dispatch already performed, skipping side effect")
		return "", nil
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		reference, err := d.execute(ctx, rule, email, clientName)
		if err == nil {
			return reference, nil
		}
		lastErr = err

		if isPermanent(err) {
			d.release(key)
			d.logger.Error().Err(err).
				Int64("email_id", email.ID).
				Int64("rule_id", rule.ID).
				Msg("Permanent dispatch failure, not retrying")
			return "", fmt.Errorf("%w: %v", ErrPermanent, err)
		}

		d.logger.Warn().Err(err).
			Int64("email_id", email.ID).
			Int64("rule_id", rule.ID).
			Int("attempt", attempt).
			Msg("Transient dispatch failure")

		if attempt < d.maxAttempts {
			backoff := d.baseBackoff * (1 << (attempt - 1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				d.release(key)
				return "", fmt.Errorf("dispatch cancelled: %w", ctx.Err())
			}
		}
	}

	d.release(key)
	return "", fmt.Errorf("dispatch failed after %d attempts: %w", d.maxAttempts, lastErr)
}

// execute runs a single bounded attempt of the rule's action.
func (d *Dispatcher) execute(ctx context.Context, rule *models.RoutingRule, email *models.InboundEmail, clientName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()

	switch rule.Action {
	case models.ActionCreateIssue:
		url, err := d.tracker.CreateIssue(ctx, rule.Destination,
			IssueTitle(clientName, email), IssueBody(clientName, email))
		if err != nil {
			return "", err
		}
		return url, nil
	case models.ActionForwardEmail:
		if err := d.mail.Forward(ctx, rule.Destination, email); err != nil {
			return "", err
		}
		return rule.Destination, nil
	default:
		return "", fmt.Errorf("%w: unknown action kind %q", ErrPermanent, rule.Action)
	}
}

// release drops the idempotency claim after a failed dispatch so a
// later retry or operator approval can dispatch the pair again.
func (d *Dispatcher) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.ledger.Release(ctx, key); err != nil {
		d.logger.Error().Err(err).Str("key", key).Msg("Failed to release dispatch claim")
	}
}

// isPermanent classifies a dispatch error. Collaborator API errors
// decide for themselves; everything else (network, timeout) is
// considered transient.
func isPermanent(err error) bool {
	if errors.Is(err, ErrPermanent) {
		return true
	}
	var p permanenter
	return errors.As(err, &p) && p.Permanent()
}
