// Package review implements the manual review queue: listing emails
// parked for an operator and applying approve/reject decisions.
package review

import (
	"context"
	"errors"
	"fmt"

	"smartinbox/internal/models"

	"github.com/rs/zerolog"
)

// ErrNotPending rejects a decision on an email that is not awaiting
// review. Decisions are final, so a second verdict on the same email
// lands here too.
var ErrNotPending = errors.New("email is not pending review")

// EmailSource provides queue contents and single-email lookups.
type EmailSource interface {
	Get(ctx context.Context, id int64) (*models.InboundEmail, error)
	ListPending(ctx context.Context) ([]models.InboundEmail, error)
}

// ClientGetter verifies the operator-selected client exists.
type ClientGetter interface {
	Get(ctx context.Context, id int64) (*models.Client, error)
}

// DecisionRecorder persists the audit trail of operator verdicts.
type DecisionRecorder interface {
	Insert(ctx context.Context, decision *models.ReviewDecision) error
	ListForEmail(ctx context.Context, emailID int64) ([]models.ReviewDecision, error)
}

// Router re-enters the routing engine with the operator's verdict.
type Router interface {
	Approve(ctx context.Context, email *models.InboundEmail, clientID int64, label models.Classification) error
	Reject(ctx context.Context, email *models.InboundEmail) error
}

// Queue is the manual review service.
type Queue struct {
	emails    EmailSource
	clients   ClientGetter
	decisions DecisionRecorder
	router    Router
	logger    zerolog.Logger
}

// NewQueue creates a review queue service
func NewQueue(emails EmailSource, clients ClientGetter, decisions DecisionRecorder, router Router, logger zerolog.Logger) *Queue {
	return &Queue{
		emails:    emails,
		clients:   clients,
		decisions: decisions,
		router:    router,
		logger:    logger,
	}
}

// Pending returns emails awaiting review, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]models.InboundEmail, error) {
	return q.emails.ListPending(ctx)
}

// History returns the decision trail for an email, oldest first.
func (q *Queue) History(ctx context.Context, emailID int64) ([]models.ReviewDecision, error) {
	return q.decisions.ListForEmail(ctx, emailID)
}

// Decide applies an operator verdict to a pending email. The decision
// is recorded before routing resumes so the audit trail survives even
// when the forced dispatch fails and the email returns to the queue.
func (q *Queue) Decide(ctx context.Context, emailID int64, req *models.ReviewRequest) (*models.InboundEmail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email, err := q.emails.Get(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if email.Status != models.StatusPendingReview {
		return nil, fmt.Errorf("%w: email %d is %s", ErrNotPending, emailID, email.Status)
	}

	if req.Decision == models.DecisionApprove {
		if _, err := q.clients.Get(ctx, *req.ClientID); err != nil {
			return nil, fmt.Errorf("approve failed: %w", err)
		}
	}

	decision := &models.ReviewDecision{
		EmailID:        emailID,
		Decision:       req.Decision,
		ClientID:       req.ClientID,
		Classification: req.Classification,
		Notes:          req.Notes,
	}
	if err := q.decisions.Insert(ctx, decision); err != nil {
		return nil, err
	}

	log := q.logger.With().Int64("email_id", emailID).Str("decision", string(req.Decision)).Logger()

	switch req.Decision {
	case models.DecisionApprove:
		err = q.router.Approve(ctx, email, *req.ClientID, *req.Classification)
	case models.DecisionReject:
		err = q.router.Reject(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply review decision for email %d: %w", emailID, err)
	}

	log.Info().Str("status", string(email.Status)).Msg("Review decision applied")
	return email, nil
}
