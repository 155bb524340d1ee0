package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartinbox/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// EmailStore handles email persistence. Emails are never deleted; they
// only transition between routing statuses, preserving the audit trail.
type EmailStore struct {
	db *sqlx.DB
}

// NewEmailStore creates a new email store
func NewEmailStore(db *sqlx.DB) *EmailStore {
	return &EmailStore{db: db}
}

// Insert stores a newly received email in the unrouted state
func (s *EmailStore) Insert(ctx context.Context, email *models.InboundEmail) error {
	if email.Attachments == nil {
		email.Attachments = pq.StringArray{}
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now().UTC()
	}
	err := s.db.GetContext(ctx, email, `
		INSERT INTO emails (message_id, sender, recipient, subject, body, attachments, received_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, email.MessageID, email.Sender, email.Recipient, email.Subject, email.Body,
		email.Attachments, email.ReceivedAt, models.StatusUnrouted)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}
	return nil
}

// Get returns a single email by ID
func (s *EmailStore) Get(ctx context.Context, id int64) (*models.InboundEmail, error) {
	var email models.InboundEmail
	err := s.db.GetContext(ctx, &email, `SELECT * FROM emails WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email %d: %w", id, err)
	}
	return &email, nil
}

// List returns emails newest-first, optionally filtered by status
func (s *EmailStore) List(ctx context.Context, status models.RoutingStatus, limit, offset int) ([]models.InboundEmail, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var emails []models.InboundEmail
	var err error
	if status != "" {
		err = s.db.SelectContext(ctx, &emails, `
			SELECT * FROM emails WHERE status = $1
			ORDER BY received_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`, status, limit, offset)
	} else {
		err = s.db.SelectContext(ctx, &emails, `
			SELECT * FROM emails
			ORDER BY received_at DESC, id DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

// ListPending returns emails awaiting manual review, oldest received
// first, so operators work the queue in arrival order.
func (s *EmailStore) ListPending(ctx context.Context) ([]models.InboundEmail, error) {
	var emails []models.InboundEmail
	err := s.db.SelectContext(ctx, &emails, `
		SELECT * FROM emails WHERE status = $1
		ORDER BY received_at ASC, id ASC
	`, models.StatusPendingReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending emails: %w", err)
	}
	return emails, nil
}

// UpdateRouting persists the routing state accumulated for an email and
// mirrors it back onto the passed struct.
func (s *EmailStore) UpdateRouting(ctx context.Context, email *models.InboundEmail) error {
	err := s.db.GetContext(ctx, email, `
		UPDATE emails SET
			client_id = $1,
			classification = $2,
			confidence = $3,
			status = $4,
			review_reason = $5,
			action_reference = $6,
			processed_at = $7
		WHERE id = $8
		RETURNING *
	`, email.ClientID, email.Classification, email.Confidence, email.Status,
		email.ReviewReason, email.ActionReference, email.ProcessedAt, email.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update routing state for email %d: %w", email.ID, err)
	}
	return nil
}
