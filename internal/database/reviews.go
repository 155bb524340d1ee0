package database

import (
	"context"
	"fmt"

	"smartinbox/internal/models"

	"github.com/jmoiron/sqlx"
)

// ReviewStore handles review decision persistence. Decisions are
// append-only: once recorded they are never updated or deleted.
type ReviewStore struct {
	db *sqlx.DB
}

// NewReviewStore creates a new review store
func NewReviewStore(db *sqlx.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Insert records an operator decision
func (s *ReviewStore) Insert(ctx context.Context, decision *models.ReviewDecision) error {
	err := s.db.GetContext(ctx, decision, `
		INSERT INTO review_decisions (email_id, decision, client_id, classification, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, decision.EmailID, decision.Decision, decision.ClientID, decision.Classification, decision.Notes)
	if err != nil {
		return fmt.Errorf("failed to record review decision: %w", err)
	}
	return nil
}

// ListForEmail returns the decision history for an email, oldest first
func (s *ReviewStore) ListForEmail(ctx context.Context, emailID int64) ([]models.ReviewDecision, error) {
	var decisions []models.ReviewDecision
	err := s.db.SelectContext(ctx, &decisions, `
		SELECT * FROM review_decisions WHERE email_id = $1 ORDER BY created_at, id
	`, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions for email %d: %w", emailID, err)
	}
	return decisions, nil
}
