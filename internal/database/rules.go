package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartinbox/internal/models"

	"github.com/jmoiron/sqlx"
)

// RuleStore handles routing rule persistence
type RuleStore struct {
	db *sqlx.DB
}

// NewRuleStore creates a new rule store
func NewRuleStore(db *sqlx.DB) *RuleStore {
	return &RuleStore{db: db}
}

// List returns all rules, optionally filtered by client
func (s *RuleStore) List(ctx context.Context, clientID int64) ([]models.RoutingRule, error) {
	var rules []models.RoutingRule
	var err error
	if clientID > 0 {
		err = s.db.SelectContext(ctx, &rules, `
			SELECT * FROM routing_rules WHERE client_id = $1 ORDER BY priority DESC, id
		`, clientID)
	} else {
		err = s.db.SelectContext(ctx, &rules, `
			SELECT * FROM routing_rules ORDER BY client_id, priority DESC, id
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// ActiveForClient returns the active rules for a client in a single
// query, so selection always runs against a consistent snapshot of the
// rule set rather than rule-by-rule reads.
func (s *RuleStore) ActiveForClient(ctx context.Context, clientID int64) ([]models.RoutingRule, error) {
	var rules []models.RoutingRule
	err := s.db.SelectContext(ctx, &rules, `
		SELECT * FROM routing_rules
		WHERE client_id = $1 AND active = TRUE
		ORDER BY priority DESC, id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules for client %d: %w", clientID, err)
	}
	return rules, nil
}

// Get returns a single rule by ID
func (s *RuleStore) Get(ctx context.Context, id int64) (*models.RoutingRule, error) {
	var rule models.RoutingRule
	err := s.db.GetContext(ctx, &rule, `SELECT * FROM routing_rules WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule %d: %w", id, err)
	}
	return &rule, nil
}

// Create inserts a new rule from a validated request. The owning client
// must exist.
func (s *RuleStore) Create(ctx context.Context, req *models.RuleRequest) (*models.RoutingRule, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)
	`, req.ClientID); err != nil {
		return nil, fmt.Errorf("failed to check client %d: %w", req.ClientID, err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var rule models.RoutingRule
	err := s.db.GetContext(ctx, &rule, `
		INSERT INTO routing_rules (client_id, classification, action, destination, priority, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, req.ClientID, req.Classification, req.Action, req.Destination, req.Priority, active)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return &rule, nil
}

// Update replaces a rule's fields from a validated request
func (s *RuleStore) Update(ctx context.Context, id int64, req *models.RuleRequest) (*models.RoutingRule, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var rule models.RoutingRule
	err := s.db.GetContext(ctx, &rule, `
		UPDATE routing_rules SET
			client_id = $1,
			classification = $2,
			action = $3,
			destination = $4,
			priority = $5,
			active = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
		RETURNING *
	`, req.ClientID, req.Classification, req.Action, req.Destination, req.Priority, active, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update rule %d: %w", id, err)
	}
	return &rule, nil
}

// Toggle flips a rule's active flag
func (s *RuleStore) Toggle(ctx context.Context, id int64) (*models.RoutingRule, error) {
	var rule models.RoutingRule
	err := s.db.GetContext(ctx, &rule, `
		UPDATE routing_rules SET active = NOT active, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING *
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle rule %d: %w", id, err)
	}
	return &rule, nil
}

// Delete removes a rule
func (s *RuleStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routing_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
