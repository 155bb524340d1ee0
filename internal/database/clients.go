package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"smartinbox/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ClientStore handles client persistence
type ClientStore struct {
	db *sqlx.DB
}

// NewClientStore creates a new client store
func NewClientStore(db *sqlx.DB) *ClientStore {
	return &ClientStore{db: db}
}

// normalizeSet lowercases and deduplicates a set of identity strings,
// dropping empties. Domains and authorized emails are matched
// case-insensitively, so they are stored folded.
func normalizeSet(values []string) pq.StringArray {
	seen := make(map[string]bool, len(values))
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// trimSet trims a set of pattern strings without case folding; signature
// patterns are matched against the body as given.
func trimSet(values []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// List returns all clients ordered by name
func (s *ClientStore) List(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.SelectContext(ctx, &clients, `
		SELECT * FROM clients ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// Get returns a single client by ID
func (s *ClientStore) Get(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	err := s.db.GetContext(ctx, &client, `SELECT * FROM clients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client %d: %w", id, err)
	}
	return &client, nil
}

// Create inserts a new client from a validated request
func (s *ClientStore) Create(ctx context.Context, req *models.ClientRequest) (*models.Client, error) {
	var client models.Client
	err := s.db.GetContext(ctx, &client, `
		INSERT INTO clients (
			name, domains, signature_patterns, authorized_emails,
			github_repository, technical_contact, commercial_contact, administrative_contact
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`,
		strings.TrimSpace(req.Name),
		normalizeSet(req.Domains),
		trimSet(req.SignaturePatterns),
		normalizeSet(req.AuthorizedEmails),
		req.GithubRepository,
		req.TechnicalContact,
		req.CommercialContact,
		req.AdministrativeContact,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &client, nil
}

// Update replaces a client's fields from a validated request
func (s *ClientStore) Update(ctx context.Context, id int64, req *models.ClientRequest) (*models.Client, error) {
	var client models.Client
	err := s.db.GetContext(ctx, &client, `
		UPDATE clients SET
			name = $1,
			domains = $2,
			signature_patterns = $3,
			authorized_emails = $4,
			github_repository = $5,
			technical_contact = $6,
			commercial_contact = $7,
			administrative_contact = $8,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
		RETURNING *
	`,
		strings.TrimSpace(req.Name),
		normalizeSet(req.Domains),
		trimSet(req.SignaturePatterns),
		normalizeSet(req.AuthorizedEmails),
		req.GithubRepository,
		req.TechnicalContact,
		req.CommercialContact,
		req.AdministrativeContact,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update client %d: %w", id, err)
	}
	return &client, nil
}

// Delete removes a client. The delete is rejected with ErrClientHasRules
// while any routing rule still references the client.
func (s *ClientStore) Delete(ctx context.Context, id int64) error {
	var ruleCount int
	err := s.db.GetContext(ctx, &ruleCount, `
		SELECT COUNT(*) FROM routing_rules WHERE client_id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to count rules for client %d: %w", id, err)
	}
	if ruleCount > 0 {
		return ErrClientHasRules
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client %d: %w", id, err)
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
