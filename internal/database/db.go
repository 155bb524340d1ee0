package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrClientHasRules is returned when deleting a client that still has
// routing rules attached. The delete is rejected rather than cascading,
// so rule deactivation stays an explicit operator action.
var ErrClientHasRules = errors.New("client has routing rules attached")

// New creates a new PostgreSQL database connection
func New(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// CreateTables creates the application tables if they don't exist
func CreateTables(db *sqlx.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			domains TEXT[] NOT NULL DEFAULT '{}',
			signature_patterns TEXT[] NOT NULL DEFAULT '{}',
			authorized_emails TEXT[] NOT NULL DEFAULT '{}',
			github_repository VARCHAR(255),
			technical_contact VARCHAR(255),
			commercial_contact VARCHAR(255),
			administrative_contact VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS routing_rules (
			id SERIAL PRIMARY KEY,
			client_id INTEGER NOT NULL REFERENCES clients(id),
			classification VARCHAR(50) NOT NULL,
			action VARCHAR(50) NOT NULL,
			destination VARCHAR(255) NOT NULL,
			priority INTEGER NOT NULL DEFAULT 1,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routing_rules_client_id ON routing_rules(client_id)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id SERIAL PRIMARY KEY,
			message_id VARCHAR(255) UNIQUE NOT NULL,
			sender VARCHAR(255) NOT NULL,
			recipient VARCHAR(255) NOT NULL,
			subject VARCHAR(512) NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			attachments TEXT[] NOT NULL DEFAULT '{}',
			received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			client_id INTEGER REFERENCES clients(id),
			classification VARCHAR(50),
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			status VARCHAR(50) NOT NULL DEFAULT 'unrouted',
			review_reason VARCHAR(50),
			action_reference VARCHAR(512),
			processed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_status ON emails(status)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails(received_at)`,
		`CREATE TABLE IF NOT EXISTS review_decisions (
			id SERIAL PRIMARY KEY,
			email_id INTEGER NOT NULL REFERENCES emails(id),
			decision VARCHAR(20) NOT NULL,
			client_id INTEGER,
			classification VARCHAR(50),
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_decisions_email_id ON review_decisions(email_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}
