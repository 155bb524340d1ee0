package database

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"smartinbox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleColumns() []string {
	return []string{
		"id", "client_id", "classification", "action", "destination",
		"priority", "active", "created_at", "updated_at",
	}
}

func ruleRow(id, clientID int64, classification, action, destination string, priority int, active bool) []driver.Value {
	return []driver.Value{id, clientID, classification, action, destination, priority, active, time.Now(), time.Now()}
}

func TestRuleStore_ActiveForClient(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewRuleStore(db)

	rows := sqlmock.NewRows(ruleColumns()).
		AddRow(ruleRow(2, 1, "technical", "create-issue", "acme/support", 9, true)...).
		AddRow(ruleRow(1, 1, "technical", "forward-email", "ops@acmecorp.com", 5, true)...)
	mock.ExpectQuery(`SELECT \* FROM routing_rules WHERE client_id = \$1 AND active = TRUE`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	rules, err := store.ActiveForClient(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, int64(2), rules[0].ID, "rules arrive ordered by priority descending")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleStore_Create_RequiresClient(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewRuleStore(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.Create(context.Background(), &models.RuleRequest{
		ClientID:       99,
		Classification: models.ClassificationTechnical,
		Action:         models.ActionCreateIssue,
		Destination:    "acme/support",
		Priority:       5,
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleStore_Toggle(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewRuleStore(db)

	mock.ExpectQuery(`UPDATE routing_rules SET active = NOT active`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(ruleColumns()).
			AddRow(ruleRow(3, 1, "technical", "create-issue", "acme/support", 5, false)...))

	rule, err := store.Toggle(context.Background(), 3)

	require.NoError(t, err)
	assert.False(t, rule.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleStore_Toggle_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewRuleStore(db)

	mock.ExpectQuery(`UPDATE routing_rules SET active = NOT active`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(ruleColumns()))

	_, err := store.Toggle(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
}
