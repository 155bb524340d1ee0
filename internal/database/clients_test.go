package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestNormalizeSet(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected pq.StringArray
	}{
		{
			name:     "lowercases and deduplicates",
			input:    []string{"AcmeCorp.com", "acmecorp.com", "ACMECORP.COM"},
			expected: pq.StringArray{"acmecorp.com"},
		},
		{
			name:     "trims whitespace and drops empties",
			input:    []string{"  jane@acmecorp.com ", "", "  "},
			expected: pq.StringArray{"jane@acmecorp.com"},
		},
		{
			name:     "preserves order of first occurrence",
			input:    []string{"b.com", "a.com", "B.COM"},
			expected: pq.StringArray{"b.com", "a.com"},
		},
		{
			name:     "empty input",
			input:    nil,
			expected: pq.StringArray{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeSet(tt.input))
		})
	}
}

func TestClientStore_Delete_RejectedWhileRulesExist(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewClientStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routing_rules WHERE client_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := store.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrClientHasRules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientStore_Delete_Success(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewClientStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routing_rules WHERE client_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM clients WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Delete(context.Background(), 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientStore_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewClientStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routing_rules WHERE client_id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM clients WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientStore_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewClientStore(db)

	mock.ExpectQuery(`SELECT \* FROM clients WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	client, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, client)
	assert.NoError(t, mock.ExpectationsWereMet())
}
