package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartinbox/internal/database"
	"smartinbox/internal/models"
	"smartinbox/internal/registry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
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

func clientColumns() []string {
	return []string{
		"id", "name", "domains", "signature_patterns", "authorized_emails",
		"github_repository", "technical_contact", "commercial_contact",
		"administrative_contact", "created_at", "updated_at",
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func testResolver(store *database.ClientStore) *registry.Resolver {
	return registry.NewResolver(store, time.Minute, zerolog.Nop())
}

func TestCreateClientHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
		expectedField  string
	}{
		{
			name: "creates a valid client",
			body: `{"name":"Acme","domains":["acmecorp.com"],"github_repository":"acme/support"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO clients`).
					WillReturnRows(sqlmock.NewRows(clientColumns()).AddRow(
						1, "Acme", "{acmecorp.com}", "{}", "{}",
						"acme/support", nil, nil, nil, time.Now(), time.Now(),
					))
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rejects client without identity signal",
			body:           `{"name":"Acme"}`,
			expectedStatus: http.StatusBadRequest,
			expectedField:  "domains",
		},
		{
			name:           "rejects client without name",
			body:           `{"domains":["acmecorp.com"]}`,
			expectedStatus: http.StatusBadRequest,
			expectedField:  "name",
		},
		{
			name:           "rejects malformed repository",
			body:           `{"name":"Acme","domains":["acmecorp.com"],"github_repository":"not a repo"}`,
			expectedStatus: http.StatusBadRequest,
			expectedField:  "github_repository",
		},
		{
			name:           "rejects invalid authorized email",
			body:           `{"name":"Acme","authorized_emails":["not-an-email"]}`,
			expectedStatus: http.StatusBadRequest,
			expectedField:  "authorized_emails",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			store := database.NewClientStore(db)
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/clients", tt.body), rec)

			handler := CreateClientHandler(store, testResolver(store))
			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedField != "" {
				var resp models.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedField, resp.Field)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteClientHandler_ConflictWhileRulesExist(t *testing.T) {
	db, mock := newMockDB(t)
	store := database.NewClientStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routing_rules WHERE client_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetPath("/api/clients/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")

	handler := DeleteClientHandler(store, testResolver(store))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClientHandler_Success(t *testing.T) {
	db, mock := newMockDB(t)
	store := database.NewClientStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routing_rules WHERE client_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM clients WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetPath("/api/clients/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")

	handler := DeleteClientHandler(store, testResolver(store))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClientHandler_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := database.NewClientStore(db)

	mock.ExpectQuery(`SELECT \* FROM clients WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(clientColumns()))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetPath("/api/clients/:id")
	c.SetParamNames("id")
	c.SetParamValues("99")

	handler := GetClientHandler(store)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
