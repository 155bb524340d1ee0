package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartinbox/internal/database"
	"smartinbox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct {
	calls  int
	status models.RoutingStatus
	err    error
}

func (f *fakeRouter) Process(ctx context.Context, email *models.InboundEmail) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	email.Status = f.status
	return nil
}

func emailColumns() []string {
	return []string{
		"id", "message_id", "sender", "recipient", "subject", "body",
		"attachments", "received_at", "client_id", "classification",
		"confidence", "status", "review_reason", "action_reference", "processed_at",
	}
}

func insertedEmailRow() *sqlmock.Rows {
	return sqlmock.NewRows(emailColumns()).AddRow(
		42, "msg-1", "jane@acmecorp.com", "inbox@example.com", "Server down",
		"The server keeps crashing.", "{}", time.Now(), nil, nil,
		0.0, string(models.StatusUnrouted), nil, nil, nil,
	)
}

func TestIngestEmailHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		routerStatus   models.RoutingStatus
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
		expectedCalls  int
		checkOutcome   func(t *testing.T, out models.RouteOutcome)
	}{
		{
			name:         "stores and routes an email",
			body:         `{"message_id":"msg-1","sender":"jane@acmecorp.com","recipient":"inbox@example.com","subject":"Server down","body":"The server keeps crashing."}`,
			routerStatus: models.StatusAutoRouted,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO emails`).WillReturnRows(insertedEmailRow())
			},
			expectedStatus: http.StatusAccepted,
			expectedCalls:  1,
			checkOutcome: func(t *testing.T, out models.RouteOutcome) {
				assert.Equal(t, int64(42), out.EmailID)
				assert.Equal(t, models.StatusAutoRouted, out.Status)
				assert.Equal(t, "routed automatically", out.Message)
			},
		},
		{
			name:         "reports escalation to review",
			body:         `{"sender":"unknown@nowhere.com","subject":"hello"}`,
			routerStatus: models.StatusPendingReview,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO emails`).WillReturnRows(insertedEmailRow())
			},
			expectedStatus: http.StatusAccepted,
			expectedCalls:  1,
			checkOutcome: func(t *testing.T, out models.RouteOutcome) {
				assert.Equal(t, models.StatusPendingReview, out.Status)
				assert.Equal(t, "queued for manual review", out.Message)
			},
		},
		{
			name:           "rejects email without sender",
			body:           `{"subject":"no sender"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCalls:  0,
		},
		{
			name:           "rejects malformed body",
			body:           `{not json`,
			expectedStatus: http.StatusBadRequest,
			expectedCalls:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			store := database.NewEmailStore(db)
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			router := &fakeRouter{status: tt.routerStatus}

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/emails", tt.body), rec)

			handler := IngestEmailHandler(store, router)
			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedCalls, router.calls)

			if tt.checkOutcome != nil {
				var out models.RouteOutcome
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
				tt.checkOutcome(t, out)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListEmailsHandler_StatusFilter(t *testing.T) {
	db, mock := newMockDB(t)
	store := database.NewEmailStore(db)

	mock.ExpectQuery(`SELECT \* FROM emails WHERE status = \$1`).
		WithArgs(string(models.StatusPendingReview), 100, 0).
		WillReturnRows(insertedEmailRow())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/emails?status=pending-review", nil), rec)

	handler := ListEmailsHandler(store)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmailHandler_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := database.NewEmailStore(db)

	mock.ExpectQuery(`SELECT \* FROM emails WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(emailColumns()))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetPath("/api/emails/:id")
	c.SetParamNames("id")
	c.SetParamValues("99")

	handler := GetEmailHandler(store)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
