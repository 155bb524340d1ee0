package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartinbox/internal/database"
	"smartinbox/internal/models"
	"smartinbox/internal/review"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewEmails struct {
	email *models.InboundEmail
}

func (f *reviewEmails) Get(ctx context.Context, id int64) (*models.InboundEmail, error) {
	if f.email == nil || f.email.ID != id {
		return nil, database.ErrNotFound
	}
	return f.email, nil
}

func (f *reviewEmails) ListPending(ctx context.Context) ([]models.InboundEmail, error) {
	if f.email == nil {
		return nil, nil
	}
	return []models.InboundEmail{*f.email}, nil
}

type reviewClients struct{}

func (reviewClients) Get(ctx context.Context, id int64) (*models.Client, error) {
	return &models.Client{ID: id, Name: "Acme"}, nil
}

type reviewDecisions struct {
	recorded []models.ReviewDecision
}

func (f *reviewDecisions) Insert(ctx context.Context, decision *models.ReviewDecision) error {
	f.recorded = append(f.recorded, *decision)
	return nil
}

func (f *reviewDecisions) ListForEmail(ctx context.Context, emailID int64) ([]models.ReviewDecision, error) {
	return f.recorded, nil
}

type reviewRouter struct{}

func (reviewRouter) Approve(ctx context.Context, email *models.InboundEmail, clientID int64, label models.Classification) error {
	email.Status = models.StatusRoutedAfterReview
	email.ClientID = &clientID
	email.Classification = &label
	return nil
}

func (reviewRouter) Reject(ctx context.Context, email *models.InboundEmail) error {
	email.Status = models.StatusRejected
	return nil
}

func pendingReviewEmail() *models.InboundEmail {
	reason := models.ReasonLowConfidence
	return &models.InboundEmail{
		ID:           42,
		Sender:       "jane@acmecorp.com",
		Subject:      "Server down",
		Status:       models.StatusPendingReview,
		ReviewReason: &reason,
	}
}

func newReviewQueue(email *models.InboundEmail) *review.Queue {
	return review.NewQueue(
		&reviewEmails{email: email},
		reviewClients{},
		&reviewDecisions{},
		reviewRouter{},
		zerolog.Nop(),
	)
}

func decideContext(e *echo.Echo, rec *httptest.ResponseRecorder, emailID, body string) echo.Context {
	c := e.NewContext(jsonRequest(http.MethodPost, "/", body), rec)
	c.SetPath("/api/reviews/:email_id")
	c.SetParamNames("email_id")
	c.SetParamValues(emailID)
	return c
}

func TestDecideReviewHandler(t *testing.T) {
	tests := []struct {
		name           string
		emailID        string
		email          *models.InboundEmail
		body           string
		expectedStatus int
		checkOutcome   func(t *testing.T, out models.RouteOutcome)
	}{
		{
			name:           "approves a pending email",
			emailID:        "42",
			email:          pendingReviewEmail(),
			body:           `{"decision":"approve","client_id":1,"classification":"technical","notes":"confirmed"}`,
			expectedStatus: http.StatusOK,
			checkOutcome: func(t *testing.T, out models.RouteOutcome) {
				assert.Equal(t, models.StatusRoutedAfterReview, out.Status)
				assert.Equal(t, "routed after review", out.Message)
			},
		},
		{
			name:           "rejects a pending email",
			emailID:        "42",
			email:          pendingReviewEmail(),
			body:           `{"decision":"reject","notes":"spam"}`,
			expectedStatus: http.StatusOK,
			checkOutcome: func(t *testing.T, out models.RouteOutcome) {
				assert.Equal(t, models.StatusRejected, out.Status)
			},
		},
		{
			name:           "approve without client is a validation error",
			emailID:        "42",
			email:          pendingReviewEmail(),
			body:           `{"decision":"approve","classification":"technical"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown decision is a validation error",
			emailID:        "42",
			email:          pendingReviewEmail(),
			body:           `{"decision":"defer"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing email",
			emailID:        "99",
			email:          pendingReviewEmail(),
			body:           `{"decision":"reject"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "already routed email conflicts",
			emailID: "42",
			email: func() *models.InboundEmail {
				email := pendingReviewEmail()
				email.Status = models.StatusAutoRouted
				return email
			}(),
			body:           `{"decision":"reject"}`,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := decideContext(e, rec, tt.emailID, tt.body)

			handler := DecideReviewHandler(newReviewQueue(tt.email))
			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.checkOutcome != nil {
				var out models.RouteOutcome
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
				tt.checkOutcome(t, out)
			}
		})
	}
}

func TestListReviewsHandler(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/reviews", nil), rec)

	handler := ListReviewsHandler(newReviewQueue(pendingReviewEmail()))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var pending []models.InboundEmail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, int64(42), pending[0].ID)
}
