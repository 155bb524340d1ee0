package handlers

import (
	"context"
	"net/http"
	"strings"

	"smartinbox/internal/database"
	"smartinbox/internal/ingest"
	"smartinbox/internal/models"

	"github.com/labstack/echo/v4"
)

// Router routes a stored email to its outcome.
type Router interface {
	Process(ctx context.Context, email *models.InboundEmail) error
}

// IngestEmailHandler accepts an inbound email and routes it
// @Summary Ingest an email
// @Description Store an inbound email and run it through the routing engine; the response reports the routing outcome
// @Tags emails
// @Accept json
// @Produce json
// @Param request body models.IngestRequest true "Email payload"
// @Success 202 {object} models.RouteOutcome
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/emails [post]
func IngestEmailHandler(store *database.EmailStore, router Router) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.IngestRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}
		if strings.TrimSpace(req.Sender) == "" {
			return writeError(c, models.Invalid("sender", "sender is required"))
		}

		email := ingest.FromRequest(&req)
		ctx := c.Request().Context()

		if err := store.Insert(ctx, email); err != nil {
			return writeError(c, err)
		}
		if err := router.Process(ctx, email); err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusAccepted, outcome(email))
	}
}

// ListEmailsHandler returns stored emails newest-first
// @Summary List emails
// @Tags emails
// @Produce json
// @Param status query string false "Filter by routing status"
// @Param limit query int false "Page size (max 500)" default(100)
// @Param offset query int false "Page offset"
// @Success 200 {array} models.InboundEmail
// @Failure 400 {object} models.ErrorResponse
// @Router /api/emails [get]
func ListEmailsHandler(store *database.EmailStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var limit, offset int
		if err := echo.QueryParamsBinder(c).
			Int("limit", &limit).
			Int("offset", &offset).
			BindError(); err != nil {
			return writeError(c, models.Invalid("limit", "limit and offset must be integers"))
		}
		status := models.RoutingStatus(c.QueryParam("status"))

		emails, err := store.List(c.Request().Context(), status, limit, offset)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, emails)
	}
}

// GetEmailHandler returns a single stored email
func GetEmailHandler(store *database.EmailStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		email, err := store.Get(c.Request().Context(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, email)
	}
}

// outcome summarizes an email's routing disposition for API responses.
func outcome(email *models.InboundEmail) models.RouteOutcome {
	out := models.RouteOutcome{
		EmailID:         email.ID,
		Status:          email.Status,
		ReviewReason:    email.ReviewReason,
		ClientID:        email.ClientID,
		Classification:  email.Classification,
		Confidence:      email.Confidence,
		ActionReference: email.ActionReference,
	}
	switch email.Status {
	case models.StatusAutoRouted:
		out.Message = "routed automatically"
	case models.StatusRoutedAfterReview:
		out.Message = "routed after review"
	case models.StatusPendingReview:
		out.Message = "queued for manual review"
	case models.StatusRejected:
		out.Message = "rejected"
	}
	return out
}
