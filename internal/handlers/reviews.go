package handlers

import (
	"net/http"

	"smartinbox/internal/models"
	"smartinbox/internal/review"

	"github.com/labstack/echo/v4"
)

// ListReviewsHandler returns the manual review queue, oldest first
// @Summary List pending reviews
// @Description List emails awaiting an operator decision, in arrival order
// @Tags reviews
// @Produce json
// @Success 200 {array} models.InboundEmail
// @Failure 500 {object} models.ErrorResponse
// @Router /api/reviews [get]
func ListReviewsHandler(queue *review.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		pending, err := queue.Pending(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, pending)
	}
}

// DecideReviewHandler applies an operator decision to a pending email
// @Summary Decide a pending review
// @Description Approve (with client and classification) or reject a pending email; the decision is recorded and routing resumes
// @Tags reviews
// @Accept json
// @Produce json
// @Param email_id path int true "Email ID"
// @Param request body models.ReviewRequest true "Decision payload"
// @Success 200 {object} models.RouteOutcome
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/reviews/{email_id} [post]
func DecideReviewHandler(queue *review.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		emailID, err := pathID(c, "email_id")
		if err != nil {
			return writeError(c, err)
		}
		var req models.ReviewRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}

		email, err := queue.Decide(c.Request().Context(), emailID, &req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, outcome(email))
	}
}

// ReviewHistoryHandler returns the decision trail for an email
func ReviewHistoryHandler(queue *review.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		emailID, err := pathID(c, "email_id")
		if err != nil {
			return writeError(c, err)
		}
		history, err := queue.History(c.Request().Context(), emailID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, history)
	}
}
