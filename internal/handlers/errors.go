package handlers

import (
	"errors"
	"net/http"

	"smartinbox/internal/database"
	"smartinbox/internal/models"
	"smartinbox/internal/review"

	"github.com/labstack/echo/v4"
)

// writeError maps service errors onto HTTP responses. Validation errors
// carry the offending field; not-found and conflict errors map to their
// conventional status codes.
func writeError(c echo.Context, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: verr.Reason,
			Field: verr.Field,
		})
	case errors.Is(err, database.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	case errors.Is(err, database.ErrClientHasRules):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "client still has routing rules; delete or reassign them first",
		})
	case errors.Is(err, review.ErrNotPending):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "email is not pending review",
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
}

// pathID extracts a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).Int64(name, &id).BindError(); err != nil || id <= 0 {
		return 0, models.Invalid(name, "must be a positive integer")
	}
	return id, nil
}
