package handlers

import (
	"net/http"

	"smartinbox/internal/database"
	"smartinbox/internal/models"

	"github.com/labstack/echo/v4"
)

// ListRulesHandler returns routing rules, optionally scoped to a client
// @Summary List routing rules
// @Tags rules
// @Produce json
// @Param client_id query int false "Filter by client"
// @Success 200 {array} models.RoutingRule
// @Failure 500 {object} models.ErrorResponse
// @Router /api/rules [get]
func ListRulesHandler(store *database.RuleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var clientID int64
		if err := echo.QueryParamsBinder(c).Int64("client_id", &clientID).BindError(); err != nil {
			return writeError(c, models.Invalid("client_id", "must be an integer"))
		}
		rules, err := store.List(c.Request().Context(), clientID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, rules)
	}
}

// GetRuleHandler returns a single routing rule
func GetRuleHandler(store *database.RuleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		rule, err := store.Get(c.Request().Context(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, rule)
	}
}

// CreateRuleHandler adds a routing rule for a client
// @Summary Create a routing rule
// @Description Create a rule; the destination format must match the action kind
// @Tags rules
// @Accept json
// @Produce json
// @Param request body models.RuleRequest true "Rule payload"
// @Success 201 {object} models.RoutingRule
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rules [post]
func CreateRuleHandler(store *database.RuleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.RuleRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}
		if err := req.Validate(); err != nil {
			return writeError(c, err)
		}

		rule, err := store.Create(c.Request().Context(), &req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, rule)
	}
}

// UpdateRuleHandler replaces a routing rule
func UpdateRuleHandler(store *database.RuleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		var req models.RuleRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}
		if err := req.Validate(); err != nil {
			return writeError(c, err)
		}

		rule, err := store.Update(c.Request().Context(), id, &req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, rule)
	}
}

// ToggleRuleHandler flips a rule's active flag
// @Summary Toggle a routing rule
// @Tags rules
// @Produce json
// @Param id path int true "Rule ID"
// @Success 200 {object} models.RoutingRule
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rules/{id}/toggle [post]
func ToggleRuleHandler(store *database.RuleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		rule, err := store.Toggle(c.Request().Context(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, rule)
	}
}

// DeleteRuleHandler removes a routing rule
func DeleteRuleHandler(store *database.RuleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		if err := store.Delete(c.Request().Context(), id); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
