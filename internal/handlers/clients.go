package handlers

import (
	"net/http"

	"smartinbox/internal/database"
	"smartinbox/internal/models"
	"smartinbox/internal/registry"

	"github.com/labstack/echo/v4"
)

// ListClientsHandler returns all registered clients
// @Summary List clients
// @Description List all registered clients ordered by name
// @Tags clients
// @Produce json
// @Success 200 {array} models.Client
// @Failure 500 {object} models.ErrorResponse
// @Router /api/clients [get]
func ListClientsHandler(store *database.ClientStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		clients, err := store.List(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, clients)
	}
}

// GetClientHandler returns a single client
// @Summary Get a client
// @Tags clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} models.Client
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [get]
func GetClientHandler(store *database.ClientStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		client, err := store.Get(c.Request().Context(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, client)
	}
}

// CreateClientHandler registers a new client
// @Summary Create a client
// @Description Register a client with at least one identity signal (domain, signature pattern, or authorized email)
// @Tags clients
// @Accept json
// @Produce json
// @Param request body models.ClientRequest true "Client payload"
// @Success 201 {object} models.Client
// @Failure 400 {object} models.ErrorResponse
// @Router /api/clients [post]
func CreateClientHandler(store *database.ClientStore, resolver *registry.Resolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ClientRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}
		if err := req.Validate(); err != nil {
			return writeError(c, err)
		}

		client, err := store.Create(c.Request().Context(), &req)
		if err != nil {
			return writeError(c, err)
		}
		resolver.Invalidate()
		return c.JSON(http.StatusCreated, client)
	}
}

// UpdateClientHandler replaces a client's registration
// @Summary Update a client
// @Tags clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body models.ClientRequest true "Client payload"
// @Success 200 {object} models.Client
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [put]
func UpdateClientHandler(store *database.ClientStore, resolver *registry.Resolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		var req models.ClientRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}
		if err := req.Validate(); err != nil {
			return writeError(c, err)
		}

		client, err := store.Update(c.Request().Context(), id, &req)
		if err != nil {
			return writeError(c, err)
		}
		resolver.Invalidate()
		return c.JSON(http.StatusOK, client)
	}
}

// DeleteClientHandler removes a client without routing rules
// @Summary Delete a client
// @Description Delete a client; rejected with 409 while routing rules still reference it
// @Tags clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/clients/{id} [delete]
func DeleteClientHandler(store *database.ClientStore, resolver *registry.Resolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return writeError(c, err)
		}
		if err := store.Delete(c.Request().Context(), id); err != nil {
			return writeError(c, err)
		}
		resolver.Invalidate()
		return c.NoContent(http.StatusNoContent)
	}
}
