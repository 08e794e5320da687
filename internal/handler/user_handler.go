package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListUsers returns the users visible to the caller
func (h *Handler) ListUsers(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	users, err := h.users.List(c.Request().Context(), caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns one user of the caller's tenant
func (h *Handler) GetUser(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	user, err := h.users.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// Me returns the caller's own user record
func (h *Handler) Me(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	user, err := h.users.Me(c.Request().Context(), caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
