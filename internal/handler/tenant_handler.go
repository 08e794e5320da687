package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListTenants returns every tenant so clients can offer them at signup
func (h *Handler) ListTenants(c echo.Context) error {
	tenants, err := h.tenants.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tenants)
}
