// Package handler exposes the services over HTTP.
package handler

import (
	"errors"
	"net/http"

	"template-service/internal/middleware"
	"template-service/internal/policy"
	"template-service/internal/service"
	"template-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler holds the services behind the HTTP routes
type Handler struct {
	db        *gorm.DB
	auth      *service.AuthService
	tenants   *service.TenantService
	users     *service.UserService
	templates *service.TemplateService
}

// New creates a handler set
func New(db *gorm.DB, auth *service.AuthService, tenants *service.TenantService, users *service.UserService, templates *service.TemplateService) *Handler {
	return &Handler{db: db, auth: auth, tenants: tenants, users: users, templates: templates}
}

// callerOrReject returns the authenticated caller. When there is none it
// writes a 401 and reports false.
func callerOrReject(c echo.Context) (policy.Caller, bool) {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}
	return caller, ok
}

// writeError maps a service error to its status code. Causes are logged and
// never sent to the client.
func writeError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrDependency):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusUnauthorized
	}

	msg, ok := service.PublicMessage(err)
	if !ok {
		log.Error("Request failed", zap.Error(err))
		return c.JSON(status, echo.Map{"error": "request could not be processed"})
	}

	log.Info("Request rejected", zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{"error": msg})
}
