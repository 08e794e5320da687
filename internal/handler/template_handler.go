package handler

import (
	"net/http"

	"template-service/internal/service"
	"template-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTemplateRequest defines the body of a template creation
type CreateTemplateRequest struct {
	Title string `json:"title"`
	Items string `json:"items"`
}

// UpdateTemplateRequest defines the body of a partial template update
type UpdateTemplateRequest struct {
	Title *string `json:"title"`
	Items *string `json:"items"`
}

// CreateTemplate stores a new template owned by the caller
func (h *Handler) CreateTemplate(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	var req CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		logger.FromEcho(c).Warn("Failed to parse template request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	tpl, err := h.templates.Create(c.Request().Context(), caller, service.CreateTemplateInput{
		Title: req.Title,
		Items: req.Items,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, tpl)
}

// ListTemplates returns the templates visible to the caller
func (h *Handler) ListTemplates(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	templates, err := h.templates.List(c.Request().Context(), caller)
	if err != nil {
		return writeError(c, err)
	}
	logger.FromEcho(c).Debug("Templates retrieved", zap.Int("count", len(templates)))
	return c.JSON(http.StatusOK, templates)
}

// GetTemplate returns one visible template
func (h *Handler) GetTemplate(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	tpl, err := h.templates.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}

// UpdateTemplate applies a partial update
func (h *Handler) UpdateTemplate(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	var req UpdateTemplateRequest
	if err := c.Bind(&req); err != nil {
		logger.FromEcho(c).Warn("Failed to parse template update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	tpl, err := h.templates.Update(c.Request().Context(), caller, c.Param("id"), service.UpdateTemplateInput{
		Title: req.Title,
		Items: req.Items,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}

// DeleteTemplate soft-deletes a template and returns it
func (h *Handler) DeleteTemplate(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}

	tpl, err := h.templates.Delete(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}
