package handler

import (
	"net/http"

	"template-service/internal/service"
	"template-service/pkg/logger"
	"template-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenantId"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type sessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	AccessToken string      `json:"access_token"`
	User        sessionUser `json:"user"`
}

func newSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{
		AccessToken: s.AccessToken,
		User: sessionUser{
			ID:       s.Claims.UserID(),
			Email:    s.Claims.Email,
			TenantID: s.Claims.TenantID,
			Role:     s.Claims.Role,
		},
	}
}

type passwordResetResponse struct {
	Message      string `json:"message"`
	Email        string `json:"email"`
	EmailSent    bool   `json:"emailSent"`
	TempPassword string `json:"tempPassword,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Signup registers a user and returns a session
func (h *Handler) Signup(c echo.Context) error {
	log := logger.FromEcho(c)

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	session, err := h.auth.Signup(c.Request().Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Tenant:   req.TenantID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newSessionResponse(session))
}

// Login exchanges email and password for a session
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(session))
}

// ForgotPassword resets the password to a temporary one
func (h *Handler) ForgotPassword(c echo.Context) error {
	log := logger.FromEcho(c)

	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		log.Warn("Invalid forgot password request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	reset, err := h.auth.ResetPassword(c.Request().Context(), req.Email)
	if err != nil {
		return writeError(c, err)
	}

	if reset.EmailSent {
		return c.JSON(http.StatusOK, passwordResetResponse{
			Message:   "Password reset successful! Check your email for the temporary password.",
			Email:     reset.Email,
			EmailSent: true,
		})
	}
	return c.JSON(http.StatusOK, passwordResetResponse{
		Message:      "Password reset successful!",
		Email:        reset.Email,
		EmailSent:    false,
		TempPassword: reset.TempPassword,
		Note:         "Email could not be sent. Please use this temporary password to login.",
	})
}

// Profile returns the identity carried by the caller's token
func (h *Handler) Profile(c echo.Context) error {
	caller, ok := callerOrReject(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, sessionUser{
		ID:       caller.UserID,
		Email:    caller.Email,
		TenantID: caller.TenantID,
		Role:     string(caller.Role),
	})
}
