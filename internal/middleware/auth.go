package middleware

import (
	"net/http"
	"strings"

	"template-service/internal/policy"
	"template-service/pkg/jwtutil"
	"template-service/pkg/logger"
	"template-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CallerKey is the echo.Context key holding the authenticated policy.Caller
const CallerKey = "caller"

// Auth validates the bearer token and attaches the caller to the request.
// Tokens without a tenant are let through; tenant-scoped operations reject
// them later.
func Auth(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Get the Authorization header
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if it's a Bearer token
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			caller := policy.Caller{
				UserID:   claims.UserID(),
				Email:    claims.Email,
				TenantID: claims.TenantID,
				Role:     policy.ParseRole(claims.Role),
			}

			reqLogger := log.With(
				zap.String("user_id", caller.UserID),
				zap.String("tenant_id", caller.TenantID),
				zap.String("role", string(caller.Role)))
			logger.Attach(c, reqLogger)

			if !caller.HasTenant() {
				reqLogger.Warn("Token carries no tenant")
			}

			c.Set(CallerKey, caller)
			req := c.Request()
			c.SetRequest(req.WithContext(policy.WithCaller(req.Context(), caller)))

			return next(c)
		}
	}
}

// CallerFromEcho returns the caller attached by Auth
func CallerFromEcho(c echo.Context) (policy.Caller, bool) {
	caller, ok := c.Get(CallerKey).(policy.Caller)
	if ok {
		return caller, true
	}
	return policy.CallerFromContext(c.Request().Context())
}
