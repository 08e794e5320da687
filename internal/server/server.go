// Package server assembles the echo instance: services, middleware and routes.
package server

import (
	"math"
	"net/http"
	"time"

	"template-service/internal/handler"
	"template-service/internal/middleware"
	"template-service/internal/service"
	"template-service/pkg/config"
	"template-service/pkg/jwtutil"
	"template-service/pkg/logger"
	"template-service/pkg/notify"
	"template-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps are the collaborators the server is built from
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *zap.Logger
	Notifier notify.Notifier
}

// New constructs the echo instance with all routes and middlewares applied
func New(deps Deps) *echo.Echo {
	cfg := deps.Config

	jwt := jwtutil.NewJWTUtil(jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	tenants := service.NewTenantService(deps.DB)
	h := handler.New(
		deps.DB,
		service.NewAuthService(deps.DB, tenants, jwt, deps.Notifier, cfg.Auth),
		tenants,
		service.NewUserService(deps.DB),
		service.NewTemplateService(deps.DB),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.MetricsMiddleware())
	e.Use(logger.Middleware(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(echomiddleware.BodyLimit("1M"))

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/tenants", h.ListTenants)

	requireAuth := middleware.Auth(jwt)

	auth := e.Group("/auth")
	if cfg.Server.AuthRateLimit > 0 {
		auth.Use(authRateLimiter(cfg.Server.AuthRateLimit))
	}
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/forgot-password", h.ForgotPassword)
	auth.POST("/profile", h.Profile, requireAuth)

	users := e.Group("/users", requireAuth)
	users.GET("", h.ListUsers)
	users.GET("/profile/me", h.Me)
	users.GET("/:id", h.GetUser)

	templates := e.Group("/templates", requireAuth)
	templates.POST("", h.CreateTemplate)
	templates.GET("", h.ListTemplates)
	templates.GET("/:id", h.GetTemplate)
	templates.PATCH("/:id", h.UpdateTemplate)
	templates.DELETE("/:id", h.DeleteTemplate)

	return e
}

// authRateLimiter limits credential endpoints per client IP
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(math.Ceil(perSecond))
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			prometheus.RecordAuthError("rate_limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
		},
	})
}
