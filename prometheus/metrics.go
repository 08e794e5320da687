package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_auth_login_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"}, // "success" or "failure"
	)

	// Signup counters
	SignupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_auth_signup_total",
			Help: "Total number of signup attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Password reset counter
	PasswordResetCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_auth_password_reset_total",
			Help: "Total number of password resets by delivery channel",
		},
		[]string{"delivery"}, // "email", "revealed", "failed"
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "invalid_credentials", ...
	)

	// Authorization outcomes per resource
	PolicyDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_policy_decisions_total",
			Help: "Total number of authorization decisions by resource and outcome",
		},
		[]string{"resource", "decision"},
	)

	// Template operation counter
	TemplateOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_template_operations_total",
			Help: "Total number of template operations",
		},
		[]string{"operation"}, // "create", "list", "get", "update", "delete"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "templates_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "templates_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Service info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "templates_info",
			Help: "Information about the template service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(SignupCounter)
	prometheus.MustRegister(PasswordResetCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(PolicyDecisionCounter)
	prometheus.MustRegister(TemplateOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations. Use as
// defer TrackDBOperation("query")(time.Now()).
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLogin records a login attempt
func RecordLogin(success bool) {
	LoginCounter.With(prometheus.Labels{"outcome": outcome(success)}).Inc()
}

// RecordSignup records a signup attempt
func RecordSignup(success bool) {
	SignupCounter.With(prometheus.Labels{"outcome": outcome(success)}).Inc()
}

// RecordPasswordReset records how a temporary password reached the user
func RecordPasswordReset(delivery string) {
	PasswordResetCounter.With(prometheus.Labels{"delivery": delivery}).Inc()
}

// RecordPolicyDecision records an authorization decision
func RecordPolicyDecision(resource, decision string) {
	PolicyDecisionCounter.With(prometheus.Labels{"resource": resource, "decision": decision}).Inc()
}

// RecordTemplateOperation records a template operation
func RecordTemplateOperation(operation string) {
	TemplateOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
