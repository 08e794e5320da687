package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/templates/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	})

	counter := HTTPRequestCounter.WithLabelValues("/templates/:id", http.MethodGet, "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/templates/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(LoginCounter.WithLabelValues("failure"))
	RecordLogin(false)
	assert.Equal(t, before+1, testutil.ToFloat64(LoginCounter.WithLabelValues("failure")))

	before = testutil.ToFloat64(PolicyDecisionCounter.WithLabelValues("templates", "deny_cross_tenant"))
	RecordPolicyDecision("templates", "deny_cross_tenant")
	assert.Equal(t, before+1, testutil.ToFloat64(PolicyDecisionCounter.WithLabelValues("templates", "deny_cross_tenant")))

	TrackDBOperation("query")(time.Now().Add(-time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(DBOperationDuration))
}
