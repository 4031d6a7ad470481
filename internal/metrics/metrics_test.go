package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioCounters(t *testing.T) {
	m := New()
	m.AudioUnit(ResultGenerated)
	m.AudioUnit(ResultGenerated)
	m.AudioUnit(ResultSkipped)
	m.AudioUnit(ResultFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.audioUnits.WithLabelValues(ResultGenerated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.audioUnits.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.audioUnits.WithLabelValues(ResultFailed)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AudioUnit(ResultFailed)
		m.TranslationRun(true)
		m.LoginAttempt(false)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/admin/modules/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/modules/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/admin/modules/:id", "GET", "204")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "prodriver_http_requests_total"))
	assert.True(t, strings.Contains(body, `route="/api/admin/modules/:id"`))
}
