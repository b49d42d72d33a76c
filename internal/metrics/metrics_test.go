package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/recipes/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/recipes/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes/abc", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/recipes/:id", "204")))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(sideEffectFailures.WithLabelValues("increment_recipe_count"))
	RecordSideEffectFailure("increment_recipe_count")
	assert.Equal(t, before+1, testutil.ToFloat64(sideEffectFailures.WithLabelValues("increment_recipe_count")))

	RecordCacheRead("recipe", "hit")
	RecordFetch("recipe", "success")
	RecordFetchRetry("recipe")
	RecordCacheCommand("purge")
	RecordReadFailure("profile", "not_authenticated")
	assert.Equal(t, float64(1), testutil.ToFloat64(readFailures.WithLabelValues("profile", "not_authenticated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(cacheCommands.WithLabelValues("purge")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordCacheRead("profile", "miss")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chef_next_door_cache_reads_total")
}
