package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/internal/service"
)

func TestWithResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}

	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/kpis", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/kpis", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestSetCacheHitWithoutMetaMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetCacheHit(c, false)
	assert.Equal(t, false, ExtractMeta(c)["cache_hit"])
	assert.Nil(t, ExtractMeta(nil))
}

func TestMetricsObservesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()

	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"STU1", "STU2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestMetricsNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetCacheHitWritesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/hit", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "total", 3)
		SetMeta(c, "", "ignored")
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	r.GET("/miss", func(c *gin.Context) {
		SetCacheHit(c, false)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hit", nil))
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Contains(t, w.Body.String(), `"total":3`)
	assert.NotContains(t, w.Body.String(), "ignored")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/miss", nil))
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
}

type routeRecorder struct {
	routes []string
}

func (r *routeRecorder) ObserveHTTPRequest(_, route string, _ int, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func TestMetricsLabelsUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &routeRecorder{}

	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/faculty/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/faculty/FAC1", "/nope/123"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, []string{"/faculty/:id", "unmatched"}, observer.routes)
}
