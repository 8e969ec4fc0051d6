package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRegistrar struct{}

func (pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("seen"))
	})
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	mark := func(c *gin.Context) { c.Set("seen", "api-mw") }

	NewRouter(engine, WithAPIVersion("v2"), WithAPIMiddleware(mark)).
		Register(pingRegistrar{}).
		Setup()

	w := get(engine, "/api/v2/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "api-mw", w.Body.String())
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/ping").Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type recordedHTTP struct{ routes []string }

func (r *recordedHTTP) ObserveHTTP(_, route, _ string, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func TestNewEngine_OperationalEndpoints(t *testing.T) {
	rec := &recordedHTTP{}
	engine := NewEngine(EngineConfig{
		Metrics: rec,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("rma_transitions_total 0\n"))
		}),
		Readiness: map[string]Pinger{
			"database": pingFunc(func(context.Context) error { return nil }),
		},
	})

	health := get(engine, "/health")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.NotEmpty(t, health.Header().Get("X-Request-ID"))

	ready := get(engine, "/ready")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"database":"ok"`)

	metrics := get(engine, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "rma_transitions_total")

	assert.Equal(t, []string{"/health", "/ready", "/metrics"}, rec.routes)
}

func TestNewEngine_NotReady(t *testing.T) {
	engine := NewEngine(EngineConfig{
		Readiness: map[string]Pinger{
			"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
		},
	})

	w := get(engine, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
}

func TestNewEngine_RecoversPanics(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	engine.GET("/boom", func(*gin.Context) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, get(engine, "/boom").Code)
}

func TestNewEngine_NoMetricsEndpointByDefault(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	assert.Equal(t, http.StatusNotFound, get(engine, "/metrics").Code)
}
