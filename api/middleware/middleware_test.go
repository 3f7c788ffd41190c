package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/api/middleware"
	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := middleware.NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are limited independently")
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("a"))
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(1, time.Minute)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "retry_after")
}

func TestEndpointRateLimiter_OnlyLimitsRegisteredRoutes(t *testing.T) {
	erl := middleware.NewEndpointRateLimiter()
	erl.AddEndpoint("/api/v1/predict", 1, time.Minute)

	r := gin.New()
	r.Use(erl.Middleware())
	r.POST("/api/v1/predict", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/predict", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/predict", nil)).Code)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)).Code)
	}
}

func TestTraceID(t *testing.T) {
	var fromContext string
	r := gin.New()
	r.Use(middleware.TraceID())
	r.GET("/x", func(c *gin.Context) {
		fromContext = logger.TraceIDFromContext(c.Request.Context())
		assert.Equal(t, fromContext, middleware.GetTraceID(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.TraceIDHeader, "trace-123")
	rec := serve(r, req)
	assert.Equal(t, "trace-123", rec.Header().Get(middleware.TraceIDHeader))
	assert.Equal(t, "trace-123", fromContext)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := rec.Header().Get(middleware.TraceIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, fromContext)
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestSizeLimit(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small"))).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge,
		serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this body is too large"))).Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CORSConfig
		origin  string
		allowed string
	}{
		{
			name:    "wildcard",
			cfg:     config.CORSConfig{AllowedOrigins: []string{"*"}},
			origin:  "http://localhost:3000",
			allowed: "*",
		},
		{
			name:    "empty list allows all",
			cfg:     config.CORSConfig{},
			origin:  "http://localhost:3000",
			allowed: "*",
		},
		{
			name:    "listed origin",
			cfg:     config.CORSConfig{AllowedOrigins: []string{"https://dash.example.com"}},
			origin:  "https://dash.example.com",
			allowed: "https://dash.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.CORS(tt.cfg))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(r, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.allowed, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_RejectsUnlistedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS(config.CORSConfig{AllowedOrigins: []string{"https://dash.example.com"}}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := serve(r, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSConfig_Defaults(t *testing.T) {
	c := middleware.CORSConfig(config.CORSConfig{})
	assert.True(t, c.AllowAllOrigins)
	assert.Contains(t, c.AllowHeaders, middleware.TraceIDHeader)
	assert.Contains(t, c.ExposeHeaders, middleware.TraceIDHeader)
	require.NoError(t, c.Validate())
}
