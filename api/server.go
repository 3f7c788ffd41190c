package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/OldStager01/churn-dashboard/api/handlers"
	"github.com/OldStager01/churn-dashboard/api/middleware"
	"github.com/OldStager01/churn-dashboard/api/websocket"
	_ "github.com/OldStager01/churn-dashboard/docs"
	"github.com/OldStager01/churn-dashboard/internal/events"
	"github.com/OldStager01/churn-dashboard/internal/metrics"
	"github.com/OldStager01/churn-dashboard/pkg/config"
)

const predictPath = "/api/v1/predict"

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	service    handlers.Dashboard
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
}

// NewServer wires the routes. When bus is nil the WebSocket stream only
// sends the initial overview.
func NewServer(cfg *config.Config, service handlers.Dashboard, bus *events.EventBus, m *metrics.Metrics) *Server {
	switch cfg.App.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	wsHub := websocket.NewHub(websocket.SettingsFromConfig(cfg.WebSocket, cfg.API.CORS.AllowedOrigins))
	if m != nil {
		wsHub.OnClientCount = m.SetWebSocketClients
	}

	s := &Server{
		router:  gin.New(),
		config:  cfg.API,
		service: service,
		wsHub:   wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if bus != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, bus.SubscribeAll())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(s.config.CORS))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxBodyBytes))

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))

	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint(predictPath, s.config.PredictRateLimit, time.Minute)
	s.router.Use(endpointLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.service)
	dashboardHandler := handlers.NewDashboardHandler(s.service)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub, func() interface{} {
		return s.service.Overview()
	}))

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", dashboardHandler.GetStatus)
		v1.GET("/overview", dashboardHandler.GetOverview)
		v1.GET("/model-info", dashboardHandler.GetModelInfo)

		v1.GET("/metrics", dashboardHandler.GetMetrics)
		v1.POST("/metrics/refresh", dashboardHandler.RefreshMetrics)
		v1.GET("/trend", dashboardHandler.GetTrend)

		v1.POST("/predict", dashboardHandler.Predict)
		v1.GET("/predictions/last", dashboardHandler.GetLastPrediction)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
