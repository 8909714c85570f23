// Package api exposes live warehouse sessions over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/pkg/contracts/openapi"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/middleware"
)

// BasePath prefixes every versioned route
const BasePath = "/api/v1"

// RouterConfig holds what the router needs
type RouterConfig struct {
	ServiceName string
	Sessions    *application.SessionService
	Simulation  *application.SimulationService
	Metrics     *metrics.Metrics
	Logger      *logging.Logger

	// Contract, when set, rejects requests that do not match the OpenAPI document
	Contract *openapi.Validator
	// Tracing enables the OpenTelemetry server middleware
	Tracing bool
	// AllowedOrigins enables CORS for browser clients; empty disables it
	AllowedOrigins []string
	// Ready reports whether dependencies are reachable; nil means always ready
	Ready func() error
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	mwConfig := middleware.DefaultConfig(cfg.ServiceName, cfg.Logger.Logger)
	mwConfig.AllowedOrigins = cfg.AllowedOrigins
	middleware.Setup(router, mwConfig)
	router.Use(middleware.MetricsMiddleware(cfg.Metrics))
	if cfg.Tracing {
		router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(cfg.ServiceName)))
	}
	if cfg.Contract != nil {
		router.Use(middleware.OpenAPIValidation(cfg.Contract, BasePath))
	}

	ready := cfg.Ready
	if ready == nil {
		ready = func() error { return nil }
	}
	router.GET("/health", middleware.HealthCheck(cfg.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(cfg.ServiceName, ready))
	router.GET("/metrics", middleware.MetricsEndpoint(cfg.Metrics))

	v1 := router.Group(BasePath)
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", createSessionHandler(cfg.Sessions))
		sessions.GET("", listSessionsHandler(cfg.Sessions))
		sessions.GET("/:sessionId", getSessionHandler(cfg.Sessions))
		sessions.DELETE("/:sessionId", closeSessionHandler(cfg.Sessions, cfg.Logger))
		sessions.POST("/:sessionId/events", applyEventHandler(cfg.Sessions))
		sessions.GET("/:sessionId/inventory", getInventoryHandler(cfg.Sessions))
		sessions.GET("/:sessionId/trucks", getTrucksHandler(cfg.Sessions))
	}
	v1.GET("/runs/:runId", getRunHandler(cfg.Simulation))

	return router
}
