package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
)

// HeaderEventOutcome reports how the simulator classified a refused event
const HeaderEventOutcome = "X-Event-Outcome"

// Config holds middleware configuration
type Config struct {
	Logger      *slog.Logger
	ServiceName string
	// AllowedOrigins enables CORS for browser clients; empty leaves it off
	AllowedOrigins []string
	TrustedProxies []string
}

// DefaultConfig returns a middleware configuration without CORS
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:      logger,
		ServiceName: serviceName,
	}
}

// Setup installs the middleware chain shared by every route. Order matters:
// recovery wraps everything, ids exist before the request logger runs, and
// the error handler sits innermost so it sees handler errors first.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	router.Use(Recovery(config.Logger))
	if len(config.AllowedOrigins) > 0 {
		router.Use(CORS(config.AllowedOrigins))
	}
	router.Use(
		RequestID(),
		CorrelationID(),
		RunContext(),
		Logger(config.Logger),
		SecurityHeaders(),
		ContentType(),
		ErrorHandler(config.Logger),
	)

	router.HandleMethodNotAllowed = true
	router.NoRoute(NoRoute())
	router.NoMethod(NoMethod())
}

// CORS answers preflight requests for origins and exposes the simulator's
// correlation headers
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", HeaderRequestID, HeaderCorrelationID, cloudevents.HeaderRunID},
		ExposeHeaders:    []string{"Content-Length", HeaderRequestID, HeaderCorrelationID, HeaderEventOutcome},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// SecurityHeaders marks every response as non-cacheable JSON
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

type probeResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}

// HealthCheck answers the liveness probe
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, probeResponse{Status: "healthy", Service: serviceName})
	}
}

// ReadinessCheck answers 503 while check fails
func ReadinessCheck(serviceName string, check func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(); err != nil {
			c.JSON(http.StatusServiceUnavailable, probeResponse{Status: "not ready", Service: serviceName, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, probeResponse{Status: "ready", Service: serviceName})
	}
}

func routeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorBody(c, code, message, nil))
}

// NoRoute answers unknown paths in the API error format
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		routeError(c, http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested resource was not found")
	}
}

// NoMethod answers known paths called with the wrong method
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		routeError(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource")
	}
}

// WrapHandler adapts an error-returning handler; the error reaches ErrorHandler
func WrapHandler(handler func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(c); err != nil {
			_ = c.Error(err)
		}
	}
}
