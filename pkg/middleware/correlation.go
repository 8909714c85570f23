package middleware

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/errors"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

// Gin context keys
const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyRunID         = "runId"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// quietPaths are probe and scrape endpoints left out of the request log
var quietPaths = []string{"/health", "/ready", "/metrics"}

// echoID takes the id from header, minting one when absent, and echoes it
// back. The id is stored under key and attached to the request context.
func echoID(header, key string, attach func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(attach(c.Request.Context(), id))
		c.Next()
	}
}

// RequestID identifies one HTTP exchange
func RequestID() gin.HandlerFunc {
	return echoID(HeaderRequestID, ContextKeyRequestID, logging.ContextWithRequestID)
}

// CorrelationID ties a request to the events it publishes
func CorrelationID() gin.HandlerFunc {
	return echoID(HeaderCorrelationID, ContextKeyCorrelationID, logging.ContextWithCorrelationID)
}

// RunContext picks up a caller supplied run id. Nothing is minted when the
// header is absent; sessions carry their own run id.
func RunContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if runID := c.GetHeader(cloudevents.HeaderRunID); runID != "" {
			c.Set(ContextKeyRunID, runID)
			c.Request = c.Request.WithContext(logging.ContextWithRunID(c.Request.Context(), runID))
		}
		c.Next()
	}
}

// Logger writes one line per request, at Warn for 4xx and Error for 5xx
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(quietPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latencyMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP(),
			"requestId", GetRequestID(c),
			"correlationId", GetCorrelationID(c),
		)
	}
}

// Recovery turns a handler panic into a 500 in the API error format
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"requestId", GetRequestID(c),
				)
				AbortWithAppError(c, errors.ErrInternal(""))
			}
		}()
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string     { return c.GetString(ContextKeyRequestID) }
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }
