package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-simulator/pkg/tracing"
)

// TracingConfig holds tracing middleware configuration
type TracingConfig struct {
	TracerName string
	// Probe and scrape paths are not traced
	SkipPaths []string
}

func DefaultTracingConfig(serviceName string) *TracingConfig {
	return &TracingConfig{
		TracerName: serviceName,
		SkipPaths:  []string{"/health", "/ready", "/metrics"},
	}
}

// TracingMiddleware continues the caller's trace, or starts one, with a
// server span named after the matched route
func TracingMiddleware(config *TracingConfig) gin.HandlerFunc {
	tracer := otel.Tracer(config.TracerName)

	return func(c *gin.Context) {
		if slices.Contains(config.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		parent := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(parent, c.Request.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.client_ip", c.ClientIP()),
			attribute.String("request.id", GetRequestID(c)),
			attribute.String("wms.correlation_id", GetCorrelationID(c)),
		)
		if runID := c.GetString(ContextKeyRunID); runID != "" {
			span.SetAttributes(attribute.String("wms.simulation.run_id", runID))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(tracing.HTTPSpanAttributes(c.Request.Method, route, status)...)
		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
		if status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

// SpanFromGinContext returns the request's server span
func SpanFromGinContext(c *gin.Context) trace.Span {
	return trace.SpanFromContext(c.Request.Context())
}
