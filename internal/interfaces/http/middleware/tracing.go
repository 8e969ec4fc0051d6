package middleware

import (
	"net/http"

	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request and extracts the incoming
// trace context
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// SpanAttributes tags the server span with the request, store and actor IDs
// and flags 4xx/5xx results. It must run after JWTAuth.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := logger.GetRequestID(c.Request.Context()); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if claims := GetJWTClaims(c); claims != nil {
			span.SetAttributes(
				attribute.String("store_id", claims.StoreID),
				attribute.String("actor_id", claims.Subject),
				attribute.String("actor_role", string(claims.Role)),
			)
		}

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
