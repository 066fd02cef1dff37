package middleware

import (
	"fmt"
	"net/http"

	"risk-assessor/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationIDHeader carries the request's correlation id in both directions
const CorrelationIDHeader = "X-Correlation-ID"

// LoggingMiddleware logs HTTP requests with structured logging
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		correlationID := logger.CorrelationID(param.Request.Context())
		if correlationID == "" {
			correlationID = param.Request.Header.Get(CorrelationIDHeader)
		}

		fields := map[string]interface{}{
			"correlation_id": correlationID,
			"method":         param.Method,
			"path":           param.Path,
			"status":         param.StatusCode,
			"latency_ms":     param.Latency.Milliseconds(),
			"client_ip":      param.ClientIP,
			"user_agent":     param.Request.UserAgent(),
			"response_size":  param.BodySize,
		}
		if param.ErrorMessage != "" {
			fields["error"] = param.ErrorMessage
		}

		entry := logger.Log.WithFields(fields)
		if param.StatusCode >= http.StatusInternalServerError {
			entry.Error("HTTP request failed")
		} else {
			entry.Info("HTTP request processed")
		}

		return ""
	})
}

// RequestIDMiddleware adds a correlation ID to the gin context and the request context
// and echoes it in the response
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = c.GetHeader("X-Request-ID")
		}
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set("correlation_id", correlationID)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), correlationID))
		c.Next()
	}
}

// RecoveryMiddleware turns handler panics into a logged 500 with the error envelope
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		correlationID := c.GetString("correlation_id")
		logger.LogErrorWithStackAndCorrelation(fmt.Errorf("handler panicked: %v", recovered), correlationID, map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"operation": "http_request",
		})

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":           "INTERNAL_ERROR",
				"message":        "Internal server error",
				"correlation_id": correlationID,
			},
		})
	})
}
