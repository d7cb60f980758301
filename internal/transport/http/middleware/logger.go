package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gopher-accounts/internal/logging"
)

const (
	ContextLoggerKey = "request_logger"
	HeaderRequestID  = "X-Request-ID"
)

// RequestLogger tags each request with an id (reusing an inbound
// X-Request-ID), stores a logger carrying that id for handlers, and writes
// one access log line when it completes.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		reqLog := log.With("request_id", requestID)
		c.Set(ContextLoggerKey, reqLog)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLog.Error(ctx, "request completed", args...)
		case status >= 400:
			reqLog.Warn(ctx, "request completed", args...)
		default:
			reqLog.Info(ctx, "request completed", args...)
		}
	}
}

// RequestLog returns the logger RequestLogger stored on c, or fallback when
// the middleware did not run. A nil fallback yields a discarding logger.
func RequestLog(c *gin.Context, fallback logging.Logger) logging.Logger {
	if raw, ok := c.Get(ContextLoggerKey); ok {
		if l, ok := raw.(logging.Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return logging.Discard()
	}
	return fallback
}
