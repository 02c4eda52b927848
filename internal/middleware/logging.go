package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a request-scoped logrus entry and logs each
// request once it completes.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set(constants.ContextKeyRequestID, requestID)

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(constants.ContextKeyLogger, entry)

		c.Next()

		// Handlers may have replaced the entry with a richer one.
		if v, ok := c.Get(constants.ContextKeyLogger); ok {
			if e, ok := v.(*logrus.Entry); ok {
				entry = e
			}
		}
		fields := logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.WithFields(fields).Error("Request completed")
		case status >= 400:
			entry.WithFields(fields).Warn("Request completed")
		default:
			entry.WithFields(fields).Info("Request completed")
		}
	}
}

// Logger returns the request-scoped logger, falling back to the standard logger.
func Logger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(constants.ContextKeyLogger); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}
