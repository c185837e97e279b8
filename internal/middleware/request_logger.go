package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
)

type RequestLogger struct {
	log *logger.Logger
}

func NewRequestLogger(log *logger.Logger) *RequestLogger {
	return &RequestLogger{log: log.With("Middleware", "RequestLogger")}
}

// Handler logs one line per request with method, path, status and latency.
func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rl.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
