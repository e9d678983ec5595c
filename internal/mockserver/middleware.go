package mockserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saravenpi/wavechat/internal/logging"
)

const headerRequestID = "X-Request-ID"

// requestLogger tags each request with an id (the client's when it sent
// one) and logs its outcome.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header(headerRequestID, reqID)

		c.Next()

		logger.Info().
			Str(logging.FieldRequestID, reqID).
			Str(logging.FieldMethod, c.Request.Method).
			Str(logging.FieldPath, c.Request.URL.Path).
			Int(logging.FieldStatus, c.Writer.Status()).
			Int64(logging.FieldLatency, time.Since(start).Milliseconds()).
			Msg("request completed")
	}
}
