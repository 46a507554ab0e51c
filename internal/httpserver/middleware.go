package httpserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectboard/pkg/auth"
	"projectboard/pkg/config"
	"projectboard/pkg/metrics"
	"projectboard/pkg/trace"
)

// identityKey is the gin context key for the resolved user id.
const identityKey = "user_id"

// RequestLogger propagates the request id and logs every request in the
// structured style used across the service.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetHeader(trace.HeaderName())
		if requestID == "" {
			requestID = trace.GenerateRequestID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), requestID))
		c.Header(trace.HeaderName(), requestID)

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestID),
			zap.Int("user_id", UserID(c)),
		)
	}
}

// Metrics records per-request latency histograms.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// Identity resolves the acting user. A valid bearer token wins; anything
// else falls back to the configured demo user. There is no authorization
// model on top of this.
func Identity(cfg config.AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := cfg.DemoUserID

		if token := auth.ExtractToken(c.Request); token != "" {
			id, err := auth.ParseJWT(token, cfg.Secret)
			if err != nil {
				logger.Debug("Invalid bearer token, using demo user", zap.Error(err))
			} else {
				userID = id
			}
		}

		c.Set(identityKey, userID)
		c.Next()
	}
}

// UserID returns the resolved user id for the request.
func UserID(c *gin.Context) int {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}
