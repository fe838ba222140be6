package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// Upstream ids must be short and plain before we echo them into headers and
// log lines.
var upstreamIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestIDConfig controls whether an incoming X-Request-ID is trusted.
type RequestIDConfig struct {
	TrustUpstream bool
}

// RequestID returns a gin middleware that tags every request with a UUID
// request id. Upstream X-Request-ID values are ignored; see
// RequestIDWithConfig to reuse them behind a trusted proxy.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns the request-id middleware with explicit trust
// configuration. The id is stored in the gin context under "request_id", set
// as the X-Request-ID response header, and attached to the Go context via
// logger.WithContextAttrs so every context-aware log line carries it.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cfg.TrustUpstream {
			if upstream := c.GetHeader(requestIDHeader); upstreamIDPattern.MatchString(upstream) {
				id = upstream
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)

		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the request id assigned by the middleware, or "" when
// none is set.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDContextKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
