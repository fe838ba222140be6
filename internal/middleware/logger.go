package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

// Logger returns a gin middleware that writes one structured log line per
// request: method, path, status, latency, response size, and client IP, plus
// the authenticated actor and role when the auth middleware has run. The
// level follows the response class (2xx/3xx info, 4xx warn, 5xx error), and
// the context-aware log call picks up the request_id attached upstream.
func Logger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("size", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}
		if actor := c.GetString(pkg.ContextUserIDKey); actor != "" {
			attrs = append(attrs,
				slog.String("actor", actor),
				slog.String("role", c.GetString(pkg.ContextRoleKey)),
			)
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}
