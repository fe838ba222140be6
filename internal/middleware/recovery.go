package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

// Recovery returns a gin middleware that converts a handler panic into a 500
// response carrying the standard JSON envelope, after logging the panic value
// and stack trace. It replaces gin.Recovery() so panics land in structured
// logs with the request_id attached from context.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", r),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			c.Abort()
			c.JSON(http.StatusInternalServerError, pkg.Response{
				Success: false,
				Message: "internal server error",
			})
		}()
		c.Next()
	}
}
