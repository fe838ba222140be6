package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds the settings for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins permitted to make cross-origin
	// requests. ["*"] allows any origin; an empty list denies all.
	AllowOrigins []string

	// AllowMethods lists the HTTP methods permitted cross-origin.
	AllowMethods []string

	// AllowHeaders lists the request headers permitted cross-origin.
	AllowHeaders []string

	// AllowCredentials permits cookies and authorization headers. With
	// credentials enabled the specific origin is echoed back instead of
	// the wildcard, as the Fetch spec requires.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds, as a string.
	MaxAge string
}

// DefaultCORSConfig returns the permissive development configuration: any
// origin, the full method set, and the headers the admin UI sends.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		MaxAge:       "86400",
	}
}

// CORS returns the middleware with DefaultCORSConfig.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a gin middleware handling cross-origin requests
// per the given configuration. Requests without an Origin header pass
// through untouched; requests from a denied origin get no CORS headers
// beyond Vary, so the browser blocks them.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	wildcard := slices.Contains(cfg.AllowOrigins, "*")
	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		// Responses differ by Origin from here on; caches must key on it.
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case wildcard && !cfg.AllowCredentials:
			c.Header("Access-Control-Allow-Origin", "*")
		case wildcard || originAllowed(cfg.AllowOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
		default:
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Max-Age", cfg.MaxAge)
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// originAllowed reports whether origin is in the allow-list.
func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
