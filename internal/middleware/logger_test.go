package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

func loggerRouter(log *slog.Logger, requestID gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID, Logger(log))

	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/missing", func(c *gin.Context) {
		c.String(http.StatusNotFound, "missing")
	})
	r.GET("/boom", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})
	r.GET("/as-pharmacist", func(c *gin.Context) {
		c.Set(pkg.ContextUserIDKey, "user-42")
		c.Set(pkg.ContextRoleKey, "pharmacist")
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestLoggerLevelFollowsStatusClass(t *testing.T) {
	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/ok", "level=INFO"},
		{"/missing", "level=WARN"},
		{"/boom", "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var logBuf bytes.Buffer
			r := loggerRouter(newTestLogger(&logBuf), RequestID())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := logBuf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("log output missing %q:\n%s", tt.wantLevel, out)
			}
			if !strings.Contains(out, "msg=request") {
				t.Errorf("log output missing request message:\n%s", out)
			}
		})
	}
}

func TestLoggerRecordsRequestAttrs(t *testing.T) {
	var logBuf bytes.Buffer
	r := loggerRouter(newTestLogger(&logBuf), RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	out := logBuf.String()
	for _, field := range []string{"method=GET", "path=/ok", "status=200", "latency=", "size=", "client_ip="} {
		if !strings.Contains(out, field) {
			t.Errorf("log output missing %q:\n%s", field, out)
		}
	}
	if strings.Contains(out, "actor=") {
		t.Errorf("unauthenticated request logged an actor:\n%s", out)
	}
}

func TestLoggerRecordsActorWhenAuthenticated(t *testing.T) {
	var logBuf bytes.Buffer
	r := loggerRouter(newTestLogger(&logBuf), RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/as-pharmacist", nil))

	out := logBuf.String()
	if !strings.Contains(out, "actor=user-42") {
		t.Errorf("log output missing actor:\n%s", out)
	}
	if !strings.Contains(out, "role=pharmacist") {
		t.Errorf("log output missing role:\n%s", out)
	}
}

func TestLoggerCarriesRequestIDFromContext(t *testing.T) {
	var logBuf bytes.Buffer
	log, err := logger.New(
		logger.WithConsoleWriter(&logBuf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	defer log.Close()

	r := loggerRouter(log.Logger, RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "test-req-id-789")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.Contains(logBuf.String(), "test-req-id-789") {
		t.Errorf("log output missing request id:\n%s", logBuf.String())
	}
}
