package notify

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key under which the auth layer stores the caller identity.
const SubjectKey = "auth.subject"

// AuditMiddleware reports every write request under /api/ to the sink.
func AuditMiddleware(s Sink) gin.HandlerFunc {
	if s == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		method := strings.ToUpper(c.Request.Method)
		if !strings.HasPrefix(path, "/api/") {
			return
		}
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return
		}

		status := c.Writer.Status()
		details := map[string]any{
			"method":   method,
			"path":     path,
			"route":    c.FullPath(),
			"status":   status,
			"duration": time.Since(start).String(),
		}
		if sub, ok := c.Get(SubjectKey); ok {
			details["subject"] = sub
		}
		Emit(c.Request.Context(), s, Event{
			Action:  "http_write",
			Level:   levelFromStatus(status),
			Details: details,
		})
	}
}

func levelFromStatus(status int) string {
	if status >= 500 {
		return LevelError
	}
	if status >= 400 {
		return LevelWarn
	}
	return LevelInfo
}
