package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"estatehub/internal/logger"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

var log = logger.New("HTTP")

// Sentry recovers panics and reports them together with any 5xx errors
// handlers attached through c.Error. Sentry calls are no-ops when the SDK
// was not initialised.
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("route", c.FullPath())

		defer func() {
			if r := recover(); r != nil {
				log.Warn("panic on %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, r, debug.Stack())
				hub.Recover(r)
				hub.Flush(2 * time.Second)
				abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "ErrGeneric")
			}
		}()

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			for _, e := range c.Errors {
				hub.CaptureException(fmt.Errorf("%s %s: %w", c.Request.Method, c.FullPath(), e.Err))
			}
		}
	}
}
