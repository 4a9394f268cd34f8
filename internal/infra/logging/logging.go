// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Log is safe to use before Init; it writes JSON to stderr.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init switches to a console writer outside production and applies level.
func Init(env, level string) {
	var w io.Writer = os.Stderr
	if !strings.EqualFold(env, "production") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	Log = zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "membership-app").Logger()
}

// Middleware logs one line per request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := Log.Info()
		if status := c.Writer.Status(); status >= 500 {
			ev = Log.Error()
		} else if status >= 400 {
			ev = Log.Warn()
		}

		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
