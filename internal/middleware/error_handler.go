package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// requestLogger returns a logger carrying the request id and, when a span is
// active, the trace id so log lines can be joined with traces.
func requestLogger(c *gin.Context) zerolog.Logger {
	lc := log.With().Str("request_id", c.GetString(RequestIDKey))
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		lc = lc.Str("trace_id", sc.TraceID().String())
	}
	return lc.Logger()
}

// ErrorHandler logs errors attached with c.Error after the handler ran.
// Internal details are never returned to clients; a 500 is written only if
// the handler did not already answer.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		logger := requestLogger(c)
		for _, e := range c.Errors {
			logger.Error().
				Err(e.Err).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Msg("unhandled error")
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
		}
	}
}

// Recovery turns a panic into a 500 and marks the request span as failed.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			span := trace.SpanFromContext(c.Request.Context())
			span.RecordError(fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, "panic")

			logger := requestLogger(c)
			logger.Error().
				Str("path", c.Request.URL.Path).
				Interface("panic", r).
				Msg("panic recovered")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
		}()
		c.Next()
	}
}

// Logger writes one line per request; 5xx at error level, 4xx at warn.
// On protected routes the caller's id and role are included.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger := requestLogger(c)
		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		default:
			evt = logger.Info()
		}
		if claims := GetClaims(c); claims != nil {
			evt = evt.Str("user_id", claims.UserID).Str("role", claims.Role)
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
