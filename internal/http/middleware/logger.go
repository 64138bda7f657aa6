package middleware

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"carebook/internal/logging"
)

// Logger logs one structured entry per HTTP request with:
// request_id (set by RequestID), method, path, status, latency in milliseconds
// and the trace id when the request is traced.
// 5xx responses are logged at error level, 4xx at warn.
func Logger(l *log.Logger) fiber.Handler {
	l = logging.Component(l, "http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet.
			status = StatusOf(err)
		}

		kv := []any{
			"request_id", RequestIDFrom(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", float64(time.Since(start).Microseconds()) / 1000,
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			kv = append(kv, "trace_id", sc.TraceID().String())
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			if err != nil {
				kv = append(kv, "error", err.Error())
			}
			l.Error("http_request", kv...)
		case status >= fiber.StatusBadRequest:
			l.Warn("http_request", kv...)
		default:
			l.Info("http_request", kv...)
		}

		return err
	}
}

// LoggerWithWriter is Logger writing JSON lines to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc, "info"))
}
