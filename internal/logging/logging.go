// Package logging builds the structured JSON logger shared by the server,
// the migration runner and the tracing bootstrap.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a JSON logger writing to w (stderr when nil). Timestamps are
// rendered in loc using RFC3339Nano.
func New(w io.Writer, loc *time.Location, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		TimeFunction:    func(t time.Time) time.Time { return t.In(loc) },
		Formatter:       log.JSONFormatter,
		Level:           lvl,
	})
}

// Component returns a child logger tagged with the given component name.
func Component(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}
