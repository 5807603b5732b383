// Package obslog wraps github.com/rs/zerolog the way the teacher's root
// package configures its logger (mbflow.go, logger.go): one process-wide
// structured logger, component-scoped via With().Str("component", ...),
// rather than the backend/ subtree's log/slog wrapper.
package obslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin, component-scoped wrapper over zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// SetOutput redirects the base logger's output to w as plain JSON lines
// (no console formatting); the package tests use it to capture entries.
func SetOutput(w io.Writer) {
	base = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the minimum level the base logger emits.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// For returns a Logger scoped to component, mirroring the per-phase
// loggers (parse, check, emit, migrate, simulate) described in
// SPEC_FULL.md's ambient stack section.
func For(component string) *Logger {
	return &Logger{zl: base.With().Str("component", component).Logger()}
}

// Info logs msg at info level with the given key/value fields.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.event(l.zl.Info(), fields).Msg(msg)
}

// Warn logs msg at warn level, used by cmd/flowc for the checker's soft
// issues.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.event(l.zl.Warn(), fields).Msg(msg)
}

// Error logs msg at error level, used for build-time ConfigurationError
// reporting naming the offending flow/node.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.event(l.zl.Error(), fields).Msg(msg)
}

func (l *Logger) event(e *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
