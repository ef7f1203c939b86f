// Package diag is a verbosity-gated diagnostics façade over log/slog.
//
// The level is fixed when an Emitter is built; nothing in the package reads
// or mutates process-wide state, so an Emitter can be shared by concurrent
// resolutions.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q (want text or json)", s)
}

// Emitter writes diagnostics at or below its configured level.
type Emitter struct {
	level  Level
	logger *slog.Logger
}

// New builds an emitter writing to w.
func New(w io.Writer, level Level, format Format) *Emitter {
	threshold := level.threshold()
	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: threshold,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && a.Key == slog.LevelKey {
					if l, ok := a.Value.Any().(slog.Level); ok {
						a.Value = slog.StringValue(levelName(l))
					}
				}
				return a
			},
		})
	default:
		h = newPrefixHandler(w, threshold)
	}
	return &Emitter{level: level, logger: slog.New(h)}
}

// Nop returns an emitter that drops everything.
func Nop() *Emitter {
	return New(io.Discard, Quiet, FormatText)
}

// Level returns the configured verbosity.
func (e *Emitter) Level() Level { return e.level }

// Enabled reports whether messages at l are written.
func (e *Emitter) Enabled(l Level) bool {
	return e.level != Quiet && l != Quiet && l <= e.level
}

// Emit writes msg with optional slog key/value pairs when l is enabled.
// Sink errors are dropped.
func (e *Emitter) Emit(l Level, msg string, args ...any) {
	if !e.Enabled(l) {
		return
	}
	e.logger.Log(context.Background(), l.Slog(), msg, args...)
}

// Emitf is Emit with a formatted message and no attributes.
func (e *Emitter) Emitf(l Level, format string, args ...any) {
	if !e.Enabled(l) {
		return
	}
	e.logger.Log(context.Background(), l.Slog(), fmt.Sprintf(format, args...))
}

// With returns an emitter that adds the given attributes to every message.
func (e *Emitter) With(args ...any) *Emitter {
	return &Emitter{level: e.level, logger: e.logger.With(args...)}
}

// Logger exposes the underlying slog logger for components that take one
// (command runners, pipelines). Its level gate matches the emitter's.
func (e *Emitter) Logger() *slog.Logger { return e.logger }
