// Package apmslog provides utilities for interfacing with the slog package.
package apmslog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
)

var _ slog.Handler = (*handler)(nil)

type handler struct {
	parent     slog.Handler
	traceIDKey string
	spanIDKey  string
	groups     []string
}

// Enabled implements slog.Handler interface.
func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.parent.Enabled(ctx, level)
}

// Handle implements slog.Handler interface.
func (h *handler) Handle(ctx context.Context, record slog.Record) error {
	span := apm.ContextSpan(ctx)
	if span == nil && len(h.groups) == 0 {
		// no active span and no groups. nothing to do.
		return h.parent.Handle(ctx, record)
	}

	var newRecord slog.Record
	if len(h.groups) == 0 {
		newRecord = record.Clone()
	} else {
		newRecord = slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
		attrs := make([]any, 0, record.NumAttrs())
		record.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, a)
			return true
		})
		newRecord.AddAttrs(nest(h.groups, attrs)...)
	}

	if span != nil {
		// add the identifiers to the log record, so logs and traces can be correlated.
		newRecord.AddAttrs(
			slog.String(h.traceIDKey, strconv.FormatUint(span.TraceID(), 10)),
			slog.String(h.spanIDKey, strconv.FormatUint(span.SpanID(), 10)),
		)
	}
	return h.parent.Handle(ctx, newRecord)
}

func nest(groups []string, attrs []any) []slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []any{slog.Group(groups[i], attrs...)}
	}
	ret := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		ret = append(ret, attr.(slog.Attr))
	}
	return ret
}

// WithAttrs implements slog.Handler interface.
func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(h.groups) > 0 {
		args := make([]any, 0, len(attrs))
		for _, attr := range attrs {
			args = append(args, attr)
		}
		attrs = nest(h.groups, args)
	}
	h2 := *h // shallow copy, but it is OK.
	h2.parent = h.parent.WithAttrs(attrs)
	return &h2
}

// WithGroup implements slog.Handler interface.
func (h *handler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.groups = append(h2.groups[:len(h2.groups):len(h2.groups)], name)
	return &h2
}

// NewHandler returns a [slog.Handler] that adds the trace ID and the span ID
// of the active span to the log record.
func NewHandler(parent slog.Handler, traceIDKey, spanIDKey string) slog.Handler {
	return &handler{
		parent:     parent,
		traceIDKey: traceIDKey,
		spanIDKey:  spanIDKey,
	}
}

type apmLogger struct {
	h        slog.Handler
	minLevel apmlog.LogLevel
}

// NewLogger returns a new [apmlog.Logger] that dispatches the messages to h.
// The log level can be set by using either the APM_DEBUG_MODE or APM_LOG_LEVEL environment variables.
func NewLogger(h slog.Handler) apmlog.Logger {
	return NewLoggerWithMinLevel(h, apmlog.LevelFromEnv())
}

// NewLoggerWithMinLevel returns a new [apmlog.Logger] that dispatches the messages to h.
func NewLoggerWithMinLevel(h slog.Handler, minLogLevel apmlog.LogLevel) apmlog.Logger {
	if minLogLevel == apmlog.LogLevelSilent {
		return apmlog.NullLogger{}
	}
	return &apmLogger{h, minLogLevel}
}

func (l *apmLogger) Log(ctx context.Context, level apmlog.LogLevel, msg fmt.Stringer) {
	if level < l.minLevel {
		return
	}

	lv := levelToSlog(level)
	if !l.h.Enabled(ctx, lv) {
		return
	}

	// skip [runtime.Callers, l.Log, apmlog.Info]
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), lv, msg.String(), pcs[0])
	l.h.Handle(ctx, record)
}

func levelToSlog(l apmlog.LogLevel) slog.Level {
	switch l {
	case apmlog.LogLevelDebug:
		return slog.LevelDebug
	case apmlog.LogLevelInfo:
		return slog.LevelInfo
	case apmlog.LogLevelWarn:
		return slog.LevelWarn
	case apmlog.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
