// Package apmzap bridges apmlog to go.uber.org/zap.
package apmzap

import (
	"context"
	"fmt"

	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logger struct {
	l        *zap.Logger
	minLevel apmlog.LogLevel
}

// NewLogger returns a new [apmlog.Logger] that writes into l.
// The log level can be set by using either the APM_DEBUG_MODE or APM_LOG_LEVEL environment variables,
// and the messages are filtered by the level of l as well.
func NewLogger(l *zap.Logger) apmlog.Logger {
	return NewLoggerWithMinLevel(l, apmlog.LevelFromEnv())
}

// NewLoggerWithMinLevel returns a new [apmlog.Logger] that writes into l.
func NewLoggerWithMinLevel(l *zap.Logger, minLevel apmlog.LogLevel) apmlog.Logger {
	if minLevel == apmlog.LogLevelSilent {
		return apmlog.NullLogger{}
	}
	return &logger{
		l:        l.WithOptions(zap.AddCallerSkip(2)),
		minLevel: minLevel,
	}
}

func (l *logger) Log(ctx context.Context, level apmlog.LogLevel, msg fmt.Stringer) {
	if level < l.minLevel {
		return
	}
	lv := levelToZap(level)
	if !l.l.Core().Enabled(lv) {
		return
	}
	ce := l.l.Check(lv, msg.String())
	if ce == nil {
		return
	}
	if span := apm.ContextSpan(ctx); span != nil {
		ce.Write(
			zap.Uint64("trace_id", span.TraceID()),
			zap.Uint64("span_id", span.SpanID()),
		)
		return
	}
	ce.Write()
}

func levelToZap(l apmlog.LogLevel) zapcore.Level {
	switch l {
	case apmlog.LogLevelDebug:
		return zapcore.DebugLevel
	case apmlog.LogLevelInfo:
		return zapcore.InfoLevel
	case apmlog.LogLevelWarn:
		return zapcore.WarnLevel
	case apmlog.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
