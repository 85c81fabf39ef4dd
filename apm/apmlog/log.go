// Package apmlog is the logging facade used by the tracer and the integrations.
//
// Instrumentation failures (a writer that cannot reach the agent, a span
// that cannot be encoded) are reported here instead of being returned to the caller.
package apmlog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shogo82148/apm-yasdk-go/internal/envconfig"
)

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string { return "apm context value " + k.name }

var loggerContextKey = &contextKey{"logger"}

var (
	mu           sync.RWMutex
	globalLogger Logger
)

func init() {
	globalLogger = NewDefaultLogger(os.Stderr, LevelFromEnv())
}

// Logger is the logging interface used by apm.
type Logger interface {
	// Log outputs msg. msg is formatted lazily,
	// so implementations should check the level before calling msg.String.
	Log(ctx context.Context, level LogLevel, msg fmt.Stringer)
}

// LogLevel represents the severity of a log message, where a higher value
// means more severe. The integer value should not be serialized as it is
// subject to change.
type LogLevel int

const (
	// LogLevelDebug is debug level.
	LogLevelDebug LogLevel = iota + 1

	// LogLevelInfo is info level.
	LogLevelInfo

	// LogLevelWarn is warn level.
	LogLevelWarn

	// LogLevelError is error level.
	LogLevelError

	// LogLevelSilent disables logging.
	LogLevelSilent
)

func (ll LogLevel) String() string {
	switch ll {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelSilent:
		return "SILENT"
	default:
		return fmt.Sprintf("UNKNOWNLOGLEVEL<%d>", ll)
	}
}

// LevelFromEnv returns the log level configured by APM_DEBUG_MODE or APM_LOG_LEVEL.
// APM_DEBUG_MODE wins over APM_LOG_LEVEL.
func LevelFromEnv() LogLevel {
	if envconfig.DebugMode() {
		return LogLevelDebug
	}
	switch envconfig.LogLevel() {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "silent":
		return LogLevelSilent
	}
	return LogLevelInfo
}

// SetLogger updates the global logger.
func SetLogger(logger Logger) {
	if logger == nil {
		panic("logger should not be nil")
	}
	mu.Lock()
	defer mu.Unlock()
	globalLogger = logger
}

// WithLogger set the context logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// ContextLogger returns the context logger.
// If the context has no logger, returns the global logger.
func ContextLogger(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return logger
	}
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// NullLogger discards all messages.
type NullLogger struct{}

// Log implements Logger.
func (NullLogger) Log(ctx context.Context, level LogLevel, msg fmt.Stringer) {}

type defaultLogger struct {
	mu       sync.Mutex
	w        io.Writer
	minLevel LogLevel
	pool     sync.Pool
}

// NewDefaultLogger returns new logger that outputs into w.
func NewDefaultLogger(w io.Writer, minLevel LogLevel) Logger {
	if minLevel == LogLevelSilent {
		return NullLogger{}
	}
	return &defaultLogger{
		w:        w,
		minLevel: minLevel,
		pool: sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
}

func (l *defaultLogger) Log(ctx context.Context, level LogLevel, msg fmt.Stringer) {
	if level < l.minLevel {
		return
	}

	buf := l.pool.Get().(*bytes.Buffer)
	defer l.pool.Put(buf)
	buf.Reset()
	buf.WriteString(time.Now().Format(time.RFC3339))
	buf.WriteString(" [")
	buf.WriteString(level.String())
	buf.WriteString("] ")
	buf.WriteString(msg.String())
	buf.WriteString("\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(buf.Bytes())
}

type sprint []any

func (s sprint) String() string { return fmt.Sprint([]any(s)...) }

type sprintf struct {
	format string
	args   []any
}

func (s sprintf) String() string { return fmt.Sprintf(s.format, s.args...) }

// Info outputs info level log message.
func Info(ctx context.Context, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelInfo, sprint(v))
}

// Infof outputs info level log message.
func Infof(ctx context.Context, format string, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelInfo, sprintf{format, v})
}

// Debug outputs debug level log message.
func Debug(ctx context.Context, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelDebug, sprint(v))
}

// Debugf outputs debug level log message.
func Debugf(ctx context.Context, format string, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelDebug, sprintf{format, v})
}

// Warn outputs warn level log message.
func Warn(ctx context.Context, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelWarn, sprint(v))
}

// Warnf outputs warn level log message.
func Warnf(ctx context.Context, format string, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelWarn, sprintf{format, v})
}

// Error outputs error level log message.
func Error(ctx context.Context, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelError, sprint(v))
}

// Errorf outputs error level log message.
func Errorf(ctx context.Context, format string, v ...any) {
	ContextLogger(ctx).Log(ctx, LogLevelError, sprintf{format, v})
}
