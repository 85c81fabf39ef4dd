package apm

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
	"github.com/shogo82148/apm-yasdk-go/apm/ext"
	"github.com/shogo82148/apm-yasdk-go/apm/schema"
)

// Tracer creates spans and hands the finished ones to its Writer.
//
// A Tracer is safe for concurrent use. Its enabled flag may be toggled at any time;
// the integrations read it once per operation, so in-flight spans are not affected.
type Tracer struct {
	enabled   atomic.Bool
	writer    Writer
	runtimeID string
	closeOnce sync.Once
}

var defaultTracer = sync.OnceValue(func() *Tracer {
	return New(nil)
})

// DefaultTracer returns the process-wide tracer configured from the environment.
// It is used by the integrations when no tracer is given explicitly.
func DefaultTracer() *Tracer {
	return defaultTracer()
}

// New returns a new Tracer.
// If config is nil, the configuration is read from the environment.
func New(config *Config) *Tracer {
	t := &Tracer{
		writer:    config.writer(),
		runtimeID: uuid.NewString(),
	}
	t.enabled.Store(config.enabled())
	return t
}

// Enabled reports whether the tracer produces spans.
func (t *Tracer) Enabled() bool {
	return t.enabled.Load()
}

// SetEnabled enables or disables the tracer.
func (t *Tracer) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// RuntimeID returns the unique id of the tracer, recorded on local root spans.
func (t *Tracer) RuntimeID() string {
	return t.runtimeID
}

// StartSpan creates a new span named name.
//
// The parent is the active span of ctx. If ctx has no active span,
// the span continues the remote trace stored by [ContextWithSpanContext], if any.
// The returned context holds the new span as its active span.
// Caller should finish the span when the work is done.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		ctx:       ctx,
		tracer:    t,
		name:      name,
		spanID:    NewID(),
		startTime: nowFunc(),
	}
	if parent := ContextSpan(ctx); parent != nil {
		span.traceID = parent.traceID
		span.parentID = parent.spanID
	} else {
		if sc, ok := RemoteSpanContext(ctx); ok {
			span.traceID = sc.TraceID
			span.parentID = sc.SpanID
		} else {
			span.traceID = NewID()
		}
		span.meta = map[string]string{
			ext.RuntimeID: t.runtimeID,
		}
	}
	return WithSpan(ctx, span), span
}

// write sends the finished span to the writer.
// Failures are logged and never propagated to the traced operation.
func (t *Tracer) write(ctx context.Context, span *schema.Span) {
	defer func() {
		if err := recover(); err != nil {
			apmlog.Errorf(ctx, "apm: panic while writing span %s: %v", span.Name, err)
		}
	}()
	if err := t.writer.WriteSpan(ctx, span); err != nil {
		apmlog.Errorf(ctx, "apm: failed to write span %s: %v", span.Name, err)
	}
}

// Close closes the writer of the tracer.
func (t *Tracer) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if c, ok := t.writer.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
