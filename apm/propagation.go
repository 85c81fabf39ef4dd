package apm

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

const (
	// TraceIDHeaderKey is the HTTP header name that carries the trace ID.
	TraceIDHeaderKey = "x-datadog-trace-id"

	// ParentIDHeaderKey is the HTTP header name that carries the ID of the caller's span.
	// It becomes the parent of the downstream's span.
	ParentIDHeaderKey = "x-datadog-parent-id"
)

// SpanContext is the part of a span that crosses process boundaries.
type SpanContext struct {
	TraceID uint64
	SpanID  uint64
}

// IsValid reports whether both identifiers are set.
func (sc SpanContext) IsValid() bool {
	return sc.TraceID != 0 && sc.SpanID != 0
}

// Inject writes sc into h as decimal strings.
// It does nothing if sc is not valid.
func Inject(h http.Header, sc SpanContext) {
	if !sc.IsValid() {
		return
	}
	h.Set(TraceIDHeaderKey, strconv.FormatUint(sc.TraceID, 10))
	h.Set(ParentIDHeaderKey, strconv.FormatUint(sc.SpanID, 10))
}

// Extract reads the span context written by [Inject].
// It returns false if either header is missing or malformed.
func Extract(h http.Header) (SpanContext, bool) {
	traceID, ok := parseID(h.Get(TraceIDHeaderKey))
	if !ok {
		return SpanContext{}, false
	}
	spanID, ok := parseID(h.Get(ParentIDHeaderKey))
	if !ok {
		return SpanContext{}, false
	}
	return SpanContext{
		TraceID: traceID,
		SpanID:  spanID,
	}, true
}

func parseID(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ContextWithSpanContext returns a new context that continues the remote trace sc.
func ContextWithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, remoteContextKey, sc)
}

// RemoteSpanContext returns the span context stored by [ContextWithSpanContext].
func RemoteSpanContext(ctx context.Context) (SpanContext, bool) {
	sc, ok := ctx.Value(remoteContextKey).(SpanContext)
	if !ok || !sc.IsValid() {
		return SpanContext{}, false
	}
	return sc, true
}
