package apm

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
	"github.com/shogo82148/apm-yasdk-go/apm/ext"
	"github.com/shogo82148/apm-yasdk-go/apm/schema"
)

var nowFunc func() time.Time = time.Now

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string { return "apm context value " + k.name }

var (
	spanContextKey       = &contextKey{"span"}
	remoteContextKey     = &contextKey{"remote-span-context"}
	errSpanAlreadyClosed = errors.New("apm: span already finished")
)

// NewID generates a random non-zero 63-bit identifier.
// It is used for both trace IDs and span IDs.
func NewID() uint64 {
	var r [8]byte
	for {
		if _, err := rand.Read(r[:]); err != nil {
			panic(err)
		}
		id := binary.BigEndian.Uint64(r[:]) &^ (1 << 63)
		if id != 0 {
			return id
		}
	}
}

// Span is a timed, tagged record of one traced operation.
type Span struct {
	mu     sync.Mutex
	ctx    context.Context
	tracer *Tracer

	name     string
	service  string
	resource string
	spanType string

	traceID  uint64
	spanID   uint64
	parentID uint64

	startTime time.Time
	endTime   time.Time

	error bool
	meta  map[string]string
}

// ContextSpan returns the active span of ctx, or nil.
func ContextSpan(ctx context.Context) *Span {
	span, _ := ctx.Value(spanContextKey).(*Span)
	return span
}

// WithSpan returns a new context with span as the active span.
func WithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanContextKey, span)
}

// Name returns the operation name of the span.
func (span *Span) Name() string {
	return span.name
}

// TraceID returns the trace identifier.
func (span *Span) TraceID() uint64 {
	return span.traceID
}

// SpanID returns the span identifier.
func (span *Span) SpanID() uint64 {
	return span.spanID
}

// ParentID returns the identifier of the parent span, or zero for a root span.
func (span *Span) ParentID() uint64 {
	return span.parentID
}

// Context returns the identifiers that are propagated to the downstream service.
func (span *Span) Context() SpanContext {
	if span == nil {
		return SpanContext{}
	}
	return SpanContext{
		TraceID: span.traceID,
		SpanID:  span.spanID,
	}
}

// SetService sets the service the span is attributed to.
func (span *Span) SetService(service string) {
	span.mu.Lock()
	defer span.mu.Unlock()
	span.service = service
}

// SetResource sets the resource name.
func (span *Span) SetResource(resource string) {
	span.mu.Lock()
	defer span.mu.Unlock()
	span.resource = resource
}

// SetType sets the span type, e.g. "http".
func (span *Span) SetType(spanType string) {
	span.mu.Lock()
	defer span.mu.Unlock()
	span.spanType = spanType
}

// SetTag sets a string tag.
func (span *Span) SetTag(key, value string) {
	span.mu.Lock()
	defer span.mu.Unlock()
	if span.meta == nil {
		span.meta = make(map[string]string)
	}
	span.meta[key] = value
}

// Tag returns the value of the tag.
func (span *Span) Tag(key string) (string, bool) {
	span.mu.Lock()
	defer span.mu.Unlock()
	v, ok := span.meta[key]
	return v, ok
}

// SetError flags the span as an error without recording the cause.
func (span *Span) SetError() {
	span.mu.Lock()
	defer span.mu.Unlock()
	span.error = true
}

// IsError reports whether the span is flagged as an error.
func (span *Span) IsError() bool {
	span.mu.Lock()
	defer span.mu.Unlock()
	return span.error
}

// AddError flags the span as an error and records the type and the message of err.
// It returns whether err is non-nil.
func (span *Span) AddError(err error) bool {
	if err == nil {
		return false
	}
	span.SetErrorTags(fmt.Sprintf("%T", err), err.Error())
	return true
}

// SetErrorTags flags the span as an error with the given type and message.
func (span *Span) SetErrorTags(errType, msg string) {
	span.mu.Lock()
	defer span.mu.Unlock()
	span.error = true
	if span.meta == nil {
		span.meta = make(map[string]string)
	}
	span.meta[ext.ErrorType] = errType
	span.meta[ext.ErrorMsg] = msg
}

// AddError flags the active span of ctx as an error.
func AddError(ctx context.Context, err error) bool {
	span := ContextSpan(ctx)
	if span == nil {
		return err != nil
	}
	return span.AddError(err)
}

// Finish closes the span and hands it to the tracer's writer.
// Only the first call has an effect.
//
// Finish is meant to be deferred: a panic in flight is recorded
// as an error on the span and then resumed.
func (span *Span) Finish() {
	err := recover()
	if err != nil {
		span.SetErrorTags(fmt.Sprintf("%T", err), fmt.Sprint(err))
	}
	if data, ok := span.finish(); ok {
		apmlog.Debugf(span.ctx, "Finishing span named %s", span.name)
		span.tracer.write(span.ctx, data)
	}
	if err != nil {
		panic(err)
	}
}

func (span *Span) finish() (*schema.Span, bool) {
	span.mu.Lock()
	defer span.mu.Unlock()
	if !span.endTime.IsZero() {
		apmlog.Debugf(span.ctx, "%v: %s", errSpanAlreadyClosed, span.name)
		return nil, false
	}
	span.endTime = nowFunc()
	return span.serialize(), true
}

// serialize converts the span into the wire form.
// span.mu must be held.
func (span *Span) serialize() *schema.Span {
	var meta map[string]string
	if len(span.meta) > 0 {
		meta = make(map[string]string, len(span.meta))
		for k, v := range span.meta {
			meta[k] = v
		}
	}
	var errFlag int32
	if span.error {
		errFlag = 1
	}
	return &schema.Span{
		Name:     span.name,
		Service:  span.service,
		Resource: span.resource,
		TraceID:  span.traceID,
		SpanID:   span.spanID,
		ParentID: span.parentID,

		// use monotonic clock instead of wall clock to get correct processing time.
		// https://golang.org/pkg/time/#hdr-Monotonic_Clocks
		Start:    span.startTime.UnixNano(),
		Duration: int64(span.endTime.Sub(span.startTime)),

		Error: errFlag,
		Type:  span.spanType,
		Meta:  meta,
	}
}
