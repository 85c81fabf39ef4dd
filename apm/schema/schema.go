// Package schema is the wire representation of finished spans.
// A span document is a JSON object compatible with the trace agent's span format.
package schema

// Span is a finished span.
type Span struct {
	// Required

	// Name is the name of the operation, e.g. "http.request".
	Name string `json:"name"`

	// Service is the logical name of the service the span is attributed to.
	Service string `json:"service"`

	// Resource is what the operation acted on, e.g. the HTTP method.
	Resource string `json:"resource"`

	// TraceID is the identifier shared by every span in the same trace.
	TraceID uint64 `json:"trace_id"`

	// SpanID is the identifier of the span, unique in the trace.
	SpanID uint64 `json:"span_id"`

	// ParentID is the identifier of the parent span.
	// It is zero if the span is the root of the trace.
	ParentID uint64 `json:"parent_id"`

	// Start is the start time of the span in nanoseconds since the Unix epoch.
	Start int64 `json:"start"`

	// Duration is the duration of the span in nanoseconds.
	Duration int64 `json:"duration"`

	// Optional

	// Error is 1 if the span is flagged as an error, 0 otherwise.
	Error int32 `json:"error"`

	// Type is the category of the span, e.g. "http".
	Type string `json:"type,omitempty"`

	// Meta is a mapping from tag name to tag value.
	Meta map[string]string `json:"meta,omitempty"`
}
