package apmhttp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/ext"
)

// ServerSpanName is the name of the spans of incoming requests.
const ServerSpanName = "http.server.request"

// TracingNamer is the interface for naming the service of the server spans.
type TracingNamer interface {
	TracingName(r *http.Request) string
}

// FixedTracingNamer names the service with the fixed name.
type FixedTracingNamer string

// TracingName implements TracingNamer.
func (tn FixedTracingNamer) TracingName(r *http.Request) string {
	return string(tn)
}

type httpTracer struct {
	tn     TracingNamer
	h      http.Handler
	config *config
}

func (tracer *httpTracer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := tracer.config
	if !cfg.tracer.Enabled() {
		tracer.h.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()
	if sc, ok := apm.Extract(r.Header); ok {
		ctx = apm.ContextWithSpanContext(ctx, sc)
	}
	ctx, span := cfg.tracer.StartSpan(ctx, ServerSpanName)
	defer span.Finish()

	method := strings.ToUpper(r.Method)
	span.SetService(tracer.tn.TracingName(r))
	span.SetResource(method)
	span.SetType(ext.SpanTypeWeb)
	span.SetTag(ext.HTTPMethod, method)
	span.SetTag(ext.HTTPURL, urlPath(r))

	rw := &responseWriter{ResponseWriter: w}
	tracer.h.ServeHTTP(rw, r.WithContext(ctx))

	status := rw.status
	if status == 0 {
		status = http.StatusOK
	}
	span.SetTag(ext.HTTPCode, strconv.Itoa(status))
	resp := &http.Response{
		StatusCode: status,
		Header:     w.Header(),
		Request:    r,
	}
	if cfg.classify(r.Context(), resp) {
		span.SetErrorTags("Error "+strconv.Itoa(status), http.StatusText(status))
	}
}

// responseWriter records the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 && status >= 200 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the original ResponseWriter for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
