package apmhttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/ext"
	"github.com/shogo82148/apm-yasdk-go/apm/schema"
)

func ignoreVariableFieldFunc(in *schema.Span) *schema.Span {
	out := *in
	out.TraceID = 0
	out.SpanID = 0
	out.ParentID = 0
	out.Start = 0
	out.Duration = 0
	out.Meta = nil
	for k, v := range in.Meta {
		if k == ext.RuntimeID {
			continue
		}
		if out.Meta == nil {
			out.Meta = map[string]string{}
		}
		out.Meta[k] = v
	}
	return &out
}

// some fields change every execution, ignore them.
var ignoreVariableField = cmp.Transformer("Span", ignoreVariableFieldFunc)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// respond returns a transport that answers every request with status and body.
func respond(status int, body string) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			Status:        strconv.Itoa(status) + " " + http.StatusText(status),
			StatusCode:    status,
			Header:        http.Header{},
			Body:          io.NopCloser(strings.NewReader(body)),
			ContentLength: int64(len(body)),
			Request:       req,
		}, nil
	})
}

func do(t *testing.T, rt http.RoundTripper, req *http.Request) string {
	t.Helper()
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRoundTripper_Success(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	rt := RoundTripper(respond(http.StatusOK, "OK"), WithTracer(tracer))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/success", nil)
	if body := do(t, rt, req); body != "OK" {
		t.Errorf("want %q, got %q", "OK", body)
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	want := &schema.Span{
		Name:     "http.request",
		Service:  "example.com",
		Resource: "GET",
		Type:     "http",
		Meta: map[string]string{
			"http.method":      "GET",
			"http.status_code": "200",
			"http.url":         "/success",
			"out.host":         "example.com",
			"out.port":         "80",
		},
	}
	if diff := cmp.Diff(want, got, ignoreVariableField); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripper_ServerError(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	rt := RoundTripper(respond(http.StatusInternalServerError, "Boom!"), WithTracer(tracer))
	req := httptest.NewRequest(http.MethodPost, "http://example.com/failure", nil)
	if body := do(t, rt, req); body != "Boom!" {
		t.Errorf("the body should be still readable: want %q, got %q", "Boom!", body)
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	want := &schema.Span{
		Name:     "http.request",
		Service:  "example.com",
		Resource: "POST",
		Type:     "http",
		Error:    1,
		Meta: map[string]string{
			"error.msg":        "Boom!",
			"error.type":       "Error 500",
			"http.method":      "POST",
			"http.status_code": "500",
			"http.url":         "/failure",
			"out.host":         "example.com",
			"out.port":         "80",
		},
	}
	if diff := cmp.Diff(want, got, ignoreVariableField); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripper_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		errored bool
	}{
		{
			name:    "default handler",
			errored: false,
		},
		{
			name: "custom handler",
			opts: []Option{
				WithErrorHandler(func(resp *http.Response) bool {
					return resp.StatusCode >= 400 && resp.StatusCode < 600
				}),
			},
			errored: true,
		},
		{
			name: "status ranges",
			opts: []Option{
				WithErrorHandler(StatusRangeErrorHandler(StatusRange{Min: 400, Max: 599})),
			},
			errored: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, agent := apm.NewTestAgent()
			defer agent.Close()

			opts := append([]Option{WithTracer(tracer)}, tt.opts...)
			rt := RoundTripper(respond(http.StatusNotFound, "not found"), opts...)
			req := httptest.NewRequest(http.MethodGet, "http://example.com/not_found", nil)
			do(t, rt, req)

			got, err := agent.Recv()
			if err != nil {
				t.Fatal(err)
			}
			if (got.Error == 1) != tt.errored {
				t.Errorf("want errored %t, got error %d", tt.errored, got.Error)
			}
			if got.Meta[ext.HTTPCode] != "404" {
				t.Errorf("want status code 404, got %q", got.Meta[ext.HTTPCode])
			}
			if tt.errored {
				if got.Meta[ext.ErrorType] != "Error 404" {
					t.Errorf("unexpected error type: %q", got.Meta[ext.ErrorType])
				}
				if got.Meta[ext.ErrorMsg] != "not found" {
					t.Errorf("unexpected error message: %q", got.Meta[ext.ErrorMsg])
				}
			}
		})
	}
}

func TestRoundTripper_CustomHandlerReplacesDefault(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	rt := RoundTripper(respond(http.StatusBadGateway, "bad gateway"),
		WithTracer(tracer),
		WithErrorHandler(func(resp *http.Response) bool {
			return resp.StatusCode == http.StatusNotFound
		}),
	)
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	do(t, rt, req)

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != 0 {
		t.Error("502 should not be an error for the custom handler")
	}
	if _, ok := got.Meta[ext.ErrorType]; ok {
		t.Error("error.type should not be set")
	}
}

func TestRoundTripper_Disabled(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()
	tracer.SetEnabled(false)

	var got *http.Request
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		got = req
		return respond(http.StatusInternalServerError, "Boom!").RoundTrip(req)
	})
	rt := RoundTripper(base, WithTracer(tracer), WithDistributedTracing(true))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	do(t, rt, req)

	if got != req {
		t.Error("the request should be passed through untouched")
	}
	if req.Header.Get(apm.TraceIDHeaderKey) != "" || req.Header.Get(apm.ParentIDHeaderKey) != "" {
		t.Error("the propagation headers should not be added")
	}
	if span, err := agent.Recv(); err == nil {
		t.Errorf("no span should be written, but got %v", span)
	}
}

func TestRoundTripper_DistributedTracing(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	var header http.Header
	var active *apm.Span
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		header = req.Header.Clone()
		active = apm.ContextSpan(req.Context())
		return respond(http.StatusOK, "OK").RoundTrip(req)
	})
	rt := RoundTripper(base, WithTracer(tracer), WithDistributedTracing(true))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	do(t, rt, req)

	span, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := header.Get(apm.TraceIDHeaderKey), strconv.FormatUint(span.TraceID, 10); got != want {
		t.Errorf("trace id header: want %q, got %q", want, got)
	}
	if got, want := header.Get(apm.ParentIDHeaderKey), strconv.FormatUint(span.SpanID, 10); got != want {
		t.Errorf("parent id header: want %q, got %q", want, got)
	}
	if active == nil || active.SpanID() != span.SpanID {
		t.Error("the span should be the active span of the request passed to the transport")
	}

	// the caller's request is not modified.
	if req.Header.Get(apm.TraceIDHeaderKey) != "" {
		t.Error("the original request should not be modified")
	}
}

func TestRoundTripper_NoDistributedTracing(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	var header http.Header
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		header = req.Header.Clone()
		return respond(http.StatusOK, "OK").RoundTrip(req)
	})
	rt := RoundTripper(base, WithTracer(tracer), WithDistributedTracing(false))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	do(t, rt, req)

	if _, err := agent.Recv(); err != nil {
		t.Fatal(err)
	}
	if v := header.Get(apm.TraceIDHeaderKey); v != "" {
		t.Errorf("trace id header should not be set, got %q", v)
	}
	if v := header.Get(apm.ParentIDHeaderKey); v != "" {
		t.Errorf("parent id header should not be set, got %q", v)
	}
}

func TestRoundTripper_Service(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{
			name: "default",
			want: "example.com",
		},
		{
			name: "service name",
			opts: []Option{WithServiceName("my-service")},
			want: "my-service",
		},
		{
			name: "split by domain",
			opts: []Option{WithSplitByDomain(true)},
			want: "example.com",
		},
		{
			name: "split by domain wins",
			opts: []Option{WithServiceName("my-service"), WithSplitByDomain(true)},
			want: "example.com",
		},
		{
			name: "split by domain disabled",
			opts: []Option{WithServiceName("my-service"), WithSplitByDomain(false)},
			want: "my-service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, agent := apm.NewTestAgent()
			defer agent.Close()

			opts := append([]Option{WithTracer(tracer)}, tt.opts...)
			rt := RoundTripper(respond(http.StatusOK, "OK"), opts...)
			req := httptest.NewRequest(http.MethodGet, "http://example.com:8080/", nil)
			do(t, rt, req)

			got, err := agent.Recv()
			if err != nil {
				t.Fatal(err)
			}
			if got.Service != tt.want {
				t.Errorf("want %q, got %q", tt.want, got.Service)
			}
		})
	}
}

func TestIntegration_Precedence(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	integration := NewIntegration(WithTracer(tracer), WithServiceName("global"))
	global := integration.RoundTripper(respond(http.StatusOK, "OK"))
	local := integration.RoundTripper(respond(http.StatusOK, "OK"), WithServiceName("local"))

	// the clients already created keep their configuration.
	integration.Configure(WithServiceName("changed"))
	changed := integration.RoundTripper(respond(http.StatusOK, "OK"))

	tests := []struct {
		rt   http.RoundTripper
		want string
	}{
		{global, "global"},
		{local, "local"},
		{changed, "changed"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		do(t, tt.rt, req)
		got, err := agent.Recv()
		if err != nil {
			t.Fatal(err)
		}
		if got.Service != tt.want {
			t.Errorf("want %q, got %q", tt.want, got.Service)
		}
	}
}

func TestIntegration_GlobalSplitByDomain(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	// split by domain in the global layer still wins over a local service name.
	integration := NewIntegration(WithTracer(tracer), WithSplitByDomain(true))
	rt := integration.RoundTripper(respond(http.StatusOK, "OK"), WithServiceName("local"))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	do(t, rt, req)

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Service != "example.com" {
		t.Errorf("want %q, got %q", "example.com", got.Service)
	}
}

func TestRoundTripper_TransportError(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	errRefused := errors.New("connection refused")
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errRefused
	})
	rt := RoundTripper(base, WithTracer(tracer))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	resp, err := rt.RoundTrip(req)
	if err != errRefused {
		t.Errorf("the error should be returned unchanged, got %v", err)
	}
	if resp != nil {
		t.Errorf("want nil response, got %v", resp)
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != 1 {
		t.Errorf("want error 1, got %d", got.Error)
	}
	if got.Meta[ext.ErrorType] != "*errors.errorString" {
		t.Errorf("unexpected error type: %q", got.Meta[ext.ErrorType])
	}
	if got.Meta[ext.ErrorMsg] != "connection refused" {
		t.Errorf("unexpected error message: %q", got.Meta[ext.ErrorMsg])
	}
	if _, ok := got.Meta[ext.HTTPCode]; ok {
		t.Error("status code should not be set")
	}
}

func TestRoundTripper_Panic(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		panic("boom")
	})
	rt := RoundTripper(base, WithTracer(tracer))

	var v any
	func() {
		defer func() {
			v = recover()
		}()
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		rt.RoundTrip(req)
	}()
	if s, ok := v.(string); !ok || s != "boom" {
		t.Errorf("the panic should be resumed, got %v", v)
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != 1 {
		t.Errorf("want error 1, got %d", got.Error)
	}
	if got.Meta[ext.ErrorType] != "string" {
		t.Errorf("unexpected error type: %q", got.Meta[ext.ErrorType])
	}
	if got.Meta[ext.ErrorMsg] != "boom" {
		t.Errorf("unexpected error message: %q", got.Meta[ext.ErrorMsg])
	}
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestRoundTripper_ErrorBody(t *testing.T) {
	tests := []struct {
		name          string
		size          int
		contentLength int64
		want          string
	}{
		{
			name:          "fits",
			size:          maxErrorBodySize,
			contentLength: maxErrorBodySize,
			want:          strings.Repeat("x", maxErrorBodySize),
		},
		{
			name:          "too large",
			size:          10000,
			contentLength: 10000,
			want:          "Service Unavailable",
		},
		{
			name:          "unknown length",
			size:          100,
			contentLength: -1,
			want:          "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, agent := apm.NewTestAgent()
			defer agent.Close()

			payload := strings.Repeat("x", tt.size)
			body := &closeRecorder{Reader: strings.NewReader(payload)}
			base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode:    http.StatusServiceUnavailable,
					Header:        http.Header{},
					Body:          body,
					ContentLength: tt.contentLength,
					Request:       req,
				}, nil
			})
			rt := RoundTripper(base, WithTracer(tracer))
			req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			if got := do(t, rt, req); got != payload {
				t.Errorf("the whole body should be readable: want %d bytes, got %d bytes", len(payload), len(got))
			}
			if !body.closed {
				t.Error("the original body should be closed")
			}

			got, err := agent.Recv()
			if err != nil {
				t.Fatal(err)
			}
			if got.Meta[ext.ErrorMsg] != tt.want {
				t.Errorf("unexpected error message: want %q, got %q", tt.want, got.Meta[ext.ErrorMsg])
			}
		})
	}
}

func TestRoundTripper_StreamingErrorBody(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer ts.Close()
	defer close(release)

	type result struct {
		resp *http.Response
		err  error
	}
	ch := make(chan result, 1)
	rt := RoundTripper(nil, WithTracer(tracer))
	go func() {
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		if err != nil {
			ch <- result{nil, err}
			return
		}
		resp, err := rt.RoundTrip(req)
		ch <- result{resp, err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("the response should be returned as soon as the headers arrive")
	}
	if r.err != nil {
		t.Fatal(r.err)
	}
	defer r.resp.Body.Close()

	buf := make([]byte, len("partial"))
	if _, err := io.ReadFull(r.resp.Body, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "partial" {
		t.Errorf("want %q, got %q", "partial", string(buf))
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != 1 {
		t.Errorf("want error 1, got %d", got.Error)
	}
	if got.Meta[ext.ErrorMsg] != "Service Unavailable" {
		t.Errorf("unexpected error message: %q", got.Meta[ext.ErrorMsg])
	}
}

func TestRoundTripper_PanicInErrorHandler(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	rt := RoundTripper(respond(http.StatusInternalServerError, "Boom!"),
		WithTracer(tracer),
		WithErrorHandler(func(resp *http.Response) bool {
			panic("broken handler")
		}),
	)
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	if body := do(t, rt, req); body != "Boom!" {
		t.Errorf("want %q, got %q", "Boom!", body)
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != 0 {
		t.Error("the response should not be an error")
	}
	if got.Meta[ext.HTTPCode] != "500" {
		t.Errorf("unexpected status code: %q", got.Meta[ext.HTTPCode])
	}
}

func TestRoundTripper_Nested(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	rt := RoundTripper(
		RoundTripper(respond(http.StatusOK, "OK"), WithTracer(tracer)),
		WithTracer(tracer),
	)
	ctx, root := tracer.StartSpan(context.Background(), "root")
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil).WithContext(ctx)
	do(t, rt, req)
	root.Finish()

	inner, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	outer, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if outer.ParentID != root.SpanID() {
		t.Errorf("the outer span should be a child of the root: want %d, got %d", root.SpanID(), outer.ParentID)
	}
	if inner.ParentID != outer.SpanID {
		t.Errorf("the inner span should be a child of the outer span: want %d, got %d", outer.SpanID, inner.ParentID)
	}
	if inner.TraceID != root.TraceID() || outer.TraceID != root.TraceID() {
		t.Error("all spans should share the trace id")
	}
	if apm.ContextSpan(req.Context()) != root {
		t.Error("the active span of the caller should not change")
	}
}

type brokenWriter struct {
	panic bool
}

func (w brokenWriter) WriteSpan(ctx context.Context, span *schema.Span) error {
	if w.panic {
		panic("broken writer")
	}
	return errors.New("broken writer")
}

func TestRoundTripper_BrokenWriter(t *testing.T) {
	for _, p := range []bool{false, true} {
		enabled := true
		tracer := apm.New(&apm.Config{
			Enabled: &enabled,
			Writer:  brokenWriter{panic: p},
		})
		rt := RoundTripper(respond(http.StatusOK, "OK"), WithTracer(tracer))
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		if body := do(t, rt, req); body != "OK" {
			t.Errorf("want %q, got %q", "OK", body)
		}
	}
}

func TestRoundTripper_Concurrent(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	const n = 20
	rt := RoundTripper(respond(http.StatusOK, "OK"), WithTracer(tracer), WithDistributedTracing(true))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			resp, err := rt.RoundTrip(req)
			if err != nil {
				t.Error(err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for i := 0; i < n; i++ {
		got, err := agent.Recv()
		if err != nil {
			t.Fatal(err)
		}
		if seen[got.SpanID] {
			t.Errorf("duplicated span id %d", got.SpanID)
		}
		seen[got.SpanID] = true
	}
}

func TestRoundTripper_RealServer(t *testing.T) {
	tracer, agent := apm.NewTestAgent()
	defer agent.Close()

	ch := make(chan http.Header, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ch <- r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("hello")); err != nil {
			panic(err)
		}
	}))
	defer ts.Close()

	client := Client(nil, WithTracer(tracer), WithDistributedTracing(true))
	resp, err := client.Get(ts.URL + "/hello")
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("want %q, got %q", "hello", string(data))
	}

	got, err := agent.Recv()
	if err != nil {
		t.Fatal(err)
	}
	header := <-ch
	if header.Get(apm.TraceIDHeaderKey) != strconv.FormatUint(got.TraceID, 10) {
		t.Errorf("unexpected trace id header: %q", header.Get(apm.TraceIDHeaderKey))
	}
	if got.Meta[ext.TargetHost] != "127.0.0.1" {
		t.Errorf("unexpected host: %q", got.Meta[ext.TargetHost])
	}
	if got.Meta[ext.HTTPURL] != "/hello" {
		t.Errorf("unexpected url: %q", got.Meta[ext.HTTPURL])
	}
}

func TestClient_DoesNotModifyDefault(t *testing.T) {
	transport := http.DefaultClient.Transport
	client := Client(nil)
	if client == http.DefaultClient {
		t.Error("a copy should be returned")
	}
	if http.DefaultClient.Transport != transport {
		t.Error("http.DefaultClient should not be modified")
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		url  string
		host string
		port string
	}{
		{"http://example.com/", "example.com", "80"},
		{"https://example.com/", "example.com", "443"},
		{"ws://example.com/", "example.com", "80"},
		{"wss://example.com/", "example.com", "443"},
		{"http://example.com:8080/", "example.com", "8080"},
		{"http://[::1]:8080/", "::1", "8080"},
		{"https://[::1]/", "::1", "443"},
		{"ftp://example.com/", "example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)
		host, port := target(req)
		if host != tt.host || port != tt.port {
			t.Errorf("%s: want (%q, %q), got (%q, %q)", tt.url, tt.host, tt.port, host, port)
		}
	}
}

func TestTarget_EmptyHost(t *testing.T) {
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Scheme: "http", Path: "/"},
		Header: http.Header{},
	}
	host, port := target(req)
	if host != emptyHostRename {
		t.Errorf("want %q, got %q", emptyHostRename, host)
	}
	if port != "80" {
		t.Errorf("want %q, got %q", "80", port)
	}
}

func TestURLPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.URL.Path = ""
	if got := urlPath(req); got != "/" {
		t.Errorf("want %q, got %q", "/", got)
	}
}
