// Package apmhttp traces the HTTP requests.
//
// # HTTP Client
//
// [Client] wraps the provided [net/http.Client].
// Every request sent by the wrapped client is recorded as an "http.request" span,
// a child of the span in the context of the request.
//
//	tracer := apm.New(nil)
//	client := apmhttp.Client(nil,
//	  apmhttp.WithTracer(tracer),
//	  apmhttp.WithServiceName("my-http-client"),
//	  apmhttp.WithDistributedTracing(true),
//	)
//	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
//	if err != nil {
//	  panic(err)
//	}
//	resp, err := client.Do(req)
//	if err != nil {
//	  panic(err)
//	}
//	defer resp.Body.Close()
//
// The options shared by all clients are set by [Configure].
// The options passed to [Client] and [RoundTripper] take precedence over them.
// The options are resolved when the client is created; later calls of [Configure]
// do not change the existing clients.
//
// # HTTP Server
//
// [Handler] wraps the provided [net/http.Handler].
// The span of the wrapped handler continues the trace propagated by the client.
//
//	namer := apmhttp.FixedTracingNamer("myApp")
//	h := apmhttp.Handler(namer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	  w.Write([]byte("Hello, World!"))
//	}))
//	http.ListenAndServe(":8080", h)
package apmhttp
