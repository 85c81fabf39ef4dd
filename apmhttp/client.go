package apmhttp

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
	"github.com/shogo82148/apm-yasdk-go/apm/ext"
)

// ClientSpanName is the name of the spans of outgoing requests.
const ClientSpanName = "http.request"

// maxErrorBodySize is the size of the response body recorded as the error message.
const maxErrorBodySize = 4 << 10

// emptyHostRename is the host recorded for the requests without any host.
const emptyHostRename = "empty_host_error"

type roundtripper struct {
	base   http.RoundTripper
	config *config
}

func (rt *roundtripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cfg := rt.config
	if !cfg.tracer.Enabled() {
		return rt.base.RoundTrip(req)
	}

	host, port := target(req)
	ctx, span := cfg.tracer.StartSpan(req.Context(), ClientSpanName)
	defer span.Finish()

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	span.SetService(cfg.service(host))
	span.SetResource(method)
	span.SetType(ext.SpanTypeHTTP)
	span.SetTag(ext.HTTPMethod, method)
	span.SetTag(ext.HTTPURL, urlPath(req))
	span.SetTag(ext.TargetHost, host)
	if port != "" {
		span.SetTag(ext.TargetPort, port)
	}

	if cfg.distributedTracing {
		// the caller's request must not be modified.
		req = req.Clone(ctx)
		apm.Inject(req.Header, span.Context())
	} else {
		req = req.WithContext(ctx)
	}

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		span.AddError(err)
		return resp, err
	}

	span.SetTag(ext.HTTPCode, strconv.Itoa(resp.StatusCode))
	if cfg.classify(req.Context(), resp) {
		msg := peekBody(req, resp)
		span.SetErrorTags("Error "+strconv.Itoa(resp.StatusCode), msg)
	}
	return resp, nil
}

// peekBody reads the response body and puts it back,
// so that the caller still reads the whole body.
// Only a body with a known length up to maxErrorBodySize is read;
// otherwise the status text is returned, and the body is left untouched.
func peekBody(req *http.Request, resp *http.Response) string {
	if resp.Body == nil || resp.Body == http.NoBody || resp.ContentLength == 0 {
		return ""
	}
	if resp.StatusCode == http.StatusSwitchingProtocols {
		// the body is the connection, it must stay an io.ReadWriteCloser.
		return ""
	}
	if resp.ContentLength < 0 || resp.ContentLength > maxErrorBodySize {
		// reading a streaming body would block the caller.
		return http.StatusText(resp.StatusCode)
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, resp.ContentLength))
	if err != nil {
		apmlog.Debugf(req.Context(), "apmhttp: failed to read the response body: %v", err)
	}
	resp.Body = &stitchedBody{
		Reader: io.MultiReader(bytes.NewReader(buf), resp.Body),
		body:   resp.Body,
	}
	return string(buf)
}

// stitchedBody reads the bytes already consumed and then the rest of body.
type stitchedBody struct {
	io.Reader
	body io.ReadCloser
}

func (b *stitchedBody) Close() error {
	return b.body.Close()
}

// target returns the host name and the port of the request.
// The port is derived from the scheme if the URL has no explicit one.
func target(req *http.Request) (host, port string) {
	hostport := req.URL.Host
	if hostport == "" {
		hostport = req.Host
	}
	host, port = splitHostPort(hostport)
	if host == "" {
		host = emptyHostRename
	}
	if port == "" {
		port = defaultPort(req.URL.Scheme)
	}
	return host, port
}

func splitHostPort(hostport string) (host, port string) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port
		return strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]"), ""
	}
	return host, port
}

func defaultPort(scheme string) string {
	switch strings.ToLower(scheme) {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	}
	return ""
}

func urlPath(req *http.Request) string {
	if req.URL.Path == "" {
		return "/"
	}
	return req.URL.Path
}
