// Package ext contains the tag names and span types shared by the integrations.
package ext

const (
	// TargetHost sets the target host address.
	TargetHost = "out.host"

	// TargetPort sets the target host port.
	TargetPort = "out.port"

	// HTTPMethod specifies the HTTP method used in a span.
	HTTPMethod = "http.method"

	// HTTPCode sets the HTTP status code as a tag.
	HTTPCode = "http.status_code"

	// HTTPURL sets the HTTP URL for a span.
	// The integrations record the path only.
	HTTPURL = "http.url"

	// ErrorMsg specifies the error message.
	ErrorMsg = "error.msg"

	// ErrorType specifies the error type.
	ErrorType = "error.type"

	// RuntimeID is a tag that contains a unique id for this process.
	RuntimeID = "runtime-id"
)

const (
	// SpanTypeHTTP marks a span as an HTTP call.
	SpanTypeHTTP = "http"

	// SpanTypeWeb marks a span as handling an incoming web request.
	SpanTypeWeb = "web"
)
