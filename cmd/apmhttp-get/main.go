// apmhttp-get sends one traced HTTP request and prints the finished spans as JSON lines.
//
// Usage:
//
//	# GET with the default configuration
//	apmhttp-get http://example.com/
//
//	# name the service after the host, and propagate the trace
//	apmhttp-get --split-by-domain --distributed-tracing http://example.com/
//
//	# read the configuration file
//	apmhttp-get --config apm.yaml http://example.com/
//
// The configuration file has the configuration of the tracer and an "http" section:
//
//	enabled: true
//	http:
//	  service_name: my-service
//	  distributed_tracing: true
//	  error_statuses: "404,500-599"
//
// The "http" section is shared by all clients; the flags take precedence over it.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
