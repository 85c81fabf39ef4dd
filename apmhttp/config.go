package apmhttp

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
)

// Option configures the tracing of HTTP clients.
type Option func(*settings)

// settings is one layer of configuration.
// A nil field means the layer does not say anything about it.
type settings struct {
	serviceName        *string
	splitByDomain      *bool
	distributedTracing *bool
	errorHandler       ErrorHandler
	tracer             *apm.Tracer
}

// WithServiceName sets the service of the spans.
// It has no effect if split by domain is enabled.
func WithServiceName(name string) Option {
	return func(s *settings) {
		s.serviceName = &name
	}
}

// WithSplitByDomain names the service of the spans after the target host.
// It takes precedence over WithServiceName.
func WithSplitByDomain(enabled bool) Option {
	return func(s *settings) {
		s.splitByDomain = &enabled
	}
}

// WithDistributedTracing enables or disables propagating the trace to the downstream services.
func WithDistributedTracing(enabled bool) Option {
	return func(s *settings) {
		s.distributedTracing = &enabled
	}
}

// WithErrorHandler replaces the classification of error responses.
// A nil handler restores DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *settings) {
		if h == nil {
			h = DefaultErrorHandler
		}
		s.errorHandler = h
	}
}

// WithTracer sets the tracer. By default, apm.DefaultTracer() is used.
func WithTracer(tracer *apm.Tracer) Option {
	return func(s *settings) {
		s.tracer = tracer
	}
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// merge returns s overridden by the values that over has.
func (s settings) merge(over settings) settings {
	if over.serviceName != nil {
		s.serviceName = over.serviceName
	}
	if over.splitByDomain != nil {
		s.splitByDomain = over.splitByDomain
	}
	if over.distributedTracing != nil {
		s.distributedTracing = over.distributedTracing
	}
	if over.errorHandler != nil {
		s.errorHandler = over.errorHandler
	}
	if over.tracer != nil {
		s.tracer = over.tracer
	}
	return s
}

// config is the effective configuration of a client.
// It never changes after it is resolved.
type config struct {
	serviceName        string
	hasServiceName     bool
	splitByDomain      bool
	distributedTracing bool
	errorHandler       ErrorHandler
	tracer             *apm.Tracer
}

// resolve merges the layers, the later layer wins, over the built-in defaults.
func resolve(layers ...settings) *config {
	var s settings
	for _, layer := range layers {
		s = s.merge(layer)
	}

	cfg := &config{
		errorHandler: DefaultErrorHandler,
	}
	if s.serviceName != nil {
		cfg.serviceName = *s.serviceName
		cfg.hasServiceName = true
	}
	if s.splitByDomain != nil {
		cfg.splitByDomain = *s.splitByDomain
	}
	if s.distributedTracing != nil {
		cfg.distributedTracing = *s.distributedTracing
	}
	if s.errorHandler != nil {
		cfg.errorHandler = s.errorHandler
	}
	cfg.tracer = s.tracer
	if cfg.tracer == nil {
		cfg.tracer = apm.DefaultTracer()
	}
	return cfg
}

// service returns the service of the span for a request to host.
func (cfg *config) service(host string) string {
	if cfg.splitByDomain {
		return host
	}
	if cfg.hasServiceName {
		return cfg.serviceName
	}
	return host
}

// classify reports whether resp is an error.
// A panic in the error handler is logged and the response is not an error.
func (cfg *config) classify(ctx context.Context, resp *http.Response) (isError bool) {
	defer func() {
		if err := recover(); err != nil {
			apmlog.Errorf(ctx, "apmhttp: panic in the error handler: %v", err)
			isError = false
		}
	}()
	return cfg.errorHandler(resp)
}

// Integration holds the options shared by all clients and handlers it instruments.
// The options given to Client, RoundTripper and Handler take precedence over them.
type Integration struct {
	mu     sync.RWMutex
	global settings
}

var defaultIntegration = NewIntegration()

// NewIntegration returns a new Integration with the options.
func NewIntegration(opts ...Option) *Integration {
	return &Integration{
		global: newSettings(opts),
	}
}

// Configure updates the shared options.
// The clients created before are not affected.
func (i *Integration) Configure(opts ...Option) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.global = i.global.merge(newSettings(opts))
}

// Reset clears the shared options.
func (i *Integration) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.global = settings{}
}

func (i *Integration) resolve(opts []Option) *config {
	i.mu.RLock()
	global := i.global
	i.mu.RUnlock()
	return resolve(global, newSettings(opts))
}

// Client creates a shallow copy of the provided http client,
// defaulting to http.DefaultClient, with roundtripper wrapped
// with apmhttp.RoundTripper.
func (i *Integration) Client(client *http.Client, opts ...Option) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}
	ret := *client
	ret.Transport = i.RoundTripper(ret.Transport, opts...)
	return &ret
}

// RoundTripper wraps the provided http roundtripper,
// defaulting to http.DefaultTransport, so that every request is traced.
func (i *Integration) RoundTripper(rt http.RoundTripper, opts ...Option) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &roundtripper{
		base:   rt,
		config: i.resolve(opts),
	}
}

// Handler wraps the provided http handler so that every request is traced.
// The span continues the trace of the caller if the request carries the propagation headers.
//
// WithServiceName and WithSplitByDomain are ignored; the service is named by tn.
func (i *Integration) Handler(tn TracingNamer, h http.Handler, opts ...Option) http.Handler {
	return &httpTracer{
		tn:     tn,
		h:      h,
		config: i.resolve(opts),
	}
}

// Configure updates the options shared by the clients of the default integration.
func Configure(opts ...Option) {
	defaultIntegration.Configure(opts...)
}

// Client creates a shallow copy of the provided http client with the default integration.
// See [Integration.Client].
func Client(client *http.Client, opts ...Option) *http.Client {
	return defaultIntegration.Client(client, opts...)
}

// RoundTripper wraps the provided http roundtripper with the default integration.
// See [Integration.RoundTripper].
func RoundTripper(rt http.RoundTripper, opts ...Option) http.RoundTripper {
	return defaultIntegration.RoundTripper(rt, opts...)
}

// Handler wraps the provided http handler with the default integration.
// See [Integration.Handler].
func Handler(tn TracingNamer, h http.Handler, opts ...Option) http.Handler {
	return defaultIntegration.Handler(tn, h, opts...)
}

// FileConfig is the form of the options in a configuration file.
// The fields that are not set do not produce any option.
type FileConfig struct {
	ServiceName        *string `yaml:"service_name"`
	SplitByDomain      *bool   `yaml:"split_by_domain"`
	DistributedTracing *bool   `yaml:"distributed_tracing"`

	// ErrorStatuses is a comma separated list of the status codes and ranges
	// that mark the spans as errors, e.g. "404,500-599".
	ErrorStatuses string `yaml:"error_statuses"`
}

// Options converts the configuration into options.
func (c *FileConfig) Options() ([]Option, error) {
	if c == nil {
		return nil, nil
	}
	var opts []Option
	if c.ServiceName != nil {
		opts = append(opts, WithServiceName(*c.ServiceName))
	}
	if c.SplitByDomain != nil {
		opts = append(opts, WithSplitByDomain(*c.SplitByDomain))
	}
	if c.DistributedTracing != nil {
		opts = append(opts, WithDistributedTracing(*c.DistributedTracing))
	}
	if c.ErrorStatuses != "" {
		ranges, err := ParseStatusRanges(c.ErrorStatuses)
		if err != nil {
			return nil, fmt.Errorf("apmhttp: failed to parse error_statuses: %w", err)
		}
		opts = append(opts, WithErrorHandler(StatusRangeErrorHandler(ranges...)))
	}
	return opts, nil
}
