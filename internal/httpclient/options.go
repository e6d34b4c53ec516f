// Package httpclient provides an OTEL-instrumented HTTP client used by
// adapters that talk to remote schedule and data services.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which payloads are attached to spans as events.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientSettings)

type clientSettings struct {
	providerName  string
	baseURL       string
	timeout       time.Duration
	headers       map[string]string
	httpClient    *http.Client
	transport     http.RoundTripper
	meterProvider metric.MeterProvider
	tracer        trace.Tracer
	traceRequest  bool
	traceResponse bool
}

// WithProviderName tags metrics and spans with the remote service's name.
func WithProviderName(name string) ClientOption {
	return func(s *clientSettings) { s.providerName = name }
}

// WithBaseURL prefixes relative request paths with url.
func WithBaseURL(url string) ClientOption {
	return func(s *clientSettings) { s.baseURL = url }
}

// WithRequestTimeout bounds each request end to end.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(s *clientSettings) { s.timeout = d }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(s *clientSettings) { s.headers = headers }
}

// WithHTTPClient supplies an existing http.Client instead of the default.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *clientSettings) { s.httpClient = c }
}

// WithRoundTripper overrides the transport before instrumentation wraps it.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(s *clientSettings) { s.transport = rt }
}

// WithMeterProvider overrides the global OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(s *clientSettings) { s.meterProvider = mp }
}

// WithTraceOptions sets the tracer and which payloads land on spans.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(s *clientSettings) {
		s.tracer = tracer
		for _, o := range opts {
			switch o {
			case TraceRequest:
				s.traceRequest = true
			case TraceResponse:
				s.traceResponse = true
			}
		}
	}
}
