package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const requestCounterName = "outbound_http_requests_total"

// Client builds and executes instrumented HTTP requests.
type Client interface {
	// NewRequest returns a fresh request builder carrying the client's
	// base URL, default headers and instrumentation.
	NewRequest() Request

	// Do executes a raw *http.Request through the instrumented transport.
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// InstrumentedClient is the default Client: an http.Client whose transport
// is wrapped with otelhttp and whose requests feed a shared counter.
type InstrumentedClient struct {
	httpClient *http.Client
	settings   clientSettings
	requests   metric.Int64Counter
}

// NewInstrumentedClient builds a client from the given options.
func NewInstrumentedClient(opts ...ClientOption) (Client, error) {
	settings := clientSettings{timeout: 10 * time.Second}
	for _, o := range opts {
		o(&settings)
	}
	if settings.providerName == "" {
		settings.providerName = "default"
	}

	hc := settings.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	if settings.timeout > 0 {
		hc.Timeout = settings.timeout
	}

	base := settings.transport
	if base == nil {
		base = hc.Transport
	}
	if base == nil {
		base = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: 10 * time.Second}).DialContext,
			MaxConnsPerHost: 5,
			IdleConnTimeout: 2 * time.Minute,
		}
	}
	hc.Transport = otelhttp.NewTransport(base,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	mp := settings.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("httpclient",
		metric.WithInstrumentationAttributes(attribute.String("provider", settings.providerName)))
	requests, err := meter.Int64Counter(requestCounterName,
		metric.WithDescription("Outbound HTTP requests by provider and outcome"))
	if err != nil {
		return nil, err
	}

	if settings.tracer == nil {
		settings.tracer = otel.Tracer("httpclient")
	}

	return &InstrumentedClient{
		httpClient: hc,
		settings:   settings,
		requests:   requests,
	}, nil
}

// NewRequest implements Client.
func (c *InstrumentedClient) NewRequest() Request {
	headers := make(map[string]string, len(c.settings.headers))
	for k, v := range c.settings.headers {
		headers[k] = v
	}
	return &requestBuilder{
		httpClient:    c.httpClient,
		requests:      c.requests,
		tracer:        c.settings.tracer,
		providerName:  c.settings.providerName,
		baseURL:       c.settings.baseURL,
		headers:       headers,
		traceRequest:  c.settings.traceRequest,
		traceResponse: c.settings.traceResponse,
	}
}

// Do implements Client.
func (c *InstrumentedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}
