// Package metrics wires the OTEL meter provider and the Prometheus scrape
// endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// MetricProvider is the subset of the SDK meter provider the app depends on.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider builds a meter provider from the configured backends,
// installs it as the global OTEL provider and returns it. A backend that
// fails to initialize is skipped; with no usable backend the provider simply
// exports nothing.
func NewMetricProvider(options ...OptionFn) MetricProvider {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}

	ctx := context.Background()
	sdkOpts := []sdkmetric.Option{
		sdkmetric.WithResource(resource.NewSchemaless(
			semconv.ServiceNameKey.String(serviceName(cfg)),
		)),
	}
	for _, reader := range buildReaders(ctx, cfg) {
		sdkOpts = append(sdkOpts, sdkmetric.WithReader(reader))
	}

	provider := sdkmetric.NewMeterProvider(sdkOpts...)
	otel.SetMeterProvider(provider)
	return provider
}

func serviceName(cfg Config) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return os.Getenv("OTEL_SERVICE_NAME")
}

func buildReaders(ctx context.Context, cfg Config) []sdkmetric.Reader {
	var readers []sdkmetric.Reader
	for _, p := range cfg.Providers {
		switch p.Provider {
		case PrometheusProvider:
			exporter, err := prometheus.New()
			if err != nil {
				fmt.Fprintf(os.Stderr, "metrics: prometheus exporter: %v\n", err)
				continue
			}
			readers = append(readers, exporter)

		case OtelCollector:
			grpcOpts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(p.Endpoint),
				otlpmetricgrpc.WithHeaders(p.Headers),
			}
			if p.Insecure {
				grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
			}
			exporter, err := otlpmetricgrpc.New(ctx, grpcOpts...)
			if err != nil {
				fmt.Fprintf(os.Stderr, "metrics: otlp exporter: %v\n", err)
				continue
			}
			readers = append(readers, sdkmetric.NewPeriodicReader(exporter))
		}
	}
	return readers
}

// ServePrometheusMetrics blocks serving /metrics on the configured port.
func ServePrometheusMetrics(opts ...PromOptionFn) {
	cfg := PromServerConfig{port: "2223"}
	for _, o := range opts {
		cfg = o(cfg)
	}

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           promHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "metrics: serve: %v\n", err)
	}
}

func promHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
