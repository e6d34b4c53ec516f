package apm

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Provider selects a span export backend. Endpoints and headers come from
// the standard OTEL_EXPORTER_OTLP_* environment variables.
type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "empty"
)

// TraceProvider owns the installed tracer provider's lifecycle.
type TraceProvider interface {
	Stop() error
}

type sdkTraceProvider struct {
	tp *sdktrace.TracerProvider
}

type noopTraceProvider struct{}

func (noopTraceProvider) Stop() error { return nil }

// NewEmptyTraceProvider returns a provider that exports nothing.
func NewEmptyTraceProvider() TraceProvider {
	return noopTraceProvider{}
}

// TracerOptions accumulates the exporter picked by TracerOption values.
type TracerOptions struct {
	exporter sdktrace.SpanExporter
	provider Provider
}

// TracerOption configures NewTraceProvider.
type TracerOption func(*TracerOptions)

// WithProvider builds the exporter for the given backend. An exporter that
// fails to initialize is logged and replaced with the empty provider so a
// broken collector never blocks startup.
func WithProvider(provider Provider, log logger.LoggerInterface) TracerOption {
	return func(opts *TracerOptions) {
		ctx := context.Background()
		var (
			exp sdktrace.SpanExporter
			err error
		)

		switch provider {
		case ZipkinProvider:
			exp, err = zipkin.New(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
		case OTLPGRPCProvider:
			exp, err = otlptracegrpc.New(ctx,
				otlptracegrpc.WithEndpointURL(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
				otlptracegrpc.WithHeaders(otlpHeaders()),
			)
		case OTLPHTTPProvider:
			exp, err = otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
				otlptracehttp.WithHeaders(otlpHeaders()),
			)
		case ConsoleProvider:
			exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		case EmptyProvider:
			opts.provider = EmptyProvider
			return
		default:
			log.Warn(ctx, "unknown trace provider, tracing disabled", "provider", string(provider))
			opts.provider = EmptyProvider
			return
		}

		if err != nil {
			log.Error(ctx, "trace exporter init failed, tracing disabled",
				"provider", string(provider), "error", err)
			opts.provider = EmptyProvider
			return
		}

		opts.exporter = exp
		opts.provider = provider
	}
}

// otlpHeaders parses OTEL_EXPORTER_OTLP_HEADERS as comma-separated
// key=value pairs. Malformed entries are skipped.
func otlpHeaders() map[string]string {
	raw := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")
	if raw == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}

// NewTraceProvider installs a global tracer provider exporting through the
// configured backend. With no options, or when the backend could not be
// built, tracing is a no-op.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	opts := &TracerOptions{provider: EmptyProvider}
	for _, opt := range options {
		opt(opts)
	}
	if opts.exporter == nil {
		return NewEmptyTraceProvider()
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(os.Getenv("OTEL_SERVICE_NAME")),
			attribute.String("otel.provider", string(opts.provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(context.Background(), "tracing enabled", "provider", string(opts.provider))
	return &sdkTraceProvider{tp: tp}
}

// Stop flushes pending spans and shuts the provider down.
func (p *sdkTraceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
