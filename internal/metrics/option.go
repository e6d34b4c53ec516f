package metrics

// Provider identifies a metrics export backend.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otelCollector"
)

// ProviderCfg describes one export backend.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// NewOtelCollectorConfig builds a ProviderCfg for an OTLP gRPC collector.
func NewOtelCollectorConfig(endpoint string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: insecure,
	}
}

// Config aggregates provider settings for NewMetricProvider.
type Config struct {
	ServiceName string
	Providers   []ProviderCfg
}

// OptionFn mutates the metrics Config.
type OptionFn func(Config) Config

// WithServiceName sets the OTEL service name on the exported resource.
func WithServiceName(name string) OptionFn {
	return func(cfg Config) Config {
		cfg.ServiceName = name
		return cfg
	}
}

// WithProviderConfig appends an export backend.
func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(cfg Config) Config {
		cfg.Providers = append(cfg.Providers, provider)
		return cfg
	}
}

// PromServerConfig configures the Prometheus scrape endpoint.
type PromServerConfig struct {
	port string
}

// PromOptionFn mutates the Prometheus server config.
type PromOptionFn func(PromServerConfig) PromServerConfig

// WithPort sets the scrape server port.
func WithPort(port string) PromOptionFn {
	return func(cfg PromServerConfig) PromServerConfig {
		cfg.port = port
		return cfg
	}
}
