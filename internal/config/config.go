// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Detection DetectionConfig `mapstructure:"detection"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// FeedConfig holds market data feed configuration.
type FeedConfig struct {
	Exchange         string        `mapstructure:"exchange"`
	WebSocketURL     string        `mapstructure:"websocket_url"`
	Symbols          []string      `mapstructure:"symbols"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	StaleTimeout     time.Duration `mapstructure:"stale_timeout"`
	BookDepth        int           `mapstructure:"book_depth"`
}

// FeesConfig holds fee schedule configuration.
type FeesConfig struct {
	ScheduleURL     string        `mapstructure:"schedule_url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	DefaultTakerPct float64       `mapstructure:"default_taker_pct"`
	DefaultMakerPct float64       `mapstructure:"default_maker_pct"`
}

// DetectionConfig holds path discovery and profit evaluation settings.
type DetectionConfig struct {
	MinConfidence        float64       `mapstructure:"min_confidence"`
	MaxSpreadRatio       float64       `mapstructure:"max_spread_ratio"`
	MinPairLiquidityUSD  float64       `mapstructure:"min_pair_liquidity_usd"`
	MinProfitRate        float64       `mapstructure:"min_profit_rate"`
	MaxPaths             int           `mapstructure:"max_paths"`
	Timeout              time.Duration `mapstructure:"timeout"`
	ScanInterval         time.Duration `mapstructure:"scan_interval"`
	StartNotional        float64       `mapstructure:"start_notional"`
	DefaultSlippagePct   float64       `mapstructure:"default_slippage_pct"`
	DefaultQuantityRatio float64       `mapstructure:"default_quantity_ratio"`
}

// ExecutionConfig holds trade execution settings.
type ExecutionConfig struct {
	DryRun        bool          `mapstructure:"dry_run"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
	LegTimeout    time.Duration `mapstructure:"leg_timeout"`
	InterLegDelay time.Duration `mapstructure:"inter_leg_delay"`
	CautiousDelay time.Duration `mapstructure:"cautious_delay"`
	MaxBookAge    time.Duration `mapstructure:"max_book_age"`
	OrderRate     float64       `mapstructure:"order_rate"`
	OrderBurst    int           `mapstructure:"order_burst"`
	TUIMode       bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// RiskConfig holds local risk gate thresholds.
type RiskConfig struct {
	MinProfitRate      float64 `mapstructure:"min_profit_rate"`
	MinLiquidityUSD    float64 `mapstructure:"min_liquidity_usd"`
	MaxRiskScore       float64 `mapstructure:"max_risk_score"`
	MaxExpectedSlipPct float64 `mapstructure:"max_expected_slip_pct"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceBackend   string `mapstructure:"trace_backend"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// MinProfitRateDecimal returns the detection profit floor as decimal.Decimal.
func (c *DetectionConfig) MinProfitRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitRate)
}

// StartNotionalDecimal returns the evaluation notional as decimal.Decimal.
func (c *DetectionConfig) StartNotionalDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.StartNotional)
}

// DefaultTakerDecimal returns the fallback taker fee as decimal.Decimal.
func (c *FeesConfig) DefaultTakerDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultTakerPct)
}

// DefaultMakerDecimal returns the fallback maker fee as decimal.Decimal.
func (c *FeesConfig) DefaultMakerDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultMakerPct)
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("TRIARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "TRIARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "TRIARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "TRIARB_LOG_LEVEL", "LOG_LEVEL")

	// Feed
	v.BindEnv("feed.exchange", "TRIARB_FEED_EXCHANGE", "FEED_EXCHANGE")
	v.BindEnv("feed.websocket_url", "TRIARB_FEED_WS_URL", "FEED_WS_URL")
	v.BindEnv("feed.symbols", "TRIARB_FEED_SYMBOLS")

	// Fees
	v.BindEnv("fees.schedule_url", "TRIARB_FEES_URL")

	// Detection
	v.BindEnv("detection.min_profit_rate", "TRIARB_MIN_PROFIT_RATE")
	v.BindEnv("detection.max_paths", "TRIARB_MAX_PATHS")
	v.BindEnv("detection.timeout", "TRIARB_DETECTION_TIMEOUT")

	// Execution
	v.BindEnv("execution.dry_run", "TRIARB_DRY_RUN")
	v.BindEnv("execution.max_concurrent", "TRIARB_MAX_CONCURRENT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "TRIARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "TRIARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_backend", "TRIARB_TRACE_BACKEND")
	v.BindEnv("telemetry.otlp_endpoint", "TRIARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "triarb-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Feed defaults
	v.SetDefault("feed.exchange", "binance")
	v.SetDefault("feed.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("feed.symbols", []string{})
	v.SetDefault("feed.snapshot_interval", "500ms")
	v.SetDefault("feed.stale_timeout", "5s")
	v.SetDefault("feed.book_depth", 20)

	// Fees defaults
	v.SetDefault("fees.schedule_url", "")
	v.SetDefault("fees.refresh_interval", "5m")
	v.SetDefault("fees.default_taker_pct", 0.1)
	v.SetDefault("fees.default_maker_pct", 0.1)

	// Detection defaults
	v.SetDefault("detection.min_confidence", 0.75)
	v.SetDefault("detection.max_spread_ratio", 0.10)
	v.SetDefault("detection.min_pair_liquidity_usd", 100)
	v.SetDefault("detection.min_profit_rate", 0.001)
	v.SetDefault("detection.max_paths", 10)
	v.SetDefault("detection.timeout", "100ms")
	v.SetDefault("detection.scan_interval", "1s")
	v.SetDefault("detection.start_notional", 1000)
	v.SetDefault("detection.default_slippage_pct", 0.2)
	v.SetDefault("detection.default_quantity_ratio", 0.6)

	// Execution defaults
	v.SetDefault("execution.dry_run", true)
	v.SetDefault("execution.max_concurrent", 3)
	v.SetDefault("execution.leg_timeout", "5s")
	v.SetDefault("execution.inter_leg_delay", "50ms")
	v.SetDefault("execution.cautious_delay", "200ms")
	v.SetDefault("execution.max_book_age", "3s")
	v.SetDefault("execution.order_rate", 10)
	v.SetDefault("execution.order_burst", 5)

	// Risk defaults
	v.SetDefault("risk.min_profit_rate", 0.001)
	v.SetDefault("risk.min_liquidity_usd", 200)
	v.SetDefault("risk.max_risk_score", 80)
	v.SetDefault("risk.max_expected_slip_pct", 1.0)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "triarb-engine")
	v.SetDefault("telemetry.trace_backend", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Feed.WebSocketURL == "" {
		return fmt.Errorf("feed.websocket_url is required")
	}
	if c.Detection.MinConfidence <= 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("detection.min_confidence must be in (0, 1]: %v", c.Detection.MinConfidence)
	}
	if c.Detection.MaxPaths <= 0 {
		return fmt.Errorf("detection.max_paths must be positive: %d", c.Detection.MaxPaths)
	}
	if c.Detection.StartNotional <= 0 {
		return fmt.Errorf("detection.start_notional must be positive: %v", c.Detection.StartNotional)
	}
	if c.Execution.MaxConcurrent < 1 {
		return fmt.Errorf("execution.max_concurrent must be at least 1: %d", c.Execution.MaxConcurrent)
	}
	if c.Execution.LegTimeout <= 0 {
		return fmt.Errorf("execution.leg_timeout must be positive: %v", c.Execution.LegTimeout)
	}
	return nil
}
