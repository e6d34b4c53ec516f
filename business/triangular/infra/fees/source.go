// Package fees implements the dynamic fee-rate source backed by an HTTP
// fee-schedule service with a static fallback table.
package fees

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/circuitbreaker"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/httpclient"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

const (
	tracerName = "fee-source"

	schedulePath = "/fees/schedule"
	httpTimeout  = 10 * time.Second
)

// Config holds fee source settings.
type Config struct {
	// ScheduleURL is the base URL of the fee-schedule service. Empty
	// disables remote lookup entirely.
	ScheduleURL string

	// RefreshInterval is the cache TTL per exchange.
	RefreshInterval time.Duration

	// DefaultMaker and DefaultTaker are the fallback fractions.
	DefaultMaker fixedpoint.Value
	DefaultTaker fixedpoint.Value
}

// DefaultConfig returns the standard fee source settings.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 5 * time.Minute,
		DefaultMaker:    fixedpoint.MustFromString("0.001"),
		DefaultTaker:    fixedpoint.MustFromString("0.001"),
	}
}

// scheduleResponse is the fee-schedule service payload.
type scheduleResponse struct {
	Exchange string `json:"exchange"`
	Maker    string `json:"maker"`
	Taker    string `json:"taker"`
}

type cacheEntry struct {
	rates app.FeeRates
	at    time.Time
}

// Source implements app.FeeSource with a TTL cache in front of the remote
// schedule and a breaker around the HTTP call.
type Source struct {
	cfg     Config
	client  httpclient.Client
	breaker *circuitbreaker.CircuitBreaker[app.FeeRates]
	logger  logger.LoggerInterface
	tracer  trace.Tracer

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewSource creates a fee source.
func NewSource(cfg Config, log logger.LoggerInterface) (*Source, error) {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if cfg.DefaultTaker.IsZero() {
		cfg.DefaultTaker = fixedpoint.MustFromString("0.001")
	}

	s := &Source{
		cfg:     cfg,
		breaker: circuitbreaker.New[app.FeeRates](circuitbreaker.DefaultConfig("fee-schedule")),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		cache:   make(map[string]cacheEntry),
	}

	if cfg.ScheduleURL != "" {
		client, err := httpclient.NewInstrumentedClient(
			httpclient.WithProviderName("fee-schedule"),
			httpclient.WithBaseURL(cfg.ScheduleURL),
			httpclient.WithRequestTimeout(httpTimeout),
			httpclient.WithTraceOptions(s.tracer, httpclient.TraceRequest, httpclient.TraceResponse),
			httpclient.WithHeaders(map[string]string{
				"Accept": "application/json",
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		s.client = client
	}

	return s, nil
}

// Rates implements app.FeeSource. Remote failures fall back to the static
// defaults rather than propagating.
func (s *Source) Rates(ctx context.Context, exchange string) (app.FeeRates, error) {
	s.mu.RLock()
	entry, ok := s.cache[exchange]
	s.mu.RUnlock()
	if ok && time.Since(entry.at) < s.cfg.RefreshInterval {
		return entry.rates, nil
	}

	if s.client == nil {
		return s.static(), nil
	}

	rates, err := s.breaker.Execute(func() (app.FeeRates, error) {
		return s.fetch(ctx, exchange)
	})
	if err != nil {
		s.logger.Debug(ctx, "fee schedule lookup failed, using static rates",
			"exchange", exchange, "error", err)
		return s.static(), nil
	}

	s.mu.Lock()
	s.cache[exchange] = cacheEntry{rates: rates, at: time.Now()}
	s.mu.Unlock()
	return rates, nil
}

func (s *Source) fetch(ctx context.Context, exchange string) (app.FeeRates, error) {
	ctx, span := s.tracer.Start(ctx, "fees.fetch_schedule",
		trace.WithAttributes(attribute.String("exchange", exchange)))
	defer span.End()

	var payload scheduleResponse
	resp, err := s.client.NewRequest().
		SetQueryParam("exchange", exchange).
		SetResult(&payload).
		Get(ctx, schedulePath)
	if err != nil {
		return app.FeeRates{}, apperror.External(apperror.CodeFeeQueryFailed, "fee-schedule", err)
	}
	if resp.IsError() {
		return app.FeeRates{}, apperror.New(apperror.CodeFeeQueryFailed,
			apperror.WithContext(fmt.Sprintf("fee schedule returned status %d", resp.StatusCode)))
	}

	maker, err := decimal.NewFromString(payload.Maker)
	if err != nil {
		return app.FeeRates{}, apperror.Wrap(err, apperror.CodeFeeQueryFailed, "parse maker rate")
	}
	taker, err := decimal.NewFromString(payload.Taker)
	if err != nil {
		return app.FeeRates{}, apperror.Wrap(err, apperror.CodeFeeQueryFailed, "parse taker rate")
	}

	return app.FeeRates{
		Maker: fixedpoint.FromDecimal(maker),
		Taker: fixedpoint.FromDecimal(taker),
	}, nil
}

func (s *Source) static() app.FeeRates {
	return app.FeeRates{
		Maker: s.cfg.DefaultMaker,
		Taker: s.cfg.DefaultTaker,
	}
}
