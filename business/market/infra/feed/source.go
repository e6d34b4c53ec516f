package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"github.com/ming198921/taoli5.1-sub000/internal/wsconn"
)

const (
	tracerName = "market-feed"
	meterName  = "market-feed"
)

// Config holds market data feed configuration.
type Config struct {
	Exchange         string
	WebSocketURL     string
	Symbols          []string // empty = all-market book ticker stream
	SnapshotInterval time.Duration
	StaleTimeout     time.Duration
}

// sourceMetrics holds OTEL metric instruments.
type sourceMetrics struct {
	messagesReceived metric.Int64Counter
	parseErrors      metric.Int64Counter
	batchesEmitted   metric.Int64Counter
	batchSize        metric.Int64Histogram
}

// Source subscribes to a best bid/ask stream and emits normalized snapshot
// batches on a fixed cadence.
type Source struct {
	config Config
	logger logger.LoggerInterface

	conn *wsconn.Client

	mu     sync.RWMutex
	latest map[string]domain.Snapshot

	out    chan []domain.Snapshot
	nextID atomic.Int64

	tracer  trace.Tracer
	metrics *sourceMetrics

	running atomic.Bool
	done    chan struct{}
}

// NewSource creates a feed source.
func NewSource(cfg Config, log logger.LoggerInterface) (*Source, error) {
	if cfg.WebSocketURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("feed websocket url is required"))
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 500 * time.Millisecond
	}

	s := &Source{
		config: cfg,
		logger: log,
		latest: make(map[string]domain.Snapshot),
		out:    make(chan []domain.Snapshot, 4),
		tracer: otel.Tracer(tracerName),
		done:   make(chan struct{}),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Source) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &sourceMetrics{}

	s.metrics.messagesReceived, err = meter.Int64Counter("feed.messages.received",
		metric.WithDescription("Stream messages received"))
	if err != nil {
		return err
	}

	s.metrics.parseErrors, err = meter.Int64Counter("feed.parse.errors",
		metric.WithDescription("Ticker messages that failed to parse"))
	if err != nil {
		return err
	}

	s.metrics.batchesEmitted, err = meter.Int64Counter("feed.batches.emitted",
		metric.WithDescription("Snapshot batches emitted"))
	if err != nil {
		return err
	}

	s.metrics.batchSize, err = meter.Int64Histogram("feed.batch.size",
		metric.WithDescription("Snapshots per emitted batch"))
	if err != nil {
		return err
	}

	return nil
}

// Connect dials the stream and starts batch emission.
func (s *Source) Connect(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	wsCfg := wsconn.DefaultConfig(s.streamURL(), s.config.Exchange+"-feed")
	conn, err := wsconn.New(wsCfg)
	if err != nil {
		s.running.Store(false)
		return apperror.External(apperror.CodeExchangeConnectionFailed, s.config.Exchange, err)
	}

	conn.OnMessage(s.onMessage)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			s.logger.Warn(context.Background(), "feed connection state change",
				"exchange", s.config.Exchange, "state", string(state), "error", err)
			return
		}
		s.logger.Info(context.Background(), "feed connection state change",
			"exchange", s.config.Exchange, "state", string(state))
	})

	if err := conn.Connect(ctx); err != nil {
		s.running.Store(false)
		return apperror.External(apperror.CodeExchangeConnectionFailed, s.config.Exchange, err)
	}
	s.conn = conn

	// Combined-stream URLs carry the subscription; the single /ws endpoint
	// needs an explicit SUBSCRIBE message.
	if len(s.config.Symbols) == 0 {
		req := WSRequest{
			Method: subscribeMethod,
			Params: []string{AllBookTickerStream},
			ID:     s.nextID.Add(1),
		}
		if err := conn.SendJSON(ctx, req); err != nil {
			return apperror.External(apperror.CodeWebSocketSendError, s.config.Exchange, err)
		}
	}

	go s.emitLoop()

	s.logger.Info(ctx, "market feed connected",
		"exchange", s.config.Exchange, "symbols", len(s.config.Symbols))
	return nil
}

// streamURL builds the endpoint: a combined stream when symbols are pinned,
// the raw /ws endpoint otherwise.
func (s *Source) streamURL() string {
	base := strings.TrimRight(s.config.WebSocketURL, "/")
	if len(s.config.Symbols) == 0 {
		return base + "/ws"
	}
	streams := make([]string, 0, len(s.config.Symbols))
	for _, sym := range s.config.Symbols {
		streams = append(streams, BookTickerStream(sym))
	}
	return base + "/stream?streams=" + strings.Join(streams, "/")
}

func (s *Source) onMessage(ctx context.Context, msg []byte) {
	s.metrics.messagesReceived.Add(ctx, 1)

	payload := msg
	var wrapper StreamEvent
	if err := json.Unmarshal(msg, &wrapper); err == nil && len(wrapper.Data) > 0 {
		payload = wrapper.Data
	}

	var event BookTickerEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.Symbol == "" {
		return
	}

	snap, err := s.toSnapshot(&event)
	if err != nil {
		s.metrics.parseErrors.Add(ctx, 1)
		s.logger.Debug(ctx, "dropping unparseable ticker",
			"symbol", event.Symbol, "error", err)
		return
	}

	s.mu.Lock()
	s.latest[snap.Symbol] = snap
	s.mu.Unlock()
}

func (s *Source) toSnapshot(e *BookTickerEvent) (domain.Snapshot, error) {
	top, err := e.TopOfBook()
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Exchange: s.config.Exchange,
		Symbol:   e.Symbol,
		BidPrice: fixedpoint.FromDecimal(top.BidPrice),
		BidQty:   fixedpoint.FromDecimal(top.BidQty),
		AskPrice: fixedpoint.FromDecimal(top.AskPrice),
		AskQty:   fixedpoint.FromDecimal(top.AskQty),
		Ts:       time.Now(),
	}, nil
}

// emitLoop flushes the latest snapshots as a batch on each tick. Stale
// entries are dropped rather than forwarded.
func (s *Source) emitLoop() {
	ticker := time.NewTicker(s.config.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			batch := s.collect()
			if len(batch) == 0 {
				continue
			}

			ctx := context.Background()
			s.metrics.batchesEmitted.Add(ctx, 1)
			s.metrics.batchSize.Record(ctx, int64(len(batch)))

			select {
			case s.out <- batch:
			default:
				s.logger.Warn(ctx, "snapshot consumer lagging, dropping batch",
					"batch_size", len(batch))
			}
		}
	}
}

func (s *Source) collect() []domain.Snapshot {
	now := time.Now()

	s.mu.Lock()
	batch := make([]domain.Snapshot, 0, len(s.latest))
	for sym, snap := range s.latest {
		if s.config.StaleTimeout > 0 && snap.Age(now) > s.config.StaleTimeout {
			delete(s.latest, sym)
			continue
		}
		batch = append(batch, snap)
	}
	s.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Symbol < batch[j].Symbol })
	return batch
}

// Snapshots returns the batch output channel.
func (s *Source) Snapshots() <-chan []domain.Snapshot {
	return s.out
}

// IsConnected reports whether the underlying stream is connected.
func (s *Source) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Close stops emission and closes the stream.
func (s *Source) Close() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.done)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
