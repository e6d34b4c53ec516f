package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	marketApp "github.com/ming198921/taoli5.1-sub000/business/market/app"
	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

const (
	tracerName = "triangular-engine"
	meterName  = "triangular-engine"

	// StrategyName is the registry key for the triangular engine.
	StrategyName = "triangular"
)

// EngineConfig holds detection cycle settings.
type EngineConfig struct {
	// Exchange restricts discovery to one exchange; empty searches all.
	Exchange string

	// Timeout bounds one detection cycle.
	Timeout time.Duration

	// Graph holds the quality filters applied on every rebuild.
	Graph marketApp.GraphConfig
}

// DefaultEngineConfig returns the standard detection settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Timeout: 100 * time.Millisecond,
		Graph:   marketApp.DefaultGraphConfig(),
	}
}

// engineMetrics holds OTEL metric instruments.
type engineMetrics struct {
	cyclesRun     metric.Int64Counter
	cycleTimeouts metric.Int64Counter
	pathsFound    metric.Int64Counter
	opportunities metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// Engine is the triangular strategy: one detection cycle builds a fresh
// graph from the latest snapshot batch, discovers profitable cycles, gates
// them and surfaces the best survivor.
type Engine struct {
	cfg         EngineConfig
	resolver    *marketApp.SymbolResolver
	freqs       *marketApp.QuoteFrequencies
	finder      *PathFinder
	gate        *RiskGate
	coordinator *Coordinator
	assessor    RiskAssessor
	log         logger.LoggerInterface

	tracer  trace.Tracer
	metrics *engineMetrics

	cycleCount uint64
	pathCount  uint64
}

// NewEngine creates the triangular strategy engine.
func NewEngine(
	cfg EngineConfig,
	resolver *marketApp.SymbolResolver,
	freqs *marketApp.QuoteFrequencies,
	finder *PathFinder,
	gate *RiskGate,
	coordinator *Coordinator,
	assessor RiskAssessor,
	log logger.LoggerInterface,
) (*Engine, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 100 * time.Millisecond
	}

	e := &Engine{
		cfg:         cfg,
		resolver:    resolver,
		freqs:       freqs,
		finder:      finder,
		gate:        gate,
		coordinator: coordinator,
		assessor:    assessor,
		log:         log,
		tracer:      otel.Tracer(tracerName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.cyclesRun, err = meter.Int64Counter("detection.cycles.run",
		metric.WithDescription("Detection cycles started"))
	if err != nil {
		return err
	}

	e.metrics.cycleTimeouts, err = meter.Int64Counter("detection.cycles.timeout",
		metric.WithDescription("Detection cycles abandoned on timeout"))
	if err != nil {
		return err
	}

	e.metrics.pathsFound, err = meter.Int64Counter("detection.paths.found",
		metric.WithDescription("Profitable paths discovered"))
	if err != nil {
		return err
	}

	e.metrics.opportunities, err = meter.Int64Counter("detection.opportunities",
		metric.WithDescription("Opportunities surviving the risk gate"))
	if err != nil {
		return err
	}

	e.metrics.cycleDuration, err = meter.Float64Histogram("detection.cycle.duration",
		metric.WithDescription("Detection cycle duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return err
	}

	return nil
}

// Name implements Strategy.
func (e *Engine) Name() string { return StrategyName }

// Detect implements Strategy. It races one detection cycle against the
// configured timeout; on expiry the in-flight cycle is abandoned and nil is
// returned with no error.
func (e *Engine) Detect(ctx context.Context, snapshots []marketDomain.Snapshot) (*domain.Opportunity, error) {
	ctx, span := e.tracer.Start(ctx, "engine.detect",
		trace.WithAttributes(attribute.Int("snapshots", len(snapshots))))
	defer span.End()

	started := time.Now()
	e.metrics.cyclesRun.Add(ctx, 1)
	atomic.AddUint64(&e.cycleCount, 1)

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		opp *domain.Opportunity
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		opp, err := e.detectCycle(cycleCtx, snapshots)
		done <- outcome{opp: opp, err: err}
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		e.metrics.cycleDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000)
		if out.err != nil {
			return nil, out.err
		}
		if out.opp != nil {
			e.metrics.opportunities.Add(ctx, 1)
		}
		return out.opp, nil
	case <-timer.C:
		cancel()
		e.metrics.cycleTimeouts.Add(ctx, 1)
		e.log.Warn(ctx, "detection cycle timed out",
			"timeout", e.cfg.Timeout, "snapshots", len(snapshots))
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// detectCycle runs one full graph-build/discover/gate pass over a private
// graph instance.
func (e *Engine) detectCycle(ctx context.Context, snapshots []marketDomain.Snapshot) (*domain.Opportunity, error) {
	graph, err := marketApp.BuildGraph(snapshots, e.resolver, e.freqs, e.cfg.Graph, e.log)
	if err != nil {
		return nil, err
	}

	paths := e.finder.Discover(ctx, graph, e.cfg.Exchange)
	if len(paths) == 0 {
		return nil, nil
	}
	e.metrics.pathsFound.Add(ctx, int64(len(paths)))
	atomic.AddUint64(&e.pathCount, uint64(len(paths)))

	for _, path := range paths {
		ok, reason := e.gate.Accepts(ctx, path)
		if !ok {
			e.recordRejection(ctx, path, reason)
			continue
		}
		opp := domain.NewOpportunity(path)
		e.log.Info(ctx, "opportunity detected",
			"opportunity_id", opp.ID, "route", path.Route(),
			"profit_bps", path.ProfitBps(), "risk_score", path.RiskScore)
		return opp, nil
	}
	return nil, nil
}

// recordRejection feeds a gated-out path back to the assessor as a
// non-execution.
func (e *Engine) recordRejection(ctx context.Context, path *domain.TriangularPath, reason string) {
	if e.assessor == nil {
		return
	}
	e.assessor.RecordOutcome(ctx, domain.ExecutionRecord{
		PathSignature:      path.Signature(),
		Exchange:           path.Exchange,
		Accepted:           false,
		ExpectedProfitRate: path.NetProfitRate,
		FailureReason:      reason,
		At:                 time.Now(),
	})
}

// Counters returns the running cycle and path totals.
func (e *Engine) Counters() (cycles, paths uint64) {
	return atomic.LoadUint64(&e.cycleCount), atomic.LoadUint64(&e.pathCount)
}

// Execute implements Strategy.
func (e *Engine) Execute(ctx context.Context, opp *domain.Opportunity) (*domain.ExecutionResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.execute",
		trace.WithAttributes(attribute.String("opportunity_id", opp.ID)))
	defer span.End()

	return e.coordinator.Execute(ctx, opp)
}
