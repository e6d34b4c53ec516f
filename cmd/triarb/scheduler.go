package main

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/market/infra/feed"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra/paper"
	"github.com/ming198921/taoli5.1-sub000/internal/apm"
	"github.com/ming198921/taoli5.1-sub000/internal/config"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"github.com/ming198921/taoli5.1-sub000/pkg/ui"
)

// statsInterval throttles the periodic stats report in CLI mode.
const statsInterval = 10 * time.Second

type schedulerDeps struct {
	cfg      *config.Config
	feed     *feed.Source
	venue    *paper.Venue
	registry *app.Registry
	engine   *app.Engine
	reporter app.Reporter
	log      logger.LoggerInterface
	tuiMode  bool
}

// scheduler drives the detection loop: each snapshot batch from the feed
// refreshes the simulated venue, runs every registered strategy and pushes
// accepted opportunities into bounded concurrent execution.
type scheduler struct {
	schedulerDeps

	sem    *semaphore.Weighted
	tracer apm.Tracer

	mu            sync.Mutex
	opportunities uint64
	executions    uint64
	rollbacks     uint64
	cumProfit     fixedpoint.Value
	lastCycle     time.Duration
	lastStatsAt   time.Time
	prevPaths     uint64
}

func newScheduler(deps schedulerDeps) *scheduler {
	maxConcurrent := deps.cfg.Execution.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &scheduler{
		schedulerDeps: deps,
		sem:           semaphore.NewWeighted(maxConcurrent),
		tracer:        apm.NewTracer("scheduler"),
		cumProfit:     fixedpoint.Zero(),
	}
}

// run consumes snapshot batches until the context is cancelled or the feed
// channel closes.
func (s *scheduler) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scheduler shutting down")
			return s.reporter.Stop()
		case batch, ok := <-s.feed.Snapshots():
			if !ok {
				s.log.Warn(ctx, "snapshot feed closed")
				return s.reporter.Stop()
			}
			s.cycle(ctx, batch)
		}
	}
}

func (s *scheduler) cycle(ctx context.Context, batch []marketDomain.Snapshot) {
	if len(batch) == 0 {
		return
	}
	started := time.Now()

	ctx, span := s.tracer.StartSpanFromContext(ctx, "scheduler.cycle")
	span.SetAttributes(attribute.Int("snapshots", len(batch)))
	defer span.End()

	s.venue.UpdateBooks(batch)

	for _, name := range s.registry.List() {
		strat, ok := s.registry.Get(name)
		if !ok {
			continue
		}

		opp, err := strat.Detect(ctx, batch)
		if err != nil {
			s.log.Error(ctx, "detection failed", "strategy", name, "error", err)
			if s.tuiMode {
				ui.Send(ui.ErrorMsg{Error: err})
			}
			continue
		}
		if opp == nil {
			continue
		}

		s.mu.Lock()
		s.opportunities++
		s.mu.Unlock()
		s.reporter.Report(opp)

		if !s.sem.TryAcquire(1) {
			s.log.Warn(ctx, "execution slots saturated, dropping opportunity",
				"opportunity_id", opp.ID)
			continue
		}
		go s.execute(ctx, strat, opp)
	}

	elapsed := time.Since(started)
	_, totalPaths := s.engine.Counters()

	s.mu.Lock()
	s.lastCycle = elapsed
	cyclePaths := totalPaths - s.prevPaths
	s.prevPaths = totalPaths
	s.mu.Unlock()

	if s.tuiMode {
		ui.Send(ui.CycleMsg{
			Snapshots: len(batch),
			Paths:     int(cyclePaths),
			Duration:  elapsed,
		})
		ui.Send(ui.ConnectionStatusMsg{
			Name:      s.cfg.Feed.Exchange,
			Connected: s.feed.IsConnected(),
		})
	}

	s.maybeReportStats()
}

func (s *scheduler) execute(ctx context.Context, strat app.Strategy, opp *domain.Opportunity) {
	defer s.sem.Release(1)

	ctx, span := s.tracer.StartSpanFromContext(ctx, "scheduler.execute")
	span.SetAttributes(attribute.String("opportunity_id", opp.ID))
	defer span.End()

	result, err := strat.Execute(ctx, opp)
	if err != nil {
		span.NoticeError(err)
		s.log.Error(ctx, "execution failed", "opportunity_id", opp.ID, "error", err)
		if s.tuiMode {
			ui.Send(ui.ErrorMsg{Error: err})
		}
		return
	}
	if result == nil {
		return
	}

	s.mu.Lock()
	s.executions++
	s.rollbacks += uint64(len(result.Rollbacks))
	if result.Accepted {
		s.cumProfit = s.cumProfit.Add(result.RealizedProfit)
	}
	s.mu.Unlock()

	s.reporter.ReportExecution(result)
}

// maybeReportStats pushes aggregate counters: every cycle in TUI mode,
// throttled in CLI mode.
func (s *scheduler) maybeReportStats() {
	s.mu.Lock()
	now := time.Now()
	if !s.tuiMode && now.Sub(s.lastStatsAt) < statsInterval {
		s.mu.Unlock()
		return
	}
	s.lastStatsAt = now

	cycles, paths := s.engine.Counters()
	stats := app.Stats{
		CyclesRun:         cycles,
		PathsEvaluated:    paths,
		Opportunities:     s.opportunities,
		Executions:        s.executions,
		Rollbacks:         s.rollbacks,
		CumulativeProfit:  s.cumProfit,
		LastCycleDuration: s.lastCycle,
	}
	s.mu.Unlock()

	s.reporter.UpdateStats(stats)
}
