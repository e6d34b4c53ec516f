package app

import (
	"context"
	"sync"
	"testing"
	"time"

	marketApp "github.com/ming198921/taoli5.1-sub000/business/market/app"
	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// slowAssessor blocks inside Assess to simulate a stalled dependency.
type slowAssessor struct {
	delay time.Duration
}

func (a slowAssessor) Assess(ctx context.Context, path *domain.TriangularPath) (RiskVerdict, error) {
	select {
	case <-ctx.Done():
		return RiskVerdict{}, ctx.Err()
	case <-time.After(a.delay):
	}
	return RiskVerdict{Passes: true}, nil
}

func (a slowAssessor) RecordOutcome(ctx context.Context, record domain.ExecutionRecord) {}

// rejectingAssessor fails every path and records the feedback it receives.
type rejectingAssessor struct {
	mu      sync.Mutex
	records []domain.ExecutionRecord
}

func (a *rejectingAssessor) Assess(ctx context.Context, path *domain.TriangularPath) (RiskVerdict, error) {
	return RiskVerdict{Passes: false, Score: 99, Reason: "rejected for testing"}, nil
}

func (a *rejectingAssessor) RecordOutcome(ctx context.Context, record domain.ExecutionRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
}

func newTestEngine(t *testing.T, assessor RiskAssessor) *Engine {
	t.Helper()

	log := testLogger()
	freqs := marketApp.NewQuoteFrequencies()
	resolver := marketApp.NewSymbolResolver(marketApp.DefaultResolverConfig(), freqs, log)
	calc := NewCalculator(DefaultCalculatorConfig(), stubFees{taker: fixedpoint.Zero()}, stubDepth{}, log)
	finder := NewPathFinder(DefaultPathFinderConfig(), calc, log)
	gate := NewRiskGate(DefaultRiskGateConfig(), assessor, log)
	coord := NewCoordinator(quickCoordinatorConfig(), newScriptedVenue(-1), stubDepth{slip: 0.0001}, assessor, log)

	cfg := DefaultEngineConfig()
	cfg.Exchange = "binance"
	cfg.Timeout = 2 * time.Second

	engine, err := NewEngine(cfg, resolver, freqs, finder, gate, coord, assessor, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func profitableBatch() []marketDomain.Snapshot {
	return []marketDomain.Snapshot{
		makeSnapshot("AAABBB", "1.02", "1.03"),
		makeSnapshot("BBBCCC", "0.99", "1.00"),
		makeSnapshot("CCCAAA", "1.00", "1.01"),
	}
}

func TestEngineDetectSurfacesOpportunity(t *testing.T) {
	engine := newTestEngine(t, &spyAssessor{})

	opp, err := engine.Detect(context.Background(), profitableBatch())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if opp == nil {
		t.Fatal("Detect returned no opportunity for a profitable batch")
	}
	if opp.ID == "" {
		t.Error("opportunity has no ID")
	}
	if !opp.Path.NetProfitRate.Equal(fixedpoint.MustFromString("0.0098")) {
		t.Errorf("NetProfitRate = %s, want 0.0098", opp.Path.NetProfitRate)
	}

	cycles, paths := engine.Counters()
	if cycles != 1 || paths != 1 {
		t.Errorf("Counters = %d cycles, %d paths, want 1 each", cycles, paths)
	}
	if engine.Name() != StrategyName {
		t.Errorf("Name = %q", engine.Name())
	}
}

func TestEngineDetectNoEdge(t *testing.T) {
	engine := newTestEngine(t, &spyAssessor{})

	// The cycle loses money in both directions.
	batch := []marketDomain.Snapshot{
		makeSnapshot("AAABBB", "0.98", "0.99"),
		makeSnapshot("BBBCCC", "0.99", "1.00"),
		makeSnapshot("CCCAAA", "1.00", "1.01"),
	}

	opp, err := engine.Detect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if opp != nil {
		t.Fatalf("Detect surfaced an opportunity with rate %s", opp.Path.NetProfitRate)
	}

	cycles, paths := engine.Counters()
	if cycles != 1 || paths != 0 {
		t.Errorf("Counters = %d cycles, %d paths, want 1 and 0", cycles, paths)
	}
}

func TestEngineDetectFeedsRejectionsBack(t *testing.T) {
	assessor := &rejectingAssessor{}
	engine := newTestEngine(t, assessor)

	opp, err := engine.Detect(context.Background(), profitableBatch())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if opp != nil {
		t.Fatal("Detect surfaced an opportunity past a rejecting gate")
	}

	assessor.mu.Lock()
	defer assessor.mu.Unlock()
	if len(assessor.records) != 1 {
		t.Fatalf("records = %d, want the gated path fed back once", len(assessor.records))
	}
	if assessor.records[0].Accepted {
		t.Error("rejection recorded as accepted")
	}
	if assessor.records[0].FailureReason != "rejected for testing" {
		t.Errorf("FailureReason = %q", assessor.records[0].FailureReason)
	}
}

func TestEngineDetectTimeout(t *testing.T) {
	engine := newTestEngine(t, slowAssessor{delay: 500 * time.Millisecond})
	engine.cfg.Timeout = 20 * time.Millisecond

	opp, err := engine.Detect(context.Background(), profitableBatch())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if opp != nil {
		t.Fatal("Detect returned an opportunity past its deadline")
	}
}

func TestEngineExecuteDelegatesToCoordinator(t *testing.T) {
	engine := newTestEngine(t, &spyAssessor{})

	result, err := engine.Execute(context.Background(), fixtureOpportunity())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("Accepted = false, reason %q", result.FailureReason)
	}
	if result.FinalState.Phase != domain.PhaseCompleted {
		t.Errorf("FinalState = %s", result.FinalState)
	}
}
