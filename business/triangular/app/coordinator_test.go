package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// scriptedVenue fills every order at its limit price, except the leg index
// configured to fail.
type scriptedVenue struct {
	mu       sync.Mutex
	failLeg  int // -1 never fails
	placed   []domain.LegOrder
	reversed []domain.LegOrder
	canceled []string
}

func newScriptedVenue(failLeg int) *scriptedVenue {
	return &scriptedVenue{failLeg: failLeg}
}

func (v *scriptedVenue) FetchBook(ctx context.Context, exchange, symbol string) (*marketDomain.OrderBook, error) {
	switch symbol {
	case "AAABBB":
		return makeBook(symbol, "1.02", "1.03"), nil
	case "BBBCCC":
		return makeBook(symbol, "0.99", "1.00"), nil
	case "CCCAAA":
		return makeBook(symbol, "1.00", "1.01"), nil
	}
	return nil, apperror.NotFound(apperror.CodeOrderbookFetchFailed, symbol)
}

func (v *scriptedVenue) PlaceOrder(ctx context.Context, order domain.LegOrder) (domain.LegFill, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	leg := len(v.placed)
	v.placed = append(v.placed, order)

	if leg == v.failLeg {
		return domain.LegFill{}, apperror.New(apperror.CodeOrderRejected,
			apperror.WithContext("scripted failure"))
	}
	return domain.LegFill{
		OrderID:     "ord-" + order.Symbol,
		ExecutedQty: order.Quantity,
		AvgPrice:    order.Price,
		Fee:         fixedpoint.Zero(),
		FullyFilled: true,
	}, nil
}

func (v *scriptedVenue) CancelOrder(ctx context.Context, exchange, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.canceled = append(v.canceled, orderID)
	return nil
}

func (v *scriptedVenue) ReverseOrder(ctx context.Context, order domain.LegOrder, fill domain.LegFill) (domain.LegFill, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reversed = append(v.reversed, order)
	return domain.LegFill{OrderID: "rev-" + order.Symbol, ExecutedQty: fill.ExecutedQty, AvgPrice: fill.AvgPrice}, nil
}

// legDepth scripts the depth report per symbol. Symbols without an entry
// fail analysis and take the coordinator's penalty estimate.
type legDepth struct {
	reports map[string]DepthReport
}

func (d legDepth) Analyze(ctx context.Context, book *marketDomain.OrderBook, side marketDomain.Side, quantity fixedpoint.Value) (DepthReport, error) {
	report, ok := d.reports[book.Symbol]
	if !ok {
		return DepthReport{}, context.DeadlineExceeded
	}
	report.MaxQuantity = quantity
	return report, nil
}

// spyAssessor records outcomes and passes everything.
type spyAssessor struct {
	mu      sync.Mutex
	records []domain.ExecutionRecord
}

func (s *spyAssessor) Assess(ctx context.Context, path *domain.TriangularPath) (RiskVerdict, error) {
	return RiskVerdict{Passes: true}, nil
}

func (s *spyAssessor) RecordOutcome(ctx context.Context, record domain.ExecutionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

func fixturePath() *domain.TriangularPath {
	return &domain.TriangularPath{
		Currencies:   [3]string{"AAA", "BBB", "CCC"},
		TradingPairs: [3]string{"AAABBB", "BBBCCC", "CCCAAA"},
		Directions:   [3]marketDomain.Side{marketDomain.SideSell, marketDomain.SideSell, marketDomain.SideSell},
		Prices: [3]fixedpoint.Value{
			fixedpoint.MustFromString("1.02"),
			fixedpoint.MustFromString("0.99"),
			fixedpoint.One(),
		},
		Quantities: [3]fixedpoint.Value{
			fixedpoint.FromInt64(1000),
			fixedpoint.FromInt64(1020),
			fixedpoint.MustFromString("1009.8"),
		},
		NetProfitRate:     fixedpoint.MustFromString("0.0098"),
		MaxTradableVolume: fixedpoint.FromInt64(1000),
		Exchange:          "binance",
		RiskScore:         20,
	}
}

func fixtureOpportunity() *domain.Opportunity {
	return &domain.Opportunity{
		ID:         "opp-test",
		Path:       fixturePath(),
		DetectedAt: time.Now(),
	}
}

func quickCoordinatorConfig() CoordinatorConfig {
	cfg := DefaultCoordinatorConfig()
	cfg.InterLegDelay = time.Millisecond
	cfg.CautiousDelay = time.Millisecond
	return cfg
}

func TestCoordinatorExecuteAllLegsFill(t *testing.T) {
	venue := newScriptedVenue(-1)
	assessor := &spyAssessor{}
	coord := NewCoordinator(quickCoordinatorConfig(), venue, stubDepth{slip: 0.0001}, assessor, testLogger())

	result, err := coord.Execute(context.Background(), fixtureOpportunity())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !result.Accepted {
		t.Fatalf("Accepted = false, reason %q", result.FailureReason)
	}
	if result.FinalState.Phase != domain.PhaseCompleted {
		t.Errorf("FinalState = %s, want completed", result.FinalState)
	}
	if len(result.OrderIDs) != 3 || len(result.Legs) != 3 {
		t.Errorf("got %d orders and %d legs, want 3 each", len(result.OrderIDs), len(result.Legs))
	}
	if len(result.Rollbacks) != 0 {
		t.Errorf("Rollbacks = %d, want 0", len(result.Rollbacks))
	}
	if !result.ExecutedQuantity.Equal(fixedpoint.FromInt64(1000)) {
		t.Errorf("ExecutedQuantity = %s, want 1000", result.ExecutedQuantity)
	}

	// Fills at the quoted prices with zero fees replay to the full edge:
	// 1000 -> 1020 -> 1009.8 -> 1009.8.
	want := fixedpoint.MustFromString("9.8")
	if !result.RealizedProfit.Equal(want) {
		t.Errorf("RealizedProfit = %s, want %s", result.RealizedProfit, want)
	}

	if len(assessor.records) != 1 || !assessor.records[0].Accepted {
		t.Errorf("assessor records = %+v, want one accepted outcome", assessor.records)
	}
}

func TestCoordinatorExecuteSecondLegFails(t *testing.T) {
	venue := newScriptedVenue(1)
	assessor := &spyAssessor{}
	coord := NewCoordinator(quickCoordinatorConfig(), venue, stubDepth{slip: 0.0001}, assessor, testLogger())

	result, err := coord.Execute(context.Background(), fixtureOpportunity())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Accepted {
		t.Fatal("Accepted = true for a failed execution")
	}
	if result.FinalState.Phase != domain.PhaseRolledBack {
		t.Errorf("FinalState = %s, want rolled_back", result.FinalState)
	}
	if !result.ExecutedQuantity.IsZero() {
		t.Errorf("ExecutedQuantity = %s, want 0", result.ExecutedQuantity)
	}
	if !strings.Contains(result.FailureReason, "leg 1 failed") {
		t.Errorf("FailureReason = %q, want leg 1 failure", result.FailureReason)
	}

	// Exactly the filled first leg is compensated, with a reverse trade
	// because it executed.
	if len(result.Rollbacks) != 1 {
		t.Fatalf("Rollbacks = %d, want 1", len(result.Rollbacks))
	}
	rb := result.Rollbacks[0]
	if rb.LegIndex != 0 {
		t.Errorf("rollback LegIndex = %d, want 0", rb.LegIndex)
	}
	if rb.Kind != domain.RollbackReverse {
		t.Errorf("rollback Kind = %s, want reverse", rb.Kind)
	}
	if !rb.Succeeded {
		t.Errorf("rollback failed: %s", rb.Error)
	}
	if len(venue.reversed) != 1 || venue.reversed[0].Symbol != "AAABBB" {
		t.Errorf("reversed orders = %+v, want one for AAABBB", venue.reversed)
	}

	if len(assessor.records) != 1 || assessor.records[0].Accepted {
		t.Errorf("assessor records = %+v, want one rejected outcome", assessor.records)
	}
}

func TestCoordinatorExecuteFirstLegFails(t *testing.T) {
	venue := newScriptedVenue(0)
	coord := NewCoordinator(quickCoordinatorConfig(), venue, stubDepth{slip: 0.0001}, &spyAssessor{}, testLogger())

	result, err := coord.Execute(context.Background(), fixtureOpportunity())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Nothing filled, so there is nothing to roll back.
	if len(result.Rollbacks) != 0 {
		t.Errorf("Rollbacks = %d, want 0", len(result.Rollbacks))
	}
	if result.FinalState.Phase != domain.PhaseRejected {
		t.Errorf("FinalState = %s, want rejected", result.FinalState)
	}
}

func TestCoordinatorRejectsStaleOpportunity(t *testing.T) {
	venue := newScriptedVenue(-1)
	coord := NewCoordinator(quickCoordinatorConfig(), venue, stubDepth{slip: 0.0001}, &spyAssessor{}, testLogger())

	opp := fixtureOpportunity()
	opp.DetectedAt = time.Now().Add(-10 * time.Second)

	result, err := coord.Execute(context.Background(), opp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Accepted {
		t.Error("stale opportunity was accepted")
	}
	if result.FinalState.Phase != domain.PhaseRejected {
		t.Errorf("FinalState = %s, want rejected", result.FinalState)
	}
	if len(venue.placed) != 0 {
		t.Errorf("orders placed for stale opportunity: %d", len(venue.placed))
	}
}

func TestCoordinatorHalvesSizeInPoorConditions(t *testing.T) {
	venue := newScriptedVenue(-1)

	// Depth fails for two legs (penalty 20 bps and 0.3 condition each) and
	// the third reports a weak book, averaging to a 0.4 condition score with
	// 50 bps of estimated slippage. The 98 bps edge still clears that, so
	// the trade goes out cautiously at half size instead of being rejected.
	depth := legDepth{reports: map[string]DepthReport{
		"CCCAAA": {SlippagePct: 0.001, LiquidityScore: 0.6, OK: true},
	}}
	coord := NewCoordinator(quickCoordinatorConfig(), venue, depth, &spyAssessor{}, testLogger())

	result, err := coord.Execute(context.Background(), fixtureOpportunity())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !result.Accepted {
		t.Fatalf("Accepted = false, reason %q", result.FailureReason)
	}
	if !result.ExecutedQuantity.Equal(fixedpoint.FromInt64(500)) {
		t.Errorf("ExecutedQuantity = %s, want 500", result.ExecutedQuantity)
	}
	if len(venue.placed) == 0 {
		t.Fatal("no orders placed")
	}
	if !venue.placed[0].Quantity.Equal(fixedpoint.FromInt64(500)) {
		t.Errorf("leg 0 quantity = %s, want 500", venue.placed[0].Quantity)
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name      string
		profitBps float64
		slipBps   float64
		condition float64
		want      domain.ExecutionPriority
	}{
		{"profit_below_slippage", 10, 15, 0.9, domain.PriorityReject},
		{"terrible_condition", 100, 10, 0.2, domain.PriorityReject},
		{"wide_headroom_good_market", 100, 10, 0.9, domain.PriorityImmediate},
		{"ordinary", 100, 60, 0.6, domain.PriorityNormal},
		{"thin_headroom_weak_market", 100, 60, 0.4, domain.PriorityCautious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyPriority(tt.profitBps, tt.slipBps, tt.condition)
			if got != tt.want {
				t.Errorf("classifyPriority(%v, %v, %v) = %s, want %s",
					tt.profitBps, tt.slipBps, tt.condition, got, tt.want)
			}
		})
	}
}

func TestScaleQuantities(t *testing.T) {
	coord := NewCoordinator(quickCoordinatorConfig(), newScriptedVenue(-1), stubDepth{}, nil, testLogger())
	path := fixturePath()

	// Size below the probe notional scales every leg proportionally.
	out := coord.scaleQuantities(path, fixedpoint.FromInt64(250))
	if !out[0].Equal(fixedpoint.FromInt64(250)) {
		t.Errorf("leg 0 = %s, want 250", out[0])
	}
	if !out[1].Equal(fixedpoint.FromInt64(255)) {
		t.Errorf("leg 1 = %s, want 255", out[1])
	}

	// Size at or above the probe leaves quantities untouched.
	out = coord.scaleQuantities(path, fixedpoint.FromInt64(5000))
	if !out[0].Equal(fixedpoint.FromInt64(1000)) {
		t.Errorf("leg 0 = %s, want 1000", out[0])
	}
}
