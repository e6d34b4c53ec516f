package depth

import (
	"context"
	"testing"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// ladderBook builds a three-level book. Bids descend from 100, asks ascend
// from 101; each level carries 10 units.
func ladderBook() *marketDomain.OrderBook {
	qty := fixedpoint.FromInt64(10)
	return &marketDomain.OrderBook{
		Exchange: "binance",
		Symbol:   "AAABBB",
		Bids: []marketDomain.Level{
			{Price: fixedpoint.FromInt64(100), Qty: qty},
			{Price: fixedpoint.MustFromString("99.5"), Qty: qty},
			{Price: fixedpoint.FromInt64(98), Qty: qty},
		},
		Asks: []marketDomain.Level{
			{Price: fixedpoint.FromInt64(101), Qty: qty},
			{Price: fixedpoint.MustFromString("101.5"), Qty: qty},
			{Price: fixedpoint.FromInt64(103), Qty: qty},
		},
		Ts: time.Now(),
	}
}

func TestAnalyzeFillWithinBestLevel(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	report, err := a.Analyze(context.Background(), ladderBook(), marketDomain.SideSell, fixedpoint.FromInt64(10))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.OK {
		t.Fatal("report not OK")
	}
	if report.SlippagePct != 0 {
		t.Errorf("SlippagePct = %v, want 0 for a best-level fill", report.SlippagePct)
	}

	// 100 and 99.5 sit within the 1% tolerance of the best bid, 98 does not.
	if !report.MaxQuantity.Equal(fixedpoint.FromInt64(20)) {
		t.Errorf("MaxQuantity = %s, want 20", report.MaxQuantity)
	}
}

func TestAnalyzeVWAPSlippageAcrossLevels(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// 15 units consume the full best level plus half the second, so the
	// VWAP sits between 99.5 and 100.
	report, err := a.Analyze(context.Background(), ladderBook(), marketDomain.SideSell, fixedpoint.FromInt64(15))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.SlippagePct <= 0 {
		t.Errorf("SlippagePct = %v, want positive", report.SlippagePct)
	}
	if report.SlippagePct >= 0.01 {
		t.Errorf("SlippagePct = %v, want below the 1%% tolerance", report.SlippagePct)
	}
}

func TestAnalyzeLadderExhaustion(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// The whole bid ladder holds 30 units; asking for 50 pins slippage to
	// the tolerance and caps the fillable quantity.
	report, err := a.Analyze(context.Background(), ladderBook(), marketDomain.SideSell, fixedpoint.FromInt64(50))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.SlippagePct != 0.01 {
		t.Errorf("SlippagePct = %v, want pinned at 0.01", report.SlippagePct)
	}
	if !report.MaxQuantity.Equal(fixedpoint.FromInt64(20)) {
		t.Errorf("MaxQuantity = %s, want 20", report.MaxQuantity)
	}
}

func TestAnalyzeBuyConsumesAsks(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	book := ladderBook()
	book.Bids = nil

	report, err := a.Analyze(context.Background(), book, marketDomain.SideBuy, fixedpoint.FromInt64(10))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.OK {
		t.Fatal("report not OK")
	}
	if report.SlippagePct != 0 {
		t.Errorf("SlippagePct = %v, want 0", report.SlippagePct)
	}
}

func TestAnalyzeLiquidityScore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReferenceNotional = fixedpoint.FromInt64(1000)
	a := NewAnalyzer(cfg)

	// The bid ladder notional is 2975, well above the reference.
	report, err := a.Analyze(context.Background(), ladderBook(), marketDomain.SideSell, fixedpoint.FromInt64(5))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.LiquidityScore != 1 {
		t.Errorf("LiquidityScore = %v, want clamped at 1", report.LiquidityScore)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	ctx := context.Background()

	if _, err := a.Analyze(ctx, nil, marketDomain.SideSell, fixedpoint.FromInt64(1)); err == nil {
		t.Error("expected error for nil book")
	}
	if _, err := a.Analyze(ctx, ladderBook(), marketDomain.SideSell, fixedpoint.Zero()); err == nil {
		t.Error("expected error for non-positive quantity")
	}

	empty := ladderBook()
	empty.Bids = nil
	if _, err := a.Analyze(ctx, empty, marketDomain.SideSell, fixedpoint.FromInt64(1)); err == nil {
		t.Error("expected error for empty ladder")
	}
}
