package app

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// stubFees returns a fixed taker rate, or an error to force the fallback.
type stubFees struct {
	taker fixedpoint.Value
	err   error
}

func (s stubFees) Rates(ctx context.Context, exchange string) (FeeRates, error) {
	if s.err != nil {
		return FeeRates{}, s.err
	}
	return FeeRates{Maker: s.taker, Taker: s.taker}, nil
}

// stubDepth reports no slippage and full fillability for any quantity.
type stubDepth struct {
	slip float64
	fail bool
}

func (s stubDepth) Analyze(ctx context.Context, book *marketDomain.OrderBook, side marketDomain.Side, quantity fixedpoint.Value) (DepthReport, error) {
	if s.fail {
		return DepthReport{}, context.DeadlineExceeded
	}
	return DepthReport{
		MaxQuantity:    quantity,
		SlippagePct:    s.slip,
		LiquidityScore: 1,
		OK:             true,
	}, nil
}

// makeBook builds a single-level book with deep liquidity at the quoted
// prices.
func makeBook(symbol, bid, ask string) *marketDomain.OrderBook {
	qty := fixedpoint.FromInt64(10_000)
	return &marketDomain.OrderBook{
		Exchange: "binance",
		Symbol:   symbol,
		Bids:     []marketDomain.Level{{Price: fixedpoint.MustFromString(bid), Qty: qty}},
		Asks:     []marketDomain.Level{{Price: fixedpoint.MustFromString(ask), Qty: qty}},
		Ts:       time.Now(),
	}
}

// cycleFixture is the canonical profitable cycle: selling through
// AAA->BBB->CCC->AAA multiplies the notional by 1.02 * 0.99 * 1.00 = 1.0098,
// a 0.98% gross edge.
func cycleFixture() ([3]string, [3]Leg) {
	currencies := [3]string{"AAA", "BBB", "CCC"}
	legs := [3]Leg{
		{Book: makeBook("AAABBB", "1.02", "1.03"), Side: marketDomain.SideSell},
		{Book: makeBook("BBBCCC", "0.99", "1.00"), Side: marketDomain.SideSell},
		{Book: makeBook("CCCAAA", "1.00", "1.01"), Side: marketDomain.SideSell},
	}
	return currencies, legs
}

func TestCalculatorEvaluateGrossEdge(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), stubFees{taker: fixedpoint.Zero()}, stubDepth{}, testLogger())
	currencies, legs := cycleFixture()

	path, err := calc.Evaluate(context.Background(), currencies, legs, "binance")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if path == nil {
		t.Fatal("expected a profitable path")
	}

	// 1000 -> 1020 -> 1009.8 -> 1009.8, so the net rate is exactly 0.98%.
	want := fixedpoint.MustFromString("0.0098")
	if !path.NetProfitRate.Equal(want) {
		t.Errorf("NetProfitRate = %s, want %s", path.NetProfitRate, want)
	}
	if path.Exchange != "binance" {
		t.Errorf("Exchange = %s, want binance", path.Exchange)
	}
	if got := path.TradingPairs; got[0] != "AAABBB" || got[1] != "BBBCCC" || got[2] != "CCCAAA" {
		t.Errorf("TradingPairs = %v", got)
	}

	// Full depth at every leg caps tradable volume at the probe notional.
	if !path.MaxTradableVolume.Equal(fixedpoint.FromInt64(1000)) {
		t.Errorf("MaxTradableVolume = %s, want 1000", path.MaxTradableVolume)
	}
}

func TestCalculatorEvaluateCompoundedFees(t *testing.T) {
	taker := fixedpoint.MustFromString("0.001")
	calc := NewCalculator(DefaultCalculatorConfig(), stubFees{taker: taker}, stubDepth{}, testLogger())
	currencies, legs := cycleFixture()

	path, err := calc.Evaluate(context.Background(), currencies, legs, "binance")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if path == nil {
		t.Fatal("expected a profitable path")
	}

	// Each leg keeps 99.9% after the taker fee:
	//   1000 * 1.02 * 0.999                 = 1018.98
	//   1018.98 * 0.99 * 0.999              = 1007.7814098
	//   1007.7814098 * 1.00 * 0.999         = 1006.7736283902
	want := fixedpoint.MustFromString("0.0067736283902")
	if !path.NetProfitRate.Equal(want) {
		t.Errorf("NetProfitRate = %s, want %s", path.NetProfitRate, want)
	}

	// Fees must compound per leg, not apply once at the end. A single flat
	// 0.3% on the gross 0.98% would net 0.0068 flat, which differs.
	flat := fixedpoint.MustFromString("0.0068")
	if path.NetProfitRate.Equal(flat) {
		t.Error("net rate matches a flat end-of-cycle fee, fees are not compounding")
	}
}

func TestCalculatorEvaluateUnprofitableReturnsNil(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), stubFees{taker: fixedpoint.MustFromString("0.01")}, stubDepth{}, testLogger())
	currencies, legs := cycleFixture()

	// A 1% taker per leg eats the 0.98% edge in both directions.
	path, err := calc.Evaluate(context.Background(), currencies, legs, "binance")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if path != nil {
		t.Errorf("expected nil path, got rate %s", path.NetProfitRate)
	}
}

func TestCalculatorEvaluateStructuralErrors(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), stubFees{taker: fixedpoint.Zero()}, stubDepth{}, testLogger())
	currencies, legs := cycleFixture()

	t.Run("nil_book", func(t *testing.T) {
		broken := legs
		broken[1].Book = nil
		if _, err := calc.Evaluate(context.Background(), currencies, broken, "binance"); err == nil {
			t.Error("expected error for nil book")
		}
	})

	t.Run("exchange_mismatch", func(t *testing.T) {
		broken := legs
		other := makeBook("BBBCCC", "0.99", "1.00")
		other.Exchange = "kraken"
		broken[1].Book = other
		if _, err := calc.Evaluate(context.Background(), currencies, broken, "binance"); err == nil {
			t.Error("expected error for exchange mismatch")
		}
	})
}

func TestCalculatorDepthFallback(t *testing.T) {
	cfg := DefaultCalculatorConfig()
	cfg.DefaultSlippagePct = 0.2
	cfg.DefaultQuantityRatio = 0.6
	calc := NewCalculator(cfg, stubFees{taker: fixedpoint.Zero()}, stubDepth{fail: true}, testLogger())
	currencies, legs := cycleFixture()

	path, err := calc.Evaluate(context.Background(), currencies, legs, "binance")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if path == nil {
		// The fallback 0.2% slippage per leg shrinks the 0.98% edge but
		// should not erase it.
		t.Fatal("expected a profitable path under fallback slippage")
	}

	// The fallback expects each leg to fill only 60% of the request, so the
	// tradable volume cap scales down accordingly.
	want := fixedpoint.FromInt64(600)
	if !path.MaxTradableVolume.Equal(want) {
		t.Errorf("MaxTradableVolume = %s, want %s", path.MaxTradableVolume, want)
	}
	if math.Abs(path.ExpectedSlippage-0.002) > 1e-9 {
		t.Errorf("ExpectedSlippage = %v, want ~0.002", path.ExpectedSlippage)
	}
}

func TestCalculatorFeeSourceFallback(t *testing.T) {
	cfg := DefaultCalculatorConfig()
	cfg.DefaultTaker = fixedpoint.MustFromString("0.001")
	calc := NewCalculator(cfg, stubFees{err: context.DeadlineExceeded}, stubDepth{}, testLogger())
	currencies, legs := cycleFixture()

	path, err := calc.Evaluate(context.Background(), currencies, legs, "binance")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if path == nil {
		t.Fatal("expected a profitable path with the default taker rate")
	}

	want := fixedpoint.MustFromString("0.0067736283902")
	if !path.NetProfitRate.Equal(want) {
		t.Errorf("NetProfitRate = %s, want %s", path.NetProfitRate, want)
	}
}

func TestCalculatorReverseDirectionWins(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), stubFees{taker: fixedpoint.Zero()}, stubDepth{}, testLogger())

	// Stored sell direction loses money; the opposite walk around the same
	// books gains. Buying consumes asks: 1/(0.97*1.00*0.99) > 1.
	currencies := [3]string{"AAA", "BBB", "CCC"}
	legs := [3]Leg{
		{Book: makeBook("AAABBB", "0.96", "0.97"), Side: marketDomain.SideSell},
		{Book: makeBook("BBBCCC", "0.99", "1.00"), Side: marketDomain.SideSell},
		{Book: makeBook("CCCAAA", "0.98", "0.99"), Side: marketDomain.SideSell},
	}

	path, err := calc.Evaluate(context.Background(), currencies, legs, "binance")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if path == nil {
		t.Fatal("expected the reverse direction to be profitable")
	}
	if path.Directions[0] != marketDomain.SideBuy {
		t.Errorf("Directions[0] = %s, want buy (reverse walk)", path.Directions[0])
	}
	if path.Currencies != [3]string{"AAA", "CCC", "BBB"} {
		t.Errorf("Currencies = %v, want reverse order", path.Currencies)
	}
	if !path.NetProfitRate.IsPositive() {
		t.Errorf("NetProfitRate = %s, want positive", path.NetProfitRate)
	}
}

func TestRiskScoreTiers(t *testing.T) {
	_, legs := cycleFixture()

	// Three single-level books: +10 each for thin ladders, +5 each for
	// roughly 1% spreads, no liquidity or slippage penalties.
	got := riskScore(legs, [3]float64{0, 0, 0}, 0)
	if got != 45 {
		t.Errorf("riskScore = %v, want 45", got)
	}

	// A missing side dominates everything else.
	withMissing := riskScore(legs, [3]float64{0, 0, 0}, 3)
	if withMissing != 100 {
		t.Errorf("riskScore with 3 missing sides = %v, want capped 100", withMissing)
	}

	// Heavy slippage adds its own tier.
	withSlip := riskScore(legs, [3]float64{0.01, 0.01, 0.01}, 0)
	if withSlip != 60 {
		t.Errorf("riskScore with heavy slippage = %v, want 60", withSlip)
	}
}
