package paper

import (
	"context"
	"io"
	"testing"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testVenue() *Venue {
	cfg := DefaultConfig()
	cfg.OrdersPerSecond = 10_000
	cfg.Burst = 100
	return NewVenue(cfg, testLogger())
}

func seedSnapshot(ts time.Time) marketDomain.Snapshot {
	return marketDomain.Snapshot{
		Exchange: "binance",
		Symbol:   "AAABBB",
		BidPrice: fixedpoint.FromInt64(100),
		BidQty:   fixedpoint.FromInt64(50),
		AskPrice: fixedpoint.FromInt64(101),
		AskQty:   fixedpoint.FromInt64(50),
		Ts:       ts,
	}
}

func sellOrder(qty int64) domain.LegOrder {
	return domain.LegOrder{
		Exchange: "binance",
		Symbol:   "AAABBB",
		Side:     marketDomain.SideSell,
		Price:    fixedpoint.FromInt64(100),
		Quantity: fixedpoint.FromInt64(qty),
	}
}

func TestPlaceOrderFillsAtBestLevel(t *testing.T) {
	v := testVenue()
	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now())})

	fill, err := v.PlaceOrder(context.Background(), sellOrder(10))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if !fill.FullyFilled {
		t.Error("FullyFilled = false for a quantity within the best level")
	}
	if !fill.ExecutedQty.Equal(fixedpoint.FromInt64(10)) {
		t.Errorf("ExecutedQty = %s, want 10", fill.ExecutedQty)
	}
	if !fill.AvgPrice.Equal(fixedpoint.FromInt64(100)) {
		t.Errorf("AvgPrice = %s, want best bid 100", fill.AvgPrice)
	}

	// 10 * 100 * 0.001 = 1 notional unit of fee.
	if !fill.Fee.Equal(fixedpoint.One()) {
		t.Errorf("Fee = %s, want 1", fill.Fee)
	}
	if fill.OrderID == "" {
		t.Error("empty OrderID")
	}
}

func TestPlaceOrderPartialFill(t *testing.T) {
	v := testVenue()
	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now())})

	fill, err := v.PlaceOrder(context.Background(), sellOrder(80))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if fill.FullyFilled {
		t.Error("FullyFilled = true beyond the level quantity")
	}
	if !fill.ExecutedQty.Equal(fixedpoint.FromInt64(50)) {
		t.Errorf("ExecutedQty = %s, want the level's 50", fill.ExecutedQty)
	}
}

func TestPlaceOrderBuyConsumesAsk(t *testing.T) {
	v := testVenue()
	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now())})

	order := sellOrder(10)
	order.Side = marketDomain.SideBuy

	fill, err := v.PlaceOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !fill.AvgPrice.Equal(fixedpoint.FromInt64(101)) {
		t.Errorf("AvgPrice = %s, want best ask 101", fill.AvgPrice)
	}
}

func TestPlaceOrderRejectsUnknownSymbol(t *testing.T) {
	v := testVenue()

	if _, err := v.PlaceOrder(context.Background(), sellOrder(1)); err == nil {
		t.Fatal("expected rejection without a book")
	}
}

func TestPlaceOrderRejectsStaleBook(t *testing.T) {
	v := testVenue()
	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now().Add(-time.Minute))})

	if _, err := v.PlaceOrder(context.Background(), sellOrder(1)); err == nil {
		t.Fatal("expected rejection against a stale book")
	}
}

func TestCancelOrder(t *testing.T) {
	v := testVenue()
	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now())})
	ctx := context.Background()

	fill, err := v.PlaceOrder(ctx, sellOrder(5))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if err := v.CancelOrder(ctx, "binance", fill.OrderID); err != nil {
		t.Errorf("CancelOrder: %v", err)
	}
	if err := v.CancelOrder(ctx, "binance", fill.OrderID); err == nil {
		t.Error("expected error cancelling twice")
	}
	if err := v.CancelOrder(ctx, "binance", "no-such-order"); err == nil {
		t.Error("expected error for unknown order")
	}
}

func TestReverseOrderFlipsSide(t *testing.T) {
	v := testVenue()
	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now())})
	ctx := context.Background()

	order := sellOrder(10)
	fill, err := v.PlaceOrder(ctx, order)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// The compensating trade buys back at the ask.
	reverse, err := v.ReverseOrder(ctx, order, fill)
	if err != nil {
		t.Fatalf("ReverseOrder: %v", err)
	}
	if !reverse.AvgPrice.Equal(fixedpoint.FromInt64(101)) {
		t.Errorf("AvgPrice = %s, want ask 101", reverse.AvgPrice)
	}
	if !reverse.ExecutedQty.Equal(fill.ExecutedQty) {
		t.Errorf("ExecutedQty = %s, want the original fill %s", reverse.ExecutedQty, fill.ExecutedQty)
	}
}

func TestFetchBookReturnsLatest(t *testing.T) {
	v := testVenue()
	ctx := context.Background()

	if _, err := v.FetchBook(ctx, "binance", "AAABBB"); err == nil {
		t.Fatal("expected error before any update")
	}

	v.UpdateBooks([]marketDomain.Snapshot{seedSnapshot(time.Now())})
	book, err := v.FetchBook(ctx, "binance", "AAABBB")
	if err != nil {
		t.Fatalf("FetchBook: %v", err)
	}

	best, ok := book.BestBid()
	if !ok || !best.Price.Equal(fixedpoint.FromInt64(100)) {
		t.Errorf("best bid = %v, want 100", best.Price)
	}
}
