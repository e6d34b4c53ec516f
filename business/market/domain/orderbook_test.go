package domain

import (
	"testing"
	"time"

	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

func twoLevelBook() *OrderBook {
	return &OrderBook{
		Exchange: "binance",
		Symbol:   "AAABBB",
		Bids: []Level{
			{Price: fixedpoint.FromInt64(100), Qty: fixedpoint.FromInt64(5)},
			{Price: fixedpoint.FromInt64(99), Qty: fixedpoint.FromInt64(10)},
		},
		Asks: []Level{
			{Price: fixedpoint.FromInt64(102), Qty: fixedpoint.FromInt64(4)},
			{Price: fixedpoint.FromInt64(103), Qty: fixedpoint.FromInt64(8)},
		},
		Ts: time.Now(),
	}
}

func TestOrderBookBestLevels(t *testing.T) {
	book := twoLevelBook()

	bid, ok := book.BestBid()
	if !ok || !bid.Price.Equal(fixedpoint.FromInt64(100)) {
		t.Errorf("BestBid = %v %v", bid.Price, ok)
	}
	ask, ok := book.BestAsk()
	if !ok || !ask.Price.Equal(fixedpoint.FromInt64(102)) {
		t.Errorf("BestAsk = %v %v", ask.Price, ok)
	}

	empty := &OrderBook{}
	if _, ok := empty.BestBid(); ok {
		t.Error("BestBid ok on empty ladder")
	}
	if _, ok := empty.BestAsk(); ok {
		t.Error("BestAsk ok on empty ladder")
	}
}

func TestOrderBookDerivedPrices(t *testing.T) {
	book := twoLevelBook()

	mid, ok := book.MidPrice()
	if !ok || !mid.Equal(fixedpoint.FromInt64(101)) {
		t.Errorf("MidPrice = %s %v, want 101", mid, ok)
	}

	spread, ok := book.SpreadRatio()
	if !ok || !spread.Equal(fixedpoint.MustFromString("0.02")) {
		t.Errorf("SpreadRatio = %s %v, want 0.02", spread, ok)
	}

	// (100*5 + 102*4) / 2 = 454.
	notional, ok := book.TopNotional()
	if !ok || !notional.Equal(fixedpoint.FromInt64(454)) {
		t.Errorf("TopNotional = %s %v, want 454", notional, ok)
	}
}

func TestOrderBookDerivedPricesMissingSide(t *testing.T) {
	book := twoLevelBook()
	book.Asks = nil

	if _, ok := book.MidPrice(); ok {
		t.Error("MidPrice ok with no asks")
	}
	if _, ok := book.SpreadRatio(); ok {
		t.Error("SpreadRatio ok with no asks")
	}
	if _, ok := book.TopNotional(); ok {
		t.Error("TopNotional ok with no asks")
	}
}

func TestBookFromSnapshot(t *testing.T) {
	ts := time.Now().Add(-time.Second)
	snap := Snapshot{
		Exchange: "binance",
		Symbol:   "AAABBB",
		BidPrice: fixedpoint.MustFromString("1.02"),
		BidQty:   fixedpoint.FromInt64(7),
		AskPrice: fixedpoint.MustFromString("1.03"),
		AskQty:   fixedpoint.FromInt64(9),
		Ts:       ts,
	}

	book := BookFromSnapshot(&snap)
	if book.Exchange != "binance" || book.Symbol != "AAABBB" {
		t.Errorf("identity = %s %s", book.Exchange, book.Symbol)
	}
	if len(book.Bids) != 1 || len(book.Asks) != 1 {
		t.Fatalf("ladders = %d bids, %d asks, want 1 each", len(book.Bids), len(book.Asks))
	}
	if !book.Bids[0].Qty.Equal(fixedpoint.FromInt64(7)) {
		t.Errorf("bid qty = %s", book.Bids[0].Qty)
	}
	if book.Age(ts.Add(2*time.Second)) != 2*time.Second {
		t.Errorf("Age = %s", book.Age(ts.Add(2*time.Second)))
	}
}

func TestSnapshotHasBothSides(t *testing.T) {
	snap := Snapshot{
		BidPrice: fixedpoint.One(),
		BidQty:   fixedpoint.One(),
		AskPrice: fixedpoint.One(),
		AskQty:   fixedpoint.One(),
	}
	if !snap.HasBothSides() {
		t.Error("HasBothSides = false for a full snapshot")
	}

	snap.AskQty = fixedpoint.Zero()
	if snap.HasBothSides() {
		t.Error("HasBothSides = true with a zero ask quantity")
	}
}

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell || SideSell.Opposite() != SideBuy {
		t.Error("Opposite is not an involution over buy/sell")
	}
}

func TestLevelNotional(t *testing.T) {
	level := Level{Price: fixedpoint.MustFromString("1.5"), Qty: fixedpoint.FromInt64(4)}
	if !level.Notional().Equal(fixedpoint.FromInt64(6)) {
		t.Errorf("Notional = %s, want 6", level.Notional())
	}
}
