package domain

import (
	"time"

	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// Level is one price level of an order book ladder.
type Level struct {
	Price fixedpoint.Value
	Qty   fixedpoint.Value
}

// Notional returns price × quantity for the level.
func (l Level) Notional() fixedpoint.Value {
	return l.Price.Mul(l.Qty)
}

// OrderBook holds the bid and ask ladders for one trading pair on one
// exchange. Bids are ordered best (highest) first, asks best (lowest) first.
type OrderBook struct {
	Exchange string
	Symbol   string
	Bids     []Level
	Asks     []Level
	Ts       time.Time
}

// BestBid returns the top bid level. ok is false on an empty ladder.
func (b *OrderBook) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level. ok is false on an empty ladder.
func (b *OrderBook) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// MidPrice returns (best bid + best ask) / 2.
func (b *OrderBook) MidPrice() (fixedpoint.Value, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return fixedpoint.Zero(), false
	}
	sum := bid.Price.Add(ask.Price)
	return sum.MustDiv(fixedpoint.FromInt64(2)), true
}

// SpreadRatio returns (ask − bid) / bid.
func (b *OrderBook) SpreadRatio() (fixedpoint.Value, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA || !bid.Price.IsPositive() {
		return fixedpoint.Zero(), false
	}
	diff := ask.Price.Sub(bid.Price)
	return diff.MustDiv(bid.Price), true
}

// TopNotional returns the average of the best-bid and best-ask notionals,
// used as the pair's headline liquidity figure.
func (b *OrderBook) TopNotional() (fixedpoint.Value, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return fixedpoint.Zero(), false
	}
	sum := bid.Notional().Add(ask.Notional())
	return sum.MustDiv(fixedpoint.FromInt64(2)), true
}

// Age returns how old the book is relative to now.
func (b *OrderBook) Age(now time.Time) time.Duration {
	return now.Sub(b.Ts)
}

// BookFromSnapshot lifts a best-bid/ask snapshot into a single-level book.
func BookFromSnapshot(s *Snapshot) *OrderBook {
	return &OrderBook{
		Exchange: s.Exchange,
		Symbol:   s.Symbol,
		Bids:     []Level{{Price: s.BidPrice, Qty: s.BidQty}},
		Asks:     []Level{{Price: s.AskPrice, Qty: s.AskQty}},
		Ts:       s.Ts,
	}
}
