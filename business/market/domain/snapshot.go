// Package domain contains the core domain types for the market context.
package domain

import (
	"fmt"
	"time"

	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// Side indicates the direction of a trade against a pair.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParsedPair is the result of resolving a raw exchange symbol into its base
// and quote currencies.
type ParsedPair struct {
	Base       string
	Quote      string
	Confidence float64
	Format     string
}

// Symbol renders the pair back into its canonical concatenated form.
func (p ParsedPair) Symbol() string {
	return p.Base + p.Quote
}

func (p ParsedPair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// Snapshot is one normalized best-bid/ask entry from a market data feed.
type Snapshot struct {
	Exchange string
	Symbol   string
	BidPrice fixedpoint.Value
	BidQty   fixedpoint.Value
	AskPrice fixedpoint.Value
	AskQty   fixedpoint.Value
	Ts       time.Time
}

// HasBothSides reports whether the snapshot carries a usable bid and ask.
func (s *Snapshot) HasBothSides() bool {
	return s.BidPrice.IsPositive() && s.AskPrice.IsPositive() &&
		s.BidQty.IsPositive() && s.AskQty.IsPositive()
}

// Age returns how old the snapshot is relative to now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Ts)
}
