// Package domain contains the core domain types for the triangular context.
package domain

import (
	"errors"
	"sort"
	"strings"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// Legs is the number of trades in a triangular cycle.
const Legs = 3

var (
	// ErrPathNotClosed indicates the third leg does not return to the
	// starting currency.
	ErrPathNotClosed = errors.New("path does not close back to the starting currency")

	// ErrDuplicateCurrency indicates the cycle repeats a currency.
	ErrDuplicateCurrency = errors.New("path currencies are not pairwise distinct")

	// ErrExchangeMismatch indicates the legs span more than one exchange.
	ErrExchangeMismatch = errors.New("path legs span multiple exchanges")

	// ErrMissingCurrency indicates an empty currency slot.
	ErrMissingCurrency = errors.New("path has an empty currency")
)

// TriangularPath is a fully evaluated three-leg cycle. Currencies[i] is the
// input currency of leg i; leg i trades TradingPairs[i] in Directions[i] at
// Prices[i] for Quantities[i]. Immutable once built.
type TriangularPath struct {
	Currencies   [Legs]string
	TradingPairs [Legs]string
	Directions   [Legs]marketDomain.Side
	Prices       [Legs]fixedpoint.Value
	Quantities   [Legs]fixedpoint.Value

	NetProfitRate     fixedpoint.Value
	MaxTradableVolume fixedpoint.Value
	Weight            fixedpoint.Value

	Exchange         string
	RiskScore        float64 // 0-100
	ExpectedSlippage float64 // fraction, not bps
}

// Validate checks the structural invariants: a closed cycle over three
// pairwise-distinct currencies on a single exchange.
func (p *TriangularPath) Validate() error {
	for _, c := range p.Currencies {
		if c == "" {
			return ErrMissingCurrency
		}
	}
	if p.Currencies[0] == p.Currencies[1] ||
		p.Currencies[1] == p.Currencies[2] ||
		p.Currencies[0] == p.Currencies[2] {
		return ErrDuplicateCurrency
	}
	if p.Exchange == "" {
		return ErrExchangeMismatch
	}
	// Each leg's pair must connect its input currency to the next leg's
	// input currency; leg 3 wraps around to the start.
	for i := 0; i < Legs; i++ {
		in, out := p.Currencies[i], p.Currencies[(i+1)%Legs]
		if pair := p.TradingPairs[i]; pair != in+out && pair != out+in {
			return ErrPathNotClosed
		}
	}
	return nil
}

// Signature returns the canonical identity of the cycle: the sorted
// currency triple joined with the exchange. The same cycle discovered from
// any of its three starting currencies produces the same signature.
func (p *TriangularPath) Signature() string {
	triple := []string{p.Currencies[0], p.Currencies[1], p.Currencies[2]}
	sort.Strings(triple)
	return strings.Join(triple, "-") + "@" + p.Exchange
}

// StartCurrency returns the currency the cycle begins and ends in.
func (p *TriangularPath) StartCurrency() string {
	return p.Currencies[0]
}

// ProfitBps returns the net profit rate in basis points.
func (p *TriangularPath) ProfitBps() float64 {
	return p.NetProfitRate.Float64() * 10000
}

// Route renders the cycle as A->B->C->A for logs and reports.
func (p *TriangularPath) Route() string {
	return p.Currencies[0] + "->" + p.Currencies[1] + "->" + p.Currencies[2] + "->" + p.Currencies[0]
}
