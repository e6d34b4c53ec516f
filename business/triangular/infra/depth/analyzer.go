// Package depth implements order-book ladder analysis for leg sizing and
// slippage estimation.
package depth

import (
	"context"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// Config holds ladder analysis settings.
type Config struct {
	// MaxSlippagePct bounds the price deviation from the best level when
	// computing the maximum achievable quantity, as a percentage.
	MaxSlippagePct float64

	// ReferenceNotional is the notional considered fully liquid when
	// scoring a ladder.
	ReferenceNotional fixedpoint.Value
}

// DefaultConfig returns the standard analysis settings.
func DefaultConfig() Config {
	return Config{
		MaxSlippagePct:    1.0,
		ReferenceNotional: fixedpoint.FromInt64(10_000),
	}
}

// Analyzer walks bid/ask ladders to estimate fill quality.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates a ladder analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MaxSlippagePct <= 0 {
		cfg.MaxSlippagePct = 1.0
	}
	if cfg.ReferenceNotional.IsZero() {
		cfg.ReferenceNotional = fixedpoint.FromInt64(10_000)
	}
	return &Analyzer{cfg: cfg}
}

// Analyze implements app.DepthAnalyzer. Selling consumes the bid ladder,
// buying the ask ladder; quantity is in the book's base units.
func (a *Analyzer) Analyze(ctx context.Context, book *marketDomain.OrderBook, side marketDomain.Side, quantity fixedpoint.Value) (app.DepthReport, error) {
	if book == nil || !quantity.IsPositive() {
		return app.DepthReport{}, apperror.New(apperror.CodeDepthAnalysisFailed,
			apperror.WithContext("nil book or non-positive quantity"))
	}

	ladder := book.Bids
	if side == marketDomain.SideBuy {
		ladder = book.Asks
	}
	if len(ladder) == 0 {
		return app.DepthReport{}, apperror.New(apperror.CodeDepthAnalysisFailed,
			apperror.WithContext("empty ladder for side "+string(side)))
	}

	best := ladder[0].Price
	if !best.IsPositive() {
		return app.DepthReport{}, apperror.New(apperror.CodeDepthAnalysisFailed,
			apperror.WithContext("non-positive best price"))
	}

	tolerance := a.cfg.MaxSlippagePct / 100

	var (
		filled    = fixedpoint.Zero()
		cost      = fixedpoint.Zero()
		maxWithin = fixedpoint.Zero()
		remaining = quantity
	)

	for _, level := range ladder {
		deviation := priceDeviation(best, level.Price)
		if deviation <= tolerance {
			maxWithin = maxWithin.Add(level.Qty)
		}

		if remaining.IsPositive() {
			take := level.Qty
			if remaining.LessThan(take) {
				take = remaining
			}
			filled = filled.Add(take)
			cost = cost.Add(take.Mul(level.Price))
			remaining = remaining.Sub(take)
		}
	}

	report := app.DepthReport{
		MaxQuantity: maxWithin,
		OK:          true,
	}

	if filled.IsPositive() {
		vwap := cost.MustDiv(filled)
		report.SlippagePct = priceDeviation(best, vwap)
	}
	if remaining.IsPositive() {
		// The ladder cannot absorb the request; cap at what is fillable.
		if filled.LessThan(report.MaxQuantity) {
			report.MaxQuantity = filled
		}
		report.SlippagePct = a.cfg.MaxSlippagePct / 100
	}

	report.LiquidityScore = a.liquidityScore(ladder)
	report.RiskScore = riskFromLadder(report.SlippagePct, len(ladder), report.LiquidityScore)
	return report, nil
}

// liquidityScore compares the ladder's total notional to the reference,
// clamped to [0, 1].
func (a *Analyzer) liquidityScore(ladder []marketDomain.Level) float64 {
	total := fixedpoint.Zero()
	for _, level := range ladder {
		total = total.Add(level.Notional())
	}
	score := total.Float64() / a.cfg.ReferenceNotional.Float64()
	if score > 1 {
		return 1
	}
	return score
}

// riskFromLadder builds a 0-100 score from slippage, level count and
// liquidity.
func riskFromLadder(slip float64, levels int, liquidity float64) float64 {
	score := slip * 4000 // 1% slippage contributes 40 points
	switch {
	case levels < 2:
		score += 30
	case levels < 5:
		score += 15
	}
	score += (1 - liquidity) * 30
	if score > 100 {
		score = 100
	}
	return score
}

// priceDeviation returns |p − best| / best as a float fraction.
func priceDeviation(best, p fixedpoint.Value) float64 {
	diff := p.Sub(best).Abs()
	return diff.MustDiv(best).Float64()
}
