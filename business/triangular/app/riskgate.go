package app

import (
	"context"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// RiskGateConfig holds the local accept/reject thresholds applied on top of
// the external assessor's verdict.
type RiskGateConfig struct {
	// MinProfitRate is the minimum net profit fraction.
	MinProfitRate fixedpoint.Value

	// MinLiquidityUSD is the minimum tradable volume in notional units.
	MinLiquidityUSD fixedpoint.Value

	// MaxRiskScore rejects paths scored above this bound.
	MaxRiskScore float64

	// MaxLegPrice bounds the sane average price per leg.
	MaxLegPrice fixedpoint.Value
}

// DefaultRiskGateConfig returns the standard gate thresholds.
func DefaultRiskGateConfig() RiskGateConfig {
	return RiskGateConfig{
		MinProfitRate:   fixedpoint.MustFromString("0.001"),
		MinLiquidityUSD: fixedpoint.FromInt64(200),
		MaxRiskScore:    80,
		MaxLegPrice:     fixedpoint.FromInt64(10_000_000),
	}
}

// RiskGate is the accept/reject checkpoint between discovery and execution.
// Scoring is delegated to the assessor; the gate adds the path's own
// structural and profit checks.
type RiskGate struct {
	cfg      RiskGateConfig
	assessor RiskAssessor
	log      logger.LoggerInterface
}

// NewRiskGate creates a risk gate.
func NewRiskGate(cfg RiskGateConfig, assessor RiskAssessor, log logger.LoggerInterface) *RiskGate {
	return &RiskGate{cfg: cfg, assessor: assessor, log: log}
}

// Accepts returns true when the path clears both the local thresholds and
// the external risk verdict. Rejections are logged at debug level and the
// reason is returned for outcome feedback.
func (g *RiskGate) Accepts(ctx context.Context, path *domain.TriangularPath) (bool, string) {
	if reason := g.localCheck(path); reason != "" {
		g.log.Debug(ctx, "risk gate rejected path",
			"signature", path.Signature(), "reason", reason)
		return false, reason
	}

	verdict, err := g.assessor.Assess(ctx, path)
	if err != nil {
		g.log.Debug(ctx, "risk assessment failed, rejecting path",
			"signature", path.Signature(), "error", err)
		return false, "risk assessment unavailable"
	}
	if !verdict.Passes {
		g.log.Debug(ctx, "risk assessor rejected path",
			"signature", path.Signature(), "score", verdict.Score, "reason", verdict.Reason)
		return false, verdict.Reason
	}

	// The assessor may tighten the profit floor dynamically.
	floor := g.cfg.MinProfitRate
	if verdict.ProfitFloor.GreaterThan(floor) {
		floor = verdict.ProfitFloor
	}
	if path.NetProfitRate.LessThan(floor) {
		g.log.Debug(ctx, "profit below dynamic floor",
			"signature", path.Signature(), "rate", path.NetProfitRate.String())
		return false, "profit below dynamic floor"
	}

	return true, ""
}

func (g *RiskGate) localCheck(path *domain.TriangularPath) string {
	if err := path.Validate(); err != nil {
		return err.Error()
	}
	if path.NetProfitRate.LessThan(g.cfg.MinProfitRate) {
		return "profit below minimum"
	}
	if path.MaxTradableVolume.LessThan(g.cfg.MinLiquidityUSD) {
		return "insufficient tradable liquidity"
	}
	if path.RiskScore > g.cfg.MaxRiskScore {
		return "risk score above maximum"
	}

	sum := fixedpoint.Zero()
	for _, price := range path.Prices {
		if !price.IsPositive() {
			return "non-positive leg price"
		}
		sum = sum.Add(price)
	}
	avg := sum.MustDiv(fixedpoint.FromInt64(domain.Legs))
	if avg.GreaterThan(g.cfg.MaxLegPrice) {
		return "average leg price out of bounds"
	}
	return ""
}
