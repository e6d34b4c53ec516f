package app

import (
	"context"
	"testing"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// gateAssessor returns a fixed verdict or error.
type gateAssessor struct {
	verdict RiskVerdict
	err     error
}

func (a gateAssessor) Assess(ctx context.Context, path *domain.TriangularPath) (RiskVerdict, error) {
	return a.verdict, a.err
}

func (a gateAssessor) RecordOutcome(ctx context.Context, record domain.ExecutionRecord) {}

func passingAssessor() gateAssessor {
	return gateAssessor{verdict: RiskVerdict{Passes: true}}
}

func TestRiskGateAcceptsHealthyPath(t *testing.T) {
	gate := NewRiskGate(DefaultRiskGateConfig(), passingAssessor(), testLogger())

	ok, reason := gate.Accepts(context.Background(), fixturePath())
	if !ok {
		t.Fatalf("Accepts = false, reason %q", reason)
	}
	if reason != "" {
		t.Errorf("reason = %q, want empty", reason)
	}
}

func TestRiskGateLocalRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.TriangularPath)
		want   string
	}{
		{
			name:   "profit_below_minimum",
			mutate: func(p *domain.TriangularPath) { p.NetProfitRate = fixedpoint.MustFromString("0.0001") },
			want:   "profit below minimum",
		},
		{
			name:   "insufficient_liquidity",
			mutate: func(p *domain.TriangularPath) { p.MaxTradableVolume = fixedpoint.FromInt64(100) },
			want:   "insufficient tradable liquidity",
		},
		{
			name:   "risk_score_above_maximum",
			mutate: func(p *domain.TriangularPath) { p.RiskScore = 90 },
			want:   "risk score above maximum",
		},
		{
			name:   "non_positive_leg_price",
			mutate: func(p *domain.TriangularPath) { p.Prices[1] = fixedpoint.Zero() },
			want:   "non-positive leg price",
		},
		{
			name: "average_leg_price_out_of_bounds",
			mutate: func(p *domain.TriangularPath) {
				huge := fixedpoint.FromInt64(20_000_000)
				p.Prices = [domain.Legs]fixedpoint.Value{huge, huge, huge}
			},
			want: "average leg price out of bounds",
		},
		{
			name:   "structural_invariant_broken",
			mutate: func(p *domain.TriangularPath) { p.Currencies[2] = "AAA" },
			want:   domain.ErrDuplicateCurrency.Error(),
		},
	}

	gate := NewRiskGate(DefaultRiskGateConfig(), passingAssessor(), testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := fixturePath()
			tt.mutate(path)

			ok, reason := gate.Accepts(context.Background(), path)
			if ok {
				t.Fatal("Accepts = true, want rejection")
			}
			if reason != tt.want {
				t.Errorf("reason = %q, want %q", reason, tt.want)
			}
		})
	}
}

func TestRiskGateRejectsWhenAssessorUnavailable(t *testing.T) {
	gate := NewRiskGate(DefaultRiskGateConfig(), gateAssessor{err: context.DeadlineExceeded}, testLogger())

	ok, reason := gate.Accepts(context.Background(), fixturePath())
	if ok {
		t.Fatal("Accepts = true with a failing assessor")
	}
	if reason != "risk assessment unavailable" {
		t.Errorf("reason = %q", reason)
	}
}

func TestRiskGatePropagatesAssessorRejection(t *testing.T) {
	assessor := gateAssessor{verdict: RiskVerdict{Passes: false, Score: 95, Reason: "recent losses on this cycle"}}
	gate := NewRiskGate(DefaultRiskGateConfig(), assessor, testLogger())

	ok, reason := gate.Accepts(context.Background(), fixturePath())
	if ok {
		t.Fatal("Accepts = true against a failing verdict")
	}
	if reason != "recent losses on this cycle" {
		t.Errorf("reason = %q", reason)
	}
}

func TestRiskGateDynamicProfitFloor(t *testing.T) {
	// The assessor tightens the floor above the path's 0.98% rate.
	assessor := gateAssessor{verdict: RiskVerdict{
		Passes:      true,
		ProfitFloor: fixedpoint.MustFromString("0.02"),
	}}
	gate := NewRiskGate(DefaultRiskGateConfig(), assessor, testLogger())

	ok, reason := gate.Accepts(context.Background(), fixturePath())
	if ok {
		t.Fatal("Accepts = true below the tightened floor")
	}
	if reason != "profit below dynamic floor" {
		t.Errorf("reason = %q", reason)
	}

	// A floor below the configured minimum does not loosen the gate.
	loose := gateAssessor{verdict: RiskVerdict{
		Passes:      true,
		ProfitFloor: fixedpoint.MustFromString("0.0000001"),
	}}
	gate = NewRiskGate(DefaultRiskGateConfig(), loose, testLogger())
	if ok, reason := gate.Accepts(context.Background(), fixturePath()); !ok {
		t.Fatalf("Accepts = false, reason %q", reason)
	}
}
