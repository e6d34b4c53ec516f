// Package di contains dependency injection tokens for the triangular context.
package di

import (
	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra/paper"
	"github.com/ming198921/taoli5.1-sub000/internal/di"
)

// DI tokens for the triangular module.
const (
	FeeSource     = "triangular.FeeSource"
	DepthAnalyzer = "triangular.DepthAnalyzer"
	RiskAssessor  = "triangular.RiskAssessor"
	PaperVenue    = "triangular.PaperVenue"
	Venue         = "triangular.Venue"
	Calculator    = "triangular.Calculator"
	PathFinder    = "triangular.PathFinder"
	RiskGate      = "triangular.RiskGate"
	Coordinator   = "triangular.Coordinator"
	Engine        = "triangular.Engine"
	Registry      = "triangular.Registry"
	Reporter      = "triangular.Reporter"
)

// GetFeeSource resolves the exchange fee schedule source.
func GetFeeSource(sr di.ServiceRegistry) app.FeeSource {
	return di.GetToken[app.FeeSource](sr, FeeSource)
}

// GetDepthAnalyzer resolves the order book depth analyzer.
func GetDepthAnalyzer(sr di.ServiceRegistry) app.DepthAnalyzer {
	return di.GetToken[app.DepthAnalyzer](sr, DepthAnalyzer)
}

// GetRiskAssessor resolves the history-aware risk assessor.
func GetRiskAssessor(sr di.ServiceRegistry) app.RiskAssessor {
	return di.GetToken[app.RiskAssessor](sr, RiskAssessor)
}

// GetPaperVenue resolves the simulated venue (public - the detection loop
// feeds it fresh snapshots).
func GetPaperVenue(sr di.ServiceRegistry) *paper.Venue {
	return di.GetToken[*paper.Venue](sr, PaperVenue)
}

// GetVenue resolves the order execution venue.
func GetVenue(sr di.ServiceRegistry) app.Venue {
	return di.GetToken[app.Venue](sr, Venue)
}

// GetCalculator resolves the profitability calculator.
func GetCalculator(sr di.ServiceRegistry) *app.Calculator {
	return di.GetToken[*app.Calculator](sr, Calculator)
}

// GetPathFinder resolves the cycle discovery service.
func GetPathFinder(sr di.ServiceRegistry) *app.PathFinder {
	return di.GetToken[*app.PathFinder](sr, PathFinder)
}

// GetRiskGate resolves the pre-execution risk gate.
func GetRiskGate(sr di.ServiceRegistry) *app.RiskGate {
	return di.GetToken[*app.RiskGate](sr, RiskGate)
}

// GetCoordinator resolves the execution coordinator.
func GetCoordinator(sr di.ServiceRegistry) *app.Coordinator {
	return di.GetToken[*app.Coordinator](sr, Coordinator)
}

// GetEngine resolves the triangular strategy engine.
func GetEngine(sr di.ServiceRegistry) *app.Engine {
	return di.GetToken[*app.Engine](sr, Engine)
}

// GetRegistry resolves the strategy registry (public - consumed by the
// detection loop in cmd).
func GetRegistry(sr di.ServiceRegistry) *app.Registry {
	return di.GetToken[*app.Registry](sr, Registry)
}

// GetReporter resolves the active reporter.
func GetReporter(sr di.ServiceRegistry) app.Reporter {
	return di.GetToken[app.Reporter](sr, Reporter)
}
