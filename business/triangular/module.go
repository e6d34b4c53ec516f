// Package triangular implements the triangular arbitrage bounded context:
// path discovery, profitability evaluation, risk gating and atomic
// three-leg execution with compensating rollback.
package triangular

import (
	"context"

	marketDI "github.com/ming198921/taoli5.1-sub000/business/market/di"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	triDI "github.com/ming198921/taoli5.1-sub000/business/triangular/di"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra/depth"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra/fees"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra/paper"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/infra/risk"
	"github.com/ming198921/taoli5.1-sub000/internal/config"
	"github.com/ming198921/taoli5.1-sub000/internal/di"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"github.com/ming198921/taoli5.1-sub000/internal/monolith"
)

// Module implements the triangular bounded context.
type Module struct{}

// RegisterServices registers all triangular services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Fee schedule source
	di.RegisterToken(c, triDI.FeeSource, func(sr di.ServiceRegistry) app.FeeSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		feeCfg := fees.DefaultConfig()
		feeCfg.ScheduleURL = cfg.Fees.ScheduleURL
		if cfg.Fees.RefreshInterval > 0 {
			feeCfg.RefreshInterval = cfg.Fees.RefreshInterval
		}
		if cfg.Fees.DefaultMakerPct > 0 {
			feeCfg.DefaultMaker = fixedpoint.FromFloat(cfg.Fees.DefaultMakerPct / 100)
		}
		if cfg.Fees.DefaultTakerPct > 0 {
			feeCfg.DefaultTaker = fixedpoint.FromFloat(cfg.Fees.DefaultTakerPct / 100)
		}

		source, err := fees.NewSource(feeCfg, log)
		if err != nil {
			panic("failed to create fee source: " + err.Error())
		}
		return source
	})

	// Depth analyzer
	di.RegisterToken(c, triDI.DepthAnalyzer, func(sr di.ServiceRegistry) app.DepthAnalyzer {
		cfg := sr.Get("config").(*config.Config)

		depthCfg := depth.DefaultConfig()
		if cfg.Risk.MaxExpectedSlipPct > 0 {
			depthCfg.MaxSlippagePct = cfg.Risk.MaxExpectedSlipPct
		}
		return depth.NewAnalyzer(depthCfg)
	})

	// Risk assessor
	di.RegisterToken(c, triDI.RiskAssessor, func(sr di.ServiceRegistry) app.RiskAssessor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		riskCfg := risk.DefaultConfig()
		if cfg.Risk.MaxRiskScore > 0 {
			riskCfg.MaxRiskScore = cfg.Risk.MaxRiskScore
		}
		if cfg.Risk.MinProfitRate > 0 {
			riskCfg.BaseProfitFloor = fixedpoint.FromFloat(cfg.Risk.MinProfitRate)
		}
		if cfg.Risk.MinLiquidityUSD > 0 {
			riskCfg.LiquidityFloor = fixedpoint.FromFloat(cfg.Risk.MinLiquidityUSD)
		}
		return risk.NewAssessor(riskCfg, log)
	})

	// Simulated venue (public - the detection loop feeds it snapshots)
	di.RegisterToken(c, triDI.PaperVenue, func(sr di.ServiceRegistry) *paper.Venue {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		venueCfg := paper.DefaultConfig()
		if cfg.Fees.DefaultTakerPct > 0 {
			venueCfg.FeeRate = fixedpoint.FromFloat(cfg.Fees.DefaultTakerPct / 100)
		}
		if cfg.Execution.OrderRate > 0 {
			venueCfg.OrdersPerSecond = cfg.Execution.OrderRate
		}
		if cfg.Execution.OrderBurst > 0 {
			venueCfg.Burst = cfg.Execution.OrderBurst
		}
		if cfg.Execution.MaxBookAge > 0 {
			venueCfg.MaxBookAge = cfg.Execution.MaxBookAge
		}
		return paper.NewVenue(venueCfg, log)
	})

	// Active venue. Live connectivity is not wired yet, so both dry-run and
	// live configurations execute against the simulated venue.
	di.RegisterToken(c, triDI.Venue, func(sr di.ServiceRegistry) app.Venue {
		return triDI.GetPaperVenue(sr)
	})

	// Profitability calculator
	di.RegisterToken(c, triDI.Calculator, func(sr di.ServiceRegistry) *app.Calculator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		calcCfg := app.DefaultCalculatorConfig()
		if cfg.Detection.StartNotional > 0 {
			calcCfg.StartNotional = fixedpoint.FromFloat(cfg.Detection.StartNotional)
		}
		if cfg.Fees.DefaultTakerPct > 0 {
			calcCfg.DefaultTaker = fixedpoint.FromFloat(cfg.Fees.DefaultTakerPct / 100)
		}
		if cfg.Detection.DefaultSlippagePct > 0 {
			calcCfg.DefaultSlippagePct = cfg.Detection.DefaultSlippagePct
		}
		if cfg.Detection.DefaultQuantityRatio > 0 {
			calcCfg.DefaultQuantityRatio = cfg.Detection.DefaultQuantityRatio
		}

		return app.NewCalculator(calcCfg, triDI.GetFeeSource(sr), triDI.GetDepthAnalyzer(sr), log)
	})

	// Path finder
	di.RegisterToken(c, triDI.PathFinder, func(sr di.ServiceRegistry) *app.PathFinder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		finderCfg := app.DefaultPathFinderConfig()
		if cfg.Detection.MaxPaths > 0 {
			finderCfg.MaxPaths = cfg.Detection.MaxPaths
		}
		if cfg.Detection.MinProfitRate > 0 {
			finderCfg.MinProfitRate = cfg.Detection.MinProfitRate
		}

		return app.NewPathFinder(finderCfg, triDI.GetCalculator(sr), log)
	})

	// Risk gate
	di.RegisterToken(c, triDI.RiskGate, func(sr di.ServiceRegistry) *app.RiskGate {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		gateCfg := app.DefaultRiskGateConfig()
		if cfg.Risk.MinProfitRate > 0 {
			gateCfg.MinProfitRate = fixedpoint.FromFloat(cfg.Risk.MinProfitRate)
		}
		if cfg.Risk.MinLiquidityUSD > 0 {
			gateCfg.MinLiquidityUSD = fixedpoint.FromFloat(cfg.Risk.MinLiquidityUSD)
		}
		if cfg.Risk.MaxRiskScore > 0 {
			gateCfg.MaxRiskScore = cfg.Risk.MaxRiskScore
		}

		return app.NewRiskGate(gateCfg, triDI.GetRiskAssessor(sr), log)
	})

	// Execution coordinator
	di.RegisterToken(c, triDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		coordCfg := app.DefaultCoordinatorConfig()
		if cfg.Execution.LegTimeout > 0 {
			coordCfg.LegTimeout = cfg.Execution.LegTimeout
		}
		if cfg.Execution.InterLegDelay > 0 {
			coordCfg.InterLegDelay = cfg.Execution.InterLegDelay
		}
		if cfg.Execution.CautiousDelay > 0 {
			coordCfg.CautiousDelay = cfg.Execution.CautiousDelay
		}
		if cfg.Execution.MaxBookAge > 0 {
			coordCfg.MaxBookAge = cfg.Execution.MaxBookAge
		}

		return app.NewCoordinator(coordCfg, triDI.GetVenue(sr), triDI.GetDepthAnalyzer(sr), triDI.GetRiskAssessor(sr), log)
	})

	// Strategy engine
	di.RegisterToken(c, triDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		engineCfg := app.DefaultEngineConfig()
		engineCfg.Exchange = cfg.Feed.Exchange
		if cfg.Detection.Timeout > 0 {
			engineCfg.Timeout = cfg.Detection.Timeout
		}
		if cfg.Detection.MaxSpreadRatio > 0 {
			engineCfg.Graph.MaxSpreadRatio = cfg.Detection.MaxSpreadRatio
		}
		if cfg.Detection.MinPairLiquidityUSD > 0 {
			engineCfg.Graph.MinPairLiquidityUSD = cfg.Detection.MinPairLiquidityUSD
		}

		engine, err := app.NewEngine(
			engineCfg,
			marketDI.GetResolver(sr),
			marketDI.GetFrequencies(sr),
			triDI.GetPathFinder(sr),
			triDI.GetRiskGate(sr),
			triDI.GetCoordinator(sr),
			triDI.GetRiskAssessor(sr),
			log,
		)
		if err != nil {
			panic("failed to create triangular engine: " + err.Error())
		}
		return engine
	})

	// Strategy registry (public - consumed by the detection loop)
	di.RegisterToken(c, triDI.Registry, func(sr di.ServiceRegistry) *app.Registry {
		return app.NewRegistry()
	})

	// Reporter
	di.RegisterToken(c, triDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Execution.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	return nil
}

// Startup wires the engine into the registry and starts the reporter.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	registry := triDI.GetRegistry(sr)
	engine := triDI.GetEngine(sr)
	if err := registry.Register(engine); err != nil {
		return err
	}

	reporter := triDI.GetReporter(sr)
	if err := reporter.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "triangular module started", "strategies", registry.List())
	return nil
}
