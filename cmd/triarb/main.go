// Package main is the entry point for the triangular arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/ming198921/taoli5.1-sub000/business/market"
	marketDI "github.com/ming198921/taoli5.1-sub000/business/market/di"
	"github.com/ming198921/taoli5.1-sub000/business/triangular"
	triDI "github.com/ming198921/taoli5.1-sub000/business/triangular/di"
	"github.com/ming198921/taoli5.1-sub000/internal/apm"
	"github.com/ming198921/taoli5.1-sub000/internal/config"
	"github.com/ming198921/taoli5.1-sub000/internal/health"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"github.com/ming198921/taoli5.1-sub000/internal/metrics"
	"github.com/ming198921/taoli5.1-sub000/internal/monolith"
	"github.com/ming198921/taoli5.1-sub000/pkg/ui"
)

const healthPort = 8081

// Populated by the linker at release builds.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("triarb-engine %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger routes records to stderr in CLI mode and swallows them in TUI
// mode, where the alternate screen owns the terminal.
func newLogger(cfg *config.Config, tuiMode bool) *logger.Logger {
	level := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		level = logger.LevelDebug
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	}

	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	return logger.New(out, level, cfg.App.Name, nil)
}

// traceBackend maps the configured backend name onto an apm provider.
func traceBackend(name string) apm.Provider {
	switch name {
	case "otlp-grpc":
		return apm.OTLPGRPCProvider
	case "otlp-http":
		return apm.OTLPHTTPProvider
	case "console":
		return apm.ConsoleProvider
	case "zipkin", "":
		return apm.ZipkinProvider
	default:
		return apm.EmptyProvider
	}
}

// setupTelemetry wires tracing and metrics when enabled. The returned stop
// function flushes pending spans.
func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	if cfg.Telemetry.ServiceName != "" {
		os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	}
	if cfg.Telemetry.OTLPHeaders != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS", cfg.Telemetry.OTLPHeaders)
	}

	backend := traceBackend(cfg.Telemetry.TraceBackend)
	traceProvider := apm.NewTraceProvider(log, apm.WithProvider(backend, log))

	metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{
			Provider: metrics.PrometheusProvider,
		}),
	)

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
	log.Info(ctx, "telemetry initialized",
		"trace_backend", string(backend), "prometheus_port", port)

	return func() { _ = traceProvider.Stop() }
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Execution.TUIMode = tuiMode

	log := newLogger(cfg, tuiMode)
	if !tuiMode {
		log.Info(ctx, "starting triangular arbitrage engine",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	healthServer := health.NewServer(healthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", healthPort)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Market must register first so triangular can resolve its feed.
	modules := []monolith.Module{
		&market.Module{},
		&triangular.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	buildScheduler := func() *scheduler {
		sr := mono.Services()
		return newScheduler(schedulerDeps{
			cfg:      cfg,
			feed:     marketDI.GetFeedSource(sr),
			venue:    triDI.GetPaperVenue(sr),
			registry: triDI.GetRegistry(sr),
			engine:   triDI.GetEngine(sr),
			reporter: triDI.GetReporter(sr),
			log:      log,
			tuiMode:  tuiMode,
		})
	}

	startEngine := func() error {
		if err := mono.StartModules(ctx, modules...); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		return nil
	}

	if !tuiMode {
		if err := startEngine(); err != nil {
			return err
		}
		log.Info(ctx, "all modules started, beginning triangular detection")
		return buildScheduler().run(ctx)
	}

	// TUI mode defers module startup until the welcome screen completes so
	// the dashboard appears instantly.
	return runTUI(ctx, func() error {
		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		if err := startEngine(); err != nil {
			return err
		}
		ui.Send(ui.StartupMsg{Step: "fees", Status: "done"})
		return buildScheduler().run(ctx)
	})
}

// runTUI shows the dashboard immediately and drives the engine from a
// background goroutine once the welcome phase signals readiness.
func runTUI(ctx context.Context, startFunc func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}
		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
