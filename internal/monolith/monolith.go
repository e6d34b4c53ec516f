// Package monolith composes bounded-context modules into one process.
package monolith

import (
	"context"
	"fmt"

	"github.com/ming198921/taoli5.1-sub000/internal/config"
	"github.com/ming198921/taoli5.1-sub000/internal/di"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// Monolith is what modules see of the hosting process during Startup.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Services() di.ServiceRegistry
}

// Module is one bounded context. RegisterServices wires constructors into
// the container; Startup runs once every module has registered, so modules
// may resolve services owned by earlier modules.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App hosts the shared container and the registered modules.
type App struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	container di.Container
	modules   []Module
}

// New builds an empty App with config and logger pre-registered so modules
// can resolve them by name.
func New(cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)

	return &App{
		cfg:       cfg,
		log:       log,
		container: container,
	}, nil
}

func (a *App) Config() *config.Config         { return a.cfg }
func (a *App) Logger() logger.LoggerInterface { return a.log }
func (a *App) Services() di.ServiceRegistry   { return a.container }

// Container exposes the mutable container for registration helpers.
func (a *App) Container() di.Container { return a.container }

// RegisterModules lets each module wire its services and remembers the
// module for Startup ordering.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts the given modules in order. Modules not passed here
// stay registered but dormant.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	if len(modules) == 0 {
		modules = a.modules
	}
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
		a.log.Debug(ctx, "module started", "module", fmt.Sprintf("%T", m))
	}
	return nil
}

// Close releases process-wide resources. Modules own their goroutines and
// stop on context cancellation, so there is nothing to unwind here yet.
func (a *App) Close() error {
	return nil
}
