// Package market implements the market bounded context: symbol resolution,
// relationship graphs and the live snapshot feed.
package market

import (
	"context"
	"time"

	"github.com/ming198921/taoli5.1-sub000/business/market/app"
	marketDI "github.com/ming198921/taoli5.1-sub000/business/market/di"
	"github.com/ming198921/taoli5.1-sub000/business/market/infra/feed"
	"github.com/ming198921/taoli5.1-sub000/internal/config"
	"github.com/ming198921/taoli5.1-sub000/internal/di"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"github.com/ming198921/taoli5.1-sub000/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Quote-frequency table (public - shared with graph construction)
	di.RegisterToken(c, marketDI.Frequencies, func(sr di.ServiceRegistry) *app.QuoteFrequencies {
		return app.NewQuoteFrequencies()
	})

	// Symbol resolver (public - consumed by the triangular context)
	di.RegisterToken(c, marketDI.Resolver, func(sr di.ServiceRegistry) *app.SymbolResolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		resolverCfg := app.DefaultResolverConfig()
		resolverCfg.MinConfidence = cfg.Detection.MinConfidence

		return app.NewSymbolResolver(resolverCfg, marketDI.GetFrequencies(sr), log)
	})

	// Feed source (public - drives the detection loop)
	di.RegisterToken(c, marketDI.FeedSource, func(sr di.ServiceRegistry) *feed.Source {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		source, err := feed.NewSource(feed.Config{
			Exchange:         cfg.Feed.Exchange,
			WebSocketURL:     cfg.Feed.WebSocketURL,
			Symbols:          cfg.Feed.Symbols,
			SnapshotInterval: cfg.Feed.SnapshotInterval,
			StaleTimeout:     cfg.Feed.StaleTimeout,
		}, log)
		if err != nil {
			panic("failed to create feed source: " + err.Error())
		}
		return source
	})

	return nil
}

// Startup initializes the market module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Connect the feed (don't fail startup if the exchange is unreachable -
	// the connection retries in the background)
	source := marketDI.GetFeedSource(mono.Services())

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := source.Connect(connectCtx); err != nil {
		log.Warn(ctx, "feed connection failed, will retry in background", "error", err)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
					if err := source.Connect(ctx); err != nil {
						log.Warn(ctx, "feed retry failed", "error", err)
					} else {
						log.Info(ctx, "feed connected successfully")
						return
					}
				}
			}
		}()
	}

	log.Info(ctx, "market module started")
	return nil
}
